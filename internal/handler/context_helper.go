package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bm-aniversariantes-api/internal/dto"
	appErrors "github.com/noah-isme/bm-aniversariantes-api/pkg/errors"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/response"
)

// bindBirthdayQuery reads date, month, search and units from the query string.
// Units may repeat or come comma separated.
func bindBirthdayQuery(c *gin.Context) (dto.BirthdayQuery, bool) {
	var query dto.BirthdayQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return query, false
	}
	query.Date = strings.TrimSpace(query.Date)
	query.Search = strings.TrimSpace(query.Search)
	query.Units = splitUnits(query.Units)
	return query, true
}

func splitUnits(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	units := make([]string, 0, len(raw))
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				units = append(units, trimmed)
			}
		}
	}
	return units
}
