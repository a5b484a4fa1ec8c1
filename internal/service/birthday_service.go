package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bm-aniversariantes-api/internal/dto"
	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
	appErrors "github.com/noah-isme/bm-aniversariantes-api/pkg/errors"
)

const isoDateLayout = "2006-01-02"

type rosterReader interface {
	Current(ctx context.Context) *RosterSnapshot
}

// BirthdayService answers the date, week and month questions of the dashboard.
type BirthdayService struct {
	roster   rosterReader
	cache    *CacheService
	cacheTTL time.Duration
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// BirthdayServiceParams groups constructor dependencies.
type BirthdayServiceParams struct {
	Roster   rosterReader
	Cache    *CacheService
	CacheTTL time.Duration
	Location *time.Location
	Logger   *zap.Logger
}

// NewBirthdayService constructs a BirthdayService.
func NewBirthdayService(params BirthdayServiceParams) *BirthdayService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := params.Location
	if loc == nil {
		loc = time.Local
	}
	return &BirthdayService{
		roster:   params.Roster,
		cache:    params.Cache,
		cacheTTL: params.CacheTTL,
		location: loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Today returns everyone whose birthday is today.
func (s *BirthdayService) Today(ctx context.Context) dto.BirthdayList {
	today := s.today()
	return dayList(ByExactDate(s.roster.Current(ctx).Records, today), today)
}

// OnDate returns everyone whose birthday falls on the given YYYY-MM-DD date.
func (s *BirthdayService) OnDate(ctx context.Context, date string) (dto.BirthdayList, error) {
	day, err := s.parseDate(date)
	if err != nil {
		return dto.BirthdayList{}, err
	}
	return dayList(ByExactDate(s.roster.Current(ctx).Records, day), day), nil
}

// Week returns the birthdays of the Sunday-to-Saturday week holding query.Date,
// narrowed by the query's name and unit filters.
func (s *BirthdayService) Week(ctx context.Context, query dto.BirthdayQuery) (dto.BirthdayList, error) {
	ref, err := s.parseDate(query.Date)
	if err != nil {
		return dto.BirthdayList{}, err
	}
	return weekList(s.roster.Current(ctx).Records, ref, query.Criteria()), nil
}

// Month returns the birthdays of a zero-based month (defaulting to the current
// one), narrowed by the query's name and unit filters.
func (s *BirthdayService) Month(ctx context.Context, query dto.BirthdayQuery) (dto.BirthdayList, error) {
	monthIndex, err := s.monthIndex(query)
	if err != nil {
		return dto.BirthdayList{}, err
	}
	return monthList(s.roster.Current(ctx).Records, monthIndex, query.Criteria()), nil
}

// Roster lists the personnel of the roster screen: the month filter applies
// only when a month is given.
func (s *BirthdayService) Roster(ctx context.Context, query dto.BirthdayQuery) (dto.BirthdayList, error) {
	records := s.roster.Current(ctx).Records
	if query.Month == nil {
		people := ApplyCriteria(records, query.Criteria())
		return dto.BirthdayList{Count: len(people), Personnel: people}, nil
	}
	monthIndex, err := s.monthIndex(query)
	if err != nil {
		return dto.BirthdayList{}, err
	}
	return monthList(records, monthIndex, query.Criteria()), nil
}

// Dashboard assembles today's, the selected day's, the filtered week and the
// filtered month lists. It reports whether the payload came from cache.
func (s *BirthdayService) Dashboard(ctx context.Context, query dto.BirthdayQuery) (*dto.DashboardResponse, bool, error) {
	selected, err := s.parseDate(query.Date)
	if err != nil {
		return nil, false, err
	}
	monthIndex := int(selected.Month()) - 1
	if query.Month != nil {
		if monthIndex, err = s.monthIndex(query); err != nil {
			return nil, false, err
		}
	}

	snapshot := s.roster.Current(ctx)
	today := s.today()
	key := dashboardCacheKey(snapshot.Version, today, selected, monthIndex, query.Criteria())

	var cached dto.DashboardResponse
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	criteria := query.Criteria()
	resp := &dto.DashboardResponse{
		Today:         today.Format(isoDateLayout),
		SelectedDate:  selected.Format(isoDateLayout),
		TodayList:     dayList(ByExactDate(snapshot.Records, today), today),
		SelectedList:  dayList(ByExactDate(snapshot.Records, selected), selected),
		Week:          weekList(snapshot.Records, selected, criteria),
		Month:         monthList(snapshot.Records, monthIndex, criteria),
		CalendarDays:  calendarDays(snapshot.Records, selected),
		Sample:        snapshot.Sample,
		RosterVersion: snapshot.Version,
		GeneratedAt:   s.now().UTC(),
	}

	if err := s.cache.Set(ctx, key, resp, s.cacheTTL); err != nil {
		s.logger.Debug("dashboard cache write skipped", zap.Error(err))
	}
	return resp, false, nil
}

func (s *BirthdayService) today() time.Time {
	y, m, d := s.now().In(s.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.location)
}

// parseDate reads YYYY-MM-DD in the service location; blank means today.
func (s *BirthdayService) parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.today(), nil
	}
	day, err := time.ParseInLocation(isoDateLayout, raw, s.location)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must use the YYYY-MM-DD format")
	}
	return day, nil
}

func (s *BirthdayService) monthIndex(query dto.BirthdayQuery) (int, error) {
	if query.Month == nil {
		return int(s.today().Month()) - 1, nil
	}
	if *query.Month < 0 || *query.Month > 11 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "month must be between 0 (January) and 11 (December)")
	}
	return *query.Month, nil
}

func dayList(people []models.Personnel, day time.Time) dto.BirthdayList {
	iso := day.Format(isoDateLayout)
	return dto.BirthdayList{From: iso, To: iso, Count: len(people), Personnel: people}
}

func weekList(records []models.Personnel, ref time.Time, criteria models.FilterCriteria) dto.BirthdayList {
	start, end := WeekBounds(ref)
	people := ApplyCriteria(ByWeek(records, ref), criteria)
	return dto.BirthdayList{
		From:      start.Format(isoDateLayout),
		To:        end.Format(isoDateLayout),
		Count:     len(people),
		Personnel: people,
	}
}

func monthList(records []models.Personnel, monthIndex int, criteria models.FilterCriteria) dto.BirthdayList {
	people := ApplyCriteria(ByMonth(records, monthIndex), criteria)
	month := monthIndex
	return dto.BirthdayList{Month: &month, Count: len(people), Personnel: people}
}

// calendarDays lists the days of ref's month that have at least one birthday.
func calendarDays(records []models.Personnel, ref time.Time) []int {
	days := make([]int, 0)
	y, m, _ := ref.Date()
	last := time.Date(y, m+1, 0, 0, 0, 0, 0, ref.Location()).Day()
	for d := 1; d <= last; d++ {
		if len(ByExactDate(records, time.Date(y, m, d, 0, 0, 0, 0, ref.Location()))) > 0 {
			days = append(days, d)
		}
	}
	return days
}

// dashboardCacheKey hashes the filter criteria so free-text search and unit
// names cannot collide through the key separators.
func dashboardCacheKey(version string, today, selected time.Time, monthIndex int, criteria models.FilterCriteria) string {
	units := append([]string(nil), criteria.Units...)
	sort.Strings(units)
	h := sha256.New()
	h.Write([]byte(strings.ToLower(criteria.Search)))
	for _, u := range units {
		h.Write([]byte{0})
		h.Write([]byte(u))
	}
	return fmt.Sprintf(BirthdayCachePrefix+"dashboard:%s:%s:%s:%d:%s",
		version,
		today.Format(isoDateLayout),
		selected.Format(isoDateLayout),
		monthIndex,
		hex.EncodeToString(h.Sum(nil))[:16],
	)
}
