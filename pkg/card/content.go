package card

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
)

// Signature identifies who signs the card and where it is issued.
type Signature struct {
	CommanderName string
	CommanderRank string
	UnitName      string
	City          string
	Corporation   string
}

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// MonthName returns the Portuguese month name in lower case.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// LongDate formats t as "16 de outubro de 2026".
func LongDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), MonthName(t.Month()), t.Year())
}

// ComposeIndividual words a card addressed to one person.
func ComposeIndividual(p models.Personnel, sig Signature, on time.Time) models.CardContent {
	content := compose(models.CardKindIndividual, sig, on)
	content.Greeting = "Prezado(a)"
	content.Honorees = []string{fullName(p)}
	return content
}

// ComposeCollective words a card addressed to a group, one line per person with
// the birthday as dd/mm.
func ComposeCollective(people []models.Personnel, sig Signature, on time.Time) models.CardContent {
	content := compose(models.CardKindCollective, sig, on)
	content.Greeting = "Prezados (as),"
	content.Honorees = make([]string, 0, len(people))
	for _, p := range people {
		content.Honorees = append(content.Honorees, fullName(p)+" – "+p.DayMonth())
	}
	return content
}

func compose(kind models.CardKind, sig Signature, on time.Time) models.CardContent {
	congratulate, wish := "parabenizam-no", "desejando-lhe"
	if kind == models.CardKindCollective {
		congratulate, wish = "parabenizam-nos", "desejando-lhes"
	}

	return models.CardContent{
		Kind:  kind,
		Title: []string{"FELIZ", "ANIVERSÁRIO"},
		Paragraphs: []string{
			fmt.Sprintf("O Comandante da %s, os Oficiais e as Praças %s pela passagem de seu aniversário, %s os mais sinceros votos de paz, saúde, felicidades e sucesso.",
				sig.UnitName, congratulate, wish),
			"Que esta data se repita por muitos anos, repleta de conquistas e realizações, tanto na vida pessoal quanto na profissional.",
		},
		Closing:     fmt.Sprintf("São os votos do %s.", sig.Corporation),
		PlaceDate:   fmt.Sprintf("%s, %s.", sig.City, LongDate(on)),
		SignerName:  fmt.Sprintf("%s, %s", sig.CommanderName, sig.CommanderRank),
		SignerTitle: "Comandante da " + sig.UnitName,
	}
}

func fullName(p models.Personnel) string {
	return strings.TrimSpace(p.Rank + " " + p.Name)
}

// IndividualFilename is the download name of a single card, e.g. cartao_Ana_Souza.jpg.
func IndividualFilename(p models.Personnel, ext string) string {
	return "cartao_" + strings.Join(strings.Fields(p.Name), "_") + "." + ext
}

// WeekFilename is the download name of a weekly card, e.g. aniversariantes_semana_16-10-2026.jpg.
func WeekFilename(ref time.Time, ext string) string {
	return "aniversariantes_semana_" + ref.Format("02-01-2006") + "." + ext
}

// MonthFilename is the download name of a monthly card, e.g. aniversariantes_mes_outubro.jpg.
func MonthFilename(m time.Month, ext string) string {
	return "aniversariantes_mes_" + MonthName(m) + "." + ext
}
