package roster

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeHeader upper-cases a header cell, strips diacritics and quote
// characters, and trims surrounding space. "Data de Nascimento" becomes
// "DATA DE NASCIMENTO" and "Lotação" becomes "LOTACAO".
func NormalizeHeader(h string) string {
	if h == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToUpper(h))
	if err != nil {
		folded = strings.ToUpper(h)
	}
	return strings.TrimSpace(strings.ReplaceAll(folded, `"`, ""))
}
