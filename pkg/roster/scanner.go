package roster

import "strings"

// SplitRecords splits comma-separated text into rows of trimmed fields.
//
// A double quote toggles quoted mode; inside quotes a doubled quote yields one
// literal quote. Commas and newlines inside quotes are literal. CRLF and lone CR
// are treated as LF. A trailing partial row is kept when it has any content.
func SplitRecords(text string) [][]string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var (
		rows    [][]string
		row     []string
		cell    strings.Builder
		inQuote bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"':
			if inQuote && i+1 < len(text) && text[i+1] == '"' {
				cell.WriteByte('"')
				i++
				continue
			}
			inQuote = !inQuote
		case c == ',' && !inQuote:
			row = append(row, strings.TrimSpace(cell.String()))
			cell.Reset()
		case c == '\n' && !inQuote:
			row = append(row, strings.TrimSpace(cell.String()))
			rows = append(rows, row)
			row = nil
			cell.Reset()
		default:
			cell.WriteByte(c)
		}
	}

	if cell.Len() > 0 || len(row) > 0 {
		row = append(row, strings.TrimSpace(cell.String()))
		rows = append(rows, row)
	}

	return rows
}
