package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitRecords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want [][]string
	}{
		{
			name: "plain rows with trailing newline",
			in:   "a,b\nc,d\n",
			want: [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name: "crlf and lone cr",
			in:   "a,b\r\nc,d\re,f",
			want: [][]string{{"a", "b"}, {"c", "d"}, {"e", "f"}},
		},
		{
			name: "quoted comma and doubled quote",
			in:   `"Silva, Carlos","He said ""hi""",x`,
			want: [][]string{{"Silva, Carlos", `He said "hi"`, "x"}},
		},
		{
			name: "newline inside quotes",
			in:   "\"line1\nline2\",b\n",
			want: [][]string{{"line1\nline2", "b"}},
		},
		{
			name: "fields trimmed",
			in:   "  a  ,\tb \n",
			want: [][]string{{"a", "b"}},
		},
		{
			name: "trailing comma keeps empty field",
			in:   "a,",
			want: [][]string{{"a", ""}},
		},
		{
			name: "empty input",
			in:   "",
			want: nil,
		},
		{
			name: "blank line becomes single empty field",
			in:   "a\n\nb",
			want: [][]string{{"a"}, {""}, {"b"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SplitRecords(tc.in))
		})
	}
}
