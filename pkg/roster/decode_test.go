package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		in       []byte
		want     string
		encoding string
	}{
		{name: "empty", in: nil, want: "", encoding: "utf-8"},
		{name: "utf8", in: []byte("Lotação"), want: "Lotação", encoding: "utf-8"},
		{name: "utf8 bom", in: append([]byte{0xEF, 0xBB, 0xBF}, []byte("NOME")...), want: "NOME", encoding: "utf-8-bom"},
		{name: "utf16le bom", in: []byte{0xFF, 0xFE, 'N', 0, 'O', 0}, want: "NO", encoding: "utf-16le"},
		{name: "utf16be bom", in: []byte{0xFE, 0xFF, 0, 'N', 0, 'O'}, want: "NO", encoding: "utf-16be"},
		{name: "windows-1252", in: []byte{'L', 'o', 't', 'a', 0xE7, 0xE3, 'o'}, want: "Lotação", encoding: "windows-1252"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, enc, err := Decode(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.encoding, enc)
		})
	}
}
