package volunteer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNames(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Thierry et Christelle", []string{"Thierry", "Christelle"}},
		{"A, B & C", []string{"A", "B", "C"}},
		{"Paul+Marie;Jean", []string{"Paul", "Marie", "Jean"}},
		{"Pierre ET Paul", []string{"Pierre", "Paul"}},
		{"Antoinette", []string{"Antoinette"}},
		{" , ;", []string{}},
		{"", nil},
		{"Léa, Léa", []string{"Léa"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseNames(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.ElementsMatch(t, tt.want, got)
			assert.Equal(t, len(tt.want), len(got))
		})
	}
}
