// Package schedule derives the per-user read models from games and the
// registration index.
package schedule

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/nickdesi/scba-benevolat/internal/models"
)

var timeSeparator = regexp.MustCompile(`(?i)[h:]`)

// NormalizeTime turns a kick-off time such as "9h00" or "14:30" into a
// comparable "0900" or "1430".
func NormalizeTime(t string) string {
	if t == "" {
		return "0000"
	}
	parts := timeSeparator.Split(t, -1)
	if len(parts) < 2 {
		return leftPad(t, 4)
	}
	return leftPad(parts[0], 2) + leftPad(parts[1], 2)
}

func leftPad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}

// SortGames returns a copy of games ordered by date then kick-off time.
func SortGames(games []models.Game) []models.Game {
	out := slices.Clone(games)
	slices.SortStableFunc(out, func(a, b models.Game) int {
		if c := cmp.Compare(a.DateISO, b.DateISO); c != 0 {
			return c
		}
		return cmp.Compare(NormalizeTime(a.Time), NormalizeTime(b.Time))
	})
	return out
}
