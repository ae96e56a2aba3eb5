package volunteer

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

var nameSeparators = regexp.MustCompile(`(?i)\s+et\s+|[&+,;]`)

// ParseNames splits free text such as "Thierry et Christelle" or "A, B & C"
// into the individual names.
func ParseNames(input string) []string {
	if input == "" {
		return nil
	}
	return CleanNames(nameSeparators.Split(input, -1))
}

// CleanNames trims names, drops blanks and exact duplicates, keeping order.
// SignUp applies it to its input.
func CleanNames(names []string) []string {
	trimmed := lo.FilterMap(names, func(n string, _ int) (string, bool) {
		n = strings.TrimSpace(n)
		return n, n != ""
	})
	return lo.Uniq(trimmed)
}
