package overlay

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CategoryLabel turns a raw detector class name into its display name: every
// space separated word gets an upper case first letter and words are joined
// with underscores ("traffic light" becomes "Traffic_Light"). Only the first
// letter changes, "t-shirt" stays "T-shirt". The same name is used for label
// text, color and category set membership.
func CategoryLabel(name string) string {
	// A Caser keeps state between calls, so each label gets its own.
	upper := cases.Upper(language.Und)
	words := strings.Split(name, " ")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 || r == utf8.RuneError {
			continue
		}
		words[i] = upper.String(string(r)) + w[size:]
	}
	return strings.Join(words, "_")
}

// ScorePercent converts a score in [0, 1] to a whole percentage, rounding half up.
func ScorePercent(score float64) int {
	return int(math.Floor(score*100 + 0.5))
}

// LabelText returns the text shown next to a highlight box.
func LabelText(category string, scorePercent int) string {
	return fmt.Sprintf("%s %d%%", category, scorePercent)
}
