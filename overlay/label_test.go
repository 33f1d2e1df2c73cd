package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryLabel(t *testing.T) {
	tests := map[string]string{
		"traffic light": "Traffic_Light",
		"dog":           "Dog",
		"cell phone":    "Cell_Phone",
		"tv":            "Tv",
		"Person":        "Person",
		"":              "",
		"t-shirt":       "T-shirt",
		"3d printer":    "3d_Printer",
		"hot  dog":      "Hot__Dog",
		"éclair":        "Éclair",
		"tv remote":     "Tv_Remote",
	}
	for in, want := range tests {
		assert.Equal(t, want, CategoryLabel(in), "CategoryLabel(%q)", in)
	}
}

func TestScorePercent(t *testing.T) {
	assert.Equal(t, 87, ScorePercent(0.87))
	assert.Equal(t, 50, ScorePercent(0.495))
	assert.Equal(t, 0, ScorePercent(0))
	assert.Equal(t, 100, ScorePercent(1))
	assert.Equal(t, "Dog 87%", LabelText("Dog", 87))
}
