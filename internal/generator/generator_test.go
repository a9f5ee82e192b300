package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	t.Run("Should embed all three inputs", func(t *testing.T) {
		prompt := BuildPrompt(Input{
			GoalName:        "Run a marathon",
			TargetDate:      "2026-10-01",
			ProgressDetails: "Up to 15km on long runs",
		})

		assert.Contains(t, prompt, "Goal: Run a marathon")
		assert.Contains(t, prompt, "Target Date: 2026-10-01")
		assert.Contains(t, prompt, "Progress: Up to 15km on long runs")
		assert.Contains(t, prompt, "under 100 words")
	})

	t.Run("Should be deterministic for identical input", func(t *testing.T) {
		in := Input{GoalName: "Read 20 books", TargetDate: "Not set", ProgressDetails: "No details"}
		assert.Equal(t, BuildPrompt(in), BuildPrompt(in))
	})
}
