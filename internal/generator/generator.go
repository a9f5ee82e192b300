package generator

import (
	"context"
	"fmt"
)

// Input carries the goal attributes embedded in the prompt. Callers are
// responsible for substituting defaults for absent fields.
type Input struct {
	GoalName        string
	TargetDate      string
	ProgressDetails string
}

// Generator produces a short motivational message for a goal. Implementations
// make exactly one attempt per call; retry policy belongs to the caller.
type Generator interface {
	Generate(ctx context.Context, in Input) (string, error)
}

// GenerationError wraps any failure of the text-generation call: transport
// errors, quota rejections, malformed or empty responses.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("message generation failed: %v", e.Cause)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// BuildPrompt renders the fixed prompt template. The wording guides the model
// toward short output but nothing enforces a length cap on the response.
func BuildPrompt(in Input) string {
	return fmt.Sprintf(`Generate a short, personalized motivational message for this goal:

Goal: %s
Target Date: %s
Progress: %s

Keep the message encouraging and under 100 words.`,
		in.GoalName, in.TargetDate, in.ProgressDetails)
}
