package diet

import (
	"context"
	"fmt"
	"strings"

	"DietPlanner/internal/foods"
	"DietPlanner/internal/textgen"

	"github.com/rs/zerolog"
)

// DefaultTemperature is the sampling temperature for explanations and chat.
const DefaultTemperature = 0.7

// ExplainInput is everything the rationale prompt is built from.
type ExplainInput struct {
	FoodItem         string
	Category         foods.Category
	Age              int
	Gender           string
	HealthConditions []string
}

// Recorder receives plan generation events. *telemetry.Metrics satisfies it.
type Recorder interface {
	PlanGenerated(kind string)
	ExplanationFallback()
}

type nopRecorder struct{}

func (nopRecorder) PlanGenerated(string) {}
func (nopRecorder) ExplanationFallback() {}

// Explainer asks the text generation service why a meal suits the user.
type Explainer struct {
	gen         textgen.Generator
	model       string
	temperature float64
	rec         Recorder
}

func NewExplainer(gen textgen.Generator, model string, temperature float64, rec Recorder) *Explainer {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Explainer{gen: gen, model: model, temperature: temperature, rec: rec}
}

// BuildExplanationPrompt renders the prompt for one meal.
func BuildExplanationPrompt(in ExplainInput) string {
	return fmt.Sprintf(ExplanationPromptTemplate,
		in.FoodItem,
		in.Category,
		in.Age,
		in.Gender,
		strings.Join(in.HealthConditions, ", "),
	)
}

// Explain never fails: any service error is turned into the visible
// placeholder so the surrounding plan still succeeds.
func (e *Explainer) Explain(ctx context.Context, in ExplainInput) string {
	text, err := e.gen.Generate(ctx, textgen.Request{
		Model:       e.model,
		Temperature: e.temperature,
		Messages: []textgen.Message{
			{Role: textgen.RoleUser, Content: BuildExplanationPrompt(in)},
		},
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("food_item", in.FoodItem).Msg("Explanation generation failed, using placeholder")
		e.rec.ExplanationFallback()
		return fmt.Sprintf(ExplanationUnavailable, err)
	}
	return strings.TrimSpace(text)
}
