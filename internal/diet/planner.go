/*
Package diet assembles one-day and seven-day diet plans: it samples a food for
every meal category, asks the text generation service for a rationale and
totals the calories.
*/
package diet

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"DietPlanner/internal/foods"

	"github.com/rs/zerolog"
)

// DaysPerWeek is the length of a weekly plan.
const DaysPerWeek = 7

// Plan kinds, used for history and metrics labels.
const (
	KindDaily  = "1day"
	KindWeekly = "7day"
)

// MealSampler picks one food for a category.
type MealSampler interface {
	Sample(category foods.Category, conditions []string, excluded []string) (foods.FoodItem, error)
}

// PlanRequest is a validated plan request.
type PlanRequest struct {
	Age              int
	Gender           string
	HealthConditions []string
}

// ParseRequest validates raw form input. Age is checked before conditions.
func ParseRequest(age, gender, healthConditions string) (PlanRequest, error) {
	// The explainer prompt takes a positive age, so 0 and below are refused here.
	n, err := strconv.Atoi(strings.TrimSpace(age))
	if err != nil || n < 1 {
		return PlanRequest{}, &InvalidInputError{Field: "age", Value: age}
	}

	conditions := SplitConditions(healthConditions)
	if len(conditions) == 0 {
		return PlanRequest{}, ErrMissingHealthConditions
	}

	return PlanRequest{Age: n, Gender: strings.TrimSpace(gender), HealthConditions: conditions}, nil
}

// SplitConditions splits on commas, trims, and drops empty entries.
func SplitConditions(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Planner assembles plans. Meals and days are generated sequentially so the
// output order always matches generation order.
type Planner struct {
	sampler   MealSampler
	explainer *Explainer
	rec       Recorder
}

func NewPlanner(sampler MealSampler, explainer *Explainer, rec Recorder) *Planner {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Planner{sampler: sampler, explainer: explainer, rec: rec}
}

// AssembleDay builds a single day with its own exclusion list.
func (p *Planner) AssembleDay(ctx context.Context, req PlanRequest) (DailyPlan, error) {
	var used UsedFoods
	day, err := p.assembleDay(ctx, req, &used)
	if err != nil {
		return DailyPlan{}, err
	}

	p.rec.PlanGenerated(KindDaily)
	zerolog.Ctx(ctx).Info().Float64("total_calories", day.TotalCalories).Msg("Assembled 1-day plan")
	return day, nil
}

// AssembleWeek builds seven days that share one exclusion list, so a food
// picked on Day 1 is avoided for the rest of the week unless the filter
// has to fall back.
func (p *Planner) AssembleWeek(ctx context.Context, req PlanRequest) (WeeklyPlan, error) {
	var used UsedFoods
	week := make(WeeklyPlan, 0, DaysPerWeek)

	for d := 1; d <= DaysPerWeek; d++ {
		day, err := p.assembleDay(ctx, req, &used)
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", d, err)
		}
		day.Day = fmt.Sprintf("Day %d", d)
		week = append(week, day)
	}

	p.rec.PlanGenerated(KindWeekly)
	zerolog.Ctx(ctx).Info().Int("distinct_foods", distinct(used.Names())).Msg("Assembled 7-day plan")
	return week, nil
}

func (p *Planner) assembleDay(ctx context.Context, req PlanRequest, used *UsedFoods) (DailyPlan, error) {
	day := DailyPlan{
		Meals:        make(MealSlots, 0, len(foods.MealOrder)),
		Explanations: make([]string, 0, len(foods.MealOrder)),
		Records:      make([]MealRecord, 0, len(foods.MealOrder)),
	}

	for _, category := range foods.MealOrder {
		meal, err := p.GenerateMeal(ctx, category, req, used.Names())
		if err != nil {
			return DailyPlan{}, err
		}
		used.Add(meal.FoodItem)

		day.Meals = append(day.Meals, MealSlot{Category: category, Summary: meal.Summary()})
		day.TotalCalories += meal.Calories
		day.Explanations = append(day.Explanations, meal.Explanation)
		day.Records = append(day.Records, meal)
	}

	return day, nil
}

// GenerateMeal samples a food for category, avoiding excluded names where
// possible, and attaches its explanation.
func (p *Planner) GenerateMeal(ctx context.Context, category foods.Category, req PlanRequest, excluded []string) (MealRecord, error) {
	item, err := p.sampler.Sample(category, req.HealthConditions, excluded)
	if err != nil {
		return MealRecord{}, err
	}

	explanation := p.explainer.Explain(ctx, ExplainInput{
		FoodItem:         item.Name,
		Category:         category,
		Age:              req.Age,
		Gender:           req.Gender,
		HealthConditions: req.HealthConditions,
	})
	return newMealRecord(item, explanation), nil
}

func distinct(names []string) int {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		seen[n] = struct{}{}
	}
	return len(seen)
}
