package diet

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"DietPlanner/internal/foods"
	"DietPlanner/internal/textgen"
	"DietPlanner/internal/textgen/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type firstPicker struct{}

func (firstPicker) IntN(int) int { return 0 }

func testTable() *foods.Table {
	return foods.NewTable([]foods.FoodItem{
		{Name: "Oats Upma", Category: foods.Breakfast, Carbs: 40, Protein: 8, Fat: 5, Calories: 250, Suitability: "Diabetes, Heart Health"},
		{Name: "Poha", Category: foods.Breakfast, Carbs: 45, Protein: 5, Fat: 4, Calories: 240, Suitability: "Weight Loss"},
		{Name: "Brown Rice Khichdi", Category: foods.Lunch, Carbs: 55, Protein: 12, Fat: 6, Calories: 330, Suitability: "Diabetes"},
		{Name: "Grilled Paneer Salad", Category: foods.Dinner, Carbs: 12, Protein: 18, Fat: 14, Calories: 260, Suitability: "Diabetes"},
		{Name: "Roasted Chana", Category: foods.Snack, Carbs: 25, Protein: 10, Fat: 3, Calories: 160, Suitability: "Diabetes"},
	})
}

func newTestPlanner(gen textgen.Generator) *Planner {
	sampler := foods.NewSamplerWithPicker(testTable(), firstPicker{})
	return NewPlanner(sampler, NewExplainer(gen, "test-model", DefaultTemperature, nil), nil)
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest(" 30 ", "Female", "Diabetes, ,Heart Health ,")
	require.NoError(t, err)
	assert.Equal(t, PlanRequest{Age: 30, Gender: "Female", HealthConditions: []string{"Diabetes", "Heart Health"}}, req)
}

func TestParseRequestErrors(t *testing.T) {
	tests := []struct {
		name      string
		age       string
		cond      string
		wantField bool
		wantErr   error
	}{
		{name: "non numeric age", age: "abc", cond: "Diabetes", wantField: true},
		{name: "empty age", age: "", cond: "Diabetes", wantField: true},
		{name: "zero age", age: "0", cond: "Diabetes", wantField: true},
		{name: "negative age", age: "-4", cond: "Diabetes", wantField: true},
		{name: "blank conditions", age: "30", cond: " , ,", wantErr: ErrMissingHealthConditions},
		{name: "age checked first", age: "x", cond: "", wantField: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequest(tt.age, "Male", tt.cond)
			require.Error(t, err)
			if tt.wantField {
				var ie *InvalidInputError
				require.ErrorAs(t, err, &ie)
				assert.Equal(t, "age", ie.Field)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAssembleDay(t *testing.T) {
	gen := mock.New("one", "two", "three", "four")
	p := newTestPlanner(gen)

	day, err := p.AssembleDay(context.Background(), PlanRequest{Age: 40, Gender: "Male", HealthConditions: []string{"Diabetes"}})
	require.NoError(t, err)

	require.Len(t, day.Meals, 4)
	for i, c := range foods.MealOrder {
		assert.Equal(t, c, day.Meals[i].Category)
	}
	breakfast, ok := day.Meals.Get(foods.Breakfast)
	require.True(t, ok)
	assert.Equal(t, "Oats Upma (Carbs: 40.0g, Protein: 8.0g, Fat: 5.0g, 250.0 kcal)", breakfast)
	assert.Equal(t, 250.0+330+260+160, day.TotalCalories)
	assert.Equal(t, []string{"one", "two", "three", "four"}, day.Explanations)
	assert.Empty(t, day.Day)
	assert.Equal(t, 4, gen.Calls())

	prompt := gen.Requests()[0].Messages[0].Content
	assert.Contains(t, prompt, "Oats Upma for Breakfast")
	assert.Contains(t, prompt, "age 40, gender Male")
	assert.Equal(t, "test-model", gen.Requests()[0].Model)
}

func TestAssembleDayExplanationFallback(t *testing.T) {
	gen := mock.New().FailOn(1, errors.New("quota exceeded"))
	p := newTestPlanner(gen)

	day, err := p.AssembleDay(context.Background(), PlanRequest{Age: 40, Gender: "Male", HealthConditions: []string{"Diabetes"}})
	require.NoError(t, err)
	require.Len(t, day.Explanations, 4)
	assert.Equal(t, "Explanation not available (mock: quota exceeded)", day.Explanations[1])
	assert.True(t, strings.HasPrefix(day.Explanations[0], "echo: "))
}

func TestAssembleDayEmptyCategory(t *testing.T) {
	table := foods.NewTable([]foods.FoodItem{
		{Name: "Poha", Category: foods.Breakfast, Calories: 240},
	})
	p := NewPlanner(foods.NewSampler(table), NewExplainer(mock.New(), "m", 0, nil), nil)

	_, err := p.AssembleDay(context.Background(), PlanRequest{Age: 30, HealthConditions: []string{"Diabetes"}})
	var ec *foods.EmptyCategoryError
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, foods.Lunch, ec.Category)
}

func TestAssembleWeekSharesExclusions(t *testing.T) {
	gen := mock.New()
	p := newTestPlanner(gen)

	week, err := p.AssembleWeek(context.Background(), PlanRequest{Age: 25, Gender: "Female", HealthConditions: []string{"Diabetes"}})
	require.NoError(t, err)
	require.Len(t, week, DaysPerWeek)

	for i, day := range week {
		assert.Equal(t, "Day "+string(rune('1'+i)), day.Day)
		assert.Len(t, day.Meals, 4)
	}

	// Day 1 takes Oats Upma, so Day 2 has to move on to Poha.
	b1, _ := week[0].Meals.Get(foods.Breakfast)
	b2, _ := week[1].Meals.Get(foods.Breakfast)
	assert.True(t, strings.HasPrefix(b1, "Oats Upma"))
	assert.True(t, strings.HasPrefix(b2, "Poha"))

	// Both breakfasts are used by Day 3, so the filter falls back to the full category.
	b3, _ := week[2].Meals.Get(foods.Breakfast)
	assert.True(t, strings.HasPrefix(b3, "Oats Upma"))
	assert.Equal(t, 7*4, gen.Calls())
}

func TestDailyPlanJSON(t *testing.T) {
	p := newTestPlanner(mock.New("a", "b", "c", "d"))
	day, err := p.AssembleDay(context.Background(), PlanRequest{Age: 40, Gender: "Male", HealthConditions: []string{"Diabetes"}})
	require.NoError(t, err)

	raw, err := json.Marshal(day)
	require.NoError(t, err)

	s := string(raw)
	assert.NotContains(t, s, `"Day"`)
	assert.Less(t, strings.Index(s, `"Breakfast"`), strings.Index(s, `"Lunch"`))
	assert.Less(t, strings.Index(s, `"Lunch"`), strings.Index(s, `"Dinner"`))
	assert.Less(t, strings.Index(s, `"Dinner"`), strings.Index(s, `"Snack"`))
	assert.Contains(t, s, `"Total Calories":1000`)

	var back DailyPlan
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, day.Meals, back.Meals)
	assert.Equal(t, day.Explanations, back.Explanations)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "45.0", formatAmount(45))
	assert.Equal(t, "12.5", formatAmount(12.5))
	assert.Equal(t, "0.0", formatAmount(0))
}
