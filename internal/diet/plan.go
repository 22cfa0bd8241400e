package diet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"DietPlanner/internal/foods"
)

// MealRecord is one generated meal.
type MealRecord struct {
	FoodItem    string  `json:"Food Item"`
	Carbs       float64 `json:"Carbs"`
	Protein     float64 `json:"Protein"`
	Fat         float64 `json:"Fat"`
	Calories    float64 `json:"Calories"`
	Explanation string  `json:"Explanation"`
}

func newMealRecord(item foods.FoodItem, explanation string) MealRecord {
	return MealRecord{
		FoodItem:    item.Name,
		Carbs:       item.Carbs,
		Protein:     item.Protein,
		Fat:         item.Fat,
		Calories:    item.Calories,
		Explanation: explanation,
	}
}

// Summary is the one-line description shown in a plan, e.g.
// "Poha (Carbs: 45.0g, Protein: 5.0g, Fat: 4.0g, 240.0 kcal)".
func (m MealRecord) Summary() string {
	return fmt.Sprintf("%s (Carbs: %sg, Protein: %sg, Fat: %sg, %s kcal)",
		m.FoodItem, formatAmount(m.Carbs), formatAmount(m.Protein), formatAmount(m.Fat), formatAmount(m.Calories))
}

// formatAmount prints the shortest exact form and keeps a ".0" on whole
// numbers so 45 reads as 45.0.
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// MealSlot is the summary shown for one category.
type MealSlot struct {
	Category foods.Category
	Summary  string
}

// MealSlots marshals as a JSON object whose keys keep slot order.
type MealSlots []MealSlot

func (s MealSlots) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, slot := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(string(slot.Category))
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(slot.Summary)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *MealSlots) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("meals: expected object, got %v", tok)
	}

	var out MealSlots
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		var summary string
		if err := dec.Decode(&summary); err != nil {
			return err
		}
		out = append(out, MealSlot{Category: foods.Category(keyTok.(string)), Summary: summary})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

// Get returns the summary for a category.
func (s MealSlots) Get(c foods.Category) (string, bool) {
	for _, slot := range s {
		if slot.Category == c {
			return slot.Summary, true
		}
	}
	return "", false
}

// DailyPlan holds one meal per category, in MealOrder. TotalCalories is
// summed once while the day is assembled.
type DailyPlan struct {
	Day           string       `json:"Day,omitempty"`
	Meals         MealSlots    `json:"Meals"`
	TotalCalories float64      `json:"Total Calories"`
	Explanations  []string     `json:"Explanations"`
	Records       []MealRecord `json:"-"`
}

// WeeklyPlan is seven DailyPlans, Day 1 through Day 7.
type WeeklyPlan []DailyPlan

// UsedFoods collects food names already chosen in one generation run.
// It only biases the filter; fallbacks may still reuse a name.
type UsedFoods struct {
	names []string
}

func (u *UsedFoods) Add(name string) { u.names = append(u.names, name) }

// Names returns the collected names in the order they were added.
func (u *UsedFoods) Names() []string { return u.names }
