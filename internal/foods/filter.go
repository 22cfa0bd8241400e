package foods

import (
	"fmt"
	"math/rand/v2"
)

// EmptyCategoryError means the dataset has no rows at all for a category.
// The filter can never recover from it; the dataset itself is bad.
type EmptyCategoryError struct {
	Category Category
}

func (e *EmptyCategoryError) Error() string {
	return fmt.Sprintf("dataset has no food items in category %q", e.Category)
}

// Filter returns the candidates for a category. Constraints are relaxed in
// three tiers, each tried only when the previous one matched nothing:
//
//  1. category, suitability and not excluded
//  2. category and not excluded
//  3. category only
func (t *Table) Filter(category Category, conditions []string, excluded []string) ([]FoodItem, error) {
	skip := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		skip[name] = struct{}{}
	}
	notExcluded := func(f FoodItem) bool {
		_, ok := skip[f.Name]
		return !ok
	}

	if out := t.selectWhere(category, func(f FoodItem) bool {
		return notExcluded(f) && f.SuitableFor(conditions)
	}); len(out) > 0 {
		return out, nil
	}

	if out := t.selectWhere(category, notExcluded); len(out) > 0 {
		return out, nil
	}

	if out := t.selectWhere(category, func(FoodItem) bool { return true }); len(out) > 0 {
		return out, nil
	}

	return nil, &EmptyCategoryError{Category: category}
}

func (t *Table) selectWhere(category Category, keep func(FoodItem) bool) []FoodItem {
	var out []FoodItem
	for _, it := range t.items {
		if it.Category == category && keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// Picker chooses an index in [0, n).
type Picker interface {
	IntN(n int) int
}

// Sampler draws one food item uniformly from the filtered candidates.
type Sampler struct {
	table *Table
	rng   Picker
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// NewSampler draws from the runtime-seeded global source, which is safe for
// concurrent use. Draws differ on every call.
func NewSampler(table *Table) *Sampler {
	return &Sampler{table: table, rng: globalRand{}}
}

// NewSamplerWithPicker is NewSampler with a caller-supplied source, for tests.
func NewSamplerWithPicker(table *Table, rng Picker) *Sampler {
	return &Sampler{table: table, rng: rng}
}

// Sample filters the table and picks one candidate.
func (s *Sampler) Sample(category Category, conditions []string, excluded []string) (FoodItem, error) {
	candidates, err := s.table.Filter(category, conditions, excluded)
	if err != nil {
		return FoodItem{}, err
	}
	return candidates[s.rng.IntN(len(candidates))], nil
}
