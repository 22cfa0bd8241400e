/*
Package foods holds the read-only food dataset and the selection logic that
picks candidate meals out of it.
*/
package foods

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Category is one of the four meal slots of a day.
type Category string

const (
	Breakfast Category = "Breakfast"
	Lunch     Category = "Lunch"
	Dinner    Category = "Dinner"
	Snack     Category = "Snack"
)

// MealOrder is the fixed order in which a day is assembled and reported.
var MealOrder = []Category{Breakfast, Lunch, Dinner, Snack}

// Dataset column headers.
const (
	colName        = "Food Item"
	colCategory    = "Category"
	colSuitability = "Health Suitability"
	colCarbs       = "Carbs"
	colProtein     = "Protein"
	colFat         = "Fats"
	colCalories    = "Calories"
)

// FoodItem is a single row of the dataset.
type FoodItem struct {
	Name        string   `json:"food_item"`
	Category    Category `json:"category"`
	Carbs       float64  `json:"carbs"`
	Protein     float64  `json:"protein"`
	Fat         float64  `json:"fat"`
	Calories    float64  `json:"calories"`
	Suitability string   `json:"health_suitability"`
}

// SuitableFor reports whether any condition appears, case-insensitively,
// inside the item's suitability text.
func (f FoodItem) SuitableFor(conditions []string) bool {
	if f.Suitability == "" {
		return false
	}
	tags := strings.ToLower(f.Suitability)
	for _, c := range conditions {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" && strings.Contains(tags, c) {
			return true
		}
	}
	return false
}

// Table is the in-memory dataset. It is never mutated after Load returns,
// so it can be shared between request goroutines.
type Table struct {
	items []FoodItem
}

// NewTable builds a table from already parsed items.
func NewTable(items []FoodItem) *Table {
	cp := make([]FoodItem, len(items))
	copy(cp, items)
	return &Table{items: cp}
}

// LoadFile opens path and parses it as the diet dataset CSV.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", path, err)
	}
	return t, nil
}

// Load parses a CSV stream. Columns are resolved by header name so their
// order in the file does not matter.
func Load(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("dataset is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range []string{colName, colCategory, colSuitability, colCarbs, colProtein, colFat, colCalories} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var items []FoodItem
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		item := FoodItem{
			Name:        strings.TrimSpace(rec[idx[colName]]),
			Category:    Category(strings.TrimSpace(rec[idx[colCategory]])),
			Suitability: strings.TrimSpace(rec[idx[colSuitability]]),
		}
		nums := []struct {
			col string
			dst *float64
		}{
			{colCarbs, &item.Carbs},
			{colProtein, &item.Protein},
			{colFat, &item.Fat},
			{colCalories, &item.Calories},
		}
		for _, n := range nums {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx[n.col]]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: column %q: %w", line, n.col, err)
			}
			*n.dst = v
		}
		items = append(items, item)
	}

	return &Table{items: items}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.items) }

// CountByCategory returns how many rows each meal category has.
func (t *Table) CountByCategory() map[Category]int {
	counts := make(map[Category]int, len(MealOrder))
	for _, it := range t.items {
		counts[it.Category]++
	}
	return counts
}
