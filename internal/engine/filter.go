package engine

import "strings"

// Categorized is anything that belongs to a budget category.
type Categorized interface {
	CategoryName() string
}

// FilterByCategory keeps rows whose category contains substr,
// case-insensitively. An empty substr keeps everything.
func FilterByCategory[T Categorized](rows []T, substr string) []T {
	return filterCategory(rows, substr, true)
}

// FilterExcludingCategory drops rows whose category contains substr,
// case-insensitively. An empty substr keeps everything.
func FilterExcludingCategory[T Categorized](rows []T, substr string) []T {
	return filterCategory(rows, substr, false)
}

func filterCategory[T Categorized](rows []T, substr string, keep bool) []T {
	needle := strings.ToLower(strings.TrimSpace(substr))
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if needle == "" {
			out = append(out, r)
			continue
		}
		match := strings.Contains(strings.ToLower(r.CategoryName()), needle)
		if match == keep {
			out = append(out, r)
		}
	}
	return out
}
