package listing

import (
	"cmp"
	"slices"

	"github.com/umnpray/umnpray/internal/models"
)

// Attach pairs each space with its distance by ID, keeping source order
func Attach(spaces []models.Space, distances map[string]*models.ResolvedDistance) []models.DisplayItem {
	items := make([]models.DisplayItem, len(spaces))
	for i, s := range spaces {
		items[i] = models.DisplayItem{Space: s, Distance: distances[s.ID]}
	}
	return items
}

// Filter keeps items on the filtered campus, in order
func Filter(items []models.DisplayItem, f CampusFilter) []models.DisplayItem {
	if _, ok := f.Campus(); !ok {
		return items
	}
	out := make([]models.DisplayItem, 0, len(items))
	for _, it := range items {
		if f.Matches(it.Space) {
			out = append(out, it)
		}
	}
	return out
}

// SortByDistance orders items nearest first with unknown distances last.
// The sort is stable, so equal distances and all unknowns keep their
// relative order.
func SortByDistance(items []models.DisplayItem) []models.DisplayItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b models.DisplayItem) int {
		switch {
		case a.Distance == nil && b.Distance == nil:
			return 0
		case a.Distance == nil:
			return 1
		case b.Distance == nil:
			return -1
		}
		return cmp.Compare(a.Distance.Miles, b.Distance.Miles)
	})
	return out
}

// Paginate returns the first pageSize items unless showAll is set
func Paginate(items []models.DisplayItem, showAll bool, pageSize int) (shown []models.DisplayItem, hasMore bool) {
	if showAll || pageSize <= 0 || len(items) <= pageSize {
		return items, false
	}
	return items[:pageSize], true
}

// Page is the derived, displayable result of a state
type Page struct {
	Items   []models.DisplayItem
	Total   int
	HasMore bool
}

// Derive computes what a state shows: filter, sort when active, then
// paginate. The map view is never paginated.
func Derive(spaces []models.Space, distances map[string]*models.ResolvedDistance, s ViewState, pageSize int) Page {
	items := Filter(Attach(spaces, distances), s.Campus)
	if s.DistanceSort {
		items = SortByDistance(items)
	}

	if s.View == MapView {
		return Page{Items: items, Total: len(items)}
	}
	shown, more := Paginate(items, s.ShowAll, pageSize)
	return Page{Items: shown, Total: len(items), HasMore: more}
}
