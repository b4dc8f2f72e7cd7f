package filter

import (
	"sort"

	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/config"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/models"
)

// Filter applies the output criteria to extracted leads
type Filter struct {
	minRating float64
	order     string
}

// NewFilter creates a new Filter instance
func NewFilter(minRating float64, order string) *Filter {
	return &Filter{
		minRating: minRating,
		order:     order,
	}
}

// Apply drops leads below the minimum rating and orders the rest.
// The input slice is left untouched.
func (f *Filter) Apply(leads []models.Lead) []models.Lead {
	filtered := make([]models.Lead, 0, len(leads))
	for _, lead := range leads {
		if f.matches(lead) {
			filtered = append(filtered, lead)
		}
	}
	Sort(filtered, f.order)
	return filtered
}

// matches checks a lead against the minimum rating. With no minimum set,
// unrated leads are kept.
func (f *Filter) matches(lead models.Lead) bool {
	if f.minRating <= 0 {
		return true
	}
	return lead.Rating >= f.minRating
}

// Sort orders leads in place. SortRating puts the highest rating first and
// keeps feed order among equal ratings; any other order leaves leads as they are.
func Sort(leads []models.Lead, order string) {
	if order != config.SortRating {
		return
	}
	sort.SliceStable(leads, func(i, j int) bool {
		return leads[i].Rating > leads[j].Rating
	})
}
