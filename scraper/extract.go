package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/models"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/parser"
)

// Field names passed to the fallback hook of ExtractLead
const (
	FieldName   = "name"
	FieldRating = "rating"
	FieldLink   = "link"
)

// ExtractLead clicks item and reads its name, rating and map link.
// Each field falls back to its default independently and onFallback, if set,
// is told which one. Only a failed click returns an error.
func ExtractLead(ctx context.Context, item Item, onFallback func(field string)) (models.Lead, error) {
	if onFallback == nil {
		onFallback = func(string) {}
	}

	if err := item.Click(ctx); err != nil {
		return models.Lead{}, fmt.Errorf("failed to click item: %w", err)
	}

	lead := models.Lead{Name: models.NotAvailable}

	name, err := item.Attribute(ctx, parser.LabelAttribute)
	if err == nil && name != nil && strings.TrimSpace(*name) != "" {
		lead.Name = strings.TrimSpace(*name)
	} else {
		onFallback(FieldName)
	}

	label, err := item.ChildAttribute(ctx, parser.RatingSelector, parser.LabelAttribute)
	if err == nil && label != nil {
		lead.Rating = parser.ParseRating(*label)
	}
	if lead.Rating == 0 {
		onFallback(FieldRating)
	}

	href, err := item.ChildAttribute(ctx, parser.LinkSelector, parser.LinkAttribute)
	if err == nil && href != nil {
		lead.MapLink = *href
	} else {
		onFallback(FieldLink)
	}

	return lead, nil
}
