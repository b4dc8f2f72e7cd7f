package parser

import (
	"fmt"
	"strings"

	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/models"

	"github.com/PuerkitoBio/goquery"
)

// Selectors and attributes of the map results markup
const (
	SearchBoxSelector = "input#searchboxinput"
	ConsentSelector   = "button[aria-label='Accept all']"
	FeedSelector      = `div[role="feed"]`
	ItemSelector      = `div[role="article"]`
	RatingSelector    = `span[role="img"]`
	LinkSelector      = "a"

	LabelAttribute = "aria-label"
	LinkAttribute  = "href"
)

// Parser extracts leads from a saved results page
type Parser struct{}

// NewParser creates a new Parser instance
func NewParser() *Parser {
	return &Parser{}
}

// ParseHTML extracts up to limit leads from HTML content.
// Fields fall back the same way the live extractor does.
func (p *Parser) ParseHTML(htmlContent string, limit int) ([]models.Lead, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	items := doc.Find(ItemSelector)
	if limit > 0 && items.Length() > limit {
		items = items.Slice(0, limit)
	}

	leads := make([]models.Lead, 0, items.Length())
	items.Each(func(i int, s *goquery.Selection) {
		leads = append(leads, p.extractLead(s))
	})

	return leads, nil
}

func (p *Parser) extractLead(s *goquery.Selection) models.Lead {
	lead := models.Lead{Name: models.NotAvailable}

	if name := strings.TrimSpace(s.AttrOr(LabelAttribute, "")); name != "" {
		lead.Name = name
	}
	if label, ok := s.Find(RatingSelector).First().Attr(LabelAttribute); ok {
		lead.Rating = ParseRating(label)
	}
	if href, ok := s.Find(LinkSelector).First().Attr(LinkAttribute); ok {
		lead.MapLink = href
	}

	return lead
}
