package models

import (
	"fmt"
	"strings"
)

// NotAvailable is the name recorded when a result card has no usable label
const NotAvailable = "N/A"

// Limits for the number of results a single run may collect
const (
	MinLimit = 1
	MaxLimit = 500
)

// Lead represents one business extracted from the map results feed
type Lead struct {
	Name    string
	Rating  float64
	MapLink string
}

// SearchRequest holds the parameters of one extraction run
type SearchRequest struct {
	Keyword  string
	Location string
	Limit    int
	Headless bool
}

// Query builds the text typed into the map search box
func (r SearchRequest) Query() string {
	keyword := strings.TrimSpace(r.Keyword)
	location := strings.TrimSpace(r.Location)
	if location == "" {
		return keyword
	}
	return fmt.Sprintf("%s in %s", keyword, location)
}

// Validate checks the request before a browser is launched
func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.Keyword) == "" {
		return fmt.Errorf("keyword is required")
	}
	if r.Limit < MinLimit || r.Limit > MaxLimit {
		return fmt.Errorf("limit must be between %d and %d, got %d", MinLimit, MaxLimit, r.Limit)
	}
	return nil
}
