package sheets

import "github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/models"

// Header is the column row shared by every export
var Header = []string{"Business Name", "Rating", "Map Link"}

func headerRow() []interface{} {
	row := make([]interface{}, len(Header))
	for i, h := range Header {
		row[i] = h
	}
	return row
}

func leadRow(lead models.Lead) []interface{} {
	return []interface{}{lead.Name, lead.Rating, lead.MapLink}
}

// buildValues returns the header followed by one row per lead, in order
func buildValues(leads []models.Lead) [][]interface{} {
	values := make([][]interface{}, 0, len(leads)+1)
	values = append(values, headerRow())
	for _, lead := range leads {
		values = append(values, leadRow(lead))
	}
	return values
}
