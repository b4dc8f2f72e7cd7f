package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/config"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/models"
)

const (
	welcomeText = "Welcome! I collect business leads from Google Maps.\n\n" +
		"Send /search followed by what you are looking for, e.g.\n" +
		"/search Coffee Shop | London, UK | 30 | rating\n\n" +
		"You will get a spreadsheet with name, rating and map link for every result."

	helpText = "Commands:\n" +
		"/start - Start the bot\n" +
		"/help - Show this help\n" +
		"/search keyword | location | limit | sort - Collect leads\n\n" +
		"Only the keyword is required. Limit is between %d and %d, sort is \"default\" or \"rating\".\n" +
		"A plain message is treated as a search."

	unauthorizedText = "Sorry, you are not authorized to use this bot."
)

// usage returns the help text with the configured bounds filled in
func usage() string {
	return fmt.Sprintf(helpText, models.MinLimit, models.MaxLimit)
}

// ParseSearch reads "keyword | location | limit | sort". Omitted or blank
// fields take their value from defaults and defaultSort.
func ParseSearch(args string, defaults models.SearchRequest, defaultSort string) (models.SearchRequest, string, error) {
	req := defaults
	sort := defaultSort

	parts := strings.Split(args, "|")
	if len(parts) > 4 {
		return req, sort, fmt.Errorf("too many fields: expected keyword | location | limit | sort")
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	req.Keyword = parts[0]
	if req.Keyword == "" {
		return req, sort, fmt.Errorf("keyword is required")
	}

	if len(parts) > 1 && parts[1] != "" {
		req.Location = parts[1]
	}

	if len(parts) > 2 && parts[2] != "" {
		limit, err := strconv.Atoi(parts[2])
		if err != nil {
			return req, sort, fmt.Errorf("limit %q is not a number", parts[2])
		}
		req.Limit = limit
	}

	if len(parts) > 3 && parts[3] != "" {
		switch s := strings.ToLower(parts[3]); s {
		case config.SortDefault, config.SortRating:
			sort = s
		default:
			return req, sort, fmt.Errorf("unknown sort %q: use default or rating", parts[3])
		}
	}

	if err := req.Validate(); err != nil {
		return req, sort, err
	}
	return req, sort, nil
}
