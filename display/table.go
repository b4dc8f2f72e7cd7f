package display

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/models"

	"github.com/fatih/color"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	emptyColor  = color.New(color.FgYellow)
)

// FormatRating renders a rating for people, e.g. "4.5 ⭐"
func FormatRating(rating float64) string {
	return fmt.Sprintf("%.1f ⭐", rating)
}

// RenderTable writes leads as an aligned table. Colors are applied after
// alignment so escape codes do not skew the columns.
func RenderTable(w io.Writer, leads []models.Lead) error {
	if len(leads) == 0 {
		_, err := emptyColor.Fprintln(w, "No leads found.")
		return err
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tBusiness Name\tRating\tMap Link")
	for i, lead := range leads {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, lead.Name, FormatRating(lead.Rating), lead.MapLink)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	lines := strings.SplitAfter(buf.String(), "\n")
	if _, err := headerColor.Fprint(w, strings.TrimSuffix(lines[0], "\n")); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"+strings.Join(lines[1:], "")); err != nil {
		return err
	}
	return nil
}

// FormatText renders up to max leads as plain lines for chat messages.
// A max of zero or less lists every lead.
func FormatText(leads []models.Lead, max int) string {
	if len(leads) == 0 {
		return "No leads found."
	}

	shown := leads
	if max > 0 && len(leads) > max {
		shown = leads[:max]
	}

	var b strings.Builder
	for i, lead := range shown {
		fmt.Fprintf(&b, "%d. %s | %s\n", i+1, lead.Name, FormatRating(lead.Rating))
	}
	if len(shown) < len(leads) {
		fmt.Fprintf(&b, "... and %d more in the spreadsheet\n", len(leads)-len(shown))
	}
	return b.String()
}
