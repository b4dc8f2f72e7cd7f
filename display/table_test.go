package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/models"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func init() {
	color.NoColor = true
}

func TestFormatRating(t *testing.T) {
	tests := []struct {
		rating float64
		want   string
	}{
		{4.5, "4.5 ⭐"},
		{4, "4.0 ⭐"},
		{0, "0.0 ⭐"},
		{3.96, "4.0 ⭐"},
	}
	for _, tt := range tests {
		if got := FormatRating(tt.rating); got != tt.want {
			t.Errorf("FormatRating(%v) = %q, want %q", tt.rating, got, tt.want)
		}
	}
}

func TestRenderTable(t *testing.T) {
	leads := []models.Lead{
		{Name: "Kaffeehaus", Rating: 4.3, MapLink: "https://maps.example/k"},
		{Name: models.NotAvailable, Rating: 0, MapLink: ""},
	}

	var buf bytes.Buffer
	if err := RenderTable(&buf, leads); err != nil {
		t.Fatalf("RenderTable() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "#") || !strings.Contains(lines[0], "Business Name") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "4.3 ⭐") || !strings.Contains(lines[1], "https://maps.example/k") {
		t.Errorf("row 1 = %q", lines[1])
	}
	if !strings.Contains(lines[2], "N/A") {
		t.Errorf("row 2 = %q", lines[2])
	}
	// columns line up
	if strings.Index(lines[0], "Rating") != strings.Index(lines[1], "4.3") {
		t.Errorf("rating column misaligned:\n%s", buf.String())
	}
}

func TestRenderTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTable(&buf, nil); err != nil {
		t.Fatalf("RenderTable() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "No leads found." {
		t.Errorf("RenderTable(nil) = %q", got)
	}
}

func TestFormatText(t *testing.T) {
	leads := []models.Lead{
		{Name: "A", Rating: 4.1},
		{Name: "B", Rating: 3.9},
		{Name: "C", Rating: 5},
	}

	got := FormatText(leads, 2)
	want := "1. A | 4.1 ⭐\n2. B | 3.9 ⭐\n... and 1 more in the spreadsheet\n"
	if got != want {
		t.Errorf("FormatText() = %q, want %q", got, want)
	}

	if all := FormatText(leads, 0); strings.Count(all, "\n") != 3 {
		t.Errorf("FormatText(max=0) = %q", all)
	}
	if FormatText(nil, 5) != "No leads found." {
		t.Error("unexpected empty text")
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		done, total, want int
	}{
		{0, 0, 0},
		{0, 10, 0},
		{1, 3, 33},
		{3, 3, 100},
		{5, 3, 100},
	}
	for _, tt := range tests {
		if got := Percent(tt.done, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.done, tt.total, got, tt.want)
		}
	}
}

func TestConsoleProgress(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := NewConsoleProgress(log.NewEntry(logger))

	p.Status("Launching engine...")
	for i := 0; i <= 20; i++ {
		p.Advance(i, 20)
	}

	entries := hook.AllEntries()
	if entries[0].Message != "Launching engine..." {
		t.Errorf("first entry = %q", entries[0].Message)
	}
	// one status line plus 0%, 10%, ..., 100%
	if len(entries) != 12 {
		t.Errorf("got %d log entries, want 12", len(entries))
	}
	if last := entries[len(entries)-1].Message; last != "Progress: 100%" {
		t.Errorf("last entry = %q", last)
	}
}
