package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/models"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// maxSheetNameLength is the Google Sheets limit on tab titles, in characters
const maxSheetNameLength = 100

const sheetTimeLayout = "20060102_150405"

// Writer writes leads into new tabs of a Google Sheets spreadsheet
type Writer struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewWriter creates a Google Sheets writer authenticated with a service account.
// Credentials come from credentialsPath, or GOOGLE_SHEETS_CREDENTIALS when the path is empty.
func NewWriter(ctx context.Context, spreadsheetID, credentialsPath string) (*Writer, error) {
	credsJSON, err := loadCredentials(credentialsPath)
	if err != nil {
		return nil, err
	}
	return NewWriterWithOptions(ctx, spreadsheetID, option.WithCredentialsJSON(credsJSON))
}

// NewWriterWithOptions creates a writer from explicit client options
func NewWriterWithOptions(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Writer, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is empty")
	}
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Writer{
		service:       service,
		spreadsheetID: spreadsheetID,
	}, nil
}

func loadCredentials(path string) ([]byte, error) {
	var credsJSON []byte
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		credsJSON = data
	} else {
		credsEnv := strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_CREDENTIALS"))
		if credsEnv == "" {
			return nil, fmt.Errorf("credentials not found: GOOGLE_SHEETS_CREDENTIALS is empty or not set")
		}
		log.WithField("bytes", len(credsEnv)).Debug("Reading credentials from GOOGLE_SHEETS_CREDENTIALS")
		credsJSON = []byte(credsEnv)
	}

	var creds map[string]interface{}
	if err := json.Unmarshal(credsJSON, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON: %w", err)
	}
	if creds["type"] != "service_account" {
		return nil, fmt.Errorf("credentials must be a service account JSON file, got type: %v", creds["type"])
	}
	return credsJSON, nil
}

// CreateSheetAndWriteLeads adds a tab at the front of the spreadsheet and
// writes the leads to it. query, if set, goes into a metadata row above the header.
// It returns the final tab name and its sheet ID (gid).
func (w *Writer) CreateSheetAndWriteLeads(ctx context.Context, sheetName, query string, leads []models.Lead) (string, int64, error) {
	sheetName = truncateRunes(sanitizeSheetName(sheetName), maxSheetNameLength)

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title:           sheetName,
						Index:           0,
						ForceSendFields: []string{"Index"},
					},
				},
			},
		},
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to create sheet: %w", err)
	}

	var sheetID int64
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}

	logger := log.WithFields(log.Fields{
		"sheet":    sheetName,
		"sheet_id": sheetID,
	})
	logger.Debug("Created sheet")

	var values [][]interface{}
	if query != "" {
		values = append(values, []interface{}{"Query", query})
	}
	values = append(values, buildValues(leads)...)

	valueRange := &sheets.ValueRange{Values: values}
	_, err = w.service.Spreadsheets.Values.Update(w.spreadsheetID, fmt.Sprintf("'%s'!A1", sheetName), valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to write to sheet: %w", err)
	}

	logger.WithField("leads", len(leads)).Info("Wrote leads to Google Sheets")
	return sheetName, sheetID, nil
}

// SheetURL returns the browser link to one tab of the spreadsheet
func (w *Writer) SheetURL(sheetID int64) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%d", w.spreadsheetID, sheetID)
}

// SheetName builds a tab title "<prefix>_<timestamp>". The prefix is shortened
// so the timestamp always survives the length limit.
func SheetName(prefix string, at time.Time) string {
	suffix := "_" + at.Format(sheetTimeLayout)
	prefix = sanitizeSheetName(prefix)
	return truncateRunes(prefix, maxSheetNameLength-len(suffix)) + suffix
}

// truncateRunes cuts s to at most n characters without splitting one
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}

// sanitizeSheetName replaces characters Google Sheets rejects in tab names
func sanitizeSheetName(name string) string {
	invalidChars := []string{"/", "\\", "?", "*", "[", "]", "'"}
	result := name
	for _, char := range invalidChars {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	if result == "" {
		result = "Leads"
	}
	return result
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
// such as https://docs.google.com/spreadsheets/d/ID/edit?usp=sharing
func ExtractSpreadsheetID(url string) string {
	parts := strings.Split(url, "/d/")
	if len(parts) < 2 {
		return ""
	}

	idPart := parts[1]
	if idx := strings.IndexAny(idPart, "/?#"); idx != -1 {
		idPart = idPart[:idx]
	}
	return strings.TrimSpace(idPart)
}
