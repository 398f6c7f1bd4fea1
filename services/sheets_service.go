// services/sheets_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const sheetReadRange = "Sheet1!A:F"

// SheetMessage is one pending row from the reminder sheet. Columns are
// teacher, student, phone, date, time, status; RowIndex is 1-based as the
// Sheets API expects it.
type SheetMessage struct {
	RowIndex int64
	Teacher  string
	Student  string
	Phone    string
	Date     string
	Time     string
}

// SheetRow mirrors a full sheet row for the data endpoint.
type SheetRow struct {
	Teacher string `json:"teacher"`
	Student string `json:"student"`
	Phone   string `json:"phone"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Status  string `json:"status"`
}

type SheetsService struct {
	svc           *sheets.Service
	spreadsheetID string
}

func NewSheetsService(ctx context.Context) (*SheetsService, error) {
	clientEmail := os.Getenv("GOOGLE_SHEETS_CLIENT_EMAIL")
	privateKey := strings.ReplaceAll(os.Getenv("GOOGLE_SHEETS_PRIVATE_KEY"), `\n`, "\n")
	sheetID := os.Getenv("GOOGLE_SHEET_ID")

	if clientEmail == "" || privateKey == "" || sheetID == "" {
		return nil, errors.New("Google Sheets credentials not configured")
	}

	conf := &jwt.Config{
		Email:      clientEmail,
		PrivateKey: []byte(privateKey),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}

	svc, err := sheets.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("initialize sheets client: %w", err)
	}

	log.Println("Google Sheets service initialized")
	return &SheetsService{svc: svc, spreadsheetID: sheetID}, nil
}

// GetPendingMessages returns the rows whose status column reads "pending".
func (s *SheetsService) GetPendingMessages() ([]SheetMessage, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, sheetReadRange).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	return parsePendingRows(resp.Values), nil
}

// UpdateRowStatus writes a Sent/Failed marker and timestamp back to the row.
func (s *SheetsService) UpdateRowStatus(rowIndex int64, status string, ts time.Time) error {
	values := &sheets.ValueRange{
		Values: [][]interface{}{{status, ts.Format(time.RFC3339)}},
	}
	writeRange := fmt.Sprintf("Sheet1!F%d", rowIndex)
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, writeRange, values).
		ValueInputOption("RAW").Do()
	if err != nil {
		return fmt.Errorf("update row %d: %w", rowIndex, err)
	}
	return nil
}

// ReadSheet performs a read-through refresh of the sheet.
func (s *SheetsService) ReadSheet() error {
	_, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, sheetReadRange).Do()
	if err != nil {
		return fmt.Errorf("read sheet: %w", err)
	}
	return nil
}

// GetAllRows returns every data row in the sheet.
func (s *SheetsService) GetAllRows() ([]SheetRow, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, sheetReadRange).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}

	rows := make([]SheetRow, 0, len(resp.Values))
	for i, row := range resp.Values {
		if i == 0 {
			continue // header
		}
		rows = append(rows, SheetRow{
			Teacher: cellString(row, 0),
			Student: cellString(row, 1),
			Phone:   cellString(row, 2),
			Date:    cellString(row, 3),
			Time:    cellString(row, 4),
			Status:  cellString(row, 5),
		})
	}
	return rows, nil
}

// parsePendingRows filters raw sheet values down to pending messages.
// Row 1 is the header, so sheet row numbers start at 2.
func parsePendingRows(values [][]interface{}) []SheetMessage {
	var pending []SheetMessage
	for i := 1; i < len(values); i++ {
		row := values[i]
		if !strings.EqualFold(cellString(row, 5), "pending") {
			continue
		}
		pending = append(pending, SheetMessage{
			RowIndex: int64(i + 1),
			Teacher:  cellString(row, 0),
			Student:  cellString(row, 1),
			Phone:    cellString(row, 2),
			Date:     cellString(row, 3),
			Time:     cellString(row, 4),
		})
	}
	return pending
}

func cellString(row []interface{}, idx int) string {
	if idx >= len(row) {
		return ""
	}
	if s, ok := row[idx].(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(row[idx]))
}
