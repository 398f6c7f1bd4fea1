package services

import "testing"

func sheetValues() [][]interface{} {
	return [][]interface{}{
		{"Teacher", "Student", "Phone", "Date", "Time", "Status"},
		{"Alice", "Bob", "+14155550100", "2026-03-15", "15:00", "Pending"},
		{"Carol", "Dan", "+14155550101", "2026-03-15", "16:00", "Sent"},
		{"Eve", "Frank", "+14155550102", "2026-03-16", "09:00", "pending"},
		{"Grace", "Heidi", "+14155550103"},
	}
}

func TestParsePendingRows(t *testing.T) {
	pending := parsePendingRows(sheetValues())

	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}

	// Row indexes are 1-based sheet rows; data starts at row 2
	if pending[0].RowIndex != 2 || pending[0].Teacher != "Alice" {
		t.Fatalf("unexpected first pending row: %+v", pending[0])
	}
	if pending[1].RowIndex != 4 || pending[1].Student != "Frank" {
		t.Fatalf("unexpected second pending row: %+v", pending[1])
	}
}

func TestParsePendingRowsEmptySheet(t *testing.T) {
	if got := parsePendingRows(nil); len(got) != 0 {
		t.Fatalf("pending = %d, want 0", len(got))
	}
	header := [][]interface{}{{"Teacher", "Student", "Phone", "Date", "Time", "Status"}}
	if got := parsePendingRows(header); len(got) != 0 {
		t.Fatalf("pending = %d, want 0", len(got))
	}
}

func TestCellString(t *testing.T) {
	row := []interface{}{" Alice ", 42}
	if got := cellString(row, 0); got != "Alice" {
		t.Fatalf("cellString = %q, want Alice", got)
	}
	if got := cellString(row, 1); got != "42" {
		t.Fatalf("cellString = %q, want 42", got)
	}
	if got := cellString(row, 5); got != "" {
		t.Fatalf("cellString out of range = %q, want empty", got)
	}
}
