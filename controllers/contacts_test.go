package controllers

import (
	"testing"

	"meetremind-backend/models"
)

func TestParseContactRowsByHeader(t *testing.T) {
	records := [][]string{
		{"Teacher Name", "Teacher Phone", "Teacher Message", "Student Name", "Student Phone", "Student Message"},
		{"Alice", "+14155550100", "", "Bob", "+14155550101", "See you at {time}!"},
		{"Alice", "+14155550100", "", "Carol", "+14155550102", ""},
	}

	teachers, students := parseContactRows(records)

	// Duplicate teacher rows collapse to one contact
	if len(teachers) != 1 {
		t.Fatalf("teachers = %d, want 1", len(teachers))
	}
	if teachers[0].Kind != models.ContactKindTeacher || teachers[0].Name != "Alice" {
		t.Fatalf("unexpected teacher: %+v", teachers[0])
	}
	if teachers[0].Message != defaultTeacherTemplate {
		t.Fatalf("empty teacher message not defaulted: %q", teachers[0].Message)
	}

	if len(students) != 2 {
		t.Fatalf("students = %d, want 2", len(students))
	}
	if students[0].Message != "See you at {time}!" {
		t.Fatalf("student message overridden: %q", students[0].Message)
	}
	if students[1].Message != defaultStudentTemplate {
		t.Fatalf("empty student message not defaulted: %q", students[1].Message)
	}
}

func TestParseContactRowsPositionalFallback(t *testing.T) {
	records := [][]string{
		{"A", "B", "C", "D", "E", "F"},
		{"Alice", "+14155550100", "", "Bob", "+14155550101", ""},
	}

	teachers, students := parseContactRows(records)
	if len(teachers) != 1 || len(students) != 1 {
		t.Fatalf("teachers=%d students=%d, want 1/1", len(teachers), len(students))
	}
	if teachers[0].Phone != "+14155550100" || students[0].Phone != "+14155550101" {
		t.Fatalf("positional columns misread: %+v / %+v", teachers[0], students[0])
	}
}

func TestParseContactRowsSkipsIncomplete(t *testing.T) {
	records := [][]string{
		{"Teacher Name", "Teacher Phone", "Teacher Message", "Student Name", "Student Phone", "Student Message"},
		{"", "", "", "Bob", "+14155550101", ""},
		{"Alice", "", "", "", "", ""},
	}

	teachers, students := parseContactRows(records)
	if len(teachers) != 0 {
		t.Fatalf("teachers = %d, want 0", len(teachers))
	}
	if len(students) != 1 {
		t.Fatalf("students = %d, want 1", len(students))
	}
}
