// controllers/contacts.go
package controllers

import (
	"encoding/csv"
	"net/http"
	"strings"

	"meetremind-backend/config"
	"meetremind-backend/models"
	"meetremind-backend/utils"

	"github.com/gin-gonic/gin"
)

const defaultTeacherTemplate = "Hi {teacher}, just a quick reminder about your session today. Could you please confirm?"
const defaultStudentTemplate = "Hi, just a quick reminder about today's class at {date} {time}. Looking forward to seeing you in the session!"

// UploadContacts parses an uploaded CSV of teacher/student contacts and
// replaces the stored contact lists.
func UploadContacts(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "No file uploaded")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to open uploaded file")
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Error parsing CSV file")
		return
	}
	if len(records) < 2 {
		utils.RespondWithError(c, http.StatusBadRequest, "CSV has no data rows")
		return
	}

	teachers, students := parseContactRows(records)

	// Replace previous import wholesale
	if err := config.DB.Where("1 = 1").Delete(&models.Contact{}).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to clear existing contacts")
		return
	}
	for i := range teachers {
		if err := config.DB.Create(&teachers[i]).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to save contacts")
			return
		}
	}
	for i := range students {
		if err := config.DB.Create(&students[i]).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to save contacts")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "Contacts uploaded successfully",
		"teachersCount": len(teachers),
		"studentsCount": len(students),
	})
}

// parseContactRows maps CSV rows to contacts. Column matching is by
// header keyword (teacher/student + name/phone/message), falling back to
// positional columns 0-2 for teachers and 3-5 for students.
func parseContactRows(records [][]string) (teachers, students []models.Contact) {
	header := records[0]

	find := func(who, what string) int {
		for i, col := range header {
			lower := strings.ToLower(col)
			if strings.Contains(lower, who) && strings.Contains(lower, what) {
				return i
			}
		}
		return -1
	}

	col := func(row []string, idx, fallback int) string {
		if idx < 0 {
			idx = fallback
		}
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	tName := find("teacher", "name")
	tPhone := find("teacher", "phone")
	tMsg := find("teacher", "message")
	sName := find("student", "name")
	sPhone := find("student", "phone")
	sMsg := find("student", "message")

	seenTeachers := make(map[string]bool)

	for _, row := range records[1:] {
		teacherName := col(row, tName, 0)
		teacherPhone := col(row, tPhone, 1)
		teacherMsg := col(row, tMsg, 2)
		studentName := col(row, sName, 3)
		studentPhone := col(row, sPhone, 4)
		studentMsg := col(row, sMsg, 5)

		if teacherName != "" && teacherPhone != "" && !seenTeachers[teacherName] {
			seenTeachers[teacherName] = true
			if teacherMsg == "" {
				teacherMsg = defaultTeacherTemplate
			}
			teachers = append(teachers, models.Contact{
				Kind:    models.ContactKindTeacher,
				Name:    teacherName,
				Phone:   teacherPhone,
				Message: teacherMsg,
			})
		}

		if studentName != "" && studentPhone != "" {
			if studentMsg == "" {
				studentMsg = defaultStudentTemplate
			}
			students = append(students, models.Contact{
				Kind:    models.ContactKindStudent,
				Name:    studentName,
				Phone:   studentPhone,
				Message: studentMsg,
			})
		}
	}

	return teachers, students
}

// GetTeachers lists imported teacher contacts
func GetTeachers(c *gin.Context) {
	listContacts(c, models.ContactKindTeacher, "teachers")
}

// GetStudents lists imported student contacts
func GetStudents(c *gin.Context) {
	listContacts(c, models.ContactKindStudent, "students")
}

func listContacts(c *gin.Context, kind, key string) {
	var contacts []models.Contact
	if err := config.DB.Where("kind = ?", kind).Order("created_at ASC").Find(&contacts).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch contacts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, key: contacts})
}
