package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sadhanalabs/sadhana/core"
)

// Material types
const (
	MaterialLyrics    = "lyrics"
	MaterialRecording = "recording"
)

type (
	Class struct {
		ID          int       `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		CreatedAt   time.Time `json:"created_at"` // UTC
	}

	Material struct {
		ID             int       `json:"id"`
		ClassID        int       `json:"class_id"`
		Title          string    `json:"title"`
		Type           string    `json:"type"` // lyrics | recording
		FilePath       string    `json:"file_path,omitempty"`
		Content        string    `json:"content,omitempty"`
		UploadedBy     int       `json:"uploaded_by"`
		UploadedByName string    `json:"uploaded_by_name,omitempty"`
		ClassName      string    `json:"class_name,omitempty"`
		CreatedAt      time.Time `json:"created_at"` // UTC
	}

	// MaterialSet partitions a class's materials by type, newest first.
	MaterialSet struct {
		Lyrics     []Material `json:"lyrics"`
		Recordings []Material `json:"recordings"`
	}

	ClassDetail struct {
		Class
		Materials MaterialSet `json:"materials"`
	}

	// Student is the admin's view of a user, with their enrolled class names joined.
	Student struct {
		ID              int       `json:"id"`
		Email           string    `json:"email"`
		Name            string    `json:"name"`
		AssignedClasses string    `json:"assigned_classes"` // comma-joined, may be empty
		CreatedAt       time.Time `json:"created_at"`
	}

	StudentClass struct {
		Class
		AssignedAt time.Time `json:"assigned_at"`
	}
)

// NewMaterial contains information needed to add a material to a class.
type NewMaterial struct {
	ClassID    int    `json:"classId" validate:"required"`
	Title      string `json:"title" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=lyrics recording"`
	Content    string `json:"content"`
	FilePath   string `json:"filePath"`
	UploadedBy int    `json:"-"`
}

func (nm *NewMaterial) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Type = core.CleanString(nm.Type, true /* lower */)
	return validate.Struct(nm)
}

// Assignment identifies an enrollment pair.
type Assignment struct {
	StudentID int `json:"studentId" validate:"required"`
	ClassID   int `json:"classId" validate:"required"`
}

func (a *Assignment) Validate(validate *validator.Validate) error {
	return validate.Struct(a)
}
