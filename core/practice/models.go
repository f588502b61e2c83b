package practice

import (
	"time"

	"github.com/go-playground/validator/v10"
)

type Session struct {
	ID           int       `json:"id"`
	UserID       int       `json:"user_id"`
	ClassID      int       `json:"class_id"`
	Duration     int       `json:"duration"` // seconds
	Notes        string    `json:"notes"`
	SessionDate  time.Time `json:"session_date"` // UTC
	ClassName    string    `json:"class_name,omitempty"`
	StudentName  string    `json:"student_name,omitempty"`
	StudentEmail string    `json:"student_email,omitempty"`
}

// NewSession is the payload for logging a timed practice session.
type NewSession struct {
	Duration int    `json:"duration" validate:"required,gt=0"`
	Notes    string `json:"notes"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	return validate.Struct(ns)
}
