package schedule

import (
	"github.com/go-playground/validator/v10"
)

type (
	NewTimeSlot struct {
		StartTime     string `json:"start_time" validate:"required,clock"`
		EndTime       string `json:"end_time" validate:"required,clock"`
		Label         string `json:"label" validate:"omitempty,max=50"`
		IsSchedulable *bool  `json:"is_schedulable"`
	}

	NewSlot struct {
		GroupID    string `json:"group_id" validate:"required,uuid4"`
		SubjectID  string `json:"subject_id" validate:"required,uuid4"`
		FacultyID  string `json:"faculty_id" validate:"required,uuid4"`
		Weekday    int    `json:"weekday" validate:"weekday"`
		TimeSlotID string `json:"time_slot_id" validate:"required,uuid4"`
	}

	NewCancellation struct {
		SlotID string `json:"slot_id" validate:"required,uuid4"`
		Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	}

	NewSubstitution struct {
		SlotID       string `json:"slot_id" validate:"required,uuid4"`
		Date         string `json:"date" validate:"required,datetime=2006-01-02"`
		SubstituteID string `json:"substitute_id" validate:"required,uuid4"`
	}

	NewExtraClass struct {
		TeacherID  string `json:"teacher_id" validate:"required,uuid4"`
		GroupID    string `json:"group_id" validate:"required,uuid4"`
		SubjectID  string `json:"subject_id" validate:"required,uuid4"`
		Date       string `json:"date" validate:"required,datetime=2006-01-02"`
		TimeSlotID string `json:"time_slot_id" validate:"required,uuid4"`
	}
)

func (nt NewTimeSlot) Validate(validate *validator.Validate) error { return validate.Struct(nt) }
func (ns NewSlot) Validate(validate *validator.Validate) error     { return validate.Struct(ns) }
func (nc NewCancellation) Validate(validate *validator.Validate) error {
	return validate.Struct(nc)
}
func (ns NewSubstitution) Validate(validate *validator.Validate) error {
	return validate.Struct(ns)
}
func (nx NewExtraClass) Validate(validate *validator.Validate) error {
	return validate.Struct(nx)
}
