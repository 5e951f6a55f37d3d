package attendance

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core/schedule"
)

type (
	RosterEntry struct {
		StudentID string `json:"student_id" validate:"required,uuid4"`
		Status    string `json:"status" validate:"required,oneof=Present Absent"`
		IsLate    bool   `json:"is_late"`
	}

	NewRoster struct {
		Ref      schedule.SessionRef `json:"ref"`
		Date     string              `json:"date" validate:"required,datetime=2006-01-02"`
		MarkedBy string              `json:"marked_by" validate:"required,uuid4"`
		Entries  []RosterEntry       `json:"entries" validate:"required,dive"`
	}

	UpdateRecord struct {
		Status   string `json:"status" validate:"required,oneof=Present Absent"`
		IsLate   bool   `json:"is_late"`
		MarkedBy string `json:"marked_by" validate:"required,uuid4"`
	}
)

func (nr NewRoster) Validate(validate *validator.Validate) error { return validate.Struct(nr) }
func (ur UpdateRecord) Validate(validate *validator.Validate) error {
	return validate.Struct(ur)
}
