package assignment

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/school"
)

var (
	deadlineTag  = "deadline"
	deadlineText = "invalid deadline, expected a date like 2024-12-31 or 2024-12-31T23:59"

	assignmentTypeTag  = "assignment_type"
	assignmentTypeText = "must be one of file, mcq, essay"

	deadlineLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

	errInvalidDeadline = errors.New("invalid deadline")
)

// InitValidators registers the assignment validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(deadlineTag, deadlineValidation)
	core.RegisterCustomTranslation(validate, translator, deadlineTag, deadlineText)

	_ = validate.RegisterValidation(assignmentTypeTag, assignmentTypeValidation)
	core.RegisterCustomTranslation(validate, translator, assignmentTypeTag, assignmentTypeText)
}

// ParseDeadline accepts RFC 3339 timestamps and local "2006-01-02T15:04" or "2006-01-02" dates,
// the latter read as UTC. A bare date means the end of that day.
func ParseDeadline(s string) (time.Time, error) {
	s = core.CleanString(s)
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if layout == "2006-01-02" {
				t = t.Add(24*time.Hour - time.Second)
			}
			return t.UTC(), nil
		}
	}
	return time.Time{}, errInvalidDeadline
}

// Custom Validators

func deadlineValidation(fl validator.FieldLevel) bool {
	_, err := ParseDeadline(fl.Field().String())
	return err == nil
}

func assignmentTypeValidation(fl validator.FieldLevel) bool {
	return school.AssignmentType(fl.Field().String()).Valid()
}
