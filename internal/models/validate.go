// ABOUTME: Input validation for analyses entered through the CLI or MCP tools.
// ABOUTME: The store itself accepts any record; only new user input is checked.
package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateInput checks a new analysis before it is handed to the store:
// exercise_type is required, form_score must be 0-100 and media_type one of
// video, image or url. created_at, when set, must parse.
func ValidateInput(a *AnalysisRecord) error {
	if a == nil {
		return errors.New("analysis is nil")
	}
	if err := validate.Struct(a); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return fmt.Errorf("invalid analysis: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid analysis: %w", err)
	}
	if a.CreatedAt != "" {
		if _, ok := ParseTimestamp(a.CreatedAt); !ok {
			return fmt.Errorf("invalid analysis: unparseable created_at %q", a.CreatedAt)
		}
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "ExerciseType":
		return "exercise type is required"
	case "FormScore":
		return fmt.Sprintf("form score %v must be between 0 and 100", fe.Value())
	case "MediaType":
		return fmt.Sprintf("media type %q must be video, image or url", fe.Value())
	default:
		return fe.Error()
	}
}
