package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"investtracker/internal/core"
)

// AddRequest is the add form. Amount is checked by the window, which keeps
// the typed text and shows its own warning.
type AddRequest struct {
	Type   string `validate:"required,investment_type"`
	Amount string
}

// ConfirmRequest answers the delete confirmation.
type ConfirmRequest struct {
	Answer string `validate:"required,oneof=yes no"`
}

// Yes reports an affirmative answer.
func (c ConfirmRequest) Yes() bool {
	return c.Answer == "yes"
}

// The tags only reject requests the page itself cannot produce.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("investment_type", validateInvestmentType)
	return v
}

func validateInvestmentType(fl validator.FieldLevel) bool {
	_, err := core.ParseType(fl.Field().String())
	return err == nil
}

// describeValidation turns validator errors into one short message.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "investment_type":
			msgs = append(msgs, fmt.Sprintf("unknown investment type %q", fe.Value()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", strings.ToLower(fe.Field()), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field())))
		}
	}
	return strings.Join(msgs, "; ")
}
