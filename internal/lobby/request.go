package lobby

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidRequest = errors.New("invalid request")

var validate = validator.New()

// HostRequest is what the connect screen submits to host a game.
type HostRequest struct {
	Name string `validate:"required,max=32"`
}

// JoinRequest is what the connect screen submits to join a game.
type JoinRequest struct {
	Address string `validate:"required,hostname|ip"`
	Name    string `validate:"required,max=32"`
}

// ValidateHost checks a host request before any network work happens.
func ValidateHost(req HostRequest) error {
	return check(req)
}

// ValidateJoin checks a join request before any network work happens.
func ValidateJoin(req JoinRequest) error {
	return check(req)
}

func check(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "hostname|ip":
		return field + " must be a hostname or IP address"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
