package authform

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Values are the raw field values posted by the browser or API client.
type Values struct {
	FullName string `json:"fullName" form:"fullName"`
	Email    string `json:"email" form:"email"`
}

// Input is a validated submission. It is either a SignInInput or a
// SignUpInput; the full name only exists on the sign-up shape.
type Input interface {
	Mode() Mode
	EmailAddress() string
	input()
}

// SignInInput is a validated sign-in submission.
type SignInInput struct {
	Email string `json:"email" validate:"required,email"`
}

// SignUpInput is a validated sign-up submission.
type SignUpInput struct {
	FullName string `json:"fullName" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
}

func (SignInInput) Mode() Mode { return SignIn }
func (in SignInInput) EmailAddress() string { return in.Email }
func (SignInInput) input() {}

func (SignUpInput) Mode() Mode { return SignUp }
func (in SignUpInput) EmailAddress() string { return in.Email }
func (SignUpInput) input() {}

// FieldErrors maps a field name ("email", "fullName") to its message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		validate = v
	})
	return validate
}

// Decode picks the input shape for mode and validates values against it. A
// validation failure is returned as FieldErrors. In sign-in mode the full
// name is dropped without being looked at.
func Decode(mode Mode, values Values) (Input, error) {
	var in Input
	switch mode {
	case SignIn:
		in = SignInInput{Email: values.Email}
	case SignUp:
		in = SignUpInput{FullName: values.FullName, Email: values.Email}
	default:
		_, err := ParseMode(string(mode))
		return nil, err
	}

	if err := validatorInstance().Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		fields := make(FieldErrors, len(verrs))
		for _, fe := range verrs {
			if _, seen := fields[fe.Field()]; !seen {
				fields[fe.Field()] = message(fe)
			}
		}
		return nil, fields
	}
	return in, nil
}

func message(fe validator.FieldError) string {
	switch fe.Field() {
	case "email":
		return "Invalid email"
	case "fullName":
		if fe.Tag() == "max" {
			return "String must contain at most 50 character(s)"
		}
		return "String must contain at least 2 character(s)"
	}
	return "Invalid value"
}
