// Package validate is the single place where request data is checked
// before it reaches the store.
//
// Student runs as an explicit step in every create and update: it
// normalises the candidate record and either returns it ready to persist
// or returns validator.ValidationErrors describing every failing field.
// The store keeps its own unique and CHECK constraints, so nothing here
// is the last line of defence, it is the first.
package validate

import (
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/aanand-mishra/enrollment-api/internal/types"
	"github.com/go-playground/validator/v10"
)

// simpleEmailPattern accepts anything shaped like local@domain.tld with
// no whitespace. The stricter RFC check of the built-in "email" tag
// rejects addresses the frontend happily submits.
var simpleEmailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// v is built once; *validator.Validate caches struct metadata and is
// safe for concurrent use.
var v = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report field names the way the client sees them ("email", not "Email").
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "simple_email", func(fl validator.FieldLevel) bool {
		return simpleEmailPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "course", func(fl validator.FieldLevel) bool {
		return types.Course(fl.Field().String()).Valid()
	})
	mustRegister(v, "student_status", func(fl validator.FieldLevel) bool {
		return types.Status(fl.Field().String()).Valid()
	})
	mustRegister(v, "strong_password", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("validate: register " + tag + ": " + err.Error())
	}
}

// Normalize applies the canonical form to a candidate record: surrounding
// whitespace is dropped and the email is lowercased. It never fails and
// never fills in missing values; defaulting the status on create is the
// caller's decision.
func Normalize(s types.Student) types.Student {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	s.Phone = strings.TrimSpace(s.Phone)
	s.Course = types.Course(strings.TrimSpace(string(s.Course)))
	s.Status = types.Status(strings.TrimSpace(string(s.Status)))
	return s
}

// Student normalises s and checks every rule declared on types.Student.
//
// On success the normalised record is returned and is safe to hand to
// the store. On failure the returned error is validator.ValidationErrors
// and the record must not be persisted.
func Student(s types.Student) (types.Student, error) {
	s = Normalize(s)
	if err := v.Struct(s); err != nil {
		return types.Student{}, err
	}
	return s, nil
}

// Login checks the shape of a login request. It does not compare
// credentials; that is the auth handler's job.
func Login(req types.LoginRequest) (types.LoginRequest, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := v.Struct(req); err != nil {
		return types.LoginRequest{}, err
	}
	return req, nil
}

// StrongPassword reports whether p contains at least one upper-case
// letter, one lower-case letter and one digit. Length is checked by the
// "min" tag.
func StrongPassword(p string) bool {
	var upper, lower, digit bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}
