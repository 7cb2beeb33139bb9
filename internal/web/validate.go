package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"time"

	"cybercase/internal/constants"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(dateLayout, fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("case_status", oneOf(constants.AllStatuses))
	v.RegisterValidation("case_priority", oneOf(constants.AllPriorities))
	v.RegisterValidation("crime_type", oneOf(constants.AllCrimeTypes))
	v.RegisterValidation("role", oneOf(constants.AllRoles))
	return v
}

func oneOf(allowed []string) validator.Func {
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[a] = true
	}
	return func(fl validator.FieldLevel) bool {
		return set[fl.Field().String()]
	}
}

// ValidationError maps JSON field names to what is wrong with them.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Missing reports whether any field failed its required check.
func (e *ValidationError) Missing() bool {
	for _, msg := range e.Fields {
		if msg == "is required" {
			return true
		}
	}
	return false
}

// DecodeJSONBody decodes a JSON body into dest, rejecting unknown fields, and
// validates it. Errors are *AppError for malformed bodies or *ValidationError.
func DecodeJSONBody(r *http.Request, dest any) error {
	defer func() {
		io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return NewAppError(ErrInvalidBody.Code, ErrInvalidBody.Message, ErrInvalidBody.HTTPStatus, err)
	}
	return Validate(dest)
}

// Validate checks struct tags on v.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			fields := make(map[string]string, len(errs))
			for _, fe := range errs {
				fields[fe.Field()] = validationMessage(fe)
			}
			return &ValidationError{Fields: fields}
		}
		return err
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "isodate":
		return "must be a YYYY-MM-DD date"
	case "case_status":
		return "must be one of " + strings.Join(constants.AllStatuses, ", ")
	case "case_priority":
		return "must be one of " + strings.Join(constants.AllPriorities, ", ")
	case "crime_type":
		return "must be one of " + strings.Join(constants.AllCrimeTypes, ", ")
	case "role":
		return "must be one of " + strings.Join(constants.AllRoles, ", ")
	}
	return "is invalid"
}

// FailBody reports a DecodeJSONBody error. Missing required fields are
// reported with missing, other validation problems with ErrValidation.
func FailBody(w http.ResponseWriter, r *http.Request, err error, missing *AppError) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		e := ErrValidation
		if ve.Missing() && missing != nil {
			e = missing
		}
		resp := envelope(r, false)
		resp.Data = ve
		resp.ErrorCode = e.Code
		resp.Message = e.Message
		writeJSON(w, e.HTTPStatus, resp)
		return
	}
	var ae *AppError
	if errors.As(err, &ae) {
		FailErr(w, r, ae)
		return
	}
	FailErr(w, r, ErrInvalidBody)
}
