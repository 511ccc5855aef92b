// Package validation turns untyped JSON request bodies into typed records.
//
// A body is first decoded into a Payload (field name to raw JSON). A Binder
// reads typed values out of the payload, applying defaults and recording
// presence and type violations. The Validator then checks the resulting
// struct against its `validate` tags. Both stages report FieldErrors in the
// same shape, so a caller gets every offending field in one response.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error types reported in FieldError.Type.
const (
	TypeMissing     = "missing"
	TypeTypeError   = "type_error"
	TypeTooShort    = "string_too_short"
	TypeInvalidMail = "value_error.email"
	TypeJSONInvalid = "json_invalid"
	TypeValueError  = "value_error"
)

// FieldError describes a single rejected field.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// Errors is a list of field violations. It implements error.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(fe.Loc, "."), fe.Msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// has reports whether a violation is already recorded for loc.
func (e Errors) has(loc []string) bool {
	key := strings.Join(loc, ".")
	for _, fe := range e {
		if strings.Join(fe.Loc, ".") == key {
			return true
		}
	}
	return false
}

// Merge appends violations from other whose location is not yet present.
func (e Errors) Merge(other Errors) Errors {
	for _, fe := range other {
		if !e.has(fe.Loc) {
			e = append(e, fe)
		}
	}
	return e
}

// Payload is a decoded JSON object whose fields have not been typed yet.
type Payload map[string]json.RawMessage

// Decode reads a JSON object from r. A body that is not a JSON object is
// reported as Errors; failures reading r are returned as-is.
func Decode(r io.Reader) (Payload, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		return nil, Errors{{
			Loc:  []string{"body"},
			Msg:  "request body must be a JSON object",
			Type: TypeJSONInvalid,
		}}
	}

	return payload, nil
}

// Bind returns a Binder reading from p.
func (p Payload) Bind() *Binder {
	return &Binder{payload: p}
}

// Binder extracts typed fields from a Payload and accumulates violations.
type Binder struct {
	payload Payload
	errs    Errors
}

// Errors returns the violations recorded so far, or nil.
func (b *Binder) Errors() Errors {
	return b.errs
}

func (b *Binder) fail(name, msg, typ string) {
	b.errs = append(b.errs, FieldError{Loc: []string{"body", name}, Msg: msg, Type: typ})
}

// raw returns the field's JSON and whether it holds a non-null value.
func (b *Binder) raw(name string) (json.RawMessage, bool, bool) {
	raw, ok := b.payload[name]
	if !ok {
		return nil, false, false
	}
	isNull := strings.TrimSpace(string(raw)) == "null"
	return raw, true, !isNull
}

func (b *Binder) decode(name string, raw json.RawMessage, dst any, kind string) bool {
	if err := json.Unmarshal(raw, dst); err != nil {
		b.fail(name, "value is not a valid "+kind, TypeTypeError)
		return false
	}
	return true
}

// String reads a required string field.
func (b *Binder) String(name string) string {
	raw, present, set := b.raw(name)
	if !present || !set {
		b.fail(name, "field required", TypeMissing)
		return ""
	}
	var s string
	b.decode(name, raw, &s, "string")
	return s
}

// OptionalString reads a nullable string field. Absent and null yield nil.
func (b *Binder) OptionalString(name string) *string {
	raw, _, set := b.raw(name)
	if !set {
		return nil
	}
	var s string
	if !b.decode(name, raw, &s, "string") {
		return nil
	}
	return &s
}

// StringOr reads a string field that falls back to def when absent.
func (b *Binder) StringOr(name, def string) string {
	raw, present, set := b.raw(name)
	if !present {
		return def
	}
	if !set {
		b.fail(name, "none is not an allowed value", TypeTypeError)
		return def
	}
	var s string
	if !b.decode(name, raw, &s, "string") {
		return def
	}
	return s
}

// BoolOr reads a boolean field that falls back to def when absent.
func (b *Binder) BoolOr(name string, def bool) bool {
	raw, present, set := b.raw(name)
	if !present {
		return def
	}
	if !set {
		b.fail(name, "none is not an allowed value", TypeTypeError)
		return def
	}
	var v bool
	if !b.decode(name, raw, &v, "boolean") {
		return def
	}
	return v
}

// Validator checks structs against their `validate` tags.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s and converts tag failures into Errors.
func (v *Validator) Struct(s any) Errors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{{Loc: []string{"body"}, Msg: err.Error(), Type: TypeValueError}}
	}

	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, toFieldError(fe))
	}
	return out
}

// Check merges binding violations with tag violations on dst. It returns
// nil when the record is valid.
func (v *Validator) Check(b *Binder, dst any) Errors {
	errs := b.Errors().Merge(v.Struct(dst))
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func toFieldError(fe validator.FieldError) FieldError {
	loc := []string{"body", fe.Field()}

	switch fe.Tag() {
	case "required":
		return FieldError{Loc: loc, Msg: "field required", Type: TypeMissing}
	case "min":
		return FieldError{
			Loc:  loc,
			Msg:  fmt.Sprintf("ensure this value has at least %s characters", fe.Param()),
			Type: TypeTooShort,
		}
	case "email":
		return FieldError{Loc: loc, Msg: "value is not a valid email address", Type: TypeInvalidMail}
	default:
		return FieldError{
			Loc:  loc,
			Msg:  fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
			Type: TypeValueError,
		}
	}
}
