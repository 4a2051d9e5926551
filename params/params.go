// Package params resolves query-string parameters against a declared kind,
// required-ness, allow-list and default.
package params

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"blinks/apperr"
)

var (
	ErrMissingParameter = errors.New("missing parameter")
	ErrInvalidType      = errors.New("invalid parameter type")
	ErrInvalidValue     = errors.New("invalid parameter value")
)

// Kind is the declared type of a parameter. It is never inferred from the
// raw value, so a free-text field that happens to look numeric stays a string.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindEnum:
		return "enum"
	default:
		return "string"
	}
}

// Spec declares one parameter. Allowed and Default hold values of the kind's
// Go type: string for KindString/KindEnum, any integer or float for
// KindNumber, bool for KindBool.
type Spec struct {
	Name     string
	Kind     Kind
	Required bool
	Allowed  []any
	Default  any
}

// Resolver reads parameters from a query string and logs each decision.
type Resolver struct {
	values url.Values
	log    logrus.FieldLogger
}

func NewResolver(values url.Values, log logrus.FieldLogger) *Resolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{values: values, log: log}
}

// Get resolves spec and returns a string, float64 or bool depending on Kind.
func (r *Resolver) Get(spec Spec) (any, error) {
	raw, present := r.lookup(spec.Name)

	if !present && spec.Default != nil {
		r.log.WithField("param", spec.Name).Debugf("[getRequestParam] Parameter not provided, used default: %v", spec.Default)
		if spec.Kind != KindNumber {
			return spec.Default, nil
		}
		n, ok := toFloat(spec.Default)
		if !ok {
			return nil, apperr.Configuration("Invalid parameter default",
				fmt.Errorf("default of %s is %T, want a number", spec.Name, spec.Default))
		}
		return n, nil
	}
	if !present {
		if spec.Required {
			r.log.WithField("param", spec.Name).Warn("[getRequestParam] Missing required parameter")
			return nil, apperr.Validationf(spec.Name, ErrMissingParameter, "Missing required parameter: %s", spec.Name)
		}
		return nil, nil
	}

	var value any
	switch spec.Kind {
	case KindNumber:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			r.log.WithField("param", spec.Name).Warnf("[getRequestParam] Parameter is not a valid number: %q", raw)
			return nil, apperr.Validationf(spec.Name, ErrInvalidType, "Parameter %q must be a valid number", spec.Name)
		}
		value = n
	case KindBool:
		value = raw == "true"
	default:
		value = raw
	}

	if len(spec.Allowed) > 0 && !contains(spec.Allowed, value) {
		allowed := joinValues(spec.Allowed)
		r.log.WithField("param", spec.Name).Warnf("[getRequestParam] Invalid value %v, expected one of: %s", value, allowed)
		return nil, apperr.Validationf(spec.Name, ErrInvalidValue,
			"Invalid value for parameter: %s. Expected one of: %s", spec.Name, allowed)
	}

	r.log.WithField("param", spec.Name).Debugf("[getRequestParam] Retrieved parameter: %v", value)
	return value, nil
}

// String resolves a KindString or KindEnum parameter. An absent optional
// parameter yields "".
func (r *Resolver) String(spec Spec) (string, error) {
	if spec.Kind != KindEnum {
		spec.Kind = KindString
	}
	v, err := r.Get(spec)
	if err != nil || v == nil {
		return "", err
	}
	return v.(string), nil
}

// Number resolves a KindNumber parameter.
func (r *Resolver) Number(spec Spec) (float64, error) {
	spec.Kind = KindNumber
	v, err := r.Get(spec)
	if err != nil || v == nil {
		return 0, err
	}
	return v.(float64), nil
}

// Int resolves a KindNumber parameter that must be a whole number.
func (r *Resolver) Int(spec Spec) (int64, error) {
	n, err := r.Number(spec)
	if err != nil {
		return 0, err
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
	if n != math.Trunc(n) || n >= 1<<63 || n < -1<<63 {
		return 0, apperr.Validationf(spec.Name, ErrInvalidType, "Parameter %q must be a whole number", spec.Name)
	}
	return int64(n), nil
}

// Decimal resolves a KindNumber parameter straight from its raw text so
// amounts keep every digit the caller sent.
func (r *Resolver) Decimal(spec Spec) (decimal.Decimal, error) {
	n, err := r.Number(spec)
	if err != nil {
		return decimal.Zero, err
	}
	raw, present := r.lookup(spec.Name)
	if !present {
		return decimal.NewFromFloat(n), nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		r.log.WithField("param", spec.Name).Warnf("[getRequestParam] Parameter is not a valid decimal: %q", raw)
		return decimal.Zero, apperr.Validationf(spec.Name, ErrInvalidType, "Parameter %q must be a valid number", spec.Name)
	}
	return d, nil
}

// Bool resolves a KindBool parameter. Only the literal "true" is true.
func (r *Resolver) Bool(spec Spec) (bool, error) {
	spec.Kind = KindBool
	v, err := r.Get(spec)
	if err != nil || v == nil {
		return false, err
	}
	return v.(bool), nil
}

func (r *Resolver) lookup(name string) (string, bool) {
	vs, ok := r.values[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Require fails with "[field] msg" when cond does not hold.
func Require(field string, cond bool, msg string) error {
	if cond {
		return nil
	}
	return apperr.Validation(field, msg)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func contains(allowed []any, v any) bool {
	for _, a := range allowed {
		if equal(a, v) {
			return true
		}
	}
	return false
}

func equal(a, b any) bool {
	switch av := a.(type) {
	case int:
		bf, ok := b.(float64)
		return ok && float64(av) == bf
	case float64:
		bf, ok := b.(float64)
		return ok && av == bf
	default:
		return a == b
	}
}

func joinValues(vs []any) string {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		switch tv := v.(type) {
		case float64:
			parts = append(parts, strconv.FormatFloat(tv, 'f', -1, 64))
		case string:
			parts = append(parts, tv)
		case bool:
			parts = append(parts, strconv.FormatBool(tv))
		case int:
			parts = append(parts, strconv.Itoa(tv))
		}
	}
	return strings.Join(parts, ", ")
}
