// Package input holds the permissive numeric field types used by calculator
// requests. A value that cannot be read as a number becomes 0 instead of an
// error, so a malformed field never aborts a calculation.
package input

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"

	"github.com/spf13/cast"
)

// Float is a float64 that accepts JSON numbers, numeric strings ("1,250.50",
// " 6.5 ", "$400,000"), booleans and null.
type Float float64

// Int is an int with the same permissive decoding as Float. Fractional input
// is truncated.
type Int int

// ParseFloat converts any value to a float64, returning 0 on failure. NaN and
// infinities also become 0.
func ParseFloat(v interface{}) float64 {
	if s, ok := v.(string); ok {
		v = cleanNumeric(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseInt converts any value to an int, returning 0 on failure.
func ParseInt(v interface{}) int {
	return int(ParseFloat(v))
}

// Float64 returns the plain value.
func (f Float) Float64() float64 { return float64(f) }

// Int returns the plain value.
func (i Int) Int() int { return int(i) }

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float) UnmarshalJSON(data []byte) error {
	*f = Float(ParseFloat(decodeRaw(data)))
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (i *Int) UnmarshalJSON(data []byte) error {
	*i = Int(ParseInt(decodeRaw(data)))
	return nil
}

// UnmarshalYAML implements the yaml Unmarshaler via the scalar value.
func (f *Float) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		*f = 0
		return nil
	}
	*f = Float(ParseFloat(raw))
	return nil
}

// UnmarshalYAML implements the yaml Unmarshaler via the scalar value.
func (i *Int) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		*i = 0
		return nil
	}
	*i = Int(ParseInt(raw))
	return nil
}

var (
	floatType = reflect.TypeOf(Float(0))
	intType   = reflect.TypeOf(Int(0))
)

// DecodeHook is a mapstructure decode hook that routes any source value
// destined for a Float or Int through the permissive parsers.
func DecodeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	switch to {
	case floatType:
		return Float(ParseFloat(data)), nil
	case intType:
		return Int(ParseInt(data)), nil
	}
	return data, nil
}

func decodeRaw(data []byte) interface{} {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	return raw
}

// cleanNumeric strips currency symbols, thousands separators, percent signs
// and surrounding space.
func cleanNumeric(s string) string {
	return strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(strings.TrimSpace(s))
}
