package endpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// ParameterMapper coerces raw request values into typed operation arguments.
type ParameterMapper interface {
	Map(raw any, p Parameter) (any, error)
}

// Mapper is the default ParameterMapper.
//
// Raw values are nil (absent), a string or []string (selectors and query
// parameters) or a JSON decoded body value. Absent maps to nil. A list of
// values against a scalar parameter is comma-joined and the joined string is
// coerced, so "one=1&one=1" maps a string parameter to "1,1". A list
// parameter receives every value; a single string against a list parameter is
// split on commas.
type Mapper struct{}

const listSeparator = ","

var (
	errNotScalar    = errors.New("value is not a scalar")
	errNotIntegral  = errors.New("value is not an integral number")
	errIntegerRange = errors.New("value is out of the 64-bit integer range")
)

func (Mapper) Map(raw any, p Parameter) (res any, err error) {

	if isAbsent(raw) {
		return nil, nil
	}

	if p.List {
		res, err = mapList(raw, p.Type)
	} else {
		res, err = mapScalar(raw, p.Type)
	}
	if err != nil {
		err = &MappingFailure{Parameter: p, Value: raw, Err: err}
		res = nil
	}

	return
}

func isAbsent(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

func mapScalar(raw any, t ParameterType) (any, error) {

	if t == TypeAny {
		return raw, nil
	}

	switch v := raw.(type) {
	case []string:
		return coerce(strings.Join(v, listSeparator), t)
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			s, err := cast.ToStringE(e)
			if err != nil {
				return nil, err
			}
			parts[i] = s
		}
		return coerce(strings.Join(parts, listSeparator), t)
	case map[string]any:
		return nil, errNotScalar
	default:
		return coerce(v, t)
	}
}

func mapList(raw any, t ParameterType) (any, error) {

	var elems []any

	switch v := raw.(type) {
	case []string:
		for _, s := range v {
			elems = append(elems, s)
		}
	case []any:
		elems = v
	case string:
		for _, s := range strings.Split(v, listSeparator) {
			elems = append(elems, s)
		}
	default:
		elems = []any{v}
	}

	switch t {
	case TypeString:
		return coerceAll[string](elems, t)
	case TypeInteger:
		return coerceAll[int64](elems, t)
	case TypeNumber:
		return coerceAll[float64](elems, t)
	case TypeBoolean:
		return coerceAll[bool](elems, t)
	case TypeTime:
		return coerceAll[time.Time](elems, t)
	case TypeDuration:
		return coerceAll[time.Duration](elems, t)
	default:
		return elems, nil
	}
}

func coerceAll[T any](elems []any, t ParameterType) ([]T, error) {
	res := make([]T, 0, len(elems))
	for _, e := range elems {
		v, err := coerce(e, t)
		if err != nil {
			return nil, err
		}
		res = append(res, v.(T))
	}
	return res, nil
}

func coerce(v any, t ParameterType) (any, error) {

	if s, ok := v.(string); ok && t != TypeString {
		v = strings.TrimSpace(s)
	}

	switch t {
	case TypeString:
		return cast.ToStringE(v)
	case TypeInteger:
		return toInteger(v)
	case TypeNumber:
		if _, ok := v.(bool); ok {
			return nil, fmt.Errorf("unable to cast %#v to number", v)
		}
		return cast.ToFloat64E(v)
	case TypeBoolean:
		return cast.ToBoolE(v)
	case TypeTime:
		return cast.ToTimeE(v)
	case TypeDuration:
		return cast.ToDurationE(v)
	case TypeAny:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported parameter type '%s'", t)
	}
}

// toInteger parses strings in base 10 only; cast would read "010" as octal.
func toInteger(v any) (any, error) {
	switch n := v.(type) {
	case string:
		return strconv.ParseInt(n, 10, 64)
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return nil, errNotIntegral
		}
		// float64(math.MaxInt64) rounds up to 2^63
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return nil, errIntegerRange
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case bool:
		return nil, fmt.Errorf("unable to cast %#v to integer", v)
	default:
		return cast.ToInt64E(v)
	}
}
