package endpoint

import "time"

// Arguments holds the mapped operation arguments by parameter name. A
// parameter missing from the request is present with a nil value.
type Arguments map[string]any

func (a Arguments) Has(name string) bool {
	return a[name] != nil
}

func (a Arguments) String(name string) (string, bool) {
	v, ok := a[name].(string)
	return v, ok
}

func (a Arguments) Int(name string) (int64, bool) {
	v, ok := a[name].(int64)
	return v, ok
}

func (a Arguments) Float(name string) (float64, bool) {
	v, ok := a[name].(float64)
	return v, ok
}

func (a Arguments) Bool(name string) (bool, bool) {
	v, ok := a[name].(bool)
	return v, ok
}

func (a Arguments) Time(name string) (time.Time, bool) {
	v, ok := a[name].(time.Time)
	return v, ok
}

func (a Arguments) Duration(name string) (time.Duration, bool) {
	v, ok := a[name].(time.Duration)
	return v, ok
}

func (a Arguments) Strings(name string) []string {
	v, _ := a[name].([]string)
	return v
}

func (a Arguments) Ints(name string) []int64 {
	v, _ := a[name].([]int64)
	return v
}
