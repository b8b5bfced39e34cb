package endpoint_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/sofmon/actuator/lib/endpoint"
)

func TestMapper(t *testing.T) {

	mapper := endpoint.Mapper{}

	tests := map[string]struct {
		raw  any
		p    endpoint.Parameter
		want any
	}{
		"absent":                 {nil, endpoint.Param("one", endpoint.TypeString), nil},
		"absent list":            {[]string{}, endpoint.ListParam("one", endpoint.TypeInteger), nil},
		"string":                 {[]string{"1"}, endpoint.Param("one", endpoint.TypeString), "1"},
		"repeated string joined": {[]string{"1", "1"}, endpoint.Param("one", endpoint.TypeString), "1,1"},
		"integer":                {[]string{"2"}, endpoint.Param("two", endpoint.TypeInteger), int64(2)},
		"integer base 10":        {"010", endpoint.Selector("two", endpoint.TypeInteger), int64(10)},
		"integer from json":      {float64(42), endpoint.Param("two", endpoint.TypeInteger), int64(42)},
		"number":                 {[]string{"2.5"}, endpoint.Param("n", endpoint.TypeNumber), 2.5},
		"boolean":                {"true", endpoint.Param("b", endpoint.TypeBoolean), true},
		"boolean from json":      {false, endpoint.Param("b", endpoint.TypeBoolean), false},
		"duration":               {"1m30s", endpoint.Param("d", endpoint.TypeDuration), 90 * time.Second},
		"selector with dot":      {"foo.bar", endpoint.Selector("name", endpoint.TypeString), "foo.bar"},
		"list":                   {[]string{"2", "2"}, endpoint.ListParam("two", endpoint.TypeInteger), []int64{2, 2}},
		"list split":             {"a,b", endpoint.ListParam("s", endpoint.TypeString), []string{"a", "b"}},
		"list from json":         {[]any{"x", "y"}, endpoint.ListParam("s", endpoint.TypeString), []string{"x", "y"}},
		"any keeps raw value":    {map[string]any{"k": "v"}, endpoint.Param("a", endpoint.TypeAny), map[string]any{"k": "v"}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := mapper.Map(tt.raw, tt.p)
			if err != nil {
				t.Fatalf("Map failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Map = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestMapperTime(t *testing.T) {

	got, err := endpoint.Mapper{}.Map("2024-03-01T10:00:00Z", endpoint.Param("at", endpoint.TypeTime))
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if at, ok := got.(time.Time); !ok || !at.Equal(want) {
		t.Errorf("Map = %v, want %v", got, want)
	}
}

func TestMapperFailure(t *testing.T) {

	mapper := endpoint.Mapper{}

	tests := map[string]struct {
		raw any
		p   endpoint.Parameter
	}{
		"integer from word":     {[]string{"two"}, endpoint.Param("two", endpoint.TypeInteger)},
		"integer from fraction": {float64(1.5), endpoint.Param("two", endpoint.TypeInteger)},
		"integer from bool":     {true, endpoint.Param("two", endpoint.TypeInteger)},
		"integer above range":   {float64(1e19), endpoint.Param("two", endpoint.TypeInteger)},
		"integer below range":   {float64(-1e19), endpoint.Param("two", endpoint.TypeInteger)},
		"integer far out":       {float64(1e300), endpoint.Param("two", endpoint.TypeInteger)},
		"integer text overflow": {"9223372036854775808", endpoint.Param("two", endpoint.TypeInteger)},
		"repeated integer":      {[]string{"1", "2"}, endpoint.Param("two", endpoint.TypeInteger)},
		"number from bool":      {true, endpoint.Param("n", endpoint.TypeNumber)},
		"boolean from word":     {"maybe", endpoint.Param("b", endpoint.TypeBoolean)},
		"list element":          {[]string{"2", "x"}, endpoint.ListParam("two", endpoint.TypeInteger)},
		"object against scalar": {map[string]any{"k": "v"}, endpoint.Param("s", endpoint.TypeString)},
		"duration without unit": {"ten", endpoint.Param("d", endpoint.TypeDuration)},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := mapper.Map(tt.raw, tt.p)
			if err == nil {
				t.Fatalf("expected failure, got %#v", got)
			}
			var failure *endpoint.MappingFailure
			if !errors.As(err, &failure) {
				t.Fatalf("expected *MappingFailure, got %T", err)
			}
			if failure.Parameter.Name != tt.p.Name {
				t.Errorf("failure names parameter %q, want %q", failure.Parameter.Name, tt.p.Name)
			}
		})
	}
}
