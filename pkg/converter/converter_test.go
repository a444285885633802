package converter

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func convert(c *TypeConverter, typeName string, v interface{}) (interface{}, error) {
	kind, err := LookupKind(typeName)
	if err != nil {
		return nil, err
	}
	return c.ConvertKind(kind, v)
}

func TestLookupKind(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"int", KindInteger},
		{"Int64", KindInteger},
		{"float64", KindFloat},
		{"DOUBLE   PRECISION", KindFloat},
		{"bool", KindBoolean},
		{"date", KindDate},
		{"datetime64[ns]", KindDateTime},
		{"str", KindText},
		{"object", KindText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LookupKind(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := LookupKind("uuid")
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestConvert(t *testing.T) {
	c := NewTypeConverter(nil)

	tests := []struct {
		name     string
		typeName string
		in       interface{}
		want     interface{}
	}{
		{"int from int32", "int", int32(30), int64(30)},
		{"int from string", "int", " 42 ", int64(42)},
		{"int from bytes", "int", []byte("7"), int64(7)},
		{"int from integral float", "int", 30.0, int64(30)},
		{"float from int", "float", int64(10), 10.0},
		{"float from string", "float", "10.005", 10.005},
		{"float from float32", "float", float32(0.1), 0.1},
		{"bool from string", "bool", "Yes", true},
		{"bool from int", "bool", int64(0), false},
		{"date from string", "date", "2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"date drops clock", "date", time.Date(2024, 3, 1, 13, 5, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"datetime from string", "datetime", "2024-03-01 13:05:00", time.Date(2024, 3, 1, 13, 5, 0, 0, time.UTC)},
		{"text from string", "str", "Jo", "Jo"},
		{"text from int", "str", int64(5), "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convert(c, tt.typeName, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertFailures(t *testing.T) {
	c := NewTypeConverter(nil)

	tests := []struct {
		name     string
		typeName string
		in       interface{}
	}{
		{"non numeric int", "int", "thirty"},
		{"fractional int", "int", 30.5},
		{"empty int", "int", "  "},
		{"non numeric float", "float", "ten"},
		{"nil float", "float", nil},
		{"infinite float text", "float", "inf"},
		{"signed infinite float text", "float", "+Inf"},
		{"nan float text", "float", "NaN"},
		{"nan float", "float", math.NaN()},
		{"infinite float", "float", math.Inf(-1)},
		{"bad bool", "bool", "maybe"},
		{"bad date", "date", "yesterday"},
		{"nil text", "text", nil},
		{"unsupported", "int", struct{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := convert(c, tt.typeName, tt.in)
			require.ErrorIs(t, err, ErrConversion)
		})
	}

	_, err := convert(c, "geometry", "x")
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestKnownTypesSorted(t *testing.T) {
	names := KnownTypes()
	require.NotEmpty(t, names)
	assert.IsNonDecreasing(t, names)
	assert.Contains(t, names, "datetime64[ns]")
}
