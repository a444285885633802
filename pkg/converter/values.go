// pkg/converter/values.go
package converter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/David-Botos/sales-etl/pkg/model"
)

var errNilValue = errors.New("nil value")

// Layouts accepted when parsing dates and timestamps from text
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	model.DateLayout,
	"2006/01/02",
	"01/02/2006",
	"01-02-2006",
}

// toInteger converts a value to int64. Floats must be integral.
func toInteger(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case nil:
		return nil, errNilValue
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case int64:
		return val, nil
	case uint:
		return uintToInt64(uint64(val))
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint64:
		return uintToInt64(val)
	case float32:
		return floatToInt64(float64(val))
	case float64:
		return floatToInt64(val)
	case string:
		return parseInteger(val)
	case []byte:
		return parseInteger(string(val))
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

func uintToInt64(v uint64) (interface{}, error) {
	if v > math.MaxInt64 {
		return nil, errors.New("uint64 value overflow for int64")
	}
	return int64(v), nil
}

func floatToInt64(f float64) (interface{}, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("%v is not an integral value", f)
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return nil, fmt.Errorf("%v overflows int64", f)
	}
	return int64(f), nil
}

func parseInteger(s string) (interface{}, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return nil, errors.New("empty string")
	}
	i, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return nil, err
	}
	return i, nil
}

// toFloat converts a value to a finite float64. NaN and infinities are rejected.
func toFloat(v interface{}) (interface{}, error) {
	f, err := toFloat64(v)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite value %v", f)
	}
	return f, nil
}

func toFloat64(v interface{}) (float64, error) {
	switch val := v.(type) {
	case nil:
		return 0, errNilValue
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return strconv.ParseFloat(model.FormatValue(val), 64)
	case float32:
		// go through the shortest decimal form so 0.1f32 becomes 0.1
		return strconv.ParseFloat(model.FormatValue(val), 64)
	case float64:
		return val, nil
	case string:
		return parseFloat(val)
	case []byte:
		return parseFloat(string(val))
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func parseFloat(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return 0, errors.New("empty string")
	}
	return strconv.ParseFloat(cleaned, 64)
}

// toBoolean converts a value to bool
func toBoolean(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case nil:
		return nil, errNilValue
	case bool:
		return val, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		i, err := toInteger(val)
		if err != nil {
			return nil, err
		}
		return i.(int64) != 0, nil
	case string:
		return parseBoolean(val)
	case []byte:
		return parseBoolean(string(val))
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

func parseBoolean(s string) (interface{}, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	default:
		return nil, fmt.Errorf("cannot parse %q as boolean", s)
	}
}

// toDate converts a value to a UTC midnight time.Time, keeping the calendar
// day of the source value
func toDate(v interface{}) (interface{}, error) {
	t, err := toTime(v)
	if err != nil {
		return nil, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// toDateTime converts a value to time.Time
func toDateTime(v interface{}) (interface{}, error) {
	t, err := toTime(v)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func toTime(v interface{}) (time.Time, error) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, errNilValue
	case time.Time:
		return val, nil
	case string:
		return parseTime(val)
	case []byte:
		return parseTime(string(val))
	default:
		return time.Time{}, fmt.Errorf("unsupported type %T", v)
	}
}

func parseTime(s string) (time.Time, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return time.Time{}, errors.New("empty string")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time from %q", cleaned)
}

// toText converts a value to its canonical text form
func toText(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, errNilValue
	}
	return model.FormatValue(v), nil
}
