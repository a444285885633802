// pkg/converter/converter.go
package converter

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrConversion is returned when a value cannot be cast to its declared type
	ErrConversion = errors.New("value conversion failed")
	// ErrUnknownType is returned for a declared type name with no converter
	ErrUnknownType = errors.New("unknown data type")
)

// Kind is the canonical target of a declared type name
type Kind string

const (
	KindInteger  Kind = "integer"
	KindFloat    Kind = "float"
	KindBoolean  Kind = "boolean"
	KindDate     Kind = "date"
	KindDateTime Kind = "datetime"
	KindText     Kind = "text"
)

// ConvertFunc casts a raw value to the Go type of a Kind
type ConvertFunc func(value interface{}) (interface{}, error)

// typeAliases maps declared type names (lowercased) onto kinds. The names
// cover both SQL spellings and the dtype names used in data_types.yaml.
var typeAliases = map[string]Kind{
	"int":      KindInteger,
	"int8":     KindInteger,
	"int16":    KindInteger,
	"int32":    KindInteger,
	"int64":    KindInteger,
	"integer":  KindInteger,
	"smallint": KindInteger,
	"bigint":   KindInteger,

	"float":            KindFloat,
	"float32":          KindFloat,
	"float64":          KindFloat,
	"double":           KindFloat,
	"double precision": KindFloat,
	"real":             KindFloat,
	"numeric":          KindFloat,
	"decimal":          KindFloat,

	"bool":    KindBoolean,
	"boolean": KindBoolean,

	"date": KindDate,

	"datetime":       KindDateTime,
	"datetime64":     KindDateTime,
	"datetime64[ns]": KindDateTime,
	"timestamp":      KindDateTime,
	"timestamptz":    KindDateTime,

	"str":     KindText,
	"string":  KindText,
	"text":    KindText,
	"object":  KindText,
	"varchar": KindText,
}

// LookupKind resolves a declared type name to its Kind
func LookupKind(typeName string) (Kind, error) {
	kind, ok := typeAliases[normalizeTypeName(typeName)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}
	return kind, nil
}

// KnownTypes returns every accepted type name in sorted order
func KnownTypes() []string {
	names := make([]string, 0, len(typeAliases))
	for name := range typeAliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TypeConverter casts values through an explicit per-kind function table
type TypeConverter struct {
	logger *zap.Logger
	funcs  map[Kind]ConvertFunc
}

// NewTypeConverter creates a TypeConverter with the default conversion table
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TypeConverter{
		logger: logger,
		funcs: map[Kind]ConvertFunc{
			KindInteger:  toInteger,
			KindFloat:    toFloat,
			KindBoolean:  toBoolean,
			KindDate:     toDate,
			KindDateTime: toDateTime,
			KindText:     toText,
		},
	}
}

// ConvertKind casts value to a resolved kind
func (c *TypeConverter) ConvertKind(kind Kind, value interface{}) (interface{}, error) {
	fn, ok := c.funcs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no converter for kind %s", ErrUnknownType, kind)
	}

	converted, err := fn(value)
	if err != nil {
		c.logger.Debug("Conversion failed",
			zap.String("kind", string(kind)),
			zap.Any("value", value),
			zap.Error(err))
		return nil, fmt.Errorf("%w: cannot convert %T %v to %s: %v", ErrConversion, value, value, kind, err)
	}
	return converted, nil
}

func normalizeTypeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
