package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/David-Botos/sales-etl/pkg/cleaner"
	"github.com/David-Botos/sales-etl/pkg/config"
	"github.com/David-Botos/sales-etl/pkg/converter"
	"github.com/David-Botos/sales-etl/pkg/report"
	"github.com/David-Botos/sales-etl/pkg/verify"
)

// Stage names a step of the run
type Stage string

const (
	StageLoad   Stage = "load"
	StageClean  Stage = "clean"
	StageVerify Stage = "verify"
	StageReport Stage = "report"
)

// ErrorKind classifies a failed run
type ErrorKind int

const (
	ErrorKindNone ErrorKind = iota
	ErrorKindConfig
	ErrorKindDatabase
	ErrorKindSchemaMismatch
	ErrorKindTypeCoercion
	ErrorKindDuplicateRows
	ErrorKindIntegrity
	ErrorKindReport
	ErrorKindCanceled
	ErrorKindUnknown
)

// String returns a string representation of the error kind
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNone:
		return "none"
	case ErrorKindConfig:
		return "config"
	case ErrorKindDatabase:
		return "database"
	case ErrorKindSchemaMismatch:
		return "schema_mismatch"
	case ErrorKindTypeCoercion:
		return "type_coercion"
	case ErrorKindDuplicateRows:
		return "duplicate_rows"
	case ErrorKindIntegrity:
		return "integrity"
	case ErrorKindReport:
		return "report"
	case ErrorKindCanceled:
		return "canceled"
	case ErrorKindUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// StageError wraps the error that stopped a run with the stage and table it
// happened in
type StageError struct {
	Stage Stage
	Table string
	Kind  ErrorKind
	Err   error
}

// NewStageError classifies err and wraps it
func NewStageError(stage Stage, table string, err error) *StageError {
	return &StageError{
		Stage: stage,
		Table: table,
		Kind:  Classify(stage, err),
		Err:   err,
	}
}

// Error implements error
func (e *StageError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s %s failed [%s]: %v", e.Stage, e.Table, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s failed [%s]: %v", e.Stage, e.Kind, e.Err)
}

// Unwrap returns the underlying error
func (e *StageError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a run error, ErrorKindNone for nil and
// ErrorKindUnknown for errors that did not come from a stage
func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrorKindNone
	}
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return Classify("", err)
}

// Classify determines the kind of an error raised in stage
func Classify(stage Stage, err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorKindCanceled
	case errors.Is(err, config.ErrMissingConfig), errors.Is(err, converter.ErrUnknownType):
		return ErrorKindConfig
	case errors.Is(err, config.ErrSchemaMismatch):
		return ErrorKindSchemaMismatch
	case errors.Is(err, cleaner.ErrTypeCoercion), errors.Is(err, converter.ErrConversion):
		return ErrorKindTypeCoercion
	case errors.Is(err, cleaner.ErrDuplicateRows):
		return ErrorKindDuplicateRows
	case errors.Is(err, verify.ErrDuplicateKey), errors.Is(err, verify.ErrOrphanReference):
		return ErrorKindIntegrity
	case errors.Is(err, report.ErrSpendRowCountMismatch):
		return ErrorKindReport
	}

	switch stage {
	case StageLoad:
		return ErrorKindDatabase
	case StageReport:
		return ErrorKindReport
	default:
		return ErrorKindUnknown
	}
}
