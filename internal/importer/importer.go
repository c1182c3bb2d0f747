// Package importer loads clock logs exported by the point-of-sale backend.
//
// Accepted input is either {"clock_logs": [...]} (other top-level keys such
// as "wages" are ignored) or a bare array of rows. Each row is
// {"user": "...", "out": bool, "timestamp": unix-seconds}.
package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Tiliavir/tclock/internal/model"
	"github.com/Tiliavir/tclock/internal/storage"
)

// Row is one clock log entry.
type Row struct {
	User      string `json:"user" validate:"required"`
	Out       bool   `json:"out"`
	Timestamp int64  `json:"timestamp" validate:"gt=0"`
}

// ExternalID identifies the row across imports.
func (r Row) ExternalID() string {
	dir := "in"
	if r.Out {
		dir = "out"
	}
	return r.User + "#" + strconv.FormatInt(r.Timestamp, 10) + "#" + dir
}

// Record converts the row to a stored clock record.
func (r Row) Record() model.ClockRecord {
	return model.ClockRecord{
		ExternalID: r.ExternalID(),
		Employee:   r.User,
		Timestamp:  r.Timestamp,
		ClockOut:   r.Out,
		Source:     model.SourceImport,
	}
}

type document struct {
	ClockLogs []Row `json:"clock_logs"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Parse decodes clock log rows from r.
func Parse(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading clock logs: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("clock log input is empty")
	}

	if data[0] == '[' {
		var rows []Row
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("parsing clock logs: %s", formatDecodeError(err))
		}
		return rows, nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing clock logs: %s", formatDecodeError(err))
	}
	return doc.ClockLogs, nil
}

// Validate checks every row and reports all failures at once.
func Validate(rows []Row) error {
	var problems []string
	for i, row := range rows {
		if err := validate.Struct(row); err != nil {
			var ve validator.ValidationErrors
			if errors.As(err, &ve) {
				for _, fe := range ve {
					problems = append(problems, fmt.Sprintf("row %d: %s", i+1, formatFieldError(fe)))
				}
				continue
			}
			problems = append(problems, fmt.Sprintf("row %d: %v", i+1, err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid clock logs:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

func formatDecodeError(err error) string {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("invalid JSON at byte offset %d", syntaxErr.Offset)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("field '%s' should be of type %s", typeErr.Field, typeErr.Type.String())
	}
	return err.Error()
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", fe.Field())
	case "gt":
		return fmt.Sprintf("field '%s' must be greater than %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("field '%s' failed validation for '%s'", fe.Field(), fe.Tag())
}

// Result summarises an import.
type Result struct {
	Created   int
	Unchanged int
	Updated   int
	Errors    []string
}

// Import validates rows and upserts them. Nothing is written when any row
// is invalid. With dryRun the outcome is computed but not stored.
func Import(base string, loc *time.Location, rows []Row, dryRun bool, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var result Result
	if err := Validate(rows); err != nil {
		return result, err
	}

	for _, row := range rows {
		outcome, err := storage.UpsertExternal(base, loc, row.Record(), dryRun)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", row.ExternalID(), err))
			logger.Warn("import row failed", zap.String("external_id", row.ExternalID()), zap.Error(err))
			continue
		}
		switch outcome {
		case storage.Created:
			result.Created++
		case storage.Unchanged:
			result.Unchanged++
		case storage.Updated:
			result.Updated++
		}
		logger.Debug("import row",
			zap.String("external_id", row.ExternalID()),
			zap.Stringer("outcome", outcome),
			zap.Bool("dry_run", dryRun))
	}
	return result, nil
}
