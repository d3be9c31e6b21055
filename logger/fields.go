package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across taxa.
const (
	// Identity and context
	FieldRequestID = "request_id"
	FieldComponent = "component"

	// Operations
	FieldOperation = "operation"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"
	FieldHint  = "hint"

	// Counts and sizes
	FieldCount = "count"
	FieldSize  = "size"

	// Files, sources and network
	FieldFile    = "file"
	FieldSource  = "source"
	FieldAddress = "address"
	FieldPort    = "port"

	// Taxonomy
	FieldSymbol  = "symbol"  // taxa glyph (⋈, ⨳, ⊔, ...)
	FieldTaxid   = "taxid"   // queried taxid
	FieldTaxids  = "taxids"  // taxid list
	FieldLCA     = "lca"     // lowest common ancestor
	FieldClade   = "clade"   // clade name
	FieldRank    = "rank"    // taxonomic rank
	FieldRecords = "records" // record count in a snapshot
	FieldMerged  = "merged"  // merged entry count
	FieldDeleted = "deleted" // deleted entry count
)

// Context keys for propagating logging context
type contextKey string

const (
	requestIDKey contextKey = "logger_request_id"
	componentKey contextKey = "logger_component"
)

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request ID carried by ctx, or ""
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if requestID := RequestID(ctx); requestID != "" {
		fields = append(fields, FieldRequestID, requestID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns base with the fields carried by ctx
func LoggerFromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if base == nil {
		base = Logger
	}
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
