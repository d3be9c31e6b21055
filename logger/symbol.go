package logger

import (
	"go.uber.org/zap"

	"github.com/teranos/taxa/sym"
)

// Symbol-aware logging helpers.
// These log with the glyph as a structured field, not in the message, so
// logs stay queryable by symbol:
//
//	logger.DBInfow("Snapshot written", "records", n)

func symbolFields(symbol string, keysAndValues []interface{}) []interface{} {
	return append([]interface{}{FieldSymbol, symbol}, keysAndValues...)
}

// AxDebugw logs a debug message with the Ax symbol (⋈)
// Used for taxonomy queries
func AxDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Debugw(msg, symbolFields(sym.AX, keysAndValues)...)
	}
}

// DBInfow logs an info message with the DB symbol (⊔)
func DBInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, symbolFields(sym.DB, keysAndValues)...)
	}
}

// DBDebugw logs a debug message with the DB symbol (⊔)
func DBDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Debugw(msg, symbolFields(sym.DB, keysAndValues)...)
	}
}

// FetchInfow logs an info message with the IX symbol (⨳)
// Used for dump download and ingest
func FetchInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, symbolFields(sym.IX, keysAndValues)...)
	}
}

// ServeInfow logs an info message with the Serve symbol (⟶)
func ServeInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, symbolFields(sym.Serve, keysAndValues)...)
	}
}

// ConfigInfow logs an info message with the AM symbol (≡)
func ConfigInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, symbolFields(sym.AM, keysAndValues)...)
	}
}

// Instance logger wrappers, for components holding their own logger:
//
//	s.logger = logger.AddServeSymbol(base)

// AddDBSymbol wraps a logger with the DB symbol (⊔)
func AddDBSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.DB)
}

// AddIXSymbol wraps a logger with the IX symbol (⨳)
func AddIXSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.IX)
}

// AddAxSymbol wraps a logger with the Ax symbol (⋈)
func AddAxSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.AX)
}

// AddServeSymbol wraps a logger with the Serve symbol (⟶)
func AddServeSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Serve)
}
