// Package sym defines the glyphs taxa uses to tag log lines and command help.
// They are stable across CLI output and structured logs, so logs can be
// filtered by the "symbol" field.
package sym

// Command glyphs.
const (
	AM = "≡" // am: configuration
	IX = "⨳" // ix: taxonomy dump ingest (fetch, parse, build)
	AX = "⋈" // ax: taxonomy queries
)

// System glyphs.
const (
	DB    = "⊔" // snapshot cache
	Serve = "⟶" // HTTP surface
)

// CommandToSymbol maps top-level command names to their glyph.
var CommandToSymbol = map[string]string{
	"am":       AM,
	"taxonomy": IX,
	"taxid":    AX,
	"record":   AX,
	"check":    AX,
	"db":       DB,
	"serve":    Serve,
}

// Descriptions explain each glyph for help output.
var Descriptions = map[string]string{
	AM:    "Configuration",
	IX:    "Taxonomy dump ingest",
	AX:    "Taxonomy queries",
	DB:    "Snapshot cache",
	Serve: "HTTP API",
}

// ForCommand returns the glyph for a command, or "" when it has none.
func ForCommand(name string) string {
	return CommandToSymbol[name]
}
