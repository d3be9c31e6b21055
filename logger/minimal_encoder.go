package logger

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"github.com/teranos/taxa/sym"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

// palette is one color theme
type palette struct {
	fg        string
	time      string
	id        string
	number    string
	symbol    string
	bracket   string
	component []string
	query     string // lineage and lookup messages
	ingest    string // fetch, parse and cache messages
	lifecycle string // server and config messages
	warn      string
	warnBg    string
	err       string
	errBg     string
}

// Gruvbox Dark (warm, muted)
var gruvbox = palette{
	fg:        "\x1b[38;5;223m",
	time:      "\x1b[38;5;108m",
	id:        "\x1b[38;5;109m",
	number:    "\x1b[38;5;175m",
	symbol:    "\x1b[38;5;142m",
	bracket:   "\x1b[38;5;208m",
	component: []string{"\x1b[38;5;208m", "\x1b[38;5;214m"},
	query:     "\x1b[38;5;142m",
	ingest:    "\x1b[38;5;109m",
	lifecycle: "\x1b[38;5;208m",
	warn:      "\x1b[38;5;214m",
	warnBg:    "\x1b[48;5;58m",
	err:       "\x1b[38;5;167m",
	errBg:     "\x1b[48;5;88m",
}

// Everforest Dark (forest greens)
var everforest = palette{
	fg:        "\x1b[38;5;223m",
	time:      "\x1b[38;5;107m",
	id:        "\x1b[38;5;109m",
	number:    "\x1b[38;5;108m",
	symbol:    "\x1b[38;5;108m",
	bracket:   "\x1b[38;5;208m",
	component: []string{"\x1b[38;5;108m", "\x1b[38;5;65m", "\x1b[38;5;208m"},
	query:     "\x1b[38;5;108m",
	ingest:    "\x1b[38;5;107m",
	lifecycle: "\x1b[38;5;65m",
	warn:      "\x1b[38;5;179m",
	warnBg:    "\x1b[48;5;58m",
	err:       "\x1b[38;5;167m",
	errBg:     "\x1b[48;5;52m",
}

var (
	currentTheme = "everforest"

	bracketPattern = regexp.MustCompile(`\[([^\]]+)\]`)
	allSymbols     = []string{sym.AM, sym.IX, sym.AX, sym.DB, sym.Serve}
)

// SetTheme configures the color scheme for console output. Unknown themes are ignored.
func SetTheme(theme string) {
	if theme == "everforest" || theme == "gruvbox" {
		currentTheme = theme
	}
}

func colors() palette {
	if currentTheme == "gruvbox" {
		return gruvbox
	}
	return everforest
}

// colorComponent picks a stable color per component name
func colorComponent(name string) string {
	hash := 0
	for _, c := range name {
		hash += int(c)
	}
	options := colors().component
	return options[hash%len(options)]
}

func colorMessage(msg string) string {
	p := colors()
	lower := strings.ToLower(msg)
	switch {
	case containsAny(lower, "lineage", "ancestor", "query", "lookup", "clade"):
		return p.query
	case containsAny(lower, "fetch", "download", "parsed", "snapshot", "cache", "migration"):
		return p.ingest
	case containsAny(lower, "listening", "started", "stopping", "config", "reload"):
		return p.lifecycle
	}
	return p.fg
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// colorizeMessage colors bracketed markers ([taxid:562], [nodes.dmp]) and glyphs
func colorizeMessage(msg string) string {
	p := colors()
	base := colorMessage(msg)

	var result strings.Builder
	last := 0
	for _, match := range bracketPattern.FindAllStringIndex(msg, -1) {
		if before := msg[last:match[0]]; before != "" {
			result.WriteString(base + colorizeSymbols(before, p.symbol, base) + colorReset)
		}
		color := p.bracket
		if strings.HasPrefix(msg[match[0]+1:], "taxid:") {
			color = p.id
		}
		result.WriteString(color + msg[match[0]:match[1]] + colorReset)
		last = match[1]
	}
	if rest := msg[last:]; rest != "" {
		result.WriteString(base + colorizeSymbols(rest, p.symbol, base) + colorReset)
	}
	return result.String()
}

// colorizeSymbols highlights taxa glyphs, then resumes the surrounding color
func colorizeSymbols(text, symbolColor, resume string) string {
	for _, s := range allSymbols {
		text = strings.ReplaceAll(text, s, symbolColor+s+colorReset+resume)
	}
	return text
}

var bufferPool = buffer.NewPool()

// minimalEncoder implements a calm, compact console encoder with theme support
// Format: "13:04:35  ⊔  taxdump  Parsed taxonomy dump  2654321 records 812ms"
type minimalEncoder struct {
	zapcore.Encoder // satisfies the interface; minimalCore passes every field to EncodeEntry
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{Encoder: enc.Encoder.Clone()}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, all []zapcore.Field) (*buffer.Buffer, error) {
	p := colors()
	final := bufferPool.Get()

	final.AppendString(p.time)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Level: hidden for info, muted for debug, bold with background for WARN and up
	if ent.Level >= zapcore.WarnLevel {
		final.AppendString("  ")
		final.AppendString(levelColorString(ent.Level))
	} else if ent.Level == zapcore.DebugLevel {
		final.AppendString("  ")
		final.AppendString(p.fg + "debug" + colorReset)
	}

	if symbol, rest := takeSymbol(all); symbol != "" {
		final.AppendString("  ")
		final.AppendString(p.symbol + symbol + colorReset)
		all = rest
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorComponent(ent.LoggerName))
		final.AppendString(abbreviateName(ent.LoggerName))
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(colorizeMessage(ent.Message))

	if values := formatFields(all); values != "" {
		final.AppendString("  ")
		final.AppendString(values)
	}

	final.AppendString("\n")
	return final, nil
}

// takeSymbol removes the symbol field, returning its value and the remaining fields
func takeSymbol(fields []zapcore.Field) (string, []zapcore.Field) {
	for i, f := range fields {
		if f.Key == FieldSymbol && f.Type == zapcore.StringType {
			rest := make([]zapcore.Field, 0, len(fields)-1)
			rest = append(rest, fields[:i]...)
			rest = append(rest, fields[i+1:]...)
			return f.String, rest
		}
	}
	return "", fields
}

func levelColorString(level zapcore.Level) string {
	p := colors()
	switch level {
	case zapcore.WarnLevel:
		return colorBold + p.warnBg + p.warn + "WARN" + colorReset
	case zapcore.ErrorLevel:
		return colorBold + p.errBg + p.err + "ERROR" + colorReset
	default:
		return colorBold + p.errBg + p.err + level.CapitalString() + colorReset
	}
}

// abbreviateName shortens component names: server -> server, taxa.server -> t.server
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

// fieldValues renders any zap field to key/value strings, including nested
// and error fields, by letting the field encode itself.
func fieldValues(f zapcore.Field) map[string]string {
	enc := zapcore.NewMapObjectEncoder()
	f.AddTo(enc)
	out := make(map[string]string, len(enc.Fields))
	for k, v := range enc.Fields {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// formatFields prints every field. Known taxa fields get compact forms
// ("taxid 562", "812ms"); everything else prints as key=value.
func formatFields(fields []zapcore.Field) string {
	p := colors()
	var values []string

	for _, field := range fields {
		kv := fieldValues(field)
		keys := make([]string, 0, len(kv))
		for k := range kv {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			val := kv[key]
			switch key {
			case FieldTaxid, FieldLCA, FieldRequestID:
				values = append(values, p.fg+key+" "+p.id+val+colorReset)
			case FieldDurationMS:
				values = append(values, p.number+val+colorReset+"ms")
			case FieldRecords, FieldMerged, FieldDeleted, FieldCount:
				values = append(values, p.number+val+colorReset+" "+key)
			case FieldError:
				values = append(values, p.err+val+colorReset)
			case "errorVerbose":
				// the error field already carries the message
			default:
				values = append(values, p.fg+key+"="+colorReset+val)
			}
		}
	}

	return strings.Join(values, " ")
}

// minimalCore keeps fields added through With so the encoder sees them
// alongside the entry's own fields.
type minimalCore struct {
	zapcore.LevelEnabler
	enc    *minimalEncoder
	out    zapcore.WriteSyncer
	fields []zapcore.Field
}

func newMinimalCore(out zapcore.WriteSyncer, level zapcore.LevelEnabler) zapcore.Core {
	return &minimalCore{LevelEnabler: level, enc: newMinimalEncoder(), out: out}
}

func (c *minimalCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = make([]zapcore.Field, 0, len(c.fields)+len(fields))
	clone.fields = append(clone.fields, c.fields...)
	clone.fields = append(clone.fields, fields...)
	return &clone
}

func (c *minimalCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *minimalCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	all := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	all = append(all, c.fields...)
	all = append(all, fields...)

	buf, err := c.enc.EncodeEntry(ent, all)
	if err != nil {
		return err
	}
	_, err = c.out.Write(buf.Bytes())
	buf.Free()
	if err != nil {
		return err
	}
	if ent.Level > zapcore.ErrorLevel {
		c.out.Sync()
	}
	return nil
}

func (c *minimalCore) Sync() error {
	return c.out.Sync()
}
