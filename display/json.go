package display

import (
	"encoding/json"
	"flag"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/teranos/taxa/errors"
)

// Stdout is where results are written. Tests swap it for a buffer.
var Stdout io.Writer = os.Stdout

// isTerminal reports whether stdout is attached to a terminal
func isTerminal() bool {
	f, ok := Stdout.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// MarshalJSON marshals JSON with pretty formatting for terminals and
// compact formatting when the output is piped
func MarshalJSON(v interface{}) ([]byte, error) {
	// Always pretty in tests so expected output stays readable
	if flag.Lookup("test.v") != nil || isTerminal() {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// WriteJSON marshals v with MarshalJSON and writes it to w with a trailing newline
func WriteJSON(w io.Writer, v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return errors.Wrap(err, "failed to write JSON")
	}
	return nil
}
