// Package diagfmt renders diagnostic bags for humans and tools.
package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"undertow/internal/diag"
	"undertow/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan, color.Bold)
	noteColor    = color.New(color.FgWhite, color.Faint)
)

// Pretty writes the bag's diagnostics in a human-readable form:
//
//	<path>:<line>:<col>: <SEV> <CODE>: message
//
// Notes follow indented under their diagnostic. Sorting is the
// caller's responsibility.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			formatLocation(fs, d.Primary, opts.PathMode),
			severityLabel(d.Severity, opts.Color),
			d.Code, d.Message)
		if !opts.ShowNotes {
			continue
		}
		for _, note := range d.Notes {
			label := "note"
			if opts.Color {
				label = noteColor.Sprint(label)
			}
			fmt.Fprintf(w, "  %s: %s: %s\n",
				formatLocation(fs, note.Span, opts.PathMode), label, note.Msg)
		}
	}
}

func severityLabel(sev diag.Severity, colorize bool) string {
	s := sev.String()
	if !colorize {
		return s
	}
	switch sev {
	case diag.SevError:
		return errorColor.Sprint(s)
	case diag.SevWarning:
		return warningColor.Sprint(s)
	default:
		return infoColor.Sprint(s)
	}
}

func formatLocation(fs *source.FileSet, sp source.Span, mode PathMode) string {
	path, pos := fs.Position(sp)
	return fmt.Sprintf("%s:%d:%d", displayPath(fs, path, mode), pos.Line, pos.Col)
}

func displayPath(fs *source.FileSet, path string, mode PathMode) string {
	switch mode {
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	case PathModeRelative:
		if rel, err := filepath.Rel(fs.BaseDir(), path); err == nil {
			return rel
		}
		return path
	case PathModeAuto:
		// Relativize only when the file lives under the base directory.
		rel, err := filepath.Rel(fs.BaseDir(), path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return rel
		}
		return path
	default:
		return path
	}
}
