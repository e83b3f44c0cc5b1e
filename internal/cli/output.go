package cli

import (
	"fmt"
	"io"
	"os"

	"streamhttp/application/http/semantic"
	"streamhttp/application/http/semantic/status"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type colorScheme struct {
	StatusOK    *color.Color
	StatusWarn  *color.Color
	StatusError *color.Color
	HeaderKey   *color.Color
	HeaderValue *color.Color
	Error       *color.Color
}

func newColorScheme(enabled bool) *colorScheme {
	scheme := &colorScheme{
		StatusOK:    color.New(color.FgGreen, color.Bold),
		StatusWarn:  color.New(color.FgYellow, color.Bold),
		StatusError: color.New(color.FgRed, color.Bold),
		HeaderKey:   color.New(color.FgCyan),
		HeaderValue: color.New(color.FgWhite),
		Error:       color.New(color.FgRed),
	}
	for _, c := range []*color.Color{
		scheme.StatusOK, scheme.StatusWarn, scheme.StatusError,
		scheme.HeaderKey, scheme.HeaderValue, scheme.Error,
	} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return scheme
}

// isTerminal reports whether w is a terminal that can render colors.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (s *colorScheme) status(code int) *color.Color {
	switch status.Class(code) {
	case 2, 3:
		return s.StatusOK
	case 4:
		return s.StatusWarn
	}
	return s.StatusError
}

// printHead writes the status line and headers like they came off the wire.
func (s *colorScheme) printHead(w io.Writer, resp *semantic.Response) {
	line := fmt.Sprintf("HTTP/%s %d", resp.ProtocolVersion(), resp.StatusCode())
	if reason := resp.ReasonPhrase(); reason != "" {
		line += " " + reason
	}
	s.status(resp.StatusCode()).Fprintln(w, line)

	headers := resp.Headers()
	for _, field := range headers.Fields() {
		s.HeaderKey.Fprint(w, field.Name)
		fmt.Fprint(w, ": ")
		s.HeaderValue.Fprintln(w, field.Value)
	}
	fmt.Fprintln(w)
}
