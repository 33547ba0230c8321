package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/joss/agentchat/internal/ui"
)

var (
	headerColor  = color.New(color.Bold)
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.Faint)
)

// Writer formats CLI listings.
type Writer struct {
	out io.Writer
}

// NewWriter creates a Writer that writes to the given io.Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: w}
}

// Stdout returns a Writer that writes to os.Stdout.
func Stdout() *Writer {
	return NewWriter(os.Stdout)
}

// Println writes formatted text with newline.
func (w *Writer) Println(format string, args ...any) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Line writes a blank line.
func (w *Writer) Line() {
	fmt.Fprintln(w.out)
}

// Header writes a bold upper-case title followed by a blank line.
func (w *Writer) Header(title string, args ...any) {
	if len(args) > 0 {
		title = fmt.Sprintf(title, args...)
	}
	headerColor.Fprintln(w.out, strings.ToUpper(title))
	fmt.Fprintln(w.out)
}

// Item writes an indented item line.
func (w *Writer) Item(format string, args ...any) {
	fmt.Fprintf(w.out, "  "+format+"\n", args...)
}

// Field writes an indented "label: value" line with a dimmed label.
func (w *Writer) Field(label, value string) {
	fmt.Fprintf(w.out, "  %s %s\n", dimColor.Sprint(label+":"), value)
}

// Empty writes an empty state message.
func (w *Writer) Empty(msg string) {
	dimColor.Fprintln(w.out, msg)
}

// Banner writes a status line coloured by its kind.
func (w *Writer) Banner(b ui.Banner) {
	if b.Kind == ui.KindError {
		errorColor.Fprintln(w.out, StatusIcon(b.Kind)+" "+b.Text)
		return
	}
	successColor.Fprintln(w.out, StatusIcon(b.Kind)+" "+b.Text)
}

// StatusIcon returns the icon for a banner kind.
func StatusIcon(k ui.Kind) string {
	switch k {
	case ui.KindSuccess:
		return "✓"
	case ui.KindError:
		return "✗"
	default:
		return "•"
	}
}
