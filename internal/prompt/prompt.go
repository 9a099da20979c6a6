// Package prompt implements blocking alerts, confirmations and line input on
// a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Terminal prompts on out and reads answers from in.
type Terminal struct {
	in  io.Reader
	r   *bufio.Reader
	out io.Writer

	// AssumeYes makes Confirm accept without reading input.
	AssumeYes bool
}

// New creates a Terminal.
func New(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, r: bufio.NewReader(in), out: out}
}

// Out returns the writer prompts go to.
func (t *Terminal) Out() io.Writer {
	return t.out
}

// Alert prints a titled message. Either part may be empty.
func (t *Terminal) Alert(title, message string) {
	switch {
	case title != "" && message != "":
		fmt.Fprintf(t.out, "! %s\n  %s\n", title, message)
	case title != "":
		fmt.Fprintf(t.out, "! %s\n", title)
	case message != "":
		fmt.Fprintf(t.out, "! %s\n", message)
	}
}

// Confirm asks a two-choice question. It accepts the ok label, "y" or
// "yes" in any case; anything else, including end of input, cancels.
func (t *Terminal) Confirm(title, message, cancel, ok string) bool {
	if t.AssumeYes {
		return true
	}
	fmt.Fprintf(t.out, "%s\n%s [%s/%s]: ", title, message, cancel, ok)
	answer, err := t.line()
	if err != nil {
		fmt.Fprintln(t.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case strings.ToLower(ok), "y", "yes":
		return true
	default:
		return false
	}
}

// ReadLine prints label and reads one line without its line ending.
func (t *Terminal) ReadLine(label string) (string, error) {
	if label != "" {
		fmt.Fprintf(t.out, "%s: ", label)
	}
	return t.line()
}

// ReadPassword is ReadLine without echo when in is a terminal.
func (t *Terminal) ReadPassword(label string) (string, error) {
	f, isFile := t.in.(*os.File)
	if !isFile || !term.IsTerminal(int(f.Fd())) {
		return t.ReadLine(label)
	}

	fmt.Fprintf(t.out, "%s: ", label)
	pw, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(t.out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

func (t *Terminal) line() (string, error) {
	s, err := t.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}
