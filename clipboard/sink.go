package clipboard

import (
	"fmt"
	"io"
)

// Delivery records where a transcript ended up.
type Delivery struct {
	Copied  bool
	Pasted  bool
	Printed bool
	// CopyErr is set when the clipboard failed and the text was printed
	// instead.
	CopyErr  error
	PasteErr error
}

// Sink hands a transcript to the clipboard, optionally pastes it into the
// focused window, and prints it when asked to or when the clipboard fails.
type Sink struct {
	out       io.Writer
	print     bool
	autoPaste bool

	copy  func(string) error
	paste func() error
}

// NewSink returns a Sink writing fallback output to out. paste may be nil
// when auto-paste is off.
func NewSink(out io.Writer, print bool, paste func() error) *Sink {
	return &Sink{
		out:       out,
		print:     print,
		autoPaste: paste != nil,
		copy:      Copy,
		paste:     paste,
	}
}

func (s *Sink) Deliver(text string) (Delivery, error) {
	var d Delivery
	if err := s.copy(text); err != nil {
		d.CopyErr = err
	} else {
		d.Copied = true
		if s.autoPaste {
			if err := s.paste(); err != nil {
				d.PasteErr = err
			} else {
				d.Pasted = true
			}
		}
	}

	if s.print || !d.Copied {
		if _, err := fmt.Fprintln(s.out, text); err != nil {
			return d, err
		}
		d.Printed = true
	}
	return d, nil
}
