package mcproto

import (
	"bufio"
	"io"
)

// CRLF terminates every classic protocol line.
const CRLF = "\r\n"

// Writer writes classic Memcached text protocol lines and data blocks.
type Writer struct {
	bw *bufio.Writer
}

// NewWriter wraps w as a mcproto.Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// WriteLine writes s terminated by CRLF, e.g. "STORED" or "VALUE k 0 5".
func (w *Writer) WriteLine(s string) error {
	if _, err := w.bw.WriteString(s); err != nil {
		return err
	}
	_, err := w.bw.WriteString(CRLF)
	return err
}

// WriteData writes a value's data block followed by CRLF, matching the
// line a VALUE response's data occupies.
func (w *Writer) WriteData(b []byte) error {
	if _, err := w.bw.Write(b); err != nil {
		return err
	}
	_, err := w.bw.WriteString(CRLF)
	return err
}

// Flush flushes buffered output.
func (w *Writer) Flush() error { return w.bw.Flush() }

// Reset rebinds the writer to a new underlying io.Writer.
func (w *Writer) Reset(writer io.Writer) { w.bw.Reset(writer) }
