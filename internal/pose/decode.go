package pose

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/meltforce/posereps/internal/models"
)

const maxLineSize = 1 << 20

// Decoder reads one JSON frame per line. Blank lines are skipped.
type Decoder struct {
	sc   *bufio.Scanner
	line int
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Decoder{sc: sc}
}

// Next returns the next frame, or io.EOF when the input is exhausted.
func (d *Decoder) Next() (models.Frame, error) {
	for d.sc.Scan() {
		d.line++
		raw := bytes.TrimSpace(d.sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var f models.Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			return models.Frame{}, fmt.Errorf("line %d: %w", d.line, err)
		}
		if f.Time.IsZero() {
			return models.Frame{}, fmt.Errorf("line %d: missing timestamp", d.line)
		}
		return f, nil
	}
	if err := d.sc.Err(); err != nil {
		return models.Frame{}, fmt.Errorf("reading frames: %w", err)
	}
	return models.Frame{}, io.EOF
}

// Line returns the number of the line last read.
func (d *Decoder) Line() int { return d.line }
