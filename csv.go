package gridcalc

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// WriteCSV writes the displayed contents of the sheet's used rectangle
// (A1 to its bounds) as CSV. Missing cells are written as empty fields.
func WriteCSV(w io.Writer, s *Sheet, opts ...Option) error {
	o := buildOptions(opts)
	enc, err := csvEncoder(o.csvEncoding)
	if err != nil {
		return err
	}
	out := w
	var tw *transform.Writer
	if enc != nil {
		tw = transform.NewWriter(w, enc)
		out = tw
	}

	cw := csv.NewWriter(out)
	if s.Len() > 0 {
		bounds := s.Bounds()
		record := make([]string, bounds.Col)
		for row := 1; row <= bounds.Row; row++ {
			for col := 1; col <= bounds.Col; col++ {
				c, _ := s.Cell(Address{Row: row, Col: col})
				record[col-1] = c.Content.String()
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("write csv row %d: %w", row, err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	if tw != nil {
		if err := tw.Close(); err != nil {
			return fmt.Errorf("encode csv: %w", err)
		}
	}
	return nil
}

// csvEncoder maps an encoding name to an encoder. A nil encoder means UTF-8
// output. Characters the target charset cannot represent are replaced with
// its substitute byte.
func csvEncoder(name string) (*encoding.Encoder, error) {
	key := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(name))
	switch key {
	case "", "utf8":
		return nil, nil
	case "windows1252", "cp1252":
		return encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()), nil
	case "iso88591", "latin1":
		return encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder()), nil
	}
	return nil, fmt.Errorf("unsupported csv encoding %q", name)
}
