package simlog

import (
	"encoding/xml"
	"errors"
	"io"
)

// Scanner pulls records with a given tag from an XML log. Only the current
// record is held in memory, so logs larger than RAM can be processed.
type Scanner struct {
	dec   *xml.Decoder
	tag   string
	cur   Record
	err   error
	count int
	done  bool
}

// NewScanner returns a Scanner yielding every element named recordTag. Other
// elements (document root, timestep wrappers) are skipped.
func NewScanner(r io.Reader, recordTag string) *Scanner {
	return &Scanner{
		dec: xml.NewDecoder(r),
		tag: recordTag,
	}
}

// Next advances to the next record. It returns false at the end of the log or
// on the first parse error, which is then available from Err.
func (s *Scanner) Next() bool {
	if s.done {
		return false
	}
	for {
		tok, err := s.dec.Token()
		if errors.Is(err, io.EOF) {
			s.done = true
			return false
		}
		if err != nil {
			s.fail(err)
			return false
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != s.tag {
			continue
		}
		rec, err := s.readRecord(start)
		if err != nil {
			s.fail(err)
			return false
		}
		s.cur = rec
		s.count++
		return true
	}
}

// Record returns the record read by the last successful call to Next.
func (s *Scanner) Record() Record { return s.cur }

// Err returns the first error that stopped the scan, if any.
func (s *Scanner) Err() error { return s.err }

// Count returns the number of records yielded so far.
func (s *Scanner) Count() int { return s.count }

func (s *Scanner) fail(err error) {
	s.err = &SourceError{Offset: s.dec.InputOffset(), Err: err}
	s.done = true
	s.cur = Record{}
}

// readRecord consumes tokens up to the end of the record element, keeping
// the attributes of direct children and discarding anything deeper.
func (s *Scanner) readRecord(start xml.StartElement) (Record, error) {
	rec := Record{Tag: start.Name.Local, Attrs: copyAttrs(start.Attr)}
	depth := 0
	for {
		tok, err := s.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return Record{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				rec.Children = append(rec.Children, Record{Tag: t.Name.Local, Attrs: copyAttrs(t.Attr)})
			}
		case xml.EndElement:
			if depth == 0 {
				return rec, nil
			}
			depth--
		}
	}
}

func copyAttrs(attrs []xml.Attr) []Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attr, len(attrs))
	for i, a := range attrs {
		out[i] = Attr{Name: a.Name.Local, Value: a.Value}
	}
	return out
}
