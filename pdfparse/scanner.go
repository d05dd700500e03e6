// seehuhn.de/go/pdf - a library for reading and writing PDF files
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package pdfparse implements the round-trip subset of PDF parsing
// (§6, "Parsing interface"): it reconstructs a document.Document from
// the byte stream a prior Save produced (or from any similarly
// structured PDF 1.x file), well enough that page count, resource
// references and content-stream operators survive a save/parse
// round trip. It is not a general-purpose PDF reader: cross-reference
// streams, object streams, encryption and most annotation and
// interactive-form content are out of scope, matching the core's own
// write side.
package pdfparse

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pdfxkit/pdfx"
)

// scanner tokenizes PDF object syntax directly from an in-memory byte
// slice. Unlike a streaming reader, Parse always holds the whole file
// in memory already (it is handed a []byte, mirroring what Save
// returns), so there is no need for the buffered refill dance a
// stream-oriented scanner requires.
type scanner struct {
	buf []byte
	pos int
}

func newScanner(buf []byte, pos int) *scanner {
	return &scanner{buf: buf, pos: pos}
}

func (s *scanner) eof() bool { return s.pos >= len(s.buf) }

func (s *scanner) peekByte() (byte, bool) {
	if s.eof() {
		return 0, false
	}
	return s.buf[s.pos], true
}

func (s *scanner) skipWhiteSpace() {
	for !s.eof() {
		c := s.buf[s.pos]
		if c == '%' {
			for !s.eof() && s.buf[s.pos] != '\r' && s.buf[s.pos] != '\n' {
				s.pos++
			}
			continue
		}
		if !isSpace[c] {
			return
		}
		s.pos++
	}
}

func (s *scanner) skipString(pat string) error {
	if s.pos+len(pat) > len(s.buf) || string(s.buf[s.pos:s.pos+len(pat)]) != pat {
		return fmt.Errorf("pdfparse: expected %q at offset %d", pat, s.pos)
	}
	s.pos += len(pat)
	return nil
}

func (s *scanner) hasPrefixAt(pos int, pat string) bool {
	return pos+len(pat) <= len(s.buf) && string(s.buf[pos:pos+len(pat)]) == pat
}

// readToken reads a maximal run of non-space, non-delimiter bytes,
// used for keywords like "obj", "endobj", "stream", "R", "true".
func (s *scanner) readToken() string {
	start := s.pos
	for !s.eof() && !isSpace[s.buf[s.pos]] && !isDelimiter[s.buf[s.pos]] {
		s.pos++
	}
	return string(s.buf[start:s.pos])
}

// readObject reads one PDF object at the scanner's current position,
// resolving "n g R" references inline (the array/dict readers below
// handle the ambiguity between an Integer and the start of a
// reference the same way the teacher's scanner does: look ahead past
// the first integer for a second integer followed by "R").
func (s *scanner) readObject() (pdf.Object, error) {
	s.skipWhiteSpace()
	if s.eof() {
		return nil, fmt.Errorf("pdfparse: unexpected end of input")
	}

	c := s.buf[s.pos]
	switch {
	case s.hasPrefixAt(s.pos, "null"):
		s.pos += 4
		return nil, nil
	case s.hasPrefixAt(s.pos, "true"):
		s.pos += 4
		return pdf.Bool(true), nil
	case s.hasPrefixAt(s.pos, "false"):
		s.pos += 5
		return pdf.Bool(false), nil
	case c == '/':
		return s.readName()
	case c == '(':
		return s.readLiteralString()
	case c == '<':
		if s.hasPrefixAt(s.pos, "<<") {
			return s.readDict()
		}
		return s.readHexString()
	case c == '[':
		return s.readArray()
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return s.readNumberOrReference()
	}
	return nil, fmt.Errorf("pdfparse: unexpected byte %q at offset %d", c, s.pos)
}

func (s *scanner) readName() (pdf.Name, error) {
	if err := s.skipString("/"); err != nil {
		return "", err
	}
	var out []byte
	for !s.eof() {
		c := s.buf[s.pos]
		if isSpace[c] || isDelimiter[c] {
			break
		}
		if c == '#' && s.pos+2 < len(s.buf) {
			hi, ok1 := hexDigit(s.buf[s.pos+1])
			lo, ok2 := hexDigit(s.buf[s.pos+2])
			if ok1 && ok2 {
				out = append(out, hi<<4|lo)
				s.pos += 3
				continue
			}
		}
		out = append(out, c)
		s.pos++
	}
	return pdf.Name(out), nil
}

func (s *scanner) readLiteralString() (pdf.String, error) {
	if err := s.skipString("("); err != nil {
		return nil, err
	}
	var out []byte
	depth := 1
	for !s.eof() {
		c := s.buf[s.pos]
		s.pos++
		switch c {
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return pdf.String(out), nil
			}
			out = append(out, c)
		case '\\':
			if s.eof() {
				return pdf.String(out), nil
			}
			e := s.buf[s.pos]
			s.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if !s.eof() && s.buf[s.pos] == '\n' {
					s.pos++
				}
			case '\n':
				// line continuation, no output
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && !s.eof() && s.buf[s.pos] >= '0' && s.buf[s.pos] <= '7'; i++ {
						v = v*8 + int(s.buf[s.pos]-'0')
						s.pos++
					}
					out = append(out, byte(v))
				} else {
					out = append(out, e)
				}
			}
		default:
			out = append(out, c)
		}
	}
	return pdf.String(out), nil
}

func (s *scanner) readHexString() (pdf.String, error) {
	if err := s.skipString("<"); err != nil {
		return nil, err
	}
	var out []byte
	var hi byte
	haveHi := false
	for !s.eof() && s.buf[s.pos] != '>' {
		d, ok := hexDigit(s.buf[s.pos])
		s.pos++
		if !ok {
			continue
		}
		if !haveHi {
			hi = d
			haveHi = true
		} else {
			out = append(out, hi<<4|d)
			haveHi = false
		}
	}
	if haveHi {
		out = append(out, hi<<4)
	}
	if !s.eof() {
		s.pos++ // closing '>'
	}
	return pdf.String(out), nil
}

func (s *scanner) readNumberOrReference() (pdf.Object, error) {
	n, isInt, err := s.readNumberToken()
	if err != nil {
		return nil, err
	}
	if !isInt {
		return pdf.Number(n), nil
	}

	// Look ahead for "gen R" without consuming on failure.
	save := s.pos
	s.skipWhiteSpace()
	if !s.eof() && (s.buf[s.pos] >= '0' && s.buf[s.pos] <= '9') {
		gen, isInt2, err := s.readNumberToken()
		if err == nil && isInt2 {
			s.skipWhiteSpace()
			if !s.eof() && s.buf[s.pos] == 'R' && (s.pos+1 >= len(s.buf) || isSpace[s.buf[s.pos+1]] || isDelimiter[s.buf[s.pos+1]]) {
				s.pos++
				return pdf.NewReference(uint32(n), uint16(gen)), nil
			}
		}
	}
	s.pos = save
	return pdf.Integer(int64(n)), nil
}

// readNumberToken parses a single numeric literal and reports whether
// it had no fractional part (a candidate object/generation number).
func (s *scanner) readNumberToken() (float64, bool, error) {
	start := s.pos
	if !s.eof() && (s.buf[s.pos] == '+' || s.buf[s.pos] == '-') {
		s.pos++
	}
	isInt := true
	for !s.eof() {
		c := s.buf[s.pos]
		if c >= '0' && c <= '9' {
			s.pos++
		} else if c == '.' && isInt {
			isInt = false
			s.pos++
		} else {
			break
		}
	}
	text := string(s.buf[start:s.pos])
	if text == "" || text == "+" || text == "-" {
		return 0, false, fmt.Errorf("pdfparse: malformed number at offset %d", start)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false, fmt.Errorf("pdfparse: malformed number %q: %w", text, err)
	}
	return v, isInt, nil
}

func (s *scanner) readArray() (pdf.Array, error) {
	if err := s.skipString("["); err != nil {
		return nil, err
	}
	var arr pdf.Array
	for {
		s.skipWhiteSpace()
		b, ok := s.peekByte()
		if !ok {
			return nil, fmt.Errorf("pdfparse: unterminated array")
		}
		if b == ']' {
			s.pos++
			return arr, nil
		}
		obj, err := s.readObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (s *scanner) readDict() (pdf.Dict, error) {
	if err := s.skipString("<<"); err != nil {
		return nil, err
	}
	dict := pdf.Dict{}
	for {
		s.skipWhiteSpace()
		if s.hasPrefixAt(s.pos, ">>") {
			s.pos += 2
			return dict, nil
		}
		key, err := s.readName()
		if err != nil {
			return nil, err
		}
		val, err := s.readObject()
		if err != nil {
			return nil, err
		}
		dict[key] = val
	}
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

var isSpace = [256]bool{0: true, 9: true, 10: true, 12: true, 13: true, 32: true}

var isDelimiter = func() [256]bool {
	var d [256]bool
	for _, c := range []byte("()<>[]{}/%") {
		d[c] = true
	}
	return d
}()

// indexFrom is a small bytes.Index wrapper kept here so xref.go and
// content.go do not need to import bytes just for this one call
// pattern of "find pat starting at pos".
func indexFrom(buf []byte, pos int, pat string) int {
	idx := bytes.Index(buf[pos:], []byte(pat))
	if idx < 0 {
		return -1
	}
	return pos + idx
}
