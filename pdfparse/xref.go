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

package pdfparse

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"strconv"

	"github.com/pdfxkit/pdfx"
)

// xrefEntry is one in-use classical xref table row: the byte offset of
// "n g obj" for the object it names.
type xrefEntry struct {
	offset int
	gen    int
}

// objectStore resolves indirect references into decoded pdf.Object
// values, lazily parsing each "obj...endobj" body on first access and
// caching the result. Cross-reference streams and object streams
// (PDF 1.5+, never emitted by this project's own writer) are not
// understood; only the classical xref table plus trailer dictionary
// this library itself writes.
type objectStore struct {
	buf     []byte
	xref    map[uint32]xrefEntry
	trailer pdf.Dict
	cache   map[uint32]pdf.Object
	streams map[uint32][]byte
}

// loadObjectStore locates "startxref", parses the (possibly chained,
// via /Prev) classical xref tables and trailers, and returns a store
// ready to resolve references. Malformed or missing xref data falls
// back to a linear scan for "N G obj" markers, so a truncated or
// hand-edited file still parses on a best-effort basis.
func loadObjectStore(buf []byte) (*objectStore, error) {
	st := &objectStore{
		buf:     buf,
		xref:    make(map[uint32]xrefEntry),
		cache:   make(map[uint32]pdf.Object),
		streams: make(map[uint32][]byte),
	}

	start, err := findStartXref(buf)
	if err != nil {
		st.rebuildByScanning()
		return st, nil
	}

	seen := make(map[int]bool)
	for start >= 0 && start < len(buf) && !seen[start] {
		seen[start] = true
		trailer, prev, err := st.readXrefSection(start)
		if err != nil {
			break
		}
		if st.trailer == nil {
			st.trailer = trailer
		} else {
			for k, v := range trailer {
				if _, ok := st.trailer[k]; !ok {
					st.trailer[k] = v
				}
			}
		}
		start = prev
	}

	if st.trailer == nil || len(st.xref) == 0 {
		st.rebuildByScanning()
	}
	return st, nil
}

func findStartXref(buf []byte) (int, error) {
	idx := lastIndex(buf, "startxref")
	if idx < 0 {
		return 0, fmt.Errorf("pdfparse: no startxref marker found")
	}
	s := newScanner(buf, idx+len("startxref"))
	s.skipWhiteSpace()
	tok := s.readToken()
	off, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("pdfparse: malformed startxref offset: %w", err)
	}
	return off, nil
}

func lastIndex(buf []byte, pat string) int {
	last := -1
	for i := indexFrom(buf, 0, pat); i >= 0; {
		last = i
		next := indexFrom(buf, i+1, pat)
		if next < 0 {
			break
		}
		i = next
	}
	return last
}

// readXrefSection parses one classical "xref ... trailer <<...>>"
// block starting at pos and returns its trailer dict and the /Prev
// offset (-1 if absent).
func (st *objectStore) readXrefSection(pos int) (pdf.Dict, int, error) {
	s := newScanner(st.buf, pos)
	s.skipWhiteSpace()
	if err := s.skipString("xref"); err != nil {
		return nil, -1, err
	}
	for {
		s.skipWhiteSpace()
		if s.hasPrefixAt(s.pos, "trailer") {
			s.pos += len("trailer")
			break
		}
		startTok := s.readToken()
		startNum, err := strconv.Atoi(startTok)
		if err != nil {
			return nil, -1, fmt.Errorf("pdfparse: malformed xref subsection header")
		}
		s.skipWhiteSpace()
		countTok := s.readToken()
		count, err := strconv.Atoi(countTok)
		if err != nil {
			return nil, -1, fmt.Errorf("pdfparse: malformed xref subsection header")
		}
		for i := 0; i < count; i++ {
			s.skipWhiteSpace()
			offTok := s.readToken()
			s.skipWhiteSpace()
			genTok := s.readToken()
			s.skipWhiteSpace()
			kind := s.readToken()
			num := uint32(startNum + i)
			if kind != "n" {
				continue
			}
			if _, exists := st.xref[num]; exists {
				continue // an earlier (newer) section already claimed this object
			}
			off, err1 := strconv.Atoi(offTok)
			gen, err2 := strconv.Atoi(genTok)
			if err1 != nil || err2 != nil {
				continue
			}
			st.xref[num] = xrefEntry{offset: off, gen: gen}
		}
	}
	s.skipWhiteSpace()
	trailer, err := s.readDict()
	if err != nil {
		return nil, -1, err
	}
	prev := -1
	if p, ok := trailer["Prev"]; ok {
		if n, ok := p.(pdf.Integer); ok {
			prev = int(n)
		}
	}
	return trailer, prev, nil
}

// rebuildByScanning locates every "N G obj" marker in the file
// directly, ignoring any xref table. It is the fallback path for
// files with a missing or corrupt xref section; /Prev chains are
// followed by loadObjectStore, not here.
func (st *objectStore) rebuildByScanning() {
	pos := 0
	for {
		idx := indexFrom(st.buf, pos, " obj")
		if idx < 0 {
			break
		}
		// walk backwards over "G" then whitespace then "N"
		end := idx
		start := end
		for start > 0 && (st.buf[start-1] == ' ' || (st.buf[start-1] >= '0' && st.buf[start-1] <= '9')) {
			start--
		}
		s := newScanner(st.buf, start)
		numTok := s.readToken()
		s.skipWhiteSpace()
		genTok := s.readToken()
		num, err1 := strconv.Atoi(numTok)
		gen, err2 := strconv.Atoi(genTok)
		if err1 == nil && err2 == nil {
			st.xref[uint32(num)] = xrefEntry{offset: start, gen: gen}
		}
		pos = idx + 4
	}

	if st.trailer == nil {
		if idx := lastIndex(st.buf, "trailer"); idx >= 0 {
			s := newScanner(st.buf, idx+len("trailer"))
			s.skipWhiteSpace()
			if d, err := s.readDict(); err == nil {
				st.trailer = d
			}
		}
	}
	if st.trailer == nil {
		// No trailer at all (e.g. xref-stream-only file, unsupported):
		// fall back to scanning for a /Type /Catalog object directly.
		st.trailer = pdf.Dict{}
		for num := range st.xref {
			obj, err := st.resolveTop(num)
			if err != nil {
				continue
			}
			if d, ok := obj.(pdf.Dict); ok {
				if t, _ := d["Type"].(pdf.Name); t == "Catalog" {
					st.trailer["Root"] = pdf.NewReference(num, 0)
				}
			}
		}
	}
}

// get resolves obj if it is a Reference, following indirection exactly
// once (PDF references never chain).
func (st *objectStore) get(obj pdf.Object) (pdf.Object, error) {
	ref, ok := obj.(pdf.Reference)
	if !ok {
		return obj, nil
	}
	return st.resolveTop(ref.Number())
}

func (st *objectStore) resolveTop(num uint32) (pdf.Object, error) {
	if v, ok := st.cache[num]; ok {
		return v, nil
	}
	entry, ok := st.xref[num]
	if !ok {
		return nil, fmt.Errorf("pdfparse: object %d not found in xref", num)
	}
	obj, streamBody, err := st.parseObjectAt(entry.offset)
	if err != nil {
		return nil, err
	}
	st.cache[num] = obj
	if streamBody != nil {
		st.streams[num] = streamBody
	}
	return obj, nil
}

// parseObjectAt reads "N G obj <object> [stream ... endstream] endobj"
// starting at pos, decoding a FlateDecode stream body if present.
func (st *objectStore) parseObjectAt(pos int) (pdf.Object, []byte, error) {
	s := newScanner(st.buf, pos)
	s.skipWhiteSpace()
	s.readToken() // object number
	s.skipWhiteSpace()
	s.readToken() // generation
	s.skipWhiteSpace()
	if err := s.skipString("obj"); err != nil {
		return nil, nil, err
	}
	obj, err := s.readObject()
	if err != nil {
		return nil, nil, err
	}

	s.skipWhiteSpace()
	if !s.hasPrefixAt(s.pos, "stream") {
		return obj, nil, nil
	}
	dict, ok := obj.(pdf.Dict)
	if !ok {
		return obj, nil, nil
	}
	s.pos += len("stream")
	if s.pos < len(s.buf) && s.buf[s.pos] == '\r' {
		s.pos++
	}
	if s.pos < len(s.buf) && s.buf[s.pos] == '\n' {
		s.pos++
	}

	length, err := st.streamLength(dict)
	if err != nil {
		// Fall back to scanning for the next "endstream" marker.
		end := indexFrom(st.buf, s.pos, "endstream")
		if end < 0 {
			return obj, nil, fmt.Errorf("pdfparse: unterminated stream")
		}
		length = end - s.pos
	}
	if s.pos+length > len(s.buf) {
		length = len(s.buf) - s.pos
	}
	raw := st.buf[s.pos : s.pos+length]

	body := raw
	if name, _ := dict["Filter"].(pdf.Name); name == "FlateDecode" {
		if inflated, err := inflate(raw); err == nil {
			body = inflated
		}
	}
	return dict, body, nil
}

func (st *objectStore) streamLength(dict pdf.Dict) (int, error) {
	lenObj, ok := dict["Length"]
	if !ok {
		return 0, fmt.Errorf("pdfparse: stream dict has no /Length")
	}
	resolved, err := st.get(lenObj)
	if err != nil {
		return 0, err
	}
	n, ok := resolved.(pdf.Integer)
	if !ok {
		return 0, fmt.Errorf("pdfparse: /Length is not an integer")
	}
	return int(n), nil
}

func inflate(raw []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
