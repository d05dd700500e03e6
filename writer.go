// seehuhn.de/go/pdf - a library for reading and writing PDF files
// Copyright (C) 2023  Jochen Voss <voss@seehuhn.de>
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

package pdf

import (
	"errors"
	"fmt"
	"io"
)

// Writer implements (Serializer + Xref): it allocates object
// numbers, emits indirect objects in the order WriteIndirect is called
// while recording their byte offsets, and writes the xref table and
// trailer on Close.
//
// Object numbers are handed out by Alloc in the order callers request
// them; the object-graph builder (package objgraph) is responsible for
// requesting them leaf-first so that every reference is resolvable by
// the time it is written.
type Writer struct {
	PDFVersion Version

	w       *posWriter
	xref    map[uint32]int64 // object number -> byte offset, or -1 if never written
	nextRef uint32
}

// NewWriter prepares a PDF byte stream for writing. The binary marker
// comment forces viewers and transport layers to treat the file as
// binary step 1.
func NewWriter(w io.Writer, ver Version) (*Writer, error) {
	pdf := &Writer{
		PDFVersion: ver,
		w:          &posWriter{w: w},
		nextRef:    1,
		xref:       make(map[uint32]int64),
	}
	verString, err := ver.ToString()
	if err != nil {
		return nil, err
	}
	_, err = fmt.Fprintf(pdf.w, "%%PDF-%s\n%%\xE2\xE3\xCF\xD3\n", verString)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}

// Alloc reserves the next object number for an indirect object that
// will be written later (or never, if it turns out to be unused).
func (pdf *Writer) Alloc() Reference {
	ref := NewReference(pdf.nextRef, 0)
	pdf.nextRef++
	return ref
}

// WriteIndirect writes obj as the body of the indirect object ref,
// which must have been returned by a prior call to Alloc and not yet
// written.
func (pdf *Writer) WriteIndirect(ref Reference, obj Object) error {
	if _, seen := pdf.xref[ref.Number()]; seen {
		return errors.New("pdf: object already written")
	}
	if obj == nil {
		pdf.xref[ref.Number()] = -1
		return nil
	}

	pos := pdf.w.pos
	if _, err := fmt.Fprintf(pdf.w, "%d %d obj\n", ref.Number(), ref.Generation()); err != nil {
		return err
	}
	if err := obj.PDF(pdf.w); err != nil {
		return err
	}
	if _, err := pdf.w.Write([]byte("\nendobj\n")); err != nil {
		return err
	}
	pdf.xref[ref.Number()] = pos
	return nil
}

// Close writes the xref table and trailer and returns the first write
// error, if any.
//
// id is the two-element document /ID array: the first
// element is fixed for the document's lifetime, the second is
// recomputed on every save.
func (pdf *Writer) Close(root Reference, info Object, id [2]String) error {
	xrefPos := pdf.w.pos

	// Free entries form a singly linked list (7.5.4): each one's first
	// field names the next free object number, 0 for the last, with
	// object 0 as the permanent list head. Every free object number
	// here is one this Writer allocated but never wrote (or wrote as
	// nil), and Alloc never hands a number out twice, so each entry's
	// generation is capped at 65535 rather than left at 0.
	var free []uint32
	for n := uint32(1); n < pdf.nextRef; n++ {
		if pos, ok := pdf.xref[n]; !ok || pos < 0 {
			free = append(free, n)
		}
	}
	nextFree := make(map[uint32]uint32, len(free)+1)
	if len(free) > 0 {
		nextFree[0] = free[0]
	}
	for i, obj := range free {
		if i+1 < len(free) {
			nextFree[obj] = free[i+1]
		}
	}

	if _, err := fmt.Fprintf(pdf.w, "xref\n0 %d\n", pdf.nextRef); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(pdf.w, "%010d 65535 f \n", nextFree[0]); err != nil {
		return err
	}
	for n := uint32(1); n < pdf.nextRef; n++ {
		pos, ok := pdf.xref[n]
		if !ok || pos < 0 {
			if _, err := fmt.Fprintf(pdf.w, "%010d 65535 f \n", nextFree[n]); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(pdf.w, "%010d 00000 n \n", pos); err != nil {
			return err
		}
	}

	trailer := Dict{
		"Size": Integer(pdf.nextRef),
		"Root": root,
		"ID":   Array{id[0], id[1]},
	}
	if info != nil {
		trailer["Info"] = info
	}

	if _, err := pdf.w.Write([]byte("trailer\n")); err != nil {
		return err
	}
	if err := trailer.PDF(pdf.w); err != nil {
		return err
	}
	_, err := fmt.Fprintf(pdf.w, "\nstartxref\n%d\n%%%%EOF\n", xrefPos)
	return err
}

type posWriter struct {
	w   io.Writer
	pos int64
}

func (w *posWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	return n, err
}
