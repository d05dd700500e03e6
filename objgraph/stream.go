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

package objgraph

import (
	"bytes"
	"compress/zlib"

	"github.com/pdfxkit/pdfx"
)

// writeStream writes body as an indirect stream object at ref, applying
// FlateDecode whenever doing so actually shrinks the payload and
// optimize is true. Font programs, ICC profiles and image samples all
// funnel through this one path so every generated stream is compressed
// the same way; with optimize false every stream is stored raw, matching
// what a PDF/X preflight tool sees when compression is switched off.
func writeStream(w *pdf.Writer, ref pdf.Reference, dict pdf.Dict, body []byte, optimize bool) error {
	if optimize {
		if compressed, deflated := maybeDeflate(body); deflated {
			dict["Filter"] = pdf.Name("FlateDecode")
			dict["Length"] = pdf.Integer(len(compressed))
			return w.WriteIndirect(ref, &pdf.Stream{Dict: dict, R: bytes.NewReader(compressed)})
		}
	}
	dict["Length"] = pdf.Integer(len(body))
	return w.WriteIndirect(ref, &pdf.Stream{Dict: dict, R: bytes.NewReader(body)})
}

// maybeDeflate zlib-compresses body and reports whether the compressed
// form is smaller. Small streams (glyph programs for single-character
// subsets, tiny ToUnicode maps) sometimes grow under FlateDecode, and
// there is no reason to pay the decompression cost for that.
func maybeDeflate(body []byte) ([]byte, bool) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, false
	}
	if err := zw.Close(); err != nil {
		return nil, false
	}
	if buf.Len() >= len(body) {
		return nil, false
	}
	return buf.Bytes(), true
}
