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
	"github.com/pdfxkit/pdfx"
	"github.com/pdfxkit/pdfx/document"
	"github.com/pdfxkit/pdfx/ops"
)

// StandardFonts lists the 14 built-in PDF fonts (§9.6.2.2 of ISO
// 32000-2:2020) that require no embedding. A SetFont naming any other
// string is expected to resolve against the document's external font
// table instead.
var StandardFonts = map[string]bool{
	"Times-Roman": true, "Times-Bold": true, "Times-Italic": true, "Times-BoldItalic": true,
	"Helvetica": true, "Helvetica-Bold": true, "Helvetica-Oblique": true, "Helvetica-BoldOblique": true,
	"Courier": true, "Courier-Bold": true, "Courier-Oblique": true, "Courier-BoldOblique": true,
	"Symbol": true, "ZapfDingbats": true,
}

// DefaultBuiltinFont is the standard font that collectBuiltinFonts
// always includes. The content lowerer does not switch to it on its
// own: a ShowText that runs before any SetFont is encoded as
// WinAnsiEncoding text and written with no Tf and no warning.
const DefaultBuiltinFont = "Times-Roman"

// collectBuiltinFonts scans every page's operations (recursing into Form
// XObjects, with cycle protection) for SetFont ops naming a standard
// font, i.e. a name absent from res.Fonts, and returns the set of
// distinct names used, always including DefaultBuiltinFont even if no
// page names it.
func collectBuiltinFonts(pages []*document.Page, res *document.Resources) map[string]bool {
	used := map[string]bool{DefaultBuiltinFont: true}
	visited := make(map[document.XObjectId]bool)
	for _, p := range pages {
		scanBuiltinFonts(p.Ops, res, used, visited)
	}
	return used
}

func scanBuiltinFonts(list []ops.Operation, res *document.Resources, used map[string]bool, visited map[document.XObjectId]bool) {
	for _, op := range list {
		switch o := op.(type) {
		case ops.SetFont:
			if _, ok := res.Fonts[document.FontId(o.Font)]; !ok {
				used[o.Font] = true
			}
		case ops.UseXObject:
			id := document.XObjectId(o.XObject)
			if visited[id] {
				continue
			}
			xo, ok := res.XObjects[id]
			if !ok || xo.Kind != document.XObjectForm || xo.Form == nil {
				continue
			}
			visited[id] = true
			scanBuiltinFonts(xo.Form.Ops, res, used, visited)
		}
	}
}

// buildStandardFontDict emits a minimal Type1 font dictionary for one
// of the 14 standard fonts: no FontDescriptor or embedded program is
// required, since viewers ship these fonts themselves.
func buildStandardFontDict(name string) pdf.Dict {
	return pdf.Dict{
		"Type":     pdf.Name("Font"),
		"Subtype":  pdf.Name("Type1"),
		"BaseFont": pdf.Name(name),
		"Encoding": pdf.Name("WinAnsiEncoding"),
	}
}
