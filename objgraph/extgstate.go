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
)

// buildExtGState emits an /ExtGState dictionary for gs, setting only
// the entries the caller actually populated so unrelated graphics
// state parameters are left untouched when the state is loaded.
// softMask, when non-zero, is the already-allocated reference for
// gs.SoftMask's XObject.
func buildExtGState(gs *document.ExtendedGraphicsState, softMask pdf.Reference) pdf.Dict {
	dict := pdf.Dict{"Type": pdf.Name("ExtGState")}

	if gs.LineWidth != nil {
		dict["LW"] = pdf.Number(*gs.LineWidth)
	}
	if gs.LineCap != nil {
		dict["LC"] = pdf.Integer(*gs.LineCap)
	}
	if gs.LineJoin != nil {
		dict["LJ"] = pdf.Integer(*gs.LineJoin)
	}
	if gs.MiterLimit != nil {
		dict["ML"] = pdf.Number(*gs.MiterLimit)
	}
	if gs.StrokeAlpha != nil {
		dict["CA"] = pdf.Number(*gs.StrokeAlpha)
	}
	if gs.FillAlpha != nil {
		dict["ca"] = pdf.Number(*gs.FillAlpha)
	}
	if gs.BlendMode != "" {
		dict["BM"] = pdf.Name(gs.BlendMode)
	}
	if gs.SoftMask == "" {
		// leave /SMask unset; a document that explicitly wants to clear
		// an inherited mask should set /SMask /None itself via a
		// dedicated state instead.
	} else if softMask != 0 {
		dict["SMask"] = pdf.Dict{
			"Type": pdf.Name("Mask"),
			"S":    pdf.Name("Luminosity"),
			"G":    softMask,
		}
	}

	return dict
}
