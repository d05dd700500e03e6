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

package document

import (
	"github.com/pdfxkit/pdfx"
	"github.com/pdfxkit/pdfx/ops"
)

// Page is a value-typed page: an ordered operation list plus the
// three PDF page rectangles, all in points. A Page does not own any
// resources; operations reference fonts, XObjects, extgstates and
// layers by the ids the owning Document allocated for them.
type Page struct {
	Media pdf.Rectangle
	Trim  pdf.Rectangle
	Crop  pdf.Rectangle

	Ops []ops.Operation
}

// NewPage returns a page with the given media box and the trim/crop
// boxes defaulting to the media box, matching common caller
// expectations for a single-box document.
func NewPage(media pdf.Rectangle) *Page {
	return &Page{Media: media, Trim: media, Crop: media}
}

// Add appends operations to the page's operation list. Operation lists
// are append-only before serialization begins.
func (p *Page) Add(op ...ops.Operation) {
	p.Ops = append(p.Ops, op...)
}
