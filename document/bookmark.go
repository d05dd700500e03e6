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

// Bookmark is a node in the document outline tree. The tree mirrors
// the PDF outline dictionary directly rather than anything more
// elaborate: no actions, no styling.
type Bookmark struct {
	Title string

	// PageIndex is the zero-based index into Document.Pages this
	// bookmark navigates to.
	PageIndex int

	// Top is the y-coordinate (page space, points) the viewer should
	// scroll to; a nil Top lets the viewer pick its own default.
	Top *float64

	Children []*Bookmark

	// Open controls whether the item starts expanded.
	Open bool
}

// AddChild appends a new child bookmark and returns it.
func (b *Bookmark) AddChild(title string, pageIndex int) *Bookmark {
	child := &Bookmark{Title: title, PageIndex: pageIndex}
	b.Children = append(b.Children, child)
	return child
}
