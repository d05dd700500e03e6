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

// Package document implements the Document Assembler: it owns
// the page list, document metadata, bookmarks, and the document-scoped
// resource tables, and is the caller-facing entry point for building a
// document before handing it to package serialize.
package document

import (
	"github.com/pdfxkit/pdfx"
	"golang.org/x/text/language"
)

// Document is the aggregate: metadata, the ordered
// page list, the page-tree-wide resource table, and the bookmark
// forest. It is owned exclusively by the caller during construction;
// once passed to serialize.Save it must not be mutated concurrently
// with serialization.
type Document struct {
	Info *pdf.Info

	// Lang is the document's default natural language (the catalog's
	// /Lang entry), validated as a BCP-47 tag.
	Lang language.Tag

	Pages []*Page

	Bookmarks []*Bookmark

	Resources *Resources

	ids idGenerator
}

// New returns an empty document ready to accept pages and resources.
func New() *Document {
	return &Document{
		Info:      &pdf.Info{},
		Resources: newResources(),
	}
}

// AddFont registers an external font and returns its document-scoped
// id. name is used only in diagnostics.
func (d *Document) AddFont(name string, data []byte) FontId {
	id := FontId(d.ids.next("F"))
	d.Resources.Fonts[id] = &Font{Name: name, Data: data}
	return id
}

// AddImage registers a decoded raster image as an XObject resource and
// returns its id.
func (d *Document) AddImage(img *Image) XObjectId {
	id := XObjectId(d.ids.next("Im"))
	d.Resources.XObjects[id] = &XObject{Kind: XObjectImage, Image: img}
	return id
}

// AddForm registers a reusable content-stream XObject and returns its
// id.
func (d *Document) AddForm(form *Form) XObjectId {
	id := XObjectId(d.ids.next("Fm"))
	d.Resources.XObjects[id] = &XObject{Kind: XObjectForm, Form: form}
	return id
}

// AddExternalXObject registers a reference to an XObject the caller
// already owns an indirect reference for (e.g. reused from a prior
// save) and returns its id.
func (d *Document) AddExternalXObject(ref string) XObjectId {
	id := XObjectId(d.ids.next("Im"))
	d.Resources.XObjects[id] = &XObject{Kind: XObjectExternalRef, ExternalRef: ref}
	return id
}

// AddExtGState registers an extended graphics state block and returns
// its id.
func (d *Document) AddExtGState(gs *ExtendedGraphicsState) GStateId {
	id := GStateId(d.ids.next("GS"))
	d.Resources.ExtGStates[id] = gs
	return id
}

// AddLayer registers an optional content group and returns its id.
func (d *Document) AddLayer(layer *Layer) LayerId {
	id := LayerId(d.ids.next("OC"))
	d.Resources.Layers[id] = layer
	return id
}

// AddBookmark appends a new top-level bookmark and returns it.
func (d *Document) AddBookmark(title string, pageIndex int) *Bookmark {
	b := &Bookmark{Title: title, PageIndex: pageIndex}
	d.Bookmarks = append(d.Bookmarks, b)
	return b
}

// AddPage appends a fully-formed page to the document and returns its
// zero-based index.
func (d *Document) AddPage(p *Page) int {
	d.Pages = append(d.Pages, p)
	return len(d.Pages) - 1
}

// WithPages appends each of the given pages in order, mirroring the
// bulk form named in
func (d *Document) WithPages(pages ...*Page) *Document {
	d.Pages = append(d.Pages, pages...)
	return d
}
