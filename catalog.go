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

import "golang.org/x/text/language"

// Catalog represents a PDF Document Catalog (§7.7.2 of PDF 32000-1:2008).
// The object graph builder (objgraph.Build) populates one of these per
// document and emits it as the indirect object the trailer's /Root
// names.
type Catalog struct {
	// Pages is the root of the document's page tree.
	Pages Reference

	// Outlines is the root of the bookmark/outline hierarchy, or zero
	// if the document has no bookmarks.
	Outlines Reference

	// Lang specifies the natural language for all text in the document.
	Lang language.Tag

	// PageLayout and PageMode control the initial viewer presentation.
	PageLayout Name
	PageMode   Name

	// OutputIntents carries the PDF/X-3 output intent array (with the
	// embedded ICC profile reference), required unless conformance
	// suppresses ICC.
	OutputIntents Object

	// OCProperties describes the document's optional content groups
	// (layers), built by objgraph from the document's layer table.
	OCProperties Object

	// Metadata references the document-level XMP metadata stream,
	// or zero if XMP is suppressed.
	Metadata Reference
}

// Dict renders the catalog to a PDF dictionary.
func (c *Catalog) Dict() Dict {
	d := Dict{
		"Type":  Name("Catalog"),
		"Pages": c.Pages,
	}
	if c.Outlines != 0 {
		d["Outlines"] = c.Outlines
	}
	if !c.Lang.IsRoot() {
		d["Lang"] = TextString(c.Lang.String())
	}
	if c.PageLayout != "" {
		d["PageLayout"] = c.PageLayout
	}
	if c.PageMode != "" {
		d["PageMode"] = c.PageMode
	}
	if c.OutputIntents != nil {
		d["OutputIntents"] = c.OutputIntents
	}
	if c.OCProperties != nil {
		d["OCProperties"] = c.OCProperties
	}
	if c.Metadata != 0 {
		d["Metadata"] = c.Metadata
	}
	return d
}
