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
	"github.com/pdfxkit/pdfx/content"
	"github.com/pdfxkit/pdfx/document"
)

// writePage emits a page's content stream and page object, in that
// order (content streams are leaves; the page object references them),
// and returns the page's own indirect reference.
func writePage(w *pdf.Writer, page *document.Page, lowered *content.Result, parent pdf.Reference, optimize bool) (pdf.Reference, error) {
	contentRef := w.Alloc()
	if err := writeStream(w, contentRef, pdf.Dict{}, lowered.Body, optimize); err != nil {
		return 0, err
	}

	dict := pdf.Dict{
		"Type":      pdf.Name("Page"),
		"Parent":    parent,
		"Contents":  contentRef,
		"Resources": lowered.ResourceDict,
	}
	if !page.Media.IsZero() {
		dict["MediaBox"] = &page.Media
	}
	if !page.Crop.IsZero() && page.Crop != page.Media {
		dict["CropBox"] = &page.Crop
	}
	if !page.Trim.IsZero() && page.Trim != page.Media {
		dict["TrimBox"] = &page.Trim
	}

	if len(lowered.Annots) > 0 {
		annots := pdf.Array{}
		for _, a := range lowered.Annots {
			ref, err := writeLinkAnnotation(w, a)
			if err != nil {
				return 0, err
			}
			annots = append(annots, ref)
		}
		dict["Annots"] = annots
	}

	ref := w.Alloc()
	if err := w.WriteIndirect(ref, dict); err != nil {
		return 0, err
	}
	return ref, nil
}

func writeLinkAnnotation(w *pdf.Writer, a content.LinkAnnotation) (pdf.Reference, error) {
	rect := pdf.Array{
		pdf.Number(a.Area[0]), pdf.Number(a.Area[1]),
		pdf.Number(a.Area[2]), pdf.Number(a.Area[3]),
	}
	dict := pdf.Dict{
		"Type":    pdf.Name("Annot"),
		"Subtype": pdf.Name("Link"),
		"Rect":    rect,
		"Border":  pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(0)},
		"A": pdf.Dict{
			"Type": pdf.Name("Action"),
			"S":    pdf.Name("URI"),
			"URI":  pdf.String(a.URI),
		},
	}
	ref := w.Alloc()
	if err := w.WriteIndirect(ref, dict); err != nil {
		return 0, err
	}
	return ref, nil
}

// writePageTree emits the /Pages tree root once every leaf page object
// is known, and returns its reference. The tree is always a single
// flat level: pageCount pages rarely warrant the balanced-tree
// structure PDF allows for random access, and a flat /Kids array keeps
// this builder's output simple to verify byte-for-byte.
func writePageTree(w *pdf.Writer, root pdf.Reference, pageRefs []pdf.Reference) error {
	kids := make(pdf.Array, len(pageRefs))
	for i, ref := range pageRefs {
		kids[i] = ref
	}
	dict := pdf.Dict{
		"Type":  pdf.Name("Pages"),
		"Kids":  kids,
		"Count": pdf.Integer(len(pageRefs)),
	}
	return w.WriteIndirect(root, dict)
}

// writeOutlines emits the bookmark forest as a PDF outline dictionary
// tree (§12.3.3) rooted at root, and returns the reference the catalog
// should point its /Outlines entry at, or 0 if there are no bookmarks.
func writeOutlines(w *pdf.Writer, bookmarks []*document.Bookmark, pageRefs []pdf.Reference) (pdf.Reference, error) {
	if len(bookmarks) == 0 {
		return 0, nil
	}

	rootRef := w.Alloc()
	first, last, count, err := writeOutlineSiblings(w, bookmarks, rootRef, pageRefs)
	if err != nil {
		return 0, err
	}

	dict := pdf.Dict{
		"Type":  pdf.Name("Outlines"),
		"First": first,
		"Last":  last,
		"Count": pdf.Integer(count),
	}
	if err := w.WriteIndirect(rootRef, dict); err != nil {
		return 0, err
	}
	return rootRef, nil
}

// writeOutlineSiblings writes items as a doubly linked list of Outline
// Item dictionaries under parent, recursing into each item's children,
// and returns the first/last child references plus the total visible
// item count (an open descendant counts, a collapsed subtree's
// descendants do not, per the /Count sign convention).
func writeOutlineSiblings(w *pdf.Writer, items []*document.Bookmark, parent pdf.Reference, pageRefs []pdf.Reference) (pdf.Reference, pdf.Reference, int, error) {
	refs := make([]pdf.Reference, len(items))
	for i := range items {
		refs[i] = w.Alloc()
	}

	total := 0
	for i, item := range items {
		childFirst, childLast, childCount, err := writeOutlineSiblings(w, item.Children, refs[i], pageRefs)
		if err != nil {
			return 0, 0, 0, err
		}

		dict := pdf.Dict{
			"Title":  pdf.TextString(item.Title),
			"Parent": parent,
		}
		if i > 0 {
			dict["Prev"] = refs[i-1]
		}
		if i < len(items)-1 {
			dict["Next"] = refs[i+1]
		}
		if item.PageIndex >= 0 && item.PageIndex < len(pageRefs) {
			var top pdf.Object
			if item.Top != nil {
				top = pdf.Number(*item.Top)
			}
			dict["Dest"] = pdf.Array{pageRefs[item.PageIndex], pdf.Name("XYZ"), nil, top, nil}
		}
		if childFirst != 0 {
			dict["First"] = childFirst
			dict["Last"] = childLast
			if item.Open {
				dict["Count"] = pdf.Integer(childCount)
			} else {
				dict["Count"] = pdf.Integer(-childCount)
			}
		}

		if err := w.WriteIndirect(refs[i], dict); err != nil {
			return 0, 0, 0, err
		}

		total++
		if item.Open {
			total += childCount
		}
	}

	if len(refs) == 0 {
		return 0, 0, 0, nil
	}
	return refs[0], refs[len(refs)-1], total, nil
}
