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
	"fmt"
	"sort"

	"github.com/pdfxkit/pdfx"
	"github.com/pdfxkit/pdfx/content"
	"github.com/pdfxkit/pdfx/document"
	"github.com/pdfxkit/pdfx/fontsubset"
)

// allocateXObjects reserves refs.XObjects entries for every XObject
// resource in res: Form references are allocated up front (their
// content is lowered later, once ExtGStates and Layers exist), images
// are decoded and written immediately since they have no forward
// dependencies of their own, and external references are resolved
// against the caller-supplied table. It returns the Form ids in
// allocation order, for writeFormContents to lower afterwards.
func allocateXObjects(
	w *pdf.Writer,
	res *document.Resources,
	refs *content.RefTable,
	externalRefs map[string]pdf.Reference,
	optimize bool,
) ([]document.XObjectId, []pdf.Warning, error) {
	var warnings []pdf.Warning

	ids := make([]document.XObjectId, 0, len(res.XObjects))
	for id := range res.XObjects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var formIDs []document.XObjectId
	for _, id := range ids {
		xo := res.XObjects[id]
		switch xo.Kind {
		case document.XObjectForm:
			refs.XObjects[id] = w.Alloc()
			formIDs = append(formIDs, id)

		case document.XObjectImage:
			ref, imgWarnings, err := buildImage(w, id, xo.Image, optimize)
			warnings = append(warnings, imgWarnings...)
			if err != nil {
				return nil, warnings, err
			}
			refs.XObjects[id] = ref

		case document.XObjectExternalRef:
			ref, ok := externalRefs[xo.ExternalRef]
			if !ok {
				return nil, warnings, fmt.Errorf("objgraph: external XObject reference %q for %q not supplied", xo.ExternalRef, id)
			}
			refs.XObjects[id] = ref
		}
	}

	return formIDs, warnings, nil
}

// writeFormContents lowers and writes the content stream of every Form
// XObject named in formIDs. It runs after refs is fully populated
// (fonts, XObjects, ExtGStates, layers) so a Form's ops can reference
// any of those resources, the same as a page's ops can.
func writeFormContents(
	w *pdf.Writer,
	res *document.Resources,
	refs *content.RefTable,
	subsets map[document.FontId]*fontsubset.Result,
	opts content.Options,
	formIDs []document.XObjectId,
	optimize bool,
) ([]pdf.Warning, error) {
	var warnings []pdf.Warning
	for _, id := range formIDs {
		form := res.XObjects[id].Form
		page := &document.Page{Ops: form.Ops}
		lowered, formWarnings, err := content.Lower(page, refs, subsets, opts, -1)
		warnings = append(warnings, formWarnings...)
		if err != nil {
			return warnings, err
		}

		dict := pdf.Dict{
			"Type":      pdf.Name("XObject"),
			"Subtype":   pdf.Name("Form"),
			"BBox":      &form.BBox,
			"Resources": lowered.ResourceDict,
		}
		if err := writeStream(w, refs.XObjects[id], dict, lowered.Body, optimize); err != nil {
			return warnings, err
		}
	}
	return warnings, nil
}
