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

// Package objgraph implements the Object-Graph Builder: given an
// assembled document.Document it allocates every indirect PDF object
// leaf-first (fonts before the content streams that reference them,
// content streams before the page objects that reference those, page
// objects before the page tree, the page tree before the catalog) and
// hands each to the writer in that order, since Writer.WriteIndirect
// requires forward references to already have an allocated number.
package objgraph

import (
	"sort"

	"github.com/pdfxkit/pdfx"
	"github.com/pdfxkit/pdfx/content"
	"github.com/pdfxkit/pdfx/document"
	"github.com/pdfxkit/pdfx/fontsubset"
	"github.com/pdfxkit/pdfx/glyphusage"
)

// Options mirrors the caller-visible save options that affect object
// graph construction; package serialize translates its own SaveOptions
// into this shape.
type Options struct {
	SubsetFonts bool
	Optimize    bool
	Secure      bool
	Strict      bool

	// RequireICC and RequireXMP come from the conformance level:
	// PDF/X-3 requires both, NoIcc drops the OutputIntent, Custom sets
	// them independently.
	RequireICC bool
	RequireXMP bool

	// ICCProfile is the embedded output-intent profile. Required when
	// RequireICC is set; ignored otherwise.
	ICCProfile      []byte
	OutputCondition string

	ExternalRefs map[string]pdf.Reference
}

// Build allocates and writes every indirect object for doc, in the
// dependency order the writer's allocate-then-resolve contract
// requires, and closes w with the finished catalog, info dictionary
// and document ID.
func Build(w *pdf.Writer, doc *document.Document, opts Options, docID [2]pdf.String) ([]pdf.Warning, error) {
	var warnings []pdf.Warning

	usage, usageWarnings := glyphusage.Collect(doc.Pages, doc.Resources)
	warnings = append(warnings, usageWarnings...)

	var outputIntents pdf.Array
	if opts.RequireICC {
		intents, err := buildOutputIntent(w, opts.ICCProfile, opts.OutputCondition, opts.Optimize)
		if err != nil {
			return warnings, err
		}
		outputIntents = intents
	}

	fonts, fontWarnings, err := buildFonts(w, doc.Resources, usage, opts.SubsetFonts, opts.Optimize)
	warnings = append(warnings, fontWarnings...)
	if err != nil {
		return warnings, err
	}

	refs := &content.RefTable{
		Fonts:      make(map[document.FontId]pdf.Reference, len(fonts)),
		XObjects:   make(map[document.XObjectId]pdf.Reference, len(doc.Resources.XObjects)),
		ExtGStates: make(map[document.GStateId]pdf.Reference, len(doc.Resources.ExtGStates)),
		Layers:     nil,
		StdFonts:   make(map[string]pdf.Reference),
	}
	subsets := make(map[document.FontId]*fontsubset.Result, len(fonts))
	for id, fr := range fonts {
		refs.Fonts[id] = fr.Ref
		subsets[id] = fr.Subset
	}

	builtinNames := collectBuiltinFonts(doc.Pages, doc.Resources)
	sortedNames := make([]string, 0, len(builtinNames))
	for name := range builtinNames {
		sortedNames = append(sortedNames, name)
	}
	sort.Strings(sortedNames)
	for _, name := range sortedNames {
		ref := w.Alloc()
		if err := w.WriteIndirect(ref, buildStandardFontDict(name)); err != nil {
			return warnings, err
		}
		refs.StdFonts[name] = ref
	}

	lowerOpts := content.Options{Secure: opts.Secure, Strict: opts.Strict}

	// XObjects are allocated in two passes: Form references and image
	// objects first (a Form's own content is not lowered yet), then
	// layers and extended graphics states, then the Form content
	// streams themselves. A Form's ops can load an ExtGState or begin
	// a layer, so those tables must exist before any Form is lowered;
	// an ExtGState's soft mask names an XObjectId, so the XObject
	// table must exist before ExtGStates are written.
	formIDs, allocWarnings, err := allocateXObjects(w, doc.Resources, refs, opts.ExternalRefs, opts.Optimize)
	warnings = append(warnings, allocWarnings...)
	if err != nil {
		return warnings, err
	}

	layerRefs, ocProps, err := buildLayers(w, doc.Resources)
	if err != nil {
		return warnings, err
	}
	refs.Layers = layerRefs

	gsIds := sortedGStateIds(doc.Resources.ExtGStates)
	for _, gid := range gsIds {
		gs := doc.Resources.ExtGStates[gid]
		var softMask pdf.Reference
		if gs.SoftMask != "" {
			softMask = refs.XObjects[gs.SoftMask]
		}
		ref := w.Alloc()
		if err := w.WriteIndirect(ref, buildExtGState(gs, softMask)); err != nil {
			return warnings, err
		}
		refs.ExtGStates[gid] = ref
	}

	formWarnings, err := writeFormContents(w, doc.Resources, refs, subsets, lowerOpts, formIDs, opts.Optimize)
	warnings = append(warnings, formWarnings...)
	if err != nil {
		return warnings, err
	}

	pageRefs := make([]pdf.Reference, len(doc.Pages))
	pagesRootRef := w.Alloc()
	for i, page := range doc.Pages {
		lowered, pageWarnings, err := content.Lower(page, refs, subsets, lowerOpts, i)
		warnings = append(warnings, pageWarnings...)
		if err != nil {
			return warnings, err
		}
		ref, err := writePage(w, page, lowered, pagesRootRef, opts.Optimize)
		if err != nil {
			return warnings, err
		}
		pageRefs[i] = ref
	}
	if err := writePageTree(w, pagesRootRef, pageRefs); err != nil {
		return warnings, err
	}

	outlinesRef, err := writeOutlines(w, doc.Bookmarks, pageRefs)
	if err != nil {
		return warnings, err
	}

	var metadataRef pdf.Reference
	if opts.RequireXMP {
		metadataRef, err = buildXMPMetadata(w, doc.Info, doc.Lang, opts.Optimize)
		if err != nil {
			return warnings, err
		}
	}

	catalog := &pdf.Catalog{
		Pages:         pagesRootRef,
		Outlines:      outlinesRef,
		Lang:          doc.Lang,
		OutputIntents: intentsOrNil(outputIntents),
		OCProperties:  dictOrNil(ocProps),
		Metadata:      metadataRef,
	}
	catalogRef := w.Alloc()
	if err := w.WriteIndirect(catalogRef, catalog.Dict()); err != nil {
		return warnings, err
	}

	infoDict := doc.Info.Dict()
	var infoObj pdf.Object
	if infoDict != nil {
		infoRef := w.Alloc()
		if err := w.WriteIndirect(infoRef, infoDict); err != nil {
			return warnings, err
		}
		infoObj = infoRef
	}

	if err := w.Close(catalogRef, infoObj, docID); err != nil {
		return warnings, err
	}
	return warnings, nil
}

func intentsOrNil(a pdf.Array) pdf.Object {
	if len(a) == 0 {
		return nil
	}
	return a
}

// dictOrNil avoids the classic typed-nil-interface trap: an empty
// pdf.Dict boxed into the Object interface still compares != nil, so
// Catalog.Dict would emit a spurious empty /OCProperties entry without
// this check.
func dictOrNil(d pdf.Dict) pdf.Object {
	if len(d) == 0 {
		return nil
	}
	return d
}

func sortedGStateIds(m map[document.GStateId]*document.ExtendedGraphicsState) []document.GStateId {
	ids := make([]document.GStateId, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
