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

package pdfparse

import (
	"bytes"
	"fmt"

	"github.com/pdfxkit/pdfx"
	"github.com/pdfxkit/pdfx/document"
	"golang.org/x/text/language"
)

// Options controls how far Parse goes to recover from malformed
// input.
type Options struct {
	// FailOnError turns a page tree that cannot be walked, or a page
	// that cannot be rebuilt, into a terminal ParseError. The default
	// (false) instead records a Warning and continues with whatever
	// pages could be recovered. It has no effect on content-stream
	// operators: one this parser does not recognise always becomes an
	// ops.Unknown, whichever way FailOnError is set.
	FailOnError bool
}

// Parse reconstructs a document.Document from a complete PDF byte
// stream. It targets the subset of PDF this project's own Save
// produces: a classical (non-stream) xref table and trailer, a flat
// page tree, Type0/CIDFontType2 or CIDFontType0 composite fonts, and
// the content-stream operator vocabulary package content emits. Other
// well-formed PDF 1.x files parse too, on a best-effort basis:
// unsupported constructs (cross-reference streams' object-stream
// entries, encrypted files) degrade to warnings and ops.Unknown
// operators rather than aborting. A simple font with no
// /FontDescriptor is read as the standard font named by its /BaseFont.
func Parse(data []byte, opts Options) (*document.Document, []pdf.Warning, error) {
	store, err := loadObjectStore(data)
	if err != nil {
		return nil, nil, &pdf.ParseError{Offset: 0, Err: err}
	}

	rootObj, ok := store.trailer["Root"]
	if !ok {
		return nil, nil, &pdf.ParseError{Offset: 0, Err: fmt.Errorf("pdfparse: trailer has no /Root")}
	}
	rootDictObj, err := store.get(rootObj)
	if err != nil {
		return nil, nil, &pdf.ParseError{Offset: 0, Err: err}
	}
	catalog, ok := rootDictObj.(pdf.Dict)
	if !ok {
		return nil, nil, &pdf.ParseError{Offset: 0, Err: fmt.Errorf("pdfparse: /Root is not a dictionary")}
	}

	doc := document.New()

	c := &ctx{
		store:       store,
		doc:         doc,
		opts:        opts,
		fontByRef:   make(map[uint32]document.FontId),
		xobjByRef:   make(map[uint32]document.XObjectId),
		gstateByRef: make(map[uint32]document.GStateId),
		layerByRef:  make(map[uint32]document.LayerId),
		offLayers:   make(map[uint32]bool),
		pageIndexByRef: make(map[uint32]int),
	}
	c.loadOffLayers(catalog)

	if langStr, ok := catalog["Lang"].(pdf.String); ok {
		if tag, err := language.Parse(langStr.AsTextString()); err == nil {
			doc.Lang = tag
		}
	}

	pagesObj, ok := catalog["Pages"]
	if !ok {
		return nil, c.warnings, &pdf.ParseError{Offset: 0, Err: fmt.Errorf("pdfparse: catalog has no /Pages")}
	}
	pagesRootObj, err := store.get(pagesObj)
	if err != nil {
		return nil, c.warnings, &pdf.ParseError{Offset: 0, Err: err}
	}
	pagesRoot, ok := pagesRootObj.(pdf.Dict)
	if !ok {
		return nil, c.warnings, &pdf.ParseError{Offset: 0, Err: fmt.Errorf("pdfparse: /Pages is not a dictionary")}
	}

	pageDicts, err := c.collectPageDicts(pagesRoot, inheritable{}, make(map[uint32]bool), 0)
	if err != nil {
		if opts.FailOnError {
			return nil, c.warnings, &pdf.ParseError{Offset: 0, Err: err}
		}
		c.warn(pdf.WarnMalformedObject, err.Error())
	}

	for _, pd := range pageDicts {
		page, err := c.buildPage(pd)
		if err != nil {
			if opts.FailOnError {
				return nil, c.warnings, &pdf.ParseError{Offset: 0, Err: err}
			}
			c.warn(pdf.WarnMalformedObject, fmt.Sprintf("page skipped: %v", err))
			continue
		}
		idx := doc.AddPage(page)
		if pd.ref != 0 {
			c.pageIndexByRef[pd.ref.Number()] = idx
		}
	}

	if outlinesObj, ok := catalog["Outlines"]; ok {
		if outlineDict, err := store.get(outlinesObj); err == nil {
			if od, ok := outlineDict.(pdf.Dict); ok {
				doc.Bookmarks = c.buildOutlineChildren(od, doc.Pages)
			}
		}
	}

	if infoObj, ok := store.trailer["Info"]; ok {
		if info, err := store.get(infoObj); err == nil {
			if id, ok := info.(pdf.Dict); ok {
				doc.Info = c.buildInfo(id)
			}
		}
	}

	return doc, c.warnings, nil
}

// inheritable carries the page-tree attributes (§7.7.3.4) that
// propagate from a /Pages node to its descendants unless overridden.
type inheritable struct {
	resources pdf.Dict
	media     *pdf.Rectangle
	crop      *pdf.Rectangle
}

// collectPageDicts walks the page tree depth-first, resolving
// inherited /Resources and box attributes, and returns every leaf
// page dictionary paired with its effective attributes in document
// order. visited guards against a cyclic /Kids graph.
func (c *ctx) collectPageDicts(node pdf.Dict, inherited inheritable, visited map[uint32]bool, selfRef pdf.Reference) ([]pageDict, error) {
	if res, ok := node["Resources"]; ok {
		if resolved, err := c.store.get(res); err == nil {
			if rd, ok := resolved.(pdf.Dict); ok {
				inherited.resources = rd
			}
		}
	}
	if mb, ok := node["MediaBox"]; ok {
		if arr, ok := mb.(pdf.Array); ok {
			r := rectFromArray(arr)
			inherited.media = &r
		}
	}
	if cb, ok := node["CropBox"]; ok {
		if arr, ok := cb.(pdf.Array); ok {
			r := rectFromArray(arr)
			inherited.crop = &r
		}
	}

	nodeType, _ := node["Type"].(pdf.Name)
	if nodeType == "Page" {
		return []pageDict{{dict: node, inherited: inherited, ref: selfRef}}, nil
	}

	kidsObj, ok := node["Kids"]
	if !ok {
		return nil, fmt.Errorf("pdfparse: page tree node has neither /Type /Page nor /Kids")
	}
	kids, err := c.store.get(kidsObj)
	if err != nil {
		return nil, err
	}
	arr, ok := kids.(pdf.Array)
	if !ok {
		return nil, fmt.Errorf("pdfparse: /Kids is not an array")
	}

	var out []pageDict
	for _, kidObj := range arr {
		ref, isRef := kidObj.(pdf.Reference)
		if isRef {
			if visited[ref.Number()] {
				continue
			}
			visited[ref.Number()] = true
		}
		kidResolved, err := c.store.get(kidObj)
		if err != nil {
			c.warn(pdf.WarnMalformedObject, fmt.Sprintf("unresolved page-tree child: %v", err))
			continue
		}
		kidDict, ok := kidResolved.(pdf.Dict)
		if !ok {
			continue
		}
		sub, err := c.collectPageDicts(kidDict, inherited, visited, ref)
		if err != nil {
			c.warn(pdf.WarnMalformedObject, err.Error())
			continue
		}
		out = append(out, sub...)
	}
	return out, nil
}

type pageDict struct {
	dict      pdf.Dict
	inherited inheritable
	ref       pdf.Reference
}

func (c *ctx) buildPage(pd pageDict) (*document.Page, error) {
	media := pd.inherited.media
	if mb, ok := pd.dict["MediaBox"]; ok {
		if arr, ok := mb.(pdf.Array); ok {
			r := rectFromArray(arr)
			media = &r
		}
	}
	crop := pd.inherited.crop
	if cb, ok := pd.dict["CropBox"]; ok {
		if arr, ok := cb.(pdf.Array); ok {
			r := rectFromArray(arr)
			crop = &r
		}
	}
	var trim *pdf.Rectangle
	if tb, ok := pd.dict["TrimBox"]; ok {
		if arr, ok := tb.(pdf.Array); ok {
			r := rectFromArray(arr)
			trim = &r
		}
	}

	page := &document.Page{}
	if media != nil {
		page.Media = *media
	}
	if crop != nil {
		page.Crop = *crop
	} else {
		page.Crop = page.Media
	}
	if trim != nil {
		page.Trim = *trim
	} else {
		page.Trim = page.Media
	}

	resDict := pd.inherited.resources
	if res, ok := pd.dict["Resources"]; ok {
		if resolved, err := c.store.get(res); err == nil {
			if rd, ok := resolved.(pdf.Dict); ok {
				resDict = rd
			}
		}
	}
	var rn resourceNames
	if resDict != nil {
		rn = c.readResourceDict(resDict)
	}

	body, err := c.pageContentBytes(pd.dict)
	if err != nil {
		return nil, err
	}
	page.Ops = c.remapOps(tokenizeContent(body, c.fontKinds(rn)), rn)
	return page, nil
}

// pageContentBytes concatenates a page's /Contents, which is either a
// single stream reference or an array of them (§7.8.2), joining
// adjacent streams with a newline so a token straddling two streams
// still separates cleanly.
func (c *ctx) pageContentBytes(dict pdf.Dict) ([]byte, error) {
	contentsObj, ok := dict["Contents"]
	if !ok {
		return nil, nil
	}

	var refs []pdf.Reference
	switch v := contentsObj.(type) {
	case pdf.Reference:
		refs = append(refs, v)
	case pdf.Array:
		for _, el := range v {
			if r, ok := el.(pdf.Reference); ok {
				refs = append(refs, r)
			}
		}
	}

	var buf bytes.Buffer
	for i, ref := range refs {
		if i > 0 {
			buf.WriteByte('\n')
		}
		if _, err := c.store.get(ref); err != nil {
			continue
		}
		buf.Write(c.store.streams[ref.Number()])
	}
	return buf.Bytes(), nil
}

// loadOffLayers populates ctx.offLayers from /OCProperties /D /OFF so
// buildLayer can set Layer.DefaultOn correctly regardless of the order
// pages reference OCGs in.
func (c *ctx) loadOffLayers(catalog pdf.Dict) {
	ocp, ok := catalog["OCProperties"]
	if !ok {
		return
	}
	resolved, err := c.store.get(ocp)
	if err != nil {
		return
	}
	dict, ok := resolved.(pdf.Dict)
	if !ok {
		return
	}
	dObj, ok := dict["D"]
	if !ok {
		return
	}
	dResolved, err := c.store.get(dObj)
	if err != nil {
		return
	}
	dDict, ok := dResolved.(pdf.Dict)
	if !ok {
		return
	}
	offObj, ok := dDict["OFF"]
	if !ok {
		return
	}
	offResolved, err := c.store.get(offObj)
	if err != nil {
		return
	}
	offArr, ok := offResolved.(pdf.Array)
	if !ok {
		return
	}
	for _, el := range offArr {
		if ref, ok := el.(pdf.Reference); ok {
			c.offLayers[ref.Number()] = true
		}
	}
}

// buildOutlineChildren walks an Outline (or Outline Item) dictionary's
// /First..Next sibling chain, converting each into a Bookmark and
// resolving its /Dest page target against the order of pages (the
// destination array's first element is a page object reference; the
// page's index is its position in doc.Pages, discovered by matching
// object identity via the page dictionaries collected earlier).
func (c *ctx) buildOutlineChildren(parent pdf.Dict, pages []*document.Page) []*document.Bookmark {
	firstObj, ok := parent["First"]
	if !ok {
		return nil
	}
	var out []*document.Bookmark
	seen := make(map[uint32]bool)
	next := firstObj
	for {
		ref, isRef := next.(pdf.Reference)
		if isRef {
			if seen[ref.Number()] {
				break
			}
			seen[ref.Number()] = true
		}
		resolved, err := c.store.get(next)
		if err != nil {
			break
		}
		item, ok := resolved.(pdf.Dict)
		if !ok {
			break
		}

		title, _ := item["Title"].(pdf.String)
		b := &document.Bookmark{
			Title:     title.AsTextString(),
			PageIndex: c.destPageIndex(item["Dest"]),
			Open:      isOpenCount(item["Count"]),
		}
		b.Children = c.buildOutlineChildren(item, pages)
		out = append(out, b)

		nextObj, ok := item["Next"]
		if !ok {
			break
		}
		next = nextObj
	}
	return out
}

func isOpenCount(obj pdf.Object) bool {
	n, ok := obj.(pdf.Integer)
	return ok && n > 0
}

// destPageIndex resolves a /Dest [pageRef ...] array to a zero-based
// page index, using the page object's number as recorded in
// c.pageIndexByRef when Parse added each page to the document.
func (c *ctx) destPageIndex(dest pdf.Object) int {
	arr, ok := dest.(pdf.Array)
	if !ok || len(arr) == 0 {
		return -1
	}
	ref, ok := arr[0].(pdf.Reference)
	if !ok {
		return -1
	}
	idx, ok := c.pageIndexByRef[ref.Number()]
	if !ok {
		return -1
	}
	return idx
}

func (c *ctx) buildInfo(dict pdf.Dict) *pdf.Info {
	info := &pdf.Info{Custom: map[string]string{}}
	strField := func(key pdf.Name) string {
		if s, ok := dict[key].(pdf.String); ok {
			return s.AsTextString()
		}
		return ""
	}
	info.Title = strField("Title")
	info.Author = strField("Author")
	info.Subject = strField("Subject")
	info.Keywords = strField("Keywords")
	info.Creator = strField("Creator")
	info.Producer = strField("Producer")
	if s, ok := dict["CreationDate"].(pdf.String); ok {
		if t, err := s.AsDate(); err == nil {
			info.CreationDate = t
		}
	}
	if s, ok := dict["ModDate"].(pdf.String); ok {
		if t, err := s.AsDate(); err == nil {
			info.ModDate = t
		}
	}
	known := map[pdf.Name]bool{
		"Title": true, "Author": true, "Subject": true, "Keywords": true,
		"Creator": true, "Producer": true, "CreationDate": true, "ModDate": true,
	}
	for k, v := range dict {
		if known[k] {
			continue
		}
		if s, ok := v.(pdf.String); ok {
			info.Custom[string(k)] = s.AsTextString()
		}
	}
	if len(info.Custom) == 0 {
		info.Custom = nil
	}
	return info
}
