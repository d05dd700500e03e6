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
	"github.com/pdfxkit/pdfx"
	"github.com/pdfxkit/pdfx/document"
	"github.com/pdfxkit/pdfx/ops"
)

// ctx carries the shared, document-wide reconstruction state as pages
// are walked: the object store, the document under construction, and
// caches mapping an indirect reference to the document-scoped id
// already allocated for it, so a font or image shared by several
// pages is embedded only once.
type ctx struct {
	store *objectStore
	doc   *document.Document
	opts  Options

	fontByRef   map[uint32]document.FontId
	xobjByRef   map[uint32]document.XObjectId
	gstateByRef map[uint32]document.GStateId
	layerByRef  map[uint32]document.LayerId

	// offLayers holds the object numbers listed in /OCProperties /D
	// /OFF, populated once before any page is walked.
	offLayers map[uint32]bool

	// pageIndexByRef maps a page object's number to its position in
	// doc.Pages, populated as pages are built, so outline /Dest
	// arrays (which name a page object reference) resolve to an index.
	pageIndexByRef map[uint32]int

	warnings []pdf.Warning
}

func (c *ctx) warn(kind pdf.WarningKind, msg string) {
	c.warnings = append(c.warnings, pdf.Warning{
		Location: pdf.Location{Page: -1, Op: -1}, Kind: kind, Message: msg,
	})
}

// resourceNames resolves a page or Form /Resources dictionary into
// four name->Object maps, one per sub-dictionary, ready for the
// per-page remap pass. Missing sub-dictionaries yield nil maps.
type resourceNames struct {
	fonts, xobjects, extgstates, properties map[string]pdf.Object
}

func (c *ctx) readResourceDict(dict pdf.Dict) resourceNames {
	var rn resourceNames
	rn.fonts = c.readSubDict(dict, "Font")
	rn.xobjects = c.readSubDict(dict, "XObject")
	rn.extgstates = c.readSubDict(dict, "ExtGState")
	rn.properties = c.readSubDict(dict, "Properties")
	return rn
}

// fontKinds resolves a page or Form resource dictionary's /Font entries
// far enough to tell tokenizeContent, ahead of scanning, whether each
// page-local name is a Type0 composite font or a simple one, since a
// Tj/TJ operand's byte width depends on the font active when it runs,
// not on anything the operand bytes themselves carry.
func (c *ctx) fontKinds(rn resourceNames) map[string]bool {
	if len(rn.fonts) == 0 {
		return nil
	}
	kinds := make(map[string]bool, len(rn.fonts))
	for name, obj := range rn.fonts {
		resolved, err := c.store.get(obj)
		if err != nil {
			continue
		}
		fontDict, ok := resolved.(pdf.Dict)
		if !ok {
			continue
		}
		kinds[name] = fontDict["Subtype"] == pdf.Name("Type0")
	}
	return kinds
}

func (c *ctx) readSubDict(dict pdf.Dict, key pdf.Name) map[string]pdf.Object {
	obj, ok := dict[key]
	if !ok {
		return nil
	}
	resolved, err := c.store.get(obj)
	if err != nil {
		return nil
	}
	sub, ok := resolved.(pdf.Dict)
	if !ok {
		return nil
	}
	out := make(map[string]pdf.Object, len(sub))
	for name, v := range sub {
		out[string(name)] = v
	}
	return out
}

// remapOps rewrites the page-local resource names tokenizeContent
// produced into the document-scoped ids the reconstructed
// document.Resources actually uses, recursively remapping Form
// XObjects' own content the same way.
func (c *ctx) remapOps(list []ops.Operation, rn resourceNames) []ops.Operation {
	out := make([]ops.Operation, len(list))
	for i, op := range list {
		switch o := op.(type) {
		case ops.SetFont:
			o.Font = c.remapFont(o.Font, rn)
			out[i] = o
		case ops.LoadGraphicsState:
			o.GState = c.remapExtGState(o.GState, rn)
			out[i] = o
		case ops.UseXObject:
			o.XObject = c.remapXObject(o.XObject, rn)
			out[i] = o
		case ops.BeginLayer:
			o.Layer = c.remapLayer(o.Layer, rn)
			out[i] = o
		default:
			out[i] = op
		}
	}
	return out
}

func (c *ctx) remapFont(name string, rn resourceNames) string {
	obj, ok := rn.fonts[name]
	if !ok {
		return name
	}
	ref, isRef := obj.(pdf.Reference)
	if !isRef {
		return name
	}
	if id, ok := c.fontByRef[ref.Number()]; ok {
		return string(id)
	}
	dict, err := c.store.get(ref)
	if err != nil {
		return name
	}
	fontDict, ok := dict.(pdf.Dict)
	if !ok {
		return name
	}
	if base, std := standardFontName(fontDict); std {
		return base
	}
	id, err := c.buildEmbeddedFont(ref, fontDict)
	if err != nil {
		c.warn(pdf.WarnMissingFont, err.Error())
		return name
	}
	return string(id)
}

func standardFontName(dict pdf.Dict) (string, bool) {
	if _, hasDescriptor := dict["FontDescriptor"]; hasDescriptor {
		return "", false
	}
	base, _ := dict["BaseFont"].(pdf.Name)
	if base == "" {
		return "", false
	}
	return string(base), true
}

func (c *ctx) remapXObject(name string, rn resourceNames) string {
	obj, ok := rn.xobjects[name]
	if !ok {
		return name
	}
	ref, isRef := obj.(pdf.Reference)
	if !isRef {
		return name
	}
	if id, ok := c.xobjByRef[ref.Number()]; ok {
		return string(id)
	}
	dict, err := c.store.get(ref)
	if err != nil {
		return name
	}
	xoDict, ok := dict.(pdf.Dict)
	if !ok {
		return name
	}
	id, err := c.buildXObject(ref, xoDict)
	if err != nil {
		c.warn(pdf.WarnMalformedObject, err.Error())
		return name
	}
	return string(id)
}

func (c *ctx) remapExtGState(name string, rn resourceNames) string {
	obj, ok := rn.extgstates[name]
	if !ok {
		return name
	}
	ref, isRef := obj.(pdf.Reference)
	if !isRef {
		return name
	}
	if id, ok := c.gstateByRef[ref.Number()]; ok {
		return string(id)
	}
	dict, err := c.store.get(ref)
	if err != nil {
		return name
	}
	gsDict, ok := dict.(pdf.Dict)
	if !ok {
		return name
	}
	id := c.buildExtGState(ref, gsDict)
	return string(id)
}

func (c *ctx) remapLayer(name string, rn resourceNames) string {
	obj, ok := rn.properties[name]
	if !ok {
		return name
	}
	ref, isRef := obj.(pdf.Reference)
	if !isRef {
		return name
	}
	if id, ok := c.layerByRef[ref.Number()]; ok {
		return string(id)
	}
	dict, err := c.store.get(ref)
	if err != nil {
		return name
	}
	ocgDict, ok := dict.(pdf.Dict)
	if !ok {
		return name
	}
	id := c.buildLayer(ref, ocgDict)
	return string(id)
}

func (c *ctx) buildEmbeddedFont(ref pdf.Reference, fontDict pdf.Dict) (document.FontId, error) {
	program, err := c.extractFontProgram(fontDict)
	if err != nil {
		return "", err
	}
	base, _ := fontDict["BaseFont"].(pdf.Name)
	id := c.doc.AddFont(string(base), program)
	c.fontByRef[ref.Number()] = id
	return id, nil
}

// extractFontProgram descends a Type0 composite font (this project's
// own write shape) or a simple font dictionary to the FontFile2/
// FontFile3 stream and returns its decoded bytes, which are already a
// complete, re-embeddable OpenType/TrueType program regardless of
// whether the original document subsetted it.
func (c *ctx) extractFontProgram(fontDict pdf.Dict) ([]byte, error) {
	descendant := fontDict
	if df, ok := fontDict["DescendantFonts"]; ok {
		arr, err := c.store.get(df)
		if err == nil {
			if a, ok := arr.(pdf.Array); ok && len(a) > 0 {
				if d, err := c.store.get(a[0]); err == nil {
					if dd, ok := d.(pdf.Dict); ok {
						descendant = dd
					}
				}
			}
		}
	}
	fdObj, ok := descendant["FontDescriptor"]
	if !ok {
		return nil, fontProgramErr("missing FontDescriptor")
	}
	fd, err := c.store.get(fdObj)
	if err != nil {
		return nil, err
	}
	fdDict, ok := fd.(pdf.Dict)
	if !ok {
		return nil, fontProgramErr("malformed FontDescriptor")
	}
	for _, key := range []pdf.Name{"FontFile2", "FontFile3", "FontFile"} {
		ref, ok := fdDict[key].(pdf.Reference)
		if !ok {
			continue
		}
		if _, err := c.store.get(ref); err != nil {
			continue
		}
		body, ok := c.store.streams[ref.Number()]
		if ok {
			return body, nil
		}
	}
	return nil, fontProgramErr("no embedded font file")
}

func fontProgramErr(msg string) error { return &pdf.FontParseError{FontID: "?", Err: errString(msg)} }

type errString string

func (e errString) Error() string { return string(e) }

func (c *ctx) buildXObject(ref pdf.Reference, dict pdf.Dict) (document.XObjectId, error) {
	subtype, _ := dict["Subtype"].(pdf.Name)
	switch subtype {
	case "Image":
		return c.buildImageXObject(ref, dict)
	case "Form":
		return c.buildFormXObject(ref, dict)
	default:
		return "", fontProgramErr("unknown XObject subtype")
	}
}

func (c *ctx) buildImageXObject(ref pdf.Reference, dict pdf.Dict) (document.XObjectId, error) {
	width := intField(dict["Width"])
	height := intField(dict["Height"])
	bpc := intField(dict["BitsPerComponent"])
	colorSpace, _ := dict["ColorSpace"].(pdf.Name)

	body := c.store.streams[ref.Number()]
	if _, filtered := dict["Filter"]; filtered && body == nil {
		c.warn(pdf.WarnUnsupportedFilter, "image XObject uses an unsupported filter; skipped")
		return "", fontProgramErr("unsupported image filter")
	}

	var format document.PixelFormat
	switch {
	case colorSpace == "DeviceGray" && bpc == 8:
		format = document.PixelR8
	case colorSpace == "DeviceGray" && bpc == 16:
		format = document.PixelR16
	case colorSpace == "DeviceRGB" && bpc == 8:
		format = document.PixelRGB8
	case colorSpace == "DeviceRGB" && bpc == 16:
		format = document.PixelRGB16
	default:
		return "", fontProgramErr("unsupported image color space/depth combination")
	}

	img := &document.Image{Width: width, Height: height, Format: format, Pixels: body}

	if smaskRef, ok := dict["SMask"].(pdf.Reference); ok && format == document.PixelRGB8 {
		if smObj, err := c.store.get(smaskRef); err == nil {
			if smDict, ok := smObj.(pdf.Dict); ok {
				alpha := c.store.streams[smaskRef.Number()]
				smW, smH := intField(smDict["Width"]), intField(smDict["Height"])
				if smW == width && smH == height && len(alpha) == width*height {
					merged := make([]byte, width*height*4)
					for i := 0; i < width*height; i++ {
						merged[4*i] = body[3*i]
						merged[4*i+1] = body[3*i+1]
						merged[4*i+2] = body[3*i+2]
						merged[4*i+3] = alpha[i]
					}
					img.Format = document.PixelRGBA8
					img.Pixels = merged
				}
			}
		}
	}

	id := c.doc.AddImage(img)
	c.xobjByRef[ref.Number()] = id
	return id, nil
}

func (c *ctx) buildFormXObject(ref pdf.Reference, dict pdf.Dict) (document.XObjectId, error) {
	// Reserve the id before descending into the form's own content, so
	// a form that (indirectly) references itself terminates instead of
	// recursing forever.
	form := &document.Form{}
	id := c.doc.AddForm(form)
	c.xobjByRef[ref.Number()] = id

	if bboxObj, ok := dict["BBox"]; ok {
		if arr, ok := bboxObj.(pdf.Array); ok {
			form.BBox = rectFromArray(arr)
		}
	}

	var rn resourceNames
	if resObj, ok := dict["Resources"]; ok {
		if resolved, err := c.store.get(resObj); err == nil {
			if resDict, ok := resolved.(pdf.Dict); ok {
				rn = c.readResourceDict(resDict)
			}
		}
	}

	body := c.store.streams[ref.Number()]
	rawOps := tokenizeContent(body, c.fontKinds(rn))
	form.Ops = c.remapOps(rawOps, rn)
	return id, nil
}

func (c *ctx) buildExtGState(ref pdf.Reference, dict pdf.Dict) document.GStateId {
	gs := &document.ExtendedGraphicsState{}
	if v, ok := dict["LW"]; ok {
		f := toFloat(v)
		gs.LineWidth = &f
	}
	if v, ok := dict["LC"]; ok {
		n := int(toFloat(v))
		gs.LineCap = &n
	}
	if v, ok := dict["LJ"]; ok {
		n := int(toFloat(v))
		gs.LineJoin = &n
	}
	if v, ok := dict["ML"]; ok {
		f := toFloat(v)
		gs.MiterLimit = &f
	}
	if v, ok := dict["CA"]; ok {
		f := toFloat(v)
		gs.StrokeAlpha = &f
	}
	if v, ok := dict["ca"]; ok {
		f := toFloat(v)
		gs.FillAlpha = &f
	}
	if bm, ok := dict["BM"].(pdf.Name); ok {
		gs.BlendMode = string(bm)
	}
	if smObj, ok := dict["SMask"]; ok {
		if smDict, err := c.store.get(smObj); err == nil {
			if sm, ok := smDict.(pdf.Dict); ok {
				if g, ok := sm["G"].(pdf.Reference); ok {
					if xoDict, err := c.store.get(g); err == nil {
						if xd, ok := xoDict.(pdf.Dict); ok {
							if id, err := c.buildXObject(g, xd); err == nil {
								gs.SoftMask = id
							}
						}
					}
				}
			}
		}
	}

	id := c.doc.AddExtGState(gs)
	c.gstateByRef[ref.Number()] = id
	return id
}

func (c *ctx) buildLayer(ref pdf.Reference, dict pdf.Dict) document.LayerId {
	name, _ := dict["Name"].(pdf.String)
	intent, _ := dict["Intent"].(pdf.Name)
	layer := &document.Layer{
		Name:      name.AsTextString(),
		Intent:    string(intent),
		DefaultOn: c.layerDefaultOn(ref),
	}
	id := c.doc.AddLayer(layer)
	c.layerByRef[ref.Number()] = id
	return id
}

// layerDefaultOn consults the catalog's /OCProperties /D /OFF array
// (loaded once by loadOffLayers into c.offLayers) to decide whether an
// OCG defaults to visible.
func (c *ctx) layerDefaultOn(ref pdf.Reference) bool {
	return !c.offLayers[ref.Number()]
}

func intField(obj pdf.Object) int {
	if n, ok := obj.(pdf.Integer); ok {
		return int(n)
	}
	return 0
}

func rectFromArray(arr pdf.Array) pdf.Rectangle {
	var r pdf.Rectangle
	if len(arr) != 4 {
		return r
	}
	vals := [4]float64{}
	for i := 0; i < 4; i++ {
		vals[i] = toFloat(arr[i])
	}
	return pdf.Rectangle{LLx: vals[0], LLy: vals[1], URx: vals[2], URy: vals[3]}
}
