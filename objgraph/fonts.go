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
	"math"
	"sort"

	"github.com/pdfxkit/pdfx"
	"github.com/pdfxkit/pdfx/document"
	"github.com/pdfxkit/pdfx/fontsubset"
	"github.com/pdfxkit/pdfx/glyphusage"
	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cff"
	"seehuhn.de/go/sfnt/glyf"
	"seehuhn.de/go/sfnt/glyph"
)

// fontResult is everything the page-lowering pass and the ToUnicode
// writer need once a font has been embedded.
type fontResult struct {
	Ref     pdf.Reference
	Subset  *fontsubset.Result
	Unicode map[glyph.ID]rune // subset glyph id -> best-effort code point
}

// buildFonts subsets and embeds every font referenced from usage (or
// every font in the resource table when optimize is false), writing
// the FontFile+Descriptor+CIDFont+ToUnicode+Type0 object chain
// (§4.6.2) leaf-first, and returns the Type0 dictionary references
// content lowering needs.
func buildFonts(w *pdf.Writer, res *document.Resources, usage glyphusage.Usage, subsetFonts, optimize bool) (map[document.FontId]*fontResult, []pdf.Warning, error) {
	out := make(map[document.FontId]*fontResult)
	var warnings []pdf.Warning

	ids := sortedFontIds(res.Fonts)
	for _, id := range ids {
		glyphs, used := usage[id]
		if !used && optimize {
			warnings = append(warnings, pdf.Warning{
				Location: pdf.Location{Page: -1, Op: -1},
				Kind:     pdf.WarnUnreferencedFont,
				Message:  fmt.Sprintf("font %q is never drawn; omitted from output", id),
			})
			continue
		}

		font := res.Fonts[id]
		parsed, err := font.Parsed()
		if err != nil {
			return nil, warnings, &pdf.FontParseError{FontID: string(id), Err: err}
		}

		usedGIDs := make(map[glyph.ID]bool, len(glyphs))
		for gid := range glyphs {
			usedGIDs[gid] = true
		}

		result, err := fontsubset.Run(parsed, usedGIDs, fontsubset.DefaultROS, subsetFonts)
		if err != nil {
			return nil, warnings, &pdf.FontSubsetError{FontID: string(id), Err: err}
		}

		uni := make(map[glyph.ID]rune, len(glyphs))
		for orig, r := range glyphs {
			if newGID, ok := result.OrigToSubsetGID[orig]; ok {
				uni[newGID] = r
			}
		}

		ref, toUniRef, err := writeCompositeFont(w, string(id), result, optimize)
		if err != nil {
			return nil, warnings, &pdf.SerializationError{Location: pdf.Location{Page: -1, Op: -1}, Err: err}
		}
		if err := writeToUnicode(w, toUniRef, uni, optimize); err != nil {
			return nil, warnings, &pdf.SerializationError{Location: pdf.Location{Page: -1, Op: -1}, Err: err}
		}

		out[id] = &fontResult{Ref: ref, Subset: result, Unicode: uni}
	}
	return out, warnings, nil
}

// writeCompositeFont emits the Type0/CIDFontType2 (or CIDFontType0 for
// CFF-flavored subsets) dictionary chain for one embedded font,
// following the same object shape as a Type0 composite font with
// Identity-H encoding and Identity CIDToGIDMap: font dictionary, CID
// font dictionary, font descriptor, font file stream, ToUnicode CMap.
func writeCompositeFont(w *pdf.Writer, tag string, r *fontsubset.Result, optimize bool) (pdf.Reference, pdf.Reference, error) {
	info := r.Font
	baseFont := pdf.Name(subsetTag(tag) + "+" + postscriptName(info))

	fontDictRef := w.Alloc()
	cidFontRef := w.Alloc()
	fdRef := w.Alloc()
	fontFileRef := w.Alloc()
	toUniRef := w.Alloc()

	q := 1000.0
	if info.UnitsPerEm != 0 {
		q = 1000 / float64(info.UnitsPerEm)
	}

	bbox := info.FontBBoxPDF()
	fontDescriptor := pdf.Dict{
		"Type":     pdf.Name("FontDescriptor"),
		"FontName": baseFont,
		"Flags":    pdf.Integer(fontFlags(info)),
		"FontBBox": pdf.Array{
			pdf.Integer(math.Round(bbox.LLx)),
			pdf.Integer(math.Round(bbox.LLy)),
			pdf.Integer(math.Round(bbox.URx)),
			pdf.Integer(math.Round(bbox.URy)),
		},
		"ItalicAngle": pdf.Number(info.ItalicAngle),
		"Ascent":      pdf.Integer(math.Round(info.Ascent.AsFloat(q))),
		"Descent":     pdf.Integer(math.Round(info.Descent.AsFloat(q))),
		"CapHeight":   pdf.Integer(math.Round(info.CapHeight.AsFloat(q))),
		"StemV":       pdf.Integer(stemV(info)),
	}

	cidFontDict := pdf.Dict{
		"Type":     pdf.Name("Font"),
		"BaseFont": baseFont,
		"CIDSystemInfo": pdf.Dict{
			"Registry":   pdf.String(fontsubset.DefaultROS.Registry),
			"Ordering":   pdf.String(fontsubset.DefaultROS.Ordering),
			"Supplement": pdf.Integer(fontsubset.DefaultROS.Supplement),
		},
		"FontDescriptor": fdRef,
	}

	if dw, ww := encodeCIDWidths(info); ww != nil {
		cidFontDict["W"] = ww
		if dw != 1000 {
			cidFontDict["DW"] = pdf.Number(dw)
		}
	}

	fontDict := pdf.Dict{
		"Type":            pdf.Name("Font"),
		"Subtype":         pdf.Name("Type0"),
		"BaseFont":        baseFont,
		"Encoding":        pdf.Name("Identity-H"),
		"DescendantFonts": pdf.Array{cidFontRef},
		"ToUnicode":       toUniRef,
	}

	switch info.Outlines.(type) {
	case *glyf.Outlines:
		cidFontDict["Subtype"] = pdf.Name("CIDFontType2")
		cidFontDict["CIDToGIDMap"] = pdf.Name("Identity")
		fontDescriptor["FontFile2"] = fontFileRef
	case *cff.Outlines:
		cidFontDict["Subtype"] = pdf.Name("CIDFontType0")
		fontDescriptor["FontFile3"] = fontFileRef
	default:
		return 0, 0, fmt.Errorf("objgraph: unsupported outline format for font %q", tag)
	}

	if err := w.WriteIndirect(fontDictRef, fontDict); err != nil {
		return 0, 0, err
	}
	if err := w.WriteIndirect(cidFontRef, cidFontDict); err != nil {
		return 0, 0, err
	}
	if err := w.WriteIndirect(fdRef, fontDescriptor); err != nil {
		return 0, 0, err
	}

	programBytes, err := r.Bytes()
	if err != nil {
		return 0, 0, err
	}
	fontFileDict := pdf.Dict{}
	if r.IsOpenType {
		fontFileDict["Subtype"] = pdf.Name("OpenType")
	} else {
		fontFileDict["Length1"] = pdf.Integer(len(programBytes))
	}
	if err := writeStream(w, fontFileRef, fontFileDict, programBytes, optimize); err != nil {
		return 0, 0, err
	}

	return fontDictRef, toUniRef, nil
}

func fontFlags(info *sfnt.Font) int {
	flags := 1 << 2 // Symbolic is the safe default for a subset Identity encoding
	if info.ItalicAngle != 0 {
		flags |= 1 << 6
	}
	return flags
}

func stemV(info *sfnt.Font) int {
	return 80 // not exposed by sfnt.Font; a mid-weight default per PDF/X reviewer tolerance
}

func postscriptName(info *sfnt.Font) string {
	if n := info.PostscriptName(); n != "" {
		return n
	}
	return "Subset"
}

// encodeCIDWidths builds the /W array for a CIDFont dictionary from the
// subset's glyph metrics, indexed by CID (== subset glyph id, since
// Subset always renumbers glyphs densely from 0 with Identity-H).
func encodeCIDWidths(info *sfnt.Font) (float64, pdf.Object) {
	widths := info.Widths()
	if len(widths) == 0 {
		return 1000, nil
	}
	q := 1000.0
	if info.UnitsPerEm != 0 {
		q = 1000 / float64(info.UnitsPerEm)
	}
	arr := pdf.Array{}
	for gid, wd := range widths {
		w := math.Round(wd.AsFloat(q))
		arr = append(arr, pdf.Integer(gid), pdf.Array{pdf.Number(w)})
	}
	return 1000, arr
}

func subsetTag(id string) string {
	letters := "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	tag := make([]byte, 6)
	h := uint32(2166136261)
	for i := 0; i < len(id); i++ {
		h ^= uint32(id[i])
		h *= 16777619
	}
	for i := range tag {
		tag[i] = letters[h%26]
		h /= 26
	}
	return string(tag)
}

func sortedFontIds(m map[document.FontId]*document.Font) []document.FontId {
	ids := make([]document.FontId, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
