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

// Package content implements the Content-Stream Lowerer: it turns a
// page's high-level operation list into PDF content-stream bytes,
// honoring text-state discipline and save/restore nesting, and
// allocates the page-local resource names (/F1, /Im1, /GS1, /OC1) that
// go into the page's resource dictionary.
package content

import (
	"bytes"
	"fmt"

	"github.com/pdfxkit/pdfx"
	"github.com/pdfxkit/pdfx/document"
	"github.com/pdfxkit/pdfx/fontsubset"
	"github.com/pdfxkit/pdfx/ops"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"seehuhn.de/go/sfnt/glyph"
)

// winAnsiEncoder renders source text as the single-byte codes a simple
// font declared /Encoding /WinAnsiEncoding expects (buildStandardFontDict
// in objgraph/stdfonts.go always declares that encoding for the 14
// built-in fonts). WinAnsiEncoding and Windows-1252 agree on every code
// point PDF text realistically hits; ReplaceUnsupported substitutes the
// codepage's replacement byte for anything outside that range instead of
// failing the whole run.
var winAnsiEncoder = encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())

// RefTable holds the already-allocated indirect references for every
// document-scoped resource, plus the built-in standard-font references
// keyed by PDF base font name. The object-graph builder populates this
// (fonts, xobjects and extgstates are allocated leaf-first, before any
// page's content stream is lowered) and hands it to Lower.
type RefTable struct {
	Fonts      map[document.FontId]pdf.Reference
	XObjects   map[document.XObjectId]pdf.Reference
	ExtGStates map[document.GStateId]pdf.Reference
	Layers     map[document.LayerId]pdf.Reference
	StdFonts   map[string]pdf.Reference
}

// Options controls lowering behavior that mirrors the document-wide
// save options (secure, strict).
type Options struct {
	// Secure drops Unknown operators (with a warning) instead of
	// writing them out, and keeps unbalanced save/restore from being
	// fatal even when Strict is set.
	Secure bool

	// Strict turns unbalanced text sections into terminal errors, and
	// unbalanced save/restore too unless Secure is set. Otherwise an
	// unmatched Restore or EndTextSection is dropped with a warning and
	// sections still open at page end are closed with Q (with a
	// warning) or ET.
	Strict bool
}

// Result is everything the object-graph builder needs to emit a page's
// content stream object and resource dictionary.
type Result struct {
	Body []byte

	// ResourceDict is the page's /Resources dictionary (Font, XObject,
	// ExtGState, Properties sub-dictionaries), naming already-allocated
	// indirect references.
	ResourceDict pdf.Dict

	// Annots holds the link annotations buffered out of the content
	// stream, ready to become the page's /Annots array.
	Annots []LinkAnnotation
}

// LinkAnnotation is a buffered ops.LinkAnnotation, routed out of the
// content stream to the page's annotation array.
type LinkAnnotation struct {
	Area [4]float64
	URI  string
}

// nameAllocator hands out page-local resource names of the form
// "<prefix><n>", one namespace per resource category, and records the
// id -> name mapping so repeat references to the same resource reuse
// the same name.
type nameAllocator struct {
	prefix string
	next   int
	names  map[string]pdf.Name
}

func newNameAllocator(prefix string) *nameAllocator {
	return &nameAllocator{prefix: prefix, names: make(map[string]pdf.Name)}
}

func (a *nameAllocator) get(id string) pdf.Name {
	if n, ok := a.names[id]; ok {
		return n
	}
	a.next++
	n := pdf.Name(fmt.Sprintf("%s%d", a.prefix, a.next))
	a.names[id] = n
	return n
}

// lowerer carries the mutable state of a single page's lowering pass.
type lowerer struct {
	refs *RefTable
	opts Options

	fontNames  *nameAllocator
	xobjNames  *nameAllocator
	gsNames    *nameAllocator
	layerNames *nameAllocator

	fontDict  pdf.Dict
	xobjDict  pdf.Dict
	gsDict    pdf.Dict
	propsDict pdf.Dict

	buf bytes.Buffer

	gsDepth   int
	textDepth int

	currentFont string
	subsets     map[document.FontId]*fontsubset.Result

	annots   []LinkAnnotation
	warnings []pdf.Warning
}

// Lower emits page's content-stream bytes and resource dictionary.
// pageIndex identifies the page in diagnostics. subsets supplies the
// original-to-subset glyph id remap for every external font actually
// embedded, used to hex-encode ShowText operands.
func Lower(page *document.Page, refs *RefTable, subsets map[document.FontId]*fontsubset.Result, opts Options, pageIndex int) (*Result, []pdf.Warning, error) {
	l := &lowerer{
		refs:       refs,
		opts:       opts,
		fontNames:  newNameAllocator("F"),
		xobjNames:  newNameAllocator("Im"),
		gsNames:    newNameAllocator("GS"),
		layerNames: newNameAllocator("OC"),
		fontDict:   pdf.Dict{},
		xobjDict:   pdf.Dict{},
		gsDict:     pdf.Dict{},
		propsDict:  pdf.Dict{},
		subsets:    subsets,
	}

	for opIdx, op := range page.Ops {
		if err := l.lowerOp(op, pageIndex, opIdx); err != nil {
			return nil, l.warnings, err
		}
	}

	if l.gsDepth != 0 {
		loc := pdf.Location{Page: pageIndex, Op: len(page.Ops)}
		if opts.Strict && !opts.Secure {
			return nil, l.warnings, &pdf.UnbalancedGraphicsStateError{Location: loc, Depth: l.gsDepth}
		}
		for ; l.gsDepth > 0; l.gsDepth-- {
			l.buf.WriteString("Q\n")
		}
		l.warnings = append(l.warnings, pdf.Warning{
			Location: loc, Kind: pdf.WarnForcedRestore,
			Message: "unbalanced SaveGraphicsState at end of page; forced Restore emitted",
		})
	}
	if l.textDepth != 0 {
		loc := pdf.Location{Page: pageIndex, Op: len(page.Ops)}
		if opts.Strict {
			return nil, l.warnings, &pdf.UnbalancedTextSectionError{Location: loc}
		}
		for ; l.textDepth > 0; l.textDepth-- {
			l.buf.WriteString("ET\n")
		}
	}

	res := &Result{
		Body:         l.buf.Bytes(),
		ResourceDict: pdf.Dict{},
		Annots:       l.annots,
	}
	if len(l.fontDict) > 0 {
		res.ResourceDict["Font"] = l.fontDict
	}
	if len(l.xobjDict) > 0 {
		res.ResourceDict["XObject"] = l.xobjDict
	}
	if len(l.gsDict) > 0 {
		res.ResourceDict["ExtGState"] = l.gsDict
	}
	if len(l.propsDict) > 0 {
		res.ResourceDict["Properties"] = l.propsDict
	}
	return res, l.warnings, nil
}

func (l *lowerer) warn(pageIdx, opIdx int, kind pdf.WarningKind, msg string) {
	l.warnings = append(l.warnings, pdf.Warning{
		Location: pdf.Location{Page: pageIdx, Op: opIdx}, Kind: kind, Message: msg,
	})
}

func (l *lowerer) fontRef(font string) (pdf.Reference, bool) {
	if ref, ok := l.refs.Fonts[document.FontId(font)]; ok {
		return ref, true
	}
	if ref, ok := l.refs.StdFonts[font]; ok {
		return ref, true
	}
	return 0, false
}

func (l *lowerer) lowerOp(op ops.Operation, pageIdx, opIdx int) error {
	loc := pdf.Location{Page: pageIdx, Op: opIdx}

	switch o := op.(type) {
	case ops.SaveGraphicsState:
		l.gsDepth++
		l.buf.WriteString("q\n")

	case ops.RestoreGraphicsState:
		if l.gsDepth == 0 {
			if l.opts.Strict && !l.opts.Secure {
				return &pdf.UnbalancedGraphicsStateError{Location: loc, Depth: -1}
			}
			l.warn(pageIdx, opIdx, pdf.WarnForcedRestore, "RestoreGraphicsState with no matching Save; ignored")
			return nil
		}
		l.gsDepth--
		l.buf.WriteString("Q\n")

	case ops.LoadGraphicsState:
		ref, ok := l.refs.ExtGStates[document.GStateId(o.GState)]
		if !ok {
			return &pdf.UnknownResourceError{Location: loc, Kind: "extgstate", ID: o.GState}
		}
		name := l.gsNames.get(o.GState)
		l.gsDict[name] = ref
		fmt.Fprintf(&l.buf, "/%s gs\n", name)

	case ops.SetTransformationMatrix:
		m := o.Matrix
		fmt.Fprintf(&l.buf, "%s cm\n", fmtMatrix(m))

	case ops.StartTextSection:
		l.textDepth++
		l.buf.WriteString("BT\n")

	case ops.EndTextSection:
		if l.textDepth == 0 {
			if l.opts.Strict {
				return &pdf.UnbalancedTextSectionError{Location: loc}
			}
			l.warn(pageIdx, opIdx, pdf.WarnForcedRestore, "EndTextSection with no matching StartText; ignored")
			return nil
		}
		l.textDepth--
		l.buf.WriteString("ET\n")

	case ops.SetFont:
		l.currentFont = o.Font
		ref, ok := l.fontRef(o.Font)
		if !ok {
			return &pdf.UnknownResourceError{Location: loc, Kind: "font", ID: o.Font}
		}
		name := l.fontNames.get(o.Font)
		l.fontDict[name] = ref
		fmt.Fprintf(&l.buf, "/%s %s Tf\n", name, num(o.Size))

	case ops.SetTextCursor:
		fmt.Fprintf(&l.buf, "%s %s Td\n", num(o.Dx), num(o.Dy))

	case ops.SetTextMatrixAbsolute:
		fmt.Fprintf(&l.buf, "%s Tm\n", fmtMatrix(o.Matrix))

	case ops.ShowText:
		if err := l.lowerShowText(o, pageIdx, opIdx); err != nil {
			return err
		}

	case ops.AddLineBreak:
		l.buf.WriteString("T*\n")

	case ops.SetLineHeight:
		fmt.Fprintf(&l.buf, "%s TL\n", num(o.Leading))

	case ops.SetCharacterSpacing:
		fmt.Fprintf(&l.buf, "%s Tc\n", num(o.Value))

	case ops.SetWordSpacing:
		fmt.Fprintf(&l.buf, "%s Tw\n", num(o.Value))

	case ops.SetHorizontalScaling:
		fmt.Fprintf(&l.buf, "%s Tz\n", num(o.Percent))

	case ops.SetTextRenderingMode:
		fmt.Fprintf(&l.buf, "%d Tr\n", int(o.Mode))

	case ops.SetLineOffset:
		fmt.Fprintf(&l.buf, "%s Ts\n", num(o.Rise))

	case ops.SetFillColor:
		if err := o.Color.SetFill(&l.buf); err != nil {
			return &pdf.SerializationError{Location: loc, Err: err}
		}

	case ops.SetOutlineColor:
		if err := o.Color.SetStroke(&l.buf); err != nil {
			return &pdf.SerializationError{Location: loc, Err: err}
		}

	case ops.SetOutlineThickness:
		fmt.Fprintf(&l.buf, "%s w\n", num(o.Width))

	case ops.SetLineDashPattern:
		fmt.Fprintf(&l.buf, "[%s] %s d\n", numList(o.Dash), num(o.Phase))

	case ops.SetLineJoinStyle:
		fmt.Fprintf(&l.buf, "%d j\n", int(o.Style))

	case ops.SetLineCapStyle:
		fmt.Fprintf(&l.buf, "%d J\n", int(o.Style))

	case ops.SetMiterLimit:
		fmt.Fprintf(&l.buf, "%s M\n", num(o.Limit))

	case ops.SetRenderingIntent:
		fmt.Fprintf(&l.buf, "/%s ri\n", renderingIntentName(o.Intent))

	case ops.DrawLine:
		l.lowerPath(o.Start, o.Segments, o.IsClosed)
		l.buf.WriteString(paintOp(o.Mode, false) + "\n")

	case ops.DrawPolygon:
		for _, ring := range o.Rings {
			l.lowerPath(ring.Start, ring.Segments, true)
		}
		evenOdd := o.Winding == ops.WindingEvenOdd
		l.buf.WriteString(paintOp(o.Mode, evenOdd) + "\n")

	case ops.UseXObject:
		ref, ok := l.refs.XObjects[document.XObjectId(o.XObject)]
		if !ok {
			return &pdf.UnknownResourceError{Location: loc, Kind: "xobject", ID: o.XObject}
		}
		name := l.xobjNames.get(o.XObject)
		l.xobjDict[name] = ref
		fmt.Fprintf(&l.buf, "q %s cm /%s Do Q\n", fmtMatrix(o.Transform), name)

	case ops.BeginLayer:
		ref, ok := l.refs.Layers[document.LayerId(o.Layer)]
		if !ok {
			return &pdf.UnknownResourceError{Location: loc, Kind: "layer", ID: o.Layer}
		}
		name := l.layerNames.get(o.Layer)
		l.propsDict[name] = ref
		fmt.Fprintf(&l.buf, "/OC /%s BDC\n", name)

	case ops.EndLayer:
		l.buf.WriteString("EMC\n")

	case ops.Marker:
		fmt.Fprintf(&l.buf, "%% %s\n", o.ID)

	case ops.LinkAnnotation:
		l.annots = append(l.annots, LinkAnnotation{Area: o.Area, URI: o.URI})

	case ops.Unknown:
		if l.opts.Secure {
			l.warn(pageIdx, opIdx, pdf.WarnUnknownOperator, fmt.Sprintf("dropped unknown operator %q", o.Key))
			return nil
		}
		fmt.Fprintf(&l.buf, "%s %s\n", numList(o.Operands), o.Key)

	default:
		return &pdf.SerializationError{Location: loc, Err: fmt.Errorf("content: unrecognized op %T", op)}
	}
	return nil
}

func (l *lowerer) lowerShowText(o ops.ShowText, pageIdx, opIdx int) error {
	if len(o.Items) == 0 {
		return nil
	}
	if len(o.Items) == 1 && o.Items[0].Kern == 0 {
		hex, err := l.encodeItem(o.Items[0], pageIdx, opIdx)
		if err != nil {
			return err
		}
		fmt.Fprintf(&l.buf, "%s Tj\n", pdf.Format(pdf.HexString(hex)))
		return nil
	}

	l.buf.WriteString("[")
	for i, item := range o.Items {
		if i > 0 {
			l.buf.WriteString(" ")
		}
		if len(item.GlyphIDs) == 0 && item.Text == "" {
			fmt.Fprintf(&l.buf, "%s", num(item.Kern))
			continue
		}
		if item.Kern != 0 {
			fmt.Fprintf(&l.buf, "%s ", num(item.Kern))
		}
		hex, err := l.encodeItem(item, pageIdx, opIdx)
		if err != nil {
			return err
		}
		fmt.Fprintf(&l.buf, "%s", pdf.Format(pdf.HexString(hex)))
	}
	l.buf.WriteString("] TJ\n")
	return nil
}

// encodeItem renders one ShowText run as the operand Tj/TJ expects for
// the current font: a two-byte-per-glyph string, remapped through the
// subset's glyph id table, for a composite/embedded font; a single-byte
// WinAnsiEncoding string built from the item's source text for a simple
// (standard-14) font, which carries no glyph ids of its own to encode.
func (l *lowerer) encodeItem(item ops.TextItem, pageIdx, opIdx int) ([]byte, error) {
	id := document.FontId(l.currentFont)
	subset, isExternal := l.subsets[id]

	if !isExternal {
		return l.encodeSimpleFont(item, pageIdx, opIdx)
	}

	buf := make([]byte, 0, 2*len(item.GlyphIDs))
	for _, orig := range item.GlyphIDs {
		gid := glyph.ID(orig)
		if newGID, ok := subset.OrigToSubsetGID[gid]; ok {
			gid = newGID
		} else {
			l.warn(pageIdx, opIdx, pdf.WarnUnmappedGlyph, "glyph id not present in font subset; encoded as .notdef")
			gid = 0
		}
		buf = append(buf, byte(gid>>8), byte(gid))
	}
	return buf, nil
}

// encodeSimpleFont encodes item.Text through winAnsiEncoder. Simple
// fonts have no glyph program of their own to route GlyphIDs through, so
// unlike the composite path, source text rather than glyph ids drives
// the operand.
func (l *lowerer) encodeSimpleFont(item ops.TextItem, pageIdx, opIdx int) ([]byte, error) {
	if item.Text == "" {
		l.warn(pageIdx, opIdx, pdf.WarnUnmappedGlyph, "ShowText item for a simple font carries no Text; nothing drawn")
		return nil, nil
	}
	encoded, err := winAnsiEncoder.String(item.Text)
	if err != nil {
		return nil, &pdf.SerializationError{
			Location: pdf.Location{Page: pageIdx, Op: opIdx},
			Err:      fmt.Errorf("content: encoding %q as WinAnsiEncoding: %w", item.Text, err),
		}
	}
	return []byte(encoded), nil
}

func (l *lowerer) lowerPath(start ops.Point, segs []ops.PathSegment, closed bool) {
	fmt.Fprintf(&l.buf, "%s %s m\n", num(start.X), num(start.Y))
	for _, seg := range segs {
		if seg.Cubic {
			fmt.Fprintf(&l.buf, "%s %s %s %s %s %s c\n",
				num(seg.C1.X), num(seg.C1.Y), num(seg.C2.X), num(seg.C2.Y), num(seg.P.X), num(seg.P.Y))
		} else {
			fmt.Fprintf(&l.buf, "%s %s l\n", num(seg.P.X), num(seg.P.Y))
		}
	}
	if closed {
		l.buf.WriteString("h\n")
	}
}

func paintOp(mode ops.PaintMode, evenOdd bool) string {
	switch mode {
	case ops.PaintStroke:
		return "S"
	case ops.PaintFill:
		if evenOdd {
			return "f*"
		}
		return "f"
	case ops.PaintFillStroke:
		if evenOdd {
			return "B*"
		}
		return "B"
	default:
		return "n"
	}
}

func renderingIntentName(intent ops.RenderingIntent) string {
	switch intent {
	case ops.IntentAbsoluteColorimetric:
		return "AbsoluteColorimetric"
	case ops.IntentSaturation:
		return "Saturation"
	case ops.IntentPerceptual:
		return "Perceptual"
	default:
		return "RelativeColorimetric"
	}
}
