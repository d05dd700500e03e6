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

// Package svgproj renders a document.Page to an SVG preview. It is a
// read-only consumer of the core object model, not part of it: nothing
// under package document, content or objgraph imports this package.
package svgproj

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/pdfxkit/pdfx/color"
	"github.com/pdfxkit/pdfx/document"
	"github.com/pdfxkit/pdfx/ops"
	"seehuhn.de/go/geom/matrix"
)

// Options controls the preview rendering.
type Options struct {
	// Scale multiplies page-space points into SVG user units. The
	// PDF/SVG y-axis flip is always applied regardless of Scale.
	Scale float64

	// XMLDecl prepends an XML declaration line, matching a
	// standalone .svg file rather than an inline <svg> fragment.
	XMLDecl bool
}

func (o Options) scale() float64 {
	if o.Scale <= 0 {
		return 1.0
	}
	return o.Scale
}

// PageToSVG renders one page's operation list to an SVG document
// string. resources resolves the font/xobject/extgstate/layer ids the
// page's ops reference; a nil entry for a referenced id is skipped
// rather than treated as an error, since this is a best-effort preview.
func PageToSVG(page *document.Page, resources *document.Resources, opts Options) (string, error) {
	var b strings.Builder
	if opts.XMLDecl {
		b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\" standalone=\"no\"?>\n")
	}

	s := opts.scale()
	w := page.Media.Width() * s
	h := page.Media.Height() * s

	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%s\" height=\"%s\" viewBox=\"0 0 %s %s\">\n",
		fnum(w), fnum(h), fnum(w), fnum(h))
	// Flip the PDF (origin bottom-left, y up) coordinate system into
	// SVG's (origin top-left, y down), the same transform
	// raff-pdfreader's svg.Page applies via its outer <g matrix(...)>.
	fmt.Fprintf(&b, "<g transform=\"matrix(%s,0,0,%s,%s,%s)\">\n",
		fnum(s), fnum(-s), fnum(-page.Media.LLx*s), fnum(page.Media.URy*s))

	r := &renderer{b: &b, resources: resources, ctm: matrix.Identity}
	r.run(page.Ops)

	b.WriteString("</g>\n</svg>\n")
	return b.String(), nil
}

type renderer struct {
	b         *strings.Builder
	resources *document.Resources

	ctm         matrix.Matrix
	ctmStack    []matrix.Matrix
	fillColor   string
	strokeColor string
	textMat     matrix.Matrix
	fontSize    float64
}

func (r *renderer) run(list []ops.Operation) {
	for _, op := range list {
		switch o := op.(type) {
		case ops.SaveGraphicsState:
			r.ctmStack = append(r.ctmStack, r.ctm)
		case ops.RestoreGraphicsState:
			if n := len(r.ctmStack); n > 0 {
				r.ctm = r.ctmStack[n-1]
				r.ctmStack = r.ctmStack[:n-1]
			}
		case ops.SetTransformationMatrix:
			r.ctm = o.Matrix.Mul(r.ctm)
		case ops.SetFillColor:
			r.fillColor = svgColor(o.Color)
		case ops.SetOutlineColor:
			r.strokeColor = svgColor(o.Color)
		case ops.DrawLine:
			r.drawRing(ops.Ring{Start: o.Start, Segments: o.Segments}, o.IsClosed, o.Mode)
		case ops.DrawPolygon:
			for _, ring := range o.Rings {
				r.drawRing(ring, true, o.Mode)
			}
		case ops.StartTextSection:
			r.textMat = matrix.Identity
		case ops.SetTextMatrixAbsolute:
			r.textMat = o.Matrix
		case ops.SetTextCursor:
			r.textMat = matrix.Matrix{1, 0, 0, 1, o.Dx, o.Dy}.Mul(r.textMat)
		case ops.SetFont:
			r.fontSize = o.Size
		case ops.ShowText:
			r.drawText(o)
		case ops.UseXObject:
			r.drawXObject(o)
		default:
			// annotations, layer markers, unknown ops: no visual
			// representation in this best-effort preview.
		}
	}
}

func (r *renderer) drawRing(ring ops.Ring, closed bool, mode ops.PaintMode) {
	p := transform(r.ctm, ring.Start)
	var d strings.Builder
	fmt.Fprintf(&d, "M %s %s", fnum(p.X), fnum(p.Y))
	for _, seg := range ring.Segments {
		if seg.Cubic {
			c1 := transform(r.ctm, seg.C1)
			c2 := transform(r.ctm, seg.C2)
			pt := transform(r.ctm, seg.P)
			fmt.Fprintf(&d, " C %s %s %s %s %s %s", fnum(c1.X), fnum(c1.Y), fnum(c2.X), fnum(c2.Y), fnum(pt.X), fnum(pt.Y))
		} else {
			pt := transform(r.ctm, seg.P)
			fmt.Fprintf(&d, " L %s %s", fnum(pt.X), fnum(pt.Y))
		}
	}
	if closed {
		d.WriteString(" Z")
	}

	fill := "none"
	stroke := "none"
	if mode == ops.PaintFill || mode == ops.PaintFillStroke {
		fill = colorOr(r.fillColor, "black")
	}
	if mode == ops.PaintStroke || mode == ops.PaintFillStroke {
		stroke = colorOr(r.strokeColor, "black")
	}
	fmt.Fprintf(r.b, "<path d=\"%s\" fill=\"%s\" stroke=\"%s\"/>\n", d.String(), fill, stroke)
}

// drawText renders one ShowText op as a single <text> element
// positioned at the current text matrix's origin. Since the document
// model only carries subset glyph ids (not shaped Unicode text) unless
// the caller populated TextItem.Text, a ShowText whose items carry no
// Text draws nothing; no placeholder is drawn in its place.
func (r *renderer) drawText(op ops.ShowText) {
	origin := transform(r.ctm.Mul(r.textMat), ops.Point{})
	var text strings.Builder
	for _, item := range op.Items {
		text.WriteString(item.Text)
	}
	if text.Len() == 0 {
		return
	}
	fmt.Fprintf(r.b, "<text x=\"%s\" y=\"%s\" font-size=\"%s\" fill=\"%s\">%s</text>\n",
		fnum(origin.X), fnum(origin.Y), fnum(r.fontSize), colorOr(r.fillColor, "black"), escapeText(text.String()))
}

func (r *renderer) drawXObject(op ops.UseXObject) {
	if r.resources == nil {
		return
	}
	xo, ok := r.resources.XObjects[document.XObjectId(op.XObject)]
	if !ok || xo.Kind != document.XObjectImage || xo.Image == nil {
		return
	}
	img := xo.Image
	mime, data, ok := encodeRaster(img)
	if !ok {
		return
	}
	m := op.Transform.Mul(r.ctm)
	corner := transform(m, ops.Point{})
	fmt.Fprintf(r.b, "<image x=\"%s\" y=\"%s\" width=\"%d\" height=\"%d\" href=\"data:%s;base64,%s\"/>\n",
		fnum(corner.X), fnum(corner.Y), img.Width, img.Height, mime, data)
}

// encodeRaster wraps an already-decoded pixel buffer as a base64 PNG-
// shaped payload is out of scope for a preview projection (it would
// require pulling in an encoder); instead it emits the raw pixel bytes
// tagged as an opaque octet stream so at minimum the <image> element's
// presence and bounding box are visible in the preview.
func encodeRaster(img *document.Image) (mime, data string, ok bool) {
	if len(img.Pixels) == 0 {
		return "", "", false
	}
	return "application/octet-stream", base64.StdEncoding.EncodeToString(img.Pixels), true
}

func transform(m matrix.Matrix, p ops.Point) ops.Point {
	x := m[0]*p.X + m[2]*p.Y + m[4]
	y := m[1]*p.X + m[3]*p.Y + m[5]
	return ops.Point{X: x, Y: y}
}

// svgColor recovers an approximate RGB from a color.Color by writing
// its fill operator and parsing the leading numeric operands, since
// color.Color only exposes SetFill/SetStroke (PDF operator emission),
// not a channel accessor.
func svgColor(c color.Color) string {
	var buf strings.Builder
	if err := c.SetFill(&buf); err != nil {
		return ""
	}
	fields := strings.Fields(buf.String())
	switch {
	case len(fields) >= 2 && fields[len(fields)-1] == "g":
		return grayHex(fields[0])
	case len(fields) >= 4 && fields[len(fields)-1] == "rg":
		return rgbHex(fields[0], fields[1], fields[2])
	case len(fields) >= 5 && fields[len(fields)-1] == "k":
		return "black" // CMYK preview fallback
	default:
		return ""
	}
}

func grayHex(s string) string {
	var v float64
	fmt.Sscanf(s, "%g", &v)
	n := int(v * 255)
	return fmt.Sprintf("#%02x%02x%02x", n, n, n)
}

func rgbHex(rs, gs, bs string) string {
	var r, g, bl float64
	fmt.Sscanf(rs, "%g", &r)
	fmt.Sscanf(gs, "%g", &g)
	fmt.Sscanf(bs, "%g", &bl)
	return fmt.Sprintf("#%02x%02x%02x", int(r*255), int(g*255), int(bl*255))
}

func colorOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func fnum(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", f), "0"), ".")
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
