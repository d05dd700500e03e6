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

// Package ops defines the high-level drawing-operation enum that forms
// a page's operation list. These types are pure data: the
// content-stream lowerer (package content) is the only consumer that
// interprets them, turning each into PDF operator tokens.
package ops

import (
	"github.com/pdfxkit/pdfx/color"
	"seehuhn.de/go/geom/matrix"
)

// Operation is implemented by every op kind. Its only method is an
// unexported marker, so no type outside this package implements it;
// the lowerer switches on concrete type, as
// op count is small and fixed and a visitor indirection would add
// nothing but ceremony.
type Operation interface {
	opMarker()
}

type opBase struct{}

func (opBase) opMarker() {}

// SaveGraphicsState lowers to "q".
type SaveGraphicsState struct{ opBase }

// RestoreGraphicsState lowers to "Q".
type RestoreGraphicsState struct{ opBase }

// LoadGraphicsState lowers to "/GSn gs", where GSn is the page-local
// name allocated for GS.
type LoadGraphicsState struct {
	opBase
	GState string // document-scoped GStateId, as a string
}

// SetTransformationMatrix lowers to "a b c d e f cm".
type SetTransformationMatrix struct {
	opBase
	Matrix matrix.Matrix
}

// StartTextSection lowers to "BT".
type StartTextSection struct{ opBase }

// EndTextSection lowers to "ET".
type EndTextSection struct{ opBase }

// SetFont lowers to "/Fn size Tf". Font is either a document-scoped
// FontId (embedded font) or one of the 14 standard PDF font names; the
// lowerer treats any name not present in the resource table as a
// built-in name.
type SetFont struct {
	opBase
	Font string
	Size float64
}

// SetTextCursor lowers to "x y Td": a RELATIVE move from the current
// line origin. Callers wanting an absolute cursor
// position should use SetTextMatrixAbsolute instead.
type SetTextCursor struct {
	opBase
	Dx, Dy float64
}

// SetTextMatrixAbsolute lowers to "a b c d e f Tm", replacing the text
// and text-line matrices outright. It is the absolute counterpart to
// the relative SetTextCursor, for callers that want to position text
// without accumulating offsets.
type SetTextMatrixAbsolute struct {
	opBase
	Matrix matrix.Matrix
}

// TextItem is one element of a ShowText op: either a literal run of
// text (already shaped into original glyph ids by the caller's shaping
// collaborator; the lowerer remaps them to subset ids) or a kerning
// adjustment between two runs.
type TextItem struct {
	// GlyphIDs holds original (pre-subset) glyph ids for this run, one
	// per shown glyph. Only meaningful for a composite (embedded)
	// font; a simple font is drawn from Text instead, since it has no
	// glyph program of its own to address by id. Kerning-only items
	// leave this nil.
	GlyphIDs []uint16

	// Text is the source text this run was shaped from, when known.
	// The glyph-usage collector prefers this for Unicode resolution
	// over the font's reverse cmap. For a simple (standard-14) font,
	// this is also what the lowerer encodes into the Tj/TJ operand.
	Text string

	// Kern is a kerning adjustment in thousandths of an em, applied
	// before this item (nil GlyphIDs, nonzero Kern marks a pure
	// kerning item). Positive values move left per PDF's TJ
	// convention.
	Kern float64
}

// ShowText lowers to "(…) Tj" for a single non-kerned run, or
// "[(…) k (…) k …] TJ" otherwise.
type ShowText struct {
	opBase
	Items []TextItem
}

// AddLineBreak lowers to "T*".
type AddLineBreak struct{ opBase }

// SetLineHeight lowers to "lh TL".
type SetLineHeight struct {
	opBase
	Leading float64
}

// SetCharacterSpacing lowers to "Tc".
type SetCharacterSpacing struct {
	opBase
	Value float64
}

// SetWordSpacing lowers to "Tw".
type SetWordSpacing struct {
	opBase
	Value float64
}

// SetHorizontalScaling lowers to "Tz".
type SetHorizontalScaling struct {
	opBase
	Percent float64
}

// TextRenderingMode enumerates PDF's Tr operand (fill, stroke,
// fill+stroke, invisible, and the clipping variants).
type TextRenderingMode int

const (
	RenderFill TextRenderingMode = iota
	RenderStroke
	RenderFillStroke
	RenderInvisible
	RenderFillClip
	RenderStrokeClip
	RenderFillStrokeClip
	RenderClip
)

// SetTextRenderingMode lowers to "Tr".
type SetTextRenderingMode struct {
	opBase
	Mode TextRenderingMode
}

// SetLineOffset lowers to "Ts" (text rise).
type SetLineOffset struct {
	opBase
	Rise float64
}

// SetFillColor lowers to the rg/k/g/scn token appropriate for Color's
// concrete color space.
type SetFillColor struct {
	opBase
	Color color.Color
}

// SetOutlineColor lowers to the RG/K/G/SCN token appropriate for
// Color's concrete color space.
type SetOutlineColor struct {
	opBase
	Color color.Color
}

// SetOutlineThickness lowers to "pt w".
type SetOutlineThickness struct {
	opBase
	Width float64
}

// SetLineDashPattern lowers to "[…] phase d".
type SetLineDashPattern struct {
	opBase
	Dash  []float64
	Phase float64
}

// LineJoinStyle enumerates PDF's line-join operand (miter, round,
// bevel).
type LineJoinStyle int

const (
	JoinMiter LineJoinStyle = iota
	JoinRound
	JoinBevel
)

// SetLineJoinStyle lowers to "j".
type SetLineJoinStyle struct {
	opBase
	Style LineJoinStyle
}

// LineCapStyle enumerates PDF's line-cap operand (butt, round,
// projecting square).
type LineCapStyle int

const (
	CapButt LineCapStyle = iota
	CapRound
	CapProjectingSquare
)

// SetLineCapStyle lowers to "J".
type SetLineCapStyle struct {
	opBase
	Style LineCapStyle
}

// SetMiterLimit lowers to "M".
type SetMiterLimit struct {
	opBase
	Limit float64
}

// RenderingIntent enumerates the PDF /ri names.
type RenderingIntent int

const (
	IntentRelativeColorimetric RenderingIntent = iota
	IntentAbsoluteColorimetric
	IntentSaturation
	IntentPerceptual
)

// SetRenderingIntent lowers to "ri".
type SetRenderingIntent struct {
	opBase
	Intent RenderingIntent
}

// PaintMode selects the paint operator for DrawLine/DrawPolygon.
type PaintMode int

const (
	PaintStroke PaintMode = iota
	PaintFill
	PaintFillStroke
)

// Point is a 2D user-space coordinate in points.
type Point struct{ X, Y float64 }

// PathSegment is one element of a drawn path: either a straight line
// to P, or (when Cubic is true) a cubic Bezier to P with control
// points C1, C2.
type PathSegment struct {
	P           Point
	Cubic       bool
	C1, C2      Point
}

// DrawLine lowers to an "m"-started path of "l"/"c" segments, closed
// with "h" if IsClosed, painted with S, f or B per Mode (n for a
// mode that paints nothing).
type DrawLine struct {
	opBase
	Start    Point
	Segments []PathSegment
	IsClosed bool
	Mode     PaintMode
}

// WindingRule selects between nonzero ("f"/"B") and even-odd
// ("f*"/"B*") fill rules.
type WindingRule int

const (
	WindingNonZero WindingRule = iota
	WindingEvenOdd
)

// Ring is one closed subpath of a DrawPolygon.
type Ring struct {
	Start    Point
	Segments []PathSegment
}

// DrawPolygon lowers like DrawLine but iterates per ring, always
// closed, with a winding rule selecting the fill operator variant.
type DrawPolygon struct {
	opBase
	Rings  []Ring
	Mode   PaintMode
	Winding WindingRule
}

// UseXObject lowers to "q cm /Xn Do Q".
type UseXObject struct {
	opBase
	XObject   string
	Transform matrix.Matrix
}

// BeginLayer lowers to "/OC /OCn BDC".
type BeginLayer struct {
	opBase
	Layer string
}

// EndLayer lowers to "EMC".
type EndLayer struct{ opBase }

// Marker emits a PDF comment "% id"; it is not a rendering operator
// and carries no graphics-state effect.
type Marker struct {
	opBase
	ID string
}

// LinkAnnotation does not reach the content stream: the
// lowerer routes it to the page's /Annots array instead.
type LinkAnnotation struct {
	opBase
	Area [4]float64 // LLx, LLy, URx, URy in page space
	URI  string
}

// Unknown carries an operator this build of the library does not
// otherwise model. In secure save mode it is dropped with a warning;
// otherwise it is re-emitted verbatim.
type Unknown struct {
	opBase
	Key      string
	Operands []float64
}
