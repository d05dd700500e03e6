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
	"github.com/pdfxkit/pdfx/color"
	"github.com/pdfxkit/pdfx/ops"
	"golang.org/x/text/encoding/charmap"
	"seehuhn.de/go/geom/matrix"
)

// winAnsiDecoder inverts content/lower.go's winAnsiEncoder, turning the
// single-byte codes a simple (WinAnsiEncoding) font's Tj/TJ operand
// carries back into the source text ops.TextItem.Text holds.
var winAnsiDecoder = charmap.Windows1252.NewDecoder()

// contentScanner turns raw content-stream bytes back into an operand
// stack plus a stream of operator keywords, mirroring the token
// grammar content/lower.go writes (numbers, names, strings, arrays,
// and bare keywords). It never sees dictionaries or "obj"/"R"
// syntax, so it is simpler than the top-level object scanner.
type contentScanner struct {
	s *scanner
}

// token is one lexical unit of a content stream: either an operand
// (obj != nil, possibly a nil-valued PDF null, tracked via isOperand)
// or an operator keyword (name holds the bare token text).
type token struct {
	isOperand bool
	obj       pdf.Object
	name      string
}

// skipBlanks advances over whitespace only, unlike scanner.skipWhiteSpace,
// since content-stream comments carry Marker ops and must not be
// silently discarded here.
func (cs *contentScanner) skipBlanks() {
	for !cs.s.eof() && isSpace[cs.s.buf[cs.s.pos]] {
		cs.s.pos++
	}
}

func (cs *contentScanner) next() (token, bool) {
	cs.skipBlanks()
	if cs.s.eof() {
		return token{}, false
	}
	if cs.s.buf[cs.s.pos] == '%' {
		start := cs.s.pos
		for !cs.s.eof() && cs.s.buf[cs.s.pos] != '\r' && cs.s.buf[cs.s.pos] != '\n' {
			cs.s.pos++
		}
		return token{name: string(cs.s.buf[start:cs.s.pos])}, true
	}
	c, _ := cs.s.peekByte()
	switch {
	case c == '/' || c == '(' || c == '[' || c == '<' || c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		obj, err := cs.s.readObject()
		if err != nil {
			// Resynchronize by skipping one byte so a single malformed
			// operand does not abort the entire content stream.
			cs.s.pos++
			return cs.next()
		}
		return token{isOperand: true, obj: obj}, true
	default:
		kw := cs.s.readToken()
		if kw == "" {
			cs.s.pos++
			return cs.next()
		}
		return token{name: kw}, true
	}
}

// tokenizeContent turns raw content-stream bytes into a sequence of
// ops.Operation values, reconstructing the higher-level shapes
// content/lower.go produces: single-subpath paths become DrawLine,
// multi-subpath paths become DrawPolygon, and inline BT/ET, save/
// restore and layer-marking pairs are passed through structurally.
// Operators this package does not recognize become ops.Unknown so a
// foreign PDF's content still round-trips as data even when its
// semantics are opaque to the higher-level Operation types.
//
// fontKinds maps each page-local font resource name to whether it is a
// Type0 composite font (Tj/TJ operands are two bytes per glyph) or a
// simple font (one byte per character, WinAnsiEncoding); Tf switches
// the decoder tokenizeContent uses for the Tj/TJ operands that follow,
// mirroring how a real content-stream consumer resolves the operand
// width from the currently selected font rather than from the bytes
// themselves.
func tokenizeContent(data []byte, fontKinds map[string]bool) []ops.Operation {
	cs := &contentScanner{s: newScanner(data, 0)}
	var out []ops.Operation
	var stack []pdf.Object
	var composite bool
	var compositeStack []bool

	// path being accumulated since the last paint/moveto boundary.
	var rings []ops.Ring
	var closedFlags []bool
	var curStart ops.Point
	var curSegs []ops.PathSegment
	haveSubpath := false
	curClosed := false

	flushPath := func() {
		if haveSubpath {
			rings = append(rings, ops.Ring{Start: curStart, Segments: curSegs})
			closedFlags = append(closedFlags, curClosed)
			curSegs = nil
			haveSubpath = false
			curClosed = false
		}
	}

	popFloats := func(n int) []float64 {
		if len(stack) < n {
			n = len(stack)
		}
		vals := make([]float64, n)
		start := len(stack) - n
		for i := 0; i < n; i++ {
			vals[i] = toFloat(stack[start+i])
		}
		stack = stack[:start]
		return vals
	}
	popAll := func() []float64 { return popFloats(len(stack)) }

	for {
		tok, ok := cs.next()
		if !ok {
			break
		}
		if tok.isOperand {
			stack = append(stack, tok.obj)
			continue
		}

		switch tok.name {
		case "q":
			compositeStack = append(compositeStack, composite)
			out = append(out, ops.SaveGraphicsState{})
			stack = stack[:0]
		case "Q":
			if n := len(compositeStack); n > 0 {
				composite = compositeStack[n-1]
				compositeStack = compositeStack[:n-1]
			}
			out = append(out, ops.RestoreGraphicsState{})
			stack = stack[:0]
		case "gs":
			if len(stack) >= 1 {
				out = append(out, ops.LoadGraphicsState{GState: nameArg(stack, 1)})
			}
			stack = stack[:0]
		case "cm":
			v := popAll()
			if len(v) == 6 {
				out = append(out, ops.SetTransformationMatrix{Matrix: matrix.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}})
			}
		case "BT":
			out = append(out, ops.StartTextSection{})
			stack = stack[:0]
		case "ET":
			out = append(out, ops.EndTextSection{})
			stack = stack[:0]
		case "Tf":
			if len(stack) >= 2 {
				size := toFloat(stack[len(stack)-1])
				font := nameArg(stack, 2)
				composite = fontKinds[font]
				out = append(out, ops.SetFont{Font: font, Size: size})
			}
			stack = stack[:0]
		case "Td":
			v := popAll()
			if len(v) == 2 {
				out = append(out, ops.SetTextCursor{Dx: v[0], Dy: v[1]})
			}
		case "Tm":
			v := popAll()
			if len(v) == 6 {
				out = append(out, ops.SetTextMatrixAbsolute{Matrix: matrix.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}})
			}
		case "Tj":
			if len(stack) >= 1 {
				if str, ok := stack[len(stack)-1].(pdf.String); ok {
					out = append(out, ops.ShowText{Items: []ops.TextItem{glyphItem(str, composite)}})
				}
			}
			stack = stack[:0]
		case "TJ":
			if len(stack) >= 1 {
				if arr, ok := stack[len(stack)-1].(pdf.Array); ok {
					out = append(out, ops.ShowText{Items: showItems(arr, composite)})
				}
			}
			stack = stack[:0]
		case "T*":
			out = append(out, ops.AddLineBreak{})
			stack = stack[:0]
		case "TL":
			v := popFloats(1)
			if len(v) == 1 {
				out = append(out, ops.SetLineHeight{Leading: v[0]})
			}
		case "Tc":
			v := popFloats(1)
			if len(v) == 1 {
				out = append(out, ops.SetCharacterSpacing{Value: v[0]})
			}
		case "Tw":
			v := popFloats(1)
			if len(v) == 1 {
				out = append(out, ops.SetWordSpacing{Value: v[0]})
			}
		case "Tz":
			v := popFloats(1)
			if len(v) == 1 {
				out = append(out, ops.SetHorizontalScaling{Percent: v[0]})
			}
		case "Tr":
			v := popFloats(1)
			if len(v) == 1 {
				out = append(out, ops.SetTextRenderingMode{Mode: ops.TextRenderingMode(int(v[0]))})
			}
		case "Ts":
			v := popFloats(1)
			if len(v) == 1 {
				out = append(out, ops.SetLineOffset{Rise: v[0]})
			}
		case "g":
			v := popFloats(1)
			if len(v) == 1 {
				out = append(out, ops.SetFillColor{Color: color.Gray(v[0])})
			}
		case "G":
			v := popFloats(1)
			if len(v) == 1 {
				out = append(out, ops.SetOutlineColor{Color: color.Gray(v[0])})
			}
		case "rg":
			v := popFloats(3)
			if len(v) == 3 {
				out = append(out, ops.SetFillColor{Color: color.RGB(v[0], v[1], v[2])})
			}
		case "RG":
			v := popFloats(3)
			if len(v) == 3 {
				out = append(out, ops.SetOutlineColor{Color: color.RGB(v[0], v[1], v[2])})
			}
		case "k":
			v := popFloats(4)
			if len(v) == 4 {
				out = append(out, ops.SetFillColor{Color: color.CMYK(v[0], v[1], v[2], v[3])})
			}
		case "K":
			v := popFloats(4)
			if len(v) == 4 {
				out = append(out, ops.SetOutlineColor{Color: color.CMYK(v[0], v[1], v[2], v[3])})
			}
		case "scn":
			if len(stack) == 1 {
				out = append(out, ops.SetFillColor{Color: &color.Separation{Tint: toFloat(stack[0])}})
			}
			stack = stack[:0]
		case "SCN":
			if len(stack) == 1 {
				out = append(out, ops.SetOutlineColor{Color: &color.Separation{Tint: toFloat(stack[0])}})
			}
			stack = stack[:0]
		case "w":
			v := popFloats(1)
			if len(v) == 1 {
				out = append(out, ops.SetOutlineThickness{Width: v[0]})
			}
		case "d":
			if len(stack) >= 2 {
				phase := toFloat(stack[len(stack)-1])
				if arr, ok := stack[len(stack)-2].(pdf.Array); ok {
					out = append(out, ops.SetLineDashPattern{Dash: floatsOf(arr), Phase: phase})
				}
			}
			stack = stack[:0]
		case "j":
			v := popFloats(1)
			if len(v) == 1 {
				out = append(out, ops.SetLineJoinStyle{Style: ops.LineJoinStyle(int(v[0]))})
			}
		case "J":
			v := popFloats(1)
			if len(v) == 1 {
				out = append(out, ops.SetLineCapStyle{Style: ops.LineCapStyle(int(v[0]))})
			}
		case "M":
			v := popFloats(1)
			if len(v) == 1 {
				out = append(out, ops.SetMiterLimit{Limit: v[0]})
			}
		case "ri":
			if len(stack) >= 1 {
				out = append(out, ops.SetRenderingIntent{Intent: intentByName(nameArg(stack, 1))})
			}
			stack = stack[:0]

		case "m":
			flushPath()
			v := popFloats(2)
			if len(v) == 2 {
				curStart = ops.Point{X: v[0], Y: v[1]}
				haveSubpath = true
			}
		case "l":
			v := popFloats(2)
			if len(v) == 2 {
				curSegs = append(curSegs, ops.PathSegment{P: ops.Point{X: v[0], Y: v[1]}})
			}
		case "c":
			v := popFloats(6)
			if len(v) == 6 {
				curSegs = append(curSegs, ops.PathSegment{
					Cubic: true,
					C1:    ops.Point{X: v[0], Y: v[1]},
					C2:    ops.Point{X: v[2], Y: v[3]},
					P:     ops.Point{X: v[4], Y: v[5]},
				})
			}
		case "h":
			curClosed = true
		case "S", "s", "f", "F", "f*", "B", "B*", "b", "b*", "n":
			flushPath()
			out = append(out, pathToOp(rings, closedFlags, tok.name))
			rings = nil
			closedFlags = nil
			stack = stack[:0]

		case "Do":
			if len(stack) >= 1 {
				out = append(out, ops.UseXObject{XObject: nameArg(stack, 1)})
			}
			stack = stack[:0]

		case "BDC":
			if len(stack) >= 2 {
				out = append(out, ops.BeginLayer{Layer: nameArg(stack, 1)})
			}
			stack = stack[:0]
		case "EMC":
			out = append(out, ops.EndLayer{})
			stack = stack[:0]

		default:
			if len(tok.name) > 0 && tok.name[0] == '%' {
				id := tok.name[1:]
				for len(id) > 0 && isSpace[id[0]] {
					id = id[1:]
				}
				out = append(out, ops.Marker{ID: id})
				stack = stack[:0]
				continue
			}
			out = append(out, ops.Unknown{Key: tok.name, Operands: popAll()})
		}
	}
	flushPath()
	if len(rings) > 0 {
		out = append(out, pathToOp(rings, closedFlags, "n"))
	}
	return out
}

// pathToOp turns the rings (and their per-subpath "was an 'h' token
// seen" flags) accumulated since the last paint operator into a
// DrawLine (one subpath) or DrawPolygon (more than one), mirroring
// lowerPath's inverse.
func pathToOp(rings []ops.Ring, closedFlags []bool, opName string) ops.Operation {
	mode, evenOdd := paintModeOf(opName)
	if len(rings) <= 1 {
		var start ops.Point
		var segs []ops.PathSegment
		var closed bool
		if len(rings) == 1 {
			start = rings[0].Start
			segs = rings[0].Segments
			closed = closedFlags[0]
		}
		return ops.DrawLine{Start: start, Segments: segs, IsClosed: closed, Mode: mode}
	}
	winding := ops.WindingNonZero
	if evenOdd {
		winding = ops.WindingEvenOdd
	}
	return ops.DrawPolygon{Rings: rings, Mode: mode, Winding: winding}
}

func paintModeOf(opName string) (ops.PaintMode, bool) {
	switch opName {
	case "S", "s":
		return ops.PaintStroke, false
	case "f":
		return ops.PaintFill, false
	case "F":
		return ops.PaintFill, false
	case "f*":
		return ops.PaintFill, true
	case "B":
		return ops.PaintFillStroke, false
	case "B*":
		return ops.PaintFillStroke, true
	case "b":
		return ops.PaintFillStroke, false
	case "b*":
		return ops.PaintFillStroke, true
	default:
		return ops.PaintStroke, false
	}
}

func intentByName(name string) ops.RenderingIntent {
	switch name {
	case "AbsoluteColorimetric":
		return ops.IntentAbsoluteColorimetric
	case "Saturation":
		return ops.IntentSaturation
	case "Perceptual":
		return ops.IntentPerceptual
	default:
		return ops.IntentRelativeColorimetric
	}
}

// glyphItem decodes one Tj/TJ string operand. A composite font's
// operand is two bytes per glyph id (content/lower.go's encodeItem
// composite path); a simple font's operand is one WinAnsiEncoding byte
// per character, decoded back to text rather than glyph ids since a
// simple font's PDF dictionary carries no glyph program of its own.
func glyphItem(str pdf.String, composite bool) ops.TextItem {
	if !composite {
		text, _ := winAnsiDecoder.String(string(str))
		return ops.TextItem{Text: text}
	}
	ids := make([]uint16, 0, len(str)/2)
	for i := 0; i+1 < len(str); i += 2 {
		ids = append(ids, uint16(str[i])<<8|uint16(str[i+1]))
	}
	return ops.TextItem{GlyphIDs: ids}
}

func showItems(arr pdf.Array, composite bool) []ops.TextItem {
	items := make([]ops.TextItem, 0, len(arr))
	for _, el := range arr {
		switch v := el.(type) {
		case pdf.String:
			items = append(items, glyphItem(v, composite))
		default:
			items = append(items, ops.TextItem{Kern: toFloat(v)})
		}
	}
	return items
}

func toFloat(obj pdf.Object) float64 {
	switch v := obj.(type) {
	case pdf.Integer:
		return float64(v)
	case pdf.Real:
		return float64(v)
	default:
		return 0
	}
}

func floatsOf(arr pdf.Array) []float64 {
	out := make([]float64, len(arr))
	for i, el := range arr {
		out[i] = toFloat(el)
	}
	return out
}

// nameArg reads the name operand n positions from the top of the
// operand stack (1 = topmost), stripping the leading "/" convention
// pdf.Name already omits.
func nameArg(stack []pdf.Object, fromTop int) string {
	idx := len(stack) - fromTop
	if idx < 0 || idx >= len(stack) {
		return ""
	}
	if n, ok := stack[idx].(pdf.Name); ok {
		return string(n)
	}
	return ""
}
