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

package svgproj

import (
	"strings"
	"testing"

	pdf "github.com/pdfxkit/pdfx"
	"github.com/pdfxkit/pdfx/color"
	"github.com/pdfxkit/pdfx/document"
	"github.com/pdfxkit/pdfx/ops"
)

func TestPageToSVGHeaderAndViewBox(t *testing.T) {
	page := document.NewPage(pdf.Rectangle{LLx: 0, LLy: 0, URx: 200, URy: 100})
	svg, err := PageToSVG(page, document.New().Resources, Options{Scale: 2, XMLDecl: true})
	if err != nil {
		t.Fatalf("PageToSVG: %v", err)
	}
	if !strings.HasPrefix(svg, "<?xml") {
		t.Errorf("missing XML declaration:\n%s", svg)
	}
	if !strings.Contains(svg, `viewBox="0 0 400 200"`) {
		t.Errorf("unexpected viewBox, want scale-adjusted 400x200:\n%s", svg)
	}
}

func TestPageToSVGNoXMLDecl(t *testing.T) {
	page := document.NewPage(pdf.Rectangle{LLx: 0, LLy: 0, URx: 10, URy: 10})
	svg, err := PageToSVG(page, document.New().Resources, Options{})
	if err != nil {
		t.Fatalf("PageToSVG: %v", err)
	}
	if strings.HasPrefix(svg, "<?xml") {
		t.Errorf("did not expect an XML declaration:\n%s", svg)
	}
}

func TestPageToSVGDrawsText(t *testing.T) {
	page := document.NewPage(pdf.Rectangle{LLx: 0, LLy: 0, URx: 200, URy: 100})
	page.Add(
		ops.StartTextSection{},
		ops.SetFont{Font: "Helvetica", Size: 12},
		ops.ShowText{Items: []ops.TextItem{{Text: "hi"}}},
		ops.EndTextSection{},
	)
	svg, err := PageToSVG(page, document.New().Resources, Options{})
	if err != nil {
		t.Fatalf("PageToSVG: %v", err)
	}
	if !strings.Contains(svg, "<text") || !strings.Contains(svg, ">hi<") {
		t.Errorf("expected a <text> element containing \"hi\":\n%s", svg)
	}
}

func TestPageToSVGEmptyShowTextOmitted(t *testing.T) {
	page := document.NewPage(pdf.Rectangle{LLx: 0, LLy: 0, URx: 200, URy: 100})
	page.Add(ops.ShowText{Items: []ops.TextItem{{GlyphIDs: []uint16{3}}}})
	svg, err := PageToSVG(page, document.New().Resources, Options{})
	if err != nil {
		t.Fatalf("PageToSVG: %v", err)
	}
	if strings.Contains(svg, "<text") {
		t.Errorf("did not expect a <text> element for a glyph-only run with no Text:\n%s", svg)
	}
}

func TestPageToSVGDrawsFilledPath(t *testing.T) {
	page := document.NewPage(pdf.Rectangle{LLx: 0, LLy: 0, URx: 200, URy: 100})
	page.Add(
		ops.SetFillColor{Color: color.RGB(1, 0, 0)},
		ops.DrawLine{
			Start:    ops.Point{X: 10, Y: 10},
			Segments: []ops.PathSegment{{P: ops.Point{X: 50, Y: 10}}, {P: ops.Point{X: 50, Y: 50}}},
			IsClosed: true,
			Mode:     ops.PaintFill,
		},
	)
	svg, err := PageToSVG(page, document.New().Resources, Options{})
	if err != nil {
		t.Fatalf("PageToSVG: %v", err)
	}
	if !strings.Contains(svg, "<path") {
		t.Errorf("expected a <path> element:\n%s", svg)
	}
	if !strings.Contains(svg, `fill="#ff0000"`) {
		t.Errorf("expected the fill color to round trip to #ff0000:\n%s", svg)
	}
}

func TestPageToSVGSkipsMissingXObject(t *testing.T) {
	page := document.NewPage(pdf.Rectangle{LLx: 0, LLy: 0, URx: 200, URy: 100})
	page.Add(ops.UseXObject{XObject: "Im1"})
	// resources.XObjects has no "Im1" entry; PageToSVG must not panic
	// or error, since it renders on a best-effort basis.
	svg, err := PageToSVG(page, document.New().Resources, Options{})
	if err != nil {
		t.Fatalf("PageToSVG: %v", err)
	}
	if strings.Contains(svg, "<image") {
		t.Errorf("did not expect an <image> element for an unresolved xobject:\n%s", svg)
	}
}

func TestPageToSVGNilResources(t *testing.T) {
	page := document.NewPage(pdf.Rectangle{LLx: 0, LLy: 0, URx: 200, URy: 100})
	page.Add(ops.UseXObject{XObject: "Im1"})
	if _, err := PageToSVG(page, nil, Options{}); err != nil {
		t.Fatalf("PageToSVG with nil resources: %v", err)
	}
}

func TestSvgColorGray(t *testing.T) {
	got := svgColor(color.Gray(0.5))
	if got != "#7f7f7f" {
		t.Errorf("svgColor(Gray(0.5)) = %q, want #7f7f7f", got)
	}
}

func TestSvgColorRGB(t *testing.T) {
	got := svgColor(color.RGB(0, 1, 0))
	if got != "#00ff00" {
		t.Errorf("svgColor(RGB(0,1,0)) = %q, want #00ff00", got)
	}
}

func TestFnumTrimsTrailingZeros(t *testing.T) {
	cases := map[float64]string{
		1.0:   "1",
		1.5:   "1.5",
		0.0:   "0",
		2.250: "2.25",
	}
	for in, want := range cases {
		if got := fnum(in); got != want {
			t.Errorf("fnum(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestEscapeText(t *testing.T) {
	got := escapeText(`a & b < c > d`)
	want := "a &amp; b &lt; c &gt; d"
	if got != want {
		t.Errorf("escapeText = %q, want %q", got, want)
	}
}
