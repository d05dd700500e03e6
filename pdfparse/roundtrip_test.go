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
	"testing"

	"github.com/google/go-cmp/cmp"

	pdf "github.com/pdfxkit/pdfx"
	"github.com/pdfxkit/pdfx/document"
	"github.com/pdfxkit/pdfx/ops"
	"github.com/pdfxkit/pdfx/serialize"
	"seehuhn.de/go/geom/matrix"
)

func mediaLetter() pdf.Rectangle {
	return pdf.Rectangle{LLx: 0, LLy: 0, URx: 612, URy: 792}
}

// noICCOptions saves without an ICC output intent so tests don't need
// to supply profile bytes, while still requesting XMP metadata.
func noICCOptions() serialize.Options {
	opts := serialize.DefaultOptions()
	opts.Conformance = serialize.NoIcc
	return opts
}

// saveAndParse drives a document through serialize.Save and back
// through Parse, failing the test on any error from either side.
func saveAndParse(t *testing.T, doc *document.Document, saveOpts serialize.Options) *document.Document {
	t.Helper()
	data, warnings, err := serialize.Save(doc, saveOpts)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	for _, w := range warnings {
		t.Logf("save warning: %s", w.String())
	}
	parsed, parseWarnings, err := Parse(data, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, w := range parseWarnings {
		t.Logf("parse warning: %s", w.String())
	}
	return parsed
}

func TestRoundTripTextPage(t *testing.T) {
	doc := document.New()
	doc.Info.Title = "round trip"

	page := document.NewPage(mediaLetter())
	page.Add(
		ops.StartTextSection{},
		ops.SetFont{Font: "Helvetica", Size: 24},
		ops.SetTextMatrixAbsolute{Matrix: matrix.Matrix{1, 0, 0, 1, 72, 700}},
		ops.ShowText{Items: []ops.TextItem{{Text: "Hello, world!"}}},
		ops.EndTextSection{},
	)
	doc.AddPage(page)

	parsed := saveAndParse(t, doc, noICCOptions())

	if len(parsed.Pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(parsed.Pages))
	}
	got := parsed.Pages[0]
	if diff := cmp.Diff(mediaLetter(), got.Media); diff != "" {
		t.Errorf("media box mismatch (-want +got):\n%s", diff)
	}

	var texts []string
	for _, op := range got.Ops {
		if st, ok := op.(ops.ShowText); ok {
			for _, item := range st.Items {
				texts = append(texts, item.Text)
			}
		}
	}
	if diff := cmp.Diff([]string{"Hello, world!"}, texts); diff != "" {
		t.Errorf("recovered text mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripMultiPage(t *testing.T) {
	doc := document.New()
	for i := 0; i < 3; i++ {
		page := document.NewPage(mediaLetter())
		page.Add(ops.DrawLine{
			Start:    ops.Point{X: 10, Y: 10},
			Segments: []ops.PathSegment{{P: ops.Point{X: 100, Y: 100}}},
			IsClosed: false,
			Mode:     ops.PaintStroke,
		})
		doc.AddPage(page)
	}

	parsed := saveAndParse(t, doc, noICCOptions())
	if len(parsed.Pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(parsed.Pages))
	}
	for i, p := range parsed.Pages {
		var lines int
		for _, op := range p.Ops {
			if _, ok := op.(ops.DrawLine); ok {
				lines++
			}
		}
		if lines != 1 {
			t.Errorf("page %d: got %d DrawLine ops, want 1", i, lines)
		}
	}
}

func TestRoundTripBookmarks(t *testing.T) {
	doc := document.New()
	doc.AddPage(document.NewPage(mediaLetter()))
	doc.AddPage(document.NewPage(mediaLetter()))
	top := doc.AddBookmark("Chapter 1", 0)
	top.AddChild("Section 1.1", 1)

	parsed := saveAndParse(t, doc, noICCOptions())
	if len(parsed.Bookmarks) != 1 {
		t.Fatalf("got %d top-level bookmarks, want 1", len(parsed.Bookmarks))
	}
	if parsed.Bookmarks[0].Title != "Chapter 1" {
		t.Errorf("bookmark title = %q, want %q", parsed.Bookmarks[0].Title, "Chapter 1")
	}
	if len(parsed.Bookmarks[0].Children) != 1 || parsed.Bookmarks[0].Children[0].Title != "Section 1.1" {
		t.Errorf("child bookmark not recovered correctly: %+v", parsed.Bookmarks[0])
	}
}

func TestRoundTripInfo(t *testing.T) {
	doc := document.New()
	doc.Info.Title = "Test Document"
	doc.Info.Author = "pdfxkit"
	doc.AddPage(document.NewPage(mediaLetter()))

	parsed := saveAndParse(t, doc, noICCOptions())
	if diff := cmp.Diff(doc.Info.Title, parsed.Info.Title); diff != "" {
		t.Errorf("title mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(doc.Info.Author, parsed.Info.Author); diff != "" {
		t.Errorf("author mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsMissingRoot(t *testing.T) {
	_, _, err := Parse([]byte("%PDF-1.7\n%%EOF"), Options{})
	if err == nil {
		t.Fatal("Parse succeeded on input with no trailer, want error")
	}
}

func TestParseFontResourceRoundTrip(t *testing.T) {
	doc := document.New()
	page := document.NewPage(mediaLetter())
	page.Add(
		ops.StartTextSection{},
		ops.SetFont{Font: "Times-Bold", Size: 10},
		ops.ShowText{Items: []ops.TextItem{{Text: "x"}}},
		ops.EndTextSection{},
	)
	doc.AddPage(page)

	parsed := saveAndParse(t, doc, noICCOptions())
	var sawFont bool
	for _, op := range parsed.Pages[0].Ops {
		if sf, ok := op.(ops.SetFont); ok && sf.Font == "Times-Bold" {
			sawFont = true
		}
	}
	if !sawFont {
		t.Errorf("did not recover SetFont{Font: \"Times-Bold\"} from round trip")
	}
}
