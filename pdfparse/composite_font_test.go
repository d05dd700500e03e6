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
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/pdfxkit/pdfx/document"
	"github.com/pdfxkit/pdfx/ops"
	"github.com/pdfxkit/pdfx/serialize"
	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cmap"
)

// glyphIDsFor looks up the glyph id for each rune in text using the
// font's Format4 cmap subtable, the same lookup glyphusage.Collect
// falls back to when a ShowText item carries no shaped text.
func glyphIDsFor(t *testing.T, info *sfnt.Font, text string) []uint16 {
	t.Helper()
	table, ok := info.CMap.(cmap.Format4)
	if !ok {
		t.Fatalf("font cmap is not a Format4 subtable")
	}
	ids := make([]uint16, 0, len(text))
	for _, r := range text {
		gid, ok := table[uint16(r)]
		if !ok {
			t.Fatalf("no glyph for rune %q in test font", r)
		}
		ids = append(ids, uint16(gid))
	}
	return ids
}

// TestRoundTripEmbeddedFontSubset drives an embedded TrueType font
// through Save/Parse, exercising glyphusage.Collect, fontsubset.Run,
// writeCompositeFont and writeToUnicode end to end, the composite-font
// path every other round-trip test skips by drawing exclusively with
// the 14 standard fonts.
func TestRoundTripEmbeddedFontSubset(t *testing.T) {
	info, err := sfnt.Read(bytes.NewReader(goregular.TTF))
	if err != nil {
		t.Fatalf("sfnt.Read(goregular.TTF): %v", err)
	}

	const text = "Kilo"
	gids := glyphIDsFor(t, info, text)
	if len(gids) != 4 {
		t.Fatalf("got %d glyph ids, want 4", len(gids))
	}

	doc := document.New()
	fontID := doc.AddFont("EmbeddedSans", goregular.TTF)

	page := document.NewPage(mediaLetter())
	page.Add(
		ops.StartTextSection{},
		ops.SetFont{Font: string(fontID), Size: 24},
		ops.ShowText{Items: []ops.TextItem{{Text: text, GlyphIDs: gids}}},
		ops.EndTextSection{},
	)
	doc.AddPage(page)

	opts := noICCOptions()
	opts.SubsetFonts = true

	data, warnings, err := serialize.Save(doc, opts)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	for _, w := range warnings {
		t.Logf("save warning: %s", w.String())
	}

	if !bytes.Contains(data, []byte("4 beginbfchar")) {
		t.Errorf("ToUnicode CMap does not cover all 4 glyphs (no \"4 beginbfchar\" block)")
	}
	if !bytes.Contains(data, []byte("/CIDSystemInfo <<\n/Registry (Adobe)\n/Ordering (UCS)\n/Supplement 0\n>> def")) {
		t.Errorf("ToUnicode CIDSystemInfo dictionary is malformed:\n%s", data)
	}
	if bytes.Contains(data, []byte("(Adobe) def")) {
		t.Errorf("ToUnicode CIDSystemInfo still emits interior def tokens")
	}
	if !bytes.Contains(data, []byte("/Subtype /CIDFontType2")) {
		t.Errorf("expected a CIDFontType2 descendant font for a glyf-outline TrueType embed")
	}

	parsed, parseWarnings, err := Parse(data, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, w := range parseWarnings {
		t.Logf("parse warning: %s", w.String())
	}

	font, ok := parsed.Resources.Fonts[fontID]
	if !ok {
		t.Fatalf("embedded font %q not recovered from round trip", fontID)
	}
	subsetInfo, err := font.Parsed()
	if err != nil {
		t.Fatalf("parsing recovered font program: %v", err)
	}

	// .notdef plus the 4 distinct glyphs drawn above; goregular's "K",
	// "i", "l", "o" are simple (non-composite) outlines, so the subset's
	// closure adds nothing beyond those 5.
	if got, want := subsetInfo.NumGlyphs(), 5; got != want {
		t.Errorf("recovered subset has %d glyphs, want %d", got, want)
	}
	if orig := info.NumGlyphs(); subsetInfo.NumGlyphs() >= orig {
		t.Errorf("subset (%d glyphs) is not smaller than the original font (%d glyphs)", subsetInfo.NumGlyphs(), orig)
	}

	var sawFont bool
	for _, op := range parsed.Pages[0].Ops {
		if sf, ok := op.(ops.SetFont); ok && sf.Font == string(fontID) {
			sawFont = true
		}
	}
	if !sawFont {
		t.Errorf("did not recover SetFont{Font: %q} from round trip", fontID)
	}
}
