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

// Package glyphusage implements the Glyph-Usage Collector: a single
// pass over every page's operation list that tracks the current font
// through save/restore nesting and records, for each external font,
// which glyph ids are actually drawn and a best-effort Unicode code
// point for each.
package glyphusage

import (
	"sort"

	"github.com/pdfxkit/pdfx"
	"github.com/pdfxkit/pdfx/document"
	"github.com/pdfxkit/pdfx/ops"
	"seehuhn.de/go/sfnt/cmap"
	"seehuhn.de/go/sfnt/glyph"
)

// Usage is the collector's output: for every external font actually
// used for a glyph-emitting operation, the set of glyph ids drawn and
// the Unicode code point recorded for each.
type Usage map[document.FontId]map[glyph.ID]rune

// fontState is the per-page state machine: which font (if any, and
// whether built-in or document-scoped) is current, plus the
// save/restore stack of that state.
type fontState struct {
	set   bool
	font  document.FontId
	isExt bool
}

type pageMachine struct {
	current fontState
	stack   []fontState
}

// Collect walks every page in pages once, simulating the text/font
// state machine, and returns the glyph usage map plus any warnings
// (unmapped glyphs falling back to U+FFFD).
func Collect(pages []*document.Page, res *document.Resources) (Usage, []pdf.Warning) {
	usage := make(Usage)
	var warnings []pdf.Warning
	reverse := make(map[document.FontId]map[glyph.ID]rune)

	for pageIdx, page := range pages {
		m := &pageMachine{}
		for opIdx, op := range page.Ops {
			switch o := op.(type) {
			case ops.SetFont:
				id := document.FontId(o.Font)
				_, isExt := res.Fonts[id]
				m.current = fontState{set: true, font: id, isExt: isExt}

			case ops.SaveGraphicsState:
				m.stack = append(m.stack, m.current)

			case ops.RestoreGraphicsState:
				if len(m.stack) == 0 {
					m.current = fontState{}
					warnings = append(warnings, pdf.Warning{
						Location: pdf.Location{Page: pageIdx, Op: opIdx},
						Kind:     pdf.WarnForcedRestore,
						Message:  "RestoreGraphicsState with no matching Save; font state reset",
					})
					continue
				}
				m.current = m.stack[len(m.stack)-1]
				m.stack = m.stack[:len(m.stack)-1]

			case ops.ShowText:
				if !m.current.set || !m.current.isExt {
					continue
				}
				fontID := m.current.font
				font := res.Fonts[fontID]
				if usage[fontID] == nil {
					usage[fontID] = make(map[glyph.ID]rune)
				}
				for _, item := range o.Items {
					if len(item.GlyphIDs) == 0 {
						continue
					}
					runes := []rune(item.Text)
					for i, gidRaw := range item.GlyphIDs {
						gid := glyph.ID(gidRaw)
						r, ok := resolveRune(runes, i, font, gid, reverse, fontID)
						if !ok {
							r = '�'
							warnings = append(warnings, pdf.Warning{
								Location: pdf.Location{Page: pageIdx, Op: opIdx},
								Kind:     pdf.WarnUnmappedGlyph,
								Message:  "no Unicode code point found for glyph; recorded U+FFFD",
							})
						}
						if _, already := usage[fontID][gid]; !already {
							usage[fontID][gid] = r
						}
					}
				}
			}
		}
	}

	return usage, warnings
}

// resolveRune implements the three-step fallback: shaped source text
// first, then the font's reverse cmap, then U+FFFD (signalled by
// ok=false so the caller can warn).
func resolveRune(
	shapedText []rune, i int, font *document.Font, gid glyph.ID,
	reverseCache map[document.FontId]map[glyph.ID]rune, fontID document.FontId,
) (rune, bool) {
	if i < len(shapedText) {
		return shapedText[i], true
	}

	rev, ok := reverseCache[fontID]
	if !ok {
		rev = buildReverseCMap(font)
		reverseCache[fontID] = rev
	}
	r, ok := rev[gid]
	return r, ok
}

// buildReverseCMap inverts a font's character-to-glyph cmap subtable:
// where several characters map to the same glyph, the smallest code
// point is kept. Only the common Format4 (BMP) subtable is supported;
// fonts with a different subtable shape fall back to an empty map,
// which resolveRune turns into a recorded U+FFFD.
func buildReverseCMap(font *document.Font) map[glyph.ID]rune {
	rev := make(map[glyph.ID]rune)
	info, err := font.Parsed()
	if err != nil || info == nil {
		return rev
	}
	subtable, err := info.CMapTable.GetBest()
	if err != nil || subtable == nil {
		return rev
	}
	table, ok := subtable.(cmap.Format4)
	if !ok {
		return rev
	}
	codes := make([]int, 0, len(table))
	for code := range table {
		codes = append(codes, int(code))
	}
	sort.Ints(codes)
	for _, code := range codes {
		gid := table[uint16(code)]
		r := rune(code)
		if existing, seen := rev[gid]; !seen || r < existing {
			rev[gid] = r
		}
	}
	return rev
}
