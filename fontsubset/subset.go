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

// Package fontsubset implements the Font Subsetter: given a parsed
// OpenType/TrueType font and the set of glyph ids a document actually
// draws, it produces a minimal composite-font program retaining only
// required tables plus the original-to-subset glyph id remap needed to
// build the CIDFontType2 dictionary and ToUnicode CMap.
package fontsubset

import (
	"bytes"
	"errors"
	"sort"

	"seehuhn.de/go/postscript/cid"
	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cff"
	"seehuhn.de/go/sfnt/glyf"
	"seehuhn.de/go/sfnt/glyph"
)

// Glyph pairs an original glyph id with the CID it will carry in the
// subset font. CIDs equal subset glyph ids for the CIDFontType2/CFF
// Identity encoding this package always produces, so the two are
// interchangeable downstream.
type Glyph struct {
	OrigGID glyph.ID
	CID     cid.CID
}

// Closure computes the glyph set a subset must contain: glyph 0
// (.notdef), every glyph id in used, and — for TrueType composite
// glyphs — the transitive closure of component glyphs they reference.
// The result is sorted by original glyph id ascending, with .notdef
// always first, which is the order CID assignment relies on to keep
// subset ids deterministic across runs with identical input.
func Closure(info *sfnt.Font, used map[glyph.ID]bool) []Glyph {
	seen := map[glyph.ID]bool{0: true}
	ordered := []glyph.ID{0}

	add := func(gid glyph.ID) {
		if !seen[gid] {
			seen[gid] = true
			ordered = append(ordered, gid)
		}
	}
	for gid := range used {
		add(gid)
	}

	if outlines, ok := info.Outlines.(*glyf.Outlines); ok {
		// Component references can chain, so keep expanding until a
		// pass over the queue adds nothing new.
		for {
			before := len(ordered)
			for _, gid := range append([]glyph.ID(nil), ordered...) {
				if int(gid) >= len(outlines.Glyphs) || outlines.Glyphs[gid] == nil {
					continue
				}
				for _, comp := range outlines.Glyphs[gid].Components() {
					add(comp)
				}
			}
			if len(ordered) == before {
				break
			}
		}
	}

	rest := ordered[1:]
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })

	glyphs := make([]Glyph, len(ordered))
	glyphs[0] = Glyph{OrigGID: 0, CID: 0}
	for i, gid := range rest {
		glyphs[i+1] = Glyph{OrigGID: gid, CID: cid.CID(i + 1)}
	}
	return glyphs
}

// errNoNotdef / errNilROS mirror the invariants the subsetter enforces
// before touching either outline format.
var (
	errNoNotdef = errors.New("fontsubset: subset does not start with .notdef")
	errNilROS   = errors.New("fontsubset: ROS cannot be nil for a CID-keyed font")
)

// Subset builds a new *sfnt.Font containing only the glyphs named by
// subset, assigning each its CID as the new glyph id (CIDToGIDMap is
// Identity downstream). ROS must be non-nil for either outline format;
// it supplies the CIDSystemInfo for the CFF-flavored case and is not
// used for glyf outlines, where the PDF CIDFontType2 dictionary's own
// /CIDToGIDMap /Identity entry carries the mapping instead.
func Subset(info *sfnt.Font, subset []Glyph, ros *cid.SystemInfo) (*sfnt.Font, error) {
	if len(subset) == 0 || subset[0].OrigGID != 0 {
		return nil, errNoNotdef
	}
	if ros == nil {
		return nil, errNilROS
	}

	res := &sfnt.Font{}
	*res = *info

	switch outlines := info.Outlines.(type) {
	case *cff.Outlines:
		o2 := &cff.Outlines{ROS: ros}
		pIdxMap := make(map[int]int)
		fdSel := make(map[glyph.ID]int)
		for newGID, g := range subset {
			o2.Glyphs = append(o2.Glyphs, outlines.Glyphs[g.OrigGID])
			oldPIdx := outlines.FDSelect(g.OrigGID)
			if _, ok := pIdxMap[oldPIdx]; !ok {
				pIdxMap[oldPIdx] = len(o2.Private)
				o2.Private = append(o2.Private, outlines.Private[oldPIdx])
			}
			fdSel[glyph.ID(newGID)] = pIdxMap[oldPIdx]
		}
		o2.FDSelect = func(gid glyph.ID) int { return fdSel[gid] }
		o2.GIDToCID = make([]cid.CID, len(subset))
		for newGID, g := range subset {
			o2.GIDToCID[newGID] = g.CID
		}
		res.Outlines = o2

	case *glyf.Outlines:
		newGid := make(map[glyph.ID]glyph.ID, len(subset))
		for i, g := range subset {
			newGid[g.OrigGID] = glyph.ID(i)
		}
		o2 := &glyf.Outlines{Tables: outlines.Tables, Maxp: outlines.Maxp}
		for _, g := range subset {
			gid := g.OrigGID
			o2.Glyphs = append(o2.Glyphs, outlines.Glyphs[gid].FixComponents(newGid))
			o2.Widths = append(o2.Widths, outlines.Widths[gid])
		}
		res.Outlines = o2
		// The CIDFontType2 dictionary's own /CIDToGIDMap entry is the
		// authority for glyf-flavored fonts; no font-program cmap is
		// needed for composite rendering.
		res.CMapTable = nil

	default:
		return nil, errors.New("fontsubset: unsupported outline format")
	}

	return res, nil
}

// Result is everything the object-graph builder needs to embed a
// subset font as a CIDFontType2/CIDFontType0C composite font.
type Result struct {
	Font *sfnt.Font

	// Glyphs is the Closure() output that produced Font, in CID order.
	Glyphs []Glyph

	// OrigToSubsetGID maps each original glyph id kept in the subset
	// to its new (= CID) glyph id.
	OrigToSubsetGID map[glyph.ID]glyph.ID

	// IsOpenType is true when Font's outlines are CFF (emit as
	// FontFile3/OpenType); false for glyf (FontFile2/TrueType).
	IsOpenType bool
}

// Run performs the full subsetting algorithm: compute the glyph
// closure, build the subset font, and derive the id remap. If
// doSubset is false it returns a pass-through result for the
// subsetFonts=false save option: the parsed font with all of its
// glyphs and an identity remap. The original file bytes are not kept;
// Bytes re-serializes the parsed font.
func Run(info *sfnt.Font, used map[glyph.ID]bool, ros *cid.SystemInfo, doSubset bool) (*Result, error) {
	if !doSubset {
		remap := make(map[glyph.ID]glyph.ID)
		n := info.NumGlyphs()
		glyphs := make([]Glyph, 0, n)
		for gid := glyph.ID(0); int(gid) < n; gid++ {
			remap[gid] = gid
			glyphs = append(glyphs, Glyph{OrigGID: gid, CID: cid.CID(gid)})
		}
		_, isOpenType := info.Outlines.(*cff.Outlines)
		return &Result{Font: info, Glyphs: glyphs, OrigToSubsetGID: remap, IsOpenType: isOpenType}, nil
	}

	glyphs := Closure(info, used)
	subsetFont, err := Subset(info, glyphs, ros)
	if err != nil {
		return nil, err
	}
	remap := make(map[glyph.ID]glyph.ID, len(glyphs))
	for newGID, g := range glyphs {
		remap[g.OrigGID] = glyph.ID(newGID)
	}
	_, isOpenType := subsetFont.Outlines.(*cff.Outlines)
	return &Result{Font: subsetFont, Glyphs: glyphs, OrigToSubsetGID: remap, IsOpenType: isOpenType}, nil
}

// Bytes serializes the subset (or pass-through) font program to its
// binary TrueType/OpenType representation.
func (r *Result) Bytes() ([]byte, error) {
	buf := &bytes.Buffer{}
	if _, err := r.Font.WriteTrueTypePDF(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DefaultROS is the Adobe-Identity CIDSystemInfo used for every
// composite font this library embeds: subset glyph ids are assigned
// densely from zero, so there is never a reason to declare a named
// ordering.
var DefaultROS = &cid.SystemInfo{
	Registry:   "Adobe",
	Ordering:   "Identity",
	Supplement: 0,
}
