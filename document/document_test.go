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

package document

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pdfxkit/pdfx"
)

func TestDeterministicIds(t *testing.T) {
	build := func() []FontId {
		d := New()
		var ids []FontId
		for _, name := range []string{"Regular", "Bold", "Italic"} {
			ids = append(ids, d.AddFont(name, nil))
		}
		return ids
	}

	a := build()
	b := build()
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("id generation not deterministic (-first +second):\n%s", diff)
	}
	want := []FontId{"F1", "F2", "F3"}
	if diff := cmp.Diff(want, a); diff != "" {
		t.Errorf("unexpected ids (-want +got):\n%s", diff)
	}
}

func TestAddPagePreservesOrder(t *testing.T) {
	d := New()
	p1 := NewPage(mediaLetter())
	p2 := NewPage(mediaLetter())
	if idx := d.AddPage(p1); idx != 0 {
		t.Fatalf("first page index = %d, want 0", idx)
	}
	if idx := d.AddPage(p2); idx != 1 {
		t.Fatalf("second page index = %d, want 1", idx)
	}
	if d.Pages[0] != p1 || d.Pages[1] != p2 {
		t.Errorf("page order not preserved")
	}
}

func TestBookmarkTree(t *testing.T) {
	d := New()
	root := d.AddBookmark("Chapter 1", 0)
	root.AddChild("Section 1.1", 0)
	if len(d.Bookmarks) != 1 || len(d.Bookmarks[0].Children) != 1 {
		t.Fatalf("bookmark tree not built as expected: %+v", d.Bookmarks)
	}
}

func mediaLetter() pdf.Rectangle {
	return pdf.Rectangle{LLx: 0, LLy: 0, URx: 612, URy: 792}
}
