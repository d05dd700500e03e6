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

package objgraph

import (
	"sort"

	"github.com/pdfxkit/pdfx"
	"github.com/pdfxkit/pdfx/document"
)

// buildLayers writes an OCG dictionary (§8.11.2) for every layer in
// res, then returns the per-layer references together with the
// catalog's /OCProperties dictionary, which records the full OCG list
// alongside the default-on/default-off partition the viewer's default
// configuration should honor.
func buildLayers(w *pdf.Writer, res *document.Resources) (map[document.LayerId]pdf.Reference, pdf.Dict, error) {
	refs := make(map[document.LayerId]pdf.Reference, len(res.Layers))
	if len(res.Layers) == 0 {
		return refs, nil, nil
	}

	ids := make([]document.LayerId, 0, len(res.Layers))
	for id := range res.Layers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var all, on, off pdf.Array
	for _, id := range ids {
		l := res.Layers[id]
		intent := pdf.Name(l.Intent)
		if intent == "" {
			intent = "View"
		}
		dict := pdf.Dict{
			"Type":   pdf.Name("OCG"),
			"Name":   pdf.TextString(l.Name),
			"Intent": intent,
		}
		ref := w.Alloc()
		if err := w.WriteIndirect(ref, dict); err != nil {
			return nil, nil, err
		}
		refs[id] = ref
		all = append(all, ref)
		if l.DefaultOn {
			on = append(on, ref)
		} else {
			off = append(off, ref)
		}
	}

	props := pdf.Dict{
		"OCGs": all,
		"D": pdf.Dict{
			"ON":      on,
			"OFF":     off,
			"BaseState": pdf.Name("ON"),
		},
	}
	return refs, props, nil
}
