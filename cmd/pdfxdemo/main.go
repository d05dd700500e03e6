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

// Command pdfxdemo builds a small multi-page PDF/X-3 document, saves
// it, parses the result back, and writes an SVG preview of the first
// page, exercising document, serialize, pdfparse and svgproj together.
package main

import (
	"fmt"
	"log"
	"os"

	pdf "github.com/pdfxkit/pdfx"
	"github.com/pdfxkit/pdfx/document"
	"github.com/pdfxkit/pdfx/ops"
	"github.com/pdfxkit/pdfx/pdfparse"
	"github.com/pdfxkit/pdfx/serialize"
	"github.com/pdfxkit/pdfx/svgproj"
	"seehuhn.de/go/geom/matrix"
)

func main() {
	doc := document.New()
	doc.Info.Title = "pdfxdemo"
	doc.Info.Author = "pdfxdemo"

	media := pdf.Rectangle{LLx: 0, LLy: 0, URx: 200, URy: 100}
	for i := 1; i <= 3; i++ {
		page := document.NewPage(media)
		page.Add(
			ops.StartTextSection{},
			ops.SetFont{Font: "Helvetica", Size: 12},
			ops.SetTextMatrixAbsolute{Matrix: matrix.Matrix{1, 0, 0, 1, 30, 30}},
			ops.ShowText{Items: []ops.TextItem{{Text: fmt.Sprintf("page %d", i)}}},
			ops.EndTextSection{},
		)
		doc.AddPage(page)
	}

	opts := serialize.DefaultOptions()
	opts.Conformance = serialize.NoIcc // no ICC profile supplied by this demo
	data, warnings, err := serialize.Save(doc, opts)
	if err != nil {
		log.Fatalf("save: %v", err)
	}
	for _, w := range warnings {
		log.Printf("save warning: %s", w.String())
	}

	if err := os.WriteFile("demo.pdf", data, 0o644); err != nil {
		log.Fatalf("write demo.pdf: %v", err)
	}

	parsed, parseWarnings, err := pdfparse.Parse(data, pdfparse.Options{})
	if err != nil {
		log.Fatalf("parse: %v", err)
	}
	for _, w := range parseWarnings {
		log.Printf("parse warning: %s", w.String())
	}
	fmt.Printf("round-trip: %d pages saved, %d pages parsed\n", len(doc.Pages), len(parsed.Pages))

	if len(parsed.Pages) > 0 {
		svg, err := svgproj.PageToSVG(parsed.Pages[0], parsed.Resources, svgproj.Options{Scale: 2, XMLDecl: true})
		if err != nil {
			log.Fatalf("svg: %v", err)
		}
		if err := os.WriteFile("demo-page1.svg", []byte(svg), 0o644); err != nil {
			log.Fatalf("write demo-page1.svg: %v", err)
		}
	}
}
