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
	"bytes"
	"fmt"

	"github.com/pdfxkit/pdfx"
	"golang.org/x/text/language"
	"seehuhn.de/go/icc"
	"seehuhn.de/go/xmp"
)

// pdfXMPNamespace mirrors the Adobe pdf/1.3 XMP namespace so a PDF/X-3
// consumer finds /Keywords and /Producer under the same schema a
// PDF-producing application would populate.
type pdfXMPNamespace struct {
	_        xmp.Namespace `xmp:"http://ns.adobe.com/pdf/1.3/"`
	_        xmp.Prefix    `xmp:"pdf"`
	Keywords xmp.Text
	Producer xmp.AgentName
}

// buildOutputIntent decodes profile to determine its component count and
// writes both the ICC profile stream and the /OutputIntents entry the
// PDF/X-3 catalog requires, returning the OutputIntents array.
func buildOutputIntent(w *pdf.Writer, profile []byte, outputCondition string, optimize bool) (pdf.Array, error) {
	if len(profile) == 0 {
		return nil, nil
	}

	p, err := icc.Decode(profile)
	if err != nil {
		return nil, fmt.Errorf("objgraph: invalid ICC profile: %w", err)
	}

	var n int
	switch p.ColorSpace {
	case icc.GraySpace:
		n = 1
	case icc.RGBSpace:
		n = 3
	case icc.CMYKSpace:
		n = 4
	default:
		return nil, fmt.Errorf("objgraph: unsupported output-intent color space %v", p.ColorSpace)
	}

	iccRef := w.Alloc()
	iccDict := pdf.Dict{"N": pdf.Integer(n)}
	if err := writeStream(w, iccRef, iccDict, profile, optimize); err != nil {
		return nil, err
	}

	if outputCondition == "" {
		outputCondition = "sRGB IEC61966-2.1"
	}
	intent := pdf.Dict{
		"Type":                pdf.Name("OutputIntent"),
		"S":                   pdf.Name("GTS_PDFX"),
		"OutputConditionIdentifier": pdf.TextString(outputCondition),
		"Info":                pdf.TextString(outputCondition),
		"DestOutputProfile":   iccRef,
	}
	return pdf.Array{intent}, nil
}

// buildXMPMetadata renders an XMP packet from info and lang and writes
// it as the document's XMP metadata stream, returning its reference.
func buildXMPMetadata(w *pdf.Writer, info *pdf.Info, lang language.Tag, optimize bool) (pdf.Reference, error) {
	dc := &xmp.DublinCore{}
	if info.Title != "" {
		dc.Title.Set(xmpLang(lang), info.Title)
	}
	if info.Author != "" {
		dc.Creator.Append(xmp.NewProperName(info.Author))
	}
	if info.Subject != "" {
		dc.Description.Set(xmpLang(lang), info.Subject)
	}

	basic := &xmp.Basic{}
	if !info.CreationDate.IsZero() {
		basic.CreateDate = xmp.NewDate(info.CreationDate)
	}
	if !info.ModDate.IsZero() {
		basic.ModifyDate = xmp.NewDate(info.ModDate)
	}
	if info.Creator != "" {
		basic.CreatorTool = xmp.NewAgentName(info.Creator)
	}

	pdfNS := &pdfXMPNamespace{}
	if info.Keywords != "" {
		pdfNS.Keywords = xmp.NewText(info.Keywords)
	}
	if info.Producer != "" {
		pdfNS.Producer = xmp.NewAgentName(info.Producer)
	}

	packet := xmp.NewPacket()
	packet.Set(dc, basic, pdfNS)

	var buf bytes.Buffer
	if err := packet.Write(&buf, nil); err != nil {
		return 0, err
	}

	ref := w.Alloc()
	dict := pdf.Dict{"Type": pdf.Name("Metadata"), "Subtype": pdf.Name("XML")}
	if err := writeStream(w, ref, dict, buf.Bytes(), optimize); err != nil {
		return 0, err
	}
	return ref, nil
}

func xmpLang(lang language.Tag) language.Tag {
	if lang == language.Und {
		return language.MustParse("x-default")
	}
	return lang
}
