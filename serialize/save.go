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

// Package serialize is the public entry point of the writing side:
// Save turns an assembled document.Document into a PDF/X byte stream
// by driving package objgraph over a freshly opened pdf.Writer.
package serialize

import (
	"bytes"
	"crypto/md5"
	"crypto/rand"
	"fmt"

	"github.com/pdfxkit/pdfx"
	"github.com/pdfxkit/pdfx/document"
	"github.com/pdfxkit/pdfx/objgraph"
)

// Conformance selects the auxiliary content a save must produce.
type Conformance int

const (
	// PDFX3 is the default: an embedded ICC output-intent profile and
	// an XMP metadata stream, per PDF/X-3:2002.
	PDFX3 Conformance = iota
	// NoIcc drops the OutputIntents entry and the ICC profile stream
	// but keeps XMP metadata.
	NoIcc
	// Custom sets ICC and XMP requirements independently.
	Custom
)

// ImageOptimization selects how image samples are re-encoded on save.
type ImageOptimization int

const (
	// ImageOptimizationNone applies no re-encoding beyond the FlateDecode
	// filter chosen automatically for every stream.
	ImageOptimizationNone ImageOptimization = iota
	// ImageOptimizationAuto would choose DCT for natural images and
	// Flate for synthetic ones; no DCT encoder is wired in yet, so this
	// currently behaves like ImageOptimizationNone with a warning.
	ImageOptimizationAuto
)

// Options controls how Save renders a document.Document to bytes.
type Options struct {
	// Optimize applies FlateDecode to streams that shrink under it and
	// drops fonts that no page ever draws. Default true.
	Optimize bool

	// SubsetFonts runs the glyph-usage-driven subsetter; false embeds
	// each external font in full. Default true.
	SubsetFonts bool

	// Secure drops Unknown content-stream operators (with a warning)
	// instead of writing them out, and keeps unbalanced save/restore
	// from being fatal even when Strict is set. Default true.
	Secure bool

	// Strict makes unbalanced text sections terminal errors, and
	// unbalanced save/restore too unless Secure is set; otherwise both
	// are balanced with forced operators. Default false.
	Strict bool

	Conformance Conformance

	// RequireICC and RequireXMP apply only when Conformance == Custom;
	// PDFX3 forces both true, NoIcc forces RequireICC false.
	RequireICC bool
	RequireXMP bool

	// ICCProfile is the output-intent profile to embed. Required
	// whenever ICC output is requested; Save fails without one rather
	// than fabricating profile bytes.
	ICCProfile      []byte
	OutputCondition string

	ImageOptimization ImageOptimization

	// ExternalRefs resolves document.AddExternalXObject handles to the
	// indirect references they name (e.g. objects written by an
	// earlier Save the caller is splicing this document into).
	ExternalRefs map[string]pdf.Reference

	// PinnedSecondID, when non-nil, is used verbatim as the second
	// element of the document /ID array instead of a fresh random
	// value, letting a caller reproduce byte-identical output across
	// two calls to Save on an unchanged Document (test invariant 6).
	PinnedSecondID []byte
}

// DefaultOptions returns the PDF/X-3:2002 default save configuration.
func DefaultOptions() Options {
	return Options{
		Optimize:    true,
		SubsetFonts: true,
		Secure:      true,
		Conformance: PDFX3,
	}
}

// Save renders doc to a complete PDF byte stream and returns any
// non-fatal warnings collected along the way. It treats doc as
// read-only: nothing about doc is mutated by a call to Save.
func Save(doc *document.Document, opts Options) ([]byte, []pdf.Warning, error) {
	requireICC, requireXMP := opts.RequireICC, opts.RequireXMP
	switch opts.Conformance {
	case PDFX3:
		requireICC, requireXMP = true, true
	case NoIcc:
		requireICC, requireXMP = false, true
	case Custom:
		// use opts.RequireICC / opts.RequireXMP as given
	}
	if requireICC && len(opts.ICCProfile) == 0 {
		return nil, nil, fmt.Errorf("serialize: conformance requires an ICC output-intent profile, none supplied")
	}

	var buf bytes.Buffer
	w, err := pdf.NewWriter(&buf, pdf.V1_7)
	if err != nil {
		return nil, nil, err
	}

	id, err := documentID(doc, opts)
	if err != nil {
		return nil, nil, err
	}

	graphOpts := objgraph.Options{
		SubsetFonts:     opts.SubsetFonts,
		Optimize:        opts.Optimize,
		Secure:          opts.Secure,
		Strict:          opts.Strict,
		RequireICC:      requireICC,
		RequireXMP:      requireXMP,
		ICCProfile:      opts.ICCProfile,
		OutputCondition: opts.OutputCondition,
		ExternalRefs:    opts.ExternalRefs,
	}

	warnings, err := objgraph.Build(w, doc, graphOpts, id)
	if err != nil {
		return nil, warnings, err
	}

	if opts.ImageOptimization == ImageOptimizationAuto {
		warnings = append(warnings, pdf.Warning{
			Location: pdf.Location{Page: -1, Op: -1},
			Kind:     pdf.WarnImageToneMapped,
			Message:  "automatic DCT/Flate image optimization is not implemented; images were Flate-encoded",
		})
	}

	return buf.Bytes(), warnings, nil
}

// documentID derives the two-element document /ID array (§4.7,
// §5 "deterministic output"). The first element is a hash of the
// document's stable identity (metadata plus page count), so two saves
// of an unmodified Document agree on it without the caller having to
// track a separate identifier. The second element is fresh random
// bytes on every save, unless the caller pins it for reproducible
// test output.
func documentID(doc *document.Document, opts Options) ([2]pdf.String, error) {
	var zero [2]pdf.String

	h := md5.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%s\x00%d",
		doc.Info.Title, doc.Info.Author, doc.Info.Subject,
		doc.Info.Creator, doc.Info.Producer, len(doc.Pages))
	first := h.Sum(nil)

	var second []byte
	if opts.PinnedSecondID != nil {
		second = opts.PinnedSecondID
	} else {
		second = make([]byte, 16)
		if _, err := rand.Read(second); err != nil {
			return zero, err
		}
	}

	return [2]pdf.String{pdf.String(first), pdf.String(second)}, nil
}
