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
	"bytes"
	"sync"

	"github.com/pdfxkit/pdfx"
	"github.com/pdfxkit/pdfx/ops"
	"seehuhn.de/go/sfnt"
)

// Font is a document-scoped font resource. It owns the original font
// program bytes; the parsed
// table directory is built lazily and cached, since most callers only
// need it during Save.
type Font struct {
	// Name is used only for diagnostics (error and warning messages);
	// it plays no role in the emitted PDF names, which are allocated
	// per page by the content-stream lowerer.
	Name string

	// Data holds the original OpenType/TrueType font program as
	// supplied by the caller. It is never mutated; subsetting
	// always produces a new byte slice.
	Data []byte

	once   sync.Once
	parsed *sfnt.Font
	perr   error
}

// Parsed returns the font's parsed table directory, parsing Data on
// first use and caching the result.
func (f *Font) Parsed() (*sfnt.Font, error) {
	f.once.Do(func() {
		f.parsed, f.perr = sfnt.Read(bytes.NewReader(f.Data))
	})
	return f.parsed, f.perr
}

// XObjectKind distinguishes the three XObject flavors named in
type XObjectKind int

const (
	// XObjectImage is a decoded raster image.
	XObjectImage XObjectKind = iota
	// XObjectForm is a reusable form content stream.
	XObjectForm
	// XObjectExternalRef is a reference to an object the caller
	// already holds an indirect reference for (e.g. produced by an
	// earlier save and reused across documents).
	XObjectExternalRef
)

// PixelFormat tags the in-memory layout of an Image's pixel buffer
//.
type PixelFormat int

const (
	PixelR8 PixelFormat = iota
	PixelRGB8
	PixelRGBA8
	PixelBGR8
	PixelR16
	PixelRGB16
	PixelFloat32 // gray or RGB, tone-mapped to 8 bit on save with a warning
)

// Image is the decoded-pixel-buffer XObject variant. The raster
// decoder that produces Pixels is explicitly out of scope; this
// type is the boundary the decoder hands its output across.
type Image struct {
	Width, Height int
	Format        PixelFormat
	Pixels        []byte // tightly packed, format-dependent, no padding
}

// Form is the reusable-content-stream XObject variant: a self
// contained operation list with its own bounding box, lowered the same
// way a page's content stream is but wrapped as a Form XObject
// rather than a page.
type Form struct {
	BBox pdf.Rectangle
	Ops  []ops.Operation
}

// XObject is one of {Image, Form, external reference}
// Exactly one of Image, Form is non-nil, or Kind ==
// XObjectExternalRef and ExternalRef names an object the caller
// already owns.
type XObject struct {
	Kind XObjectKind

	Image *Image
	Form  *Form

	// ExternalRef, when Kind == XObjectExternalRef, is an opaque
	// caller-supplied handle resolved by the object-graph builder
	// against a table of previously emitted indirect references. The
	// core does not interpret it further.
	ExternalRef string
}

// ExtendedGraphicsState is an immutable bundle of advanced graphics
// parameters, referenced from content streams via
// LoadGraphicsState and emitted once per document as an ExtGState
// dict.
type ExtendedGraphicsState struct {
	// LineWidth, LineCap, LineJoin, MiterLimit mirror the
	// corresponding content-stream operators but, when set here, take
	// effect as part of the named state rather than as an explicit
	// operator.
	LineWidth  *float64
	LineCap    *int
	LineJoin   *int
	MiterLimit *float64

	// StrokeAlpha and FillAlpha set /CA and /ca.
	StrokeAlpha *float64
	FillAlpha   *float64

	// BlendMode sets /BM (e.g. "Normal", "Multiply").
	BlendMode string

	// SoftMask, when non-empty, names an XObjectId used as the
	// state's soft mask group. An empty string leaves /SMask unset, so
	// any inherited mask stays in effect.
	SoftMask XObjectId
}

// Layer is an optional-content group definition: the OCG's name,
// its default visibility intent, and usage hints.
type Layer struct {
	Name string

	// Intent is one of "View" or "Design" (PDF /Intent); empty
	// defaults to "View".
	Intent string

	// DefaultOn controls the OCG's initial state in OCProperties'
	// /D /ON or /OFF array.
	DefaultOn bool
}

// Resources is the document-scoped resource table. Every id
// referenced by an operation in any page must be present here by the
// time Save runs, or serialization fails with UnknownResourceError.
type Resources struct {
	Fonts      map[FontId]*Font
	XObjects   map[XObjectId]*XObject
	ExtGStates map[GStateId]*ExtendedGraphicsState
	Layers     map[LayerId]*Layer
}

func newResources() *Resources {
	return &Resources{
		Fonts:      make(map[FontId]*Font),
		XObjects:   make(map[XObjectId]*XObject),
		ExtGStates: make(map[GStateId]*ExtendedGraphicsState),
		Layers:     make(map[LayerId]*Layer),
	}
}
