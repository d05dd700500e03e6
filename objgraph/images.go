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
	"fmt"
	"math"

	"github.com/pdfxkit/pdfx"
	"github.com/pdfxkit/pdfx/document"
)

// buildImage writes a raster image XObject for img, allocating a
// separate SMask XObject first when the pixel format carries alpha.
// It returns the image's own reference.
func buildImage(w *pdf.Writer, id document.XObjectId, img *document.Image, optimize bool) (pdf.Reference, []pdf.Warning, error) {
	if img.Width <= 0 || img.Height <= 0 {
		return 0, nil, &pdf.ImageDecodeError{ImageID: string(id), Err: fmt.Errorf("invalid dimensions %dx%d", img.Width, img.Height)}
	}

	var warnings []pdf.Warning
	var smaskRef pdf.Reference
	var colorSpace pdf.Name
	var bpc int
	var samples []byte

	n := img.Width * img.Height

	switch img.Format {
	case document.PixelR8:
		colorSpace, bpc = "DeviceGray", 8
		if len(img.Pixels) != n {
			return 0, warnings, badImageSize(id, len(img.Pixels), n)
		}
		samples = img.Pixels

	case document.PixelRGB8:
		colorSpace, bpc = "DeviceRGB", 8
		if len(img.Pixels) != n*3 {
			return 0, warnings, badImageSize(id, len(img.Pixels), n*3)
		}
		samples = img.Pixels

	case document.PixelBGR8:
		colorSpace, bpc = "DeviceRGB", 8
		if len(img.Pixels) != n*3 {
			return 0, warnings, badImageSize(id, len(img.Pixels), n*3)
		}
		samples = make([]byte, n*3)
		for i := 0; i < n; i++ {
			samples[3*i], samples[3*i+1], samples[3*i+2] =
				img.Pixels[3*i+2], img.Pixels[3*i+1], img.Pixels[3*i]
		}

	case document.PixelRGBA8:
		colorSpace, bpc = "DeviceRGB", 8
		if len(img.Pixels) != n*4 {
			return 0, warnings, badImageSize(id, len(img.Pixels), n*4)
		}
		samples = make([]byte, n*3)
		alpha := make([]byte, n)
		for i := 0; i < n; i++ {
			samples[3*i] = img.Pixels[4*i]
			samples[3*i+1] = img.Pixels[4*i+1]
			samples[3*i+2] = img.Pixels[4*i+2]
			alpha[i] = img.Pixels[4*i+3]
		}
		ref := w.Alloc()
		smDict := pdf.Dict{
			"Type": pdf.Name("XObject"), "Subtype": pdf.Name("Image"),
			"Width": pdf.Integer(img.Width), "Height": pdf.Integer(img.Height),
			"ColorSpace": pdf.Name("DeviceGray"), "BitsPerComponent": pdf.Integer(8),
		}
		if err := writeStream(w, ref, smDict, alpha, optimize); err != nil {
			return 0, warnings, err
		}
		smaskRef = ref

	case document.PixelR16:
		colorSpace, bpc = "DeviceGray", 16
		if len(img.Pixels) != n*2 {
			return 0, warnings, badImageSize(id, len(img.Pixels), n*2)
		}
		samples = img.Pixels

	case document.PixelRGB16:
		colorSpace, bpc = "DeviceRGB", 16
		if len(img.Pixels) != n*6 {
			return 0, warnings, badImageSize(id, len(img.Pixels), n*6)
		}
		samples = img.Pixels

	case document.PixelFloat32:
		var channels int
		switch len(img.Pixels) {
		case n * 4:
			channels = 1
		case n * 12:
			channels = 3
		default:
			return 0, warnings, badImageSize(id, len(img.Pixels), n*4)
		}
		if channels == 1 {
			colorSpace = "DeviceGray"
		} else {
			colorSpace = "DeviceRGB"
		}
		bpc = 8
		samples = toneMapFloat32(img.Pixels, n*channels)
		warnings = append(warnings, pdf.Warning{
			Location: pdf.Location{Page: -1, Op: -1},
			Kind:     pdf.WarnImageToneMapped,
			Message:  fmt.Sprintf("image %q: float32 samples tone-mapped to 8 bit", id),
		})

	default:
		return 0, warnings, &pdf.ImageDecodeError{ImageID: string(id), Err: fmt.Errorf("unsupported pixel format %v", img.Format)}
	}

	dict := pdf.Dict{
		"Type":             pdf.Name("XObject"),
		"Subtype":          pdf.Name("Image"),
		"Width":            pdf.Integer(img.Width),
		"Height":           pdf.Integer(img.Height),
		"ColorSpace":       colorSpace,
		"BitsPerComponent": pdf.Integer(bpc),
	}
	if smaskRef != 0 {
		dict["SMask"] = smaskRef
	}

	ref := w.Alloc()
	if err := writeStream(w, ref, dict, samples, optimize); err != nil {
		return 0, warnings, err
	}
	return ref, warnings, nil
}

func badImageSize(id document.XObjectId, got, want int) error {
	return &pdf.ImageDecodeError{ImageID: string(id), Err: fmt.Errorf("pixel buffer has %d bytes, expected %d", got, want)}
}

// toneMapFloat32 clamps each little-endian float32 sample in raw to
// [0,1] and rescales it to an 8-bit integer, the simplest tone curve
// that keeps out-of-gamut HDR source data from wrapping around.
func toneMapFloat32(raw []byte, count int) []byte {
	out := make([]byte, count)
	for i := 0; i < count; i++ {
		bits := uint32(raw[4*i]) | uint32(raw[4*i+1])<<8 | uint32(raw[4*i+2])<<16 | uint32(raw[4*i+3])<<24
		v := math.Float32frombits(bits)
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		out[i] = byte(math.Round(float64(v) * 255))
	}
	return out
}
