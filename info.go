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

package pdf

import "time"

// Info represents a PDF Document Information Dictionary (§14.3.3 of
// ISO 32000-2:2020). All fields are optional; the zero value is an
// empty information dictionary.
type Info struct {
	Title    string
	Author   string
	Subject  string
	Keywords string

	// Creator names the application that produced the document's
	// original (pre-PDF) form, if any.
	Creator string

	// Producer names the library that generated the PDF bytes.
	Producer string

	CreationDate time.Time
	ModDate      time.Time

	// Custom holds non-standard Info dictionary entries.
	Custom map[string]string
}

// Dict renders the information dictionary, or nil if every field is
// empty (callers should then omit /Info from the trailer).
func (info *Info) Dict() Dict {
	if info == nil {
		return nil
	}
	d := Dict{}
	if info.Title != "" {
		d["Title"] = TextString(info.Title)
	}
	if info.Author != "" {
		d["Author"] = TextString(info.Author)
	}
	if info.Subject != "" {
		d["Subject"] = TextString(info.Subject)
	}
	if info.Keywords != "" {
		d["Keywords"] = TextString(info.Keywords)
	}
	if info.Creator != "" {
		d["Creator"] = TextString(info.Creator)
	}
	if info.Producer != "" {
		d["Producer"] = TextString(info.Producer)
	}
	if !info.CreationDate.IsZero() {
		d["CreationDate"] = Date(info.CreationDate)
	}
	if !info.ModDate.IsZero() {
		d["ModDate"] = Date(info.ModDate)
	}
	for key, val := range info.Custom {
		d[Name(key)] = TextString(val)
	}
	if len(d) == 0 {
		return nil
	}
	return d
}
