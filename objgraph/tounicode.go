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
	"sort"
	"text/template"
	"unicode/utf16"

	"github.com/pdfxkit/pdfx"
	"seehuhn.de/go/sfnt/glyph"
)

// toUnicodeChunkSize caps the number of bfchar entries per operator, the
// same batching a CMap interpreter expects to keep any single "begin..end"
// block from growing unbounded.
const toUnicodeChunkSize = 100

type toUnicodeEntry struct {
	CID  glyph.ID
	Text string
}

// writeToUnicode emits a ToUnicode CMap stream mapping each 2-byte CID
// (the subset's Identity-H code) to its best-effort Unicode text, built
// from the per-glyph rune resolved by the usage collector.
func writeToUnicode(w *pdf.Writer, ref pdf.Reference, m map[glyph.ID]rune, optimize bool) error {
	entries := make([]toUnicodeEntry, 0, len(m))
	for cid, r := range m {
		entries = append(entries, toUnicodeEntry{CID: cid, Text: string(r)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CID < entries[j].CID })

	tmpl := template.Must(template.New("ToUnicode").Funcs(template.FuncMap{
		"Chunks": chunkEntries,
		"Code":   formatCID,
		"Text":   formatUTF16Hex,
	}).Parse(toUnicodeTmpl))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, entries); err != nil {
		return err
	}

	body := buf.Bytes()
	dict := pdf.Dict{"Type": pdf.Name("CMap")}
	return writeStream(w, ref, dict, body, optimize)
}

func chunkEntries(x []toUnicodeEntry) [][]toUnicodeEntry {
	var res [][]toUnicodeEntry
	for len(x) >= toUnicodeChunkSize {
		res = append(res, x[:toUnicodeChunkSize])
		x = x[toUnicodeChunkSize:]
	}
	if len(x) > 0 {
		res = append(res, x)
	}
	return res
}

func formatCID(cid glyph.ID) string {
	return fmt.Sprintf("<%04x>", uint16(cid))
}

func formatUTF16Hex(s string) string {
	var out []byte
	for _, u := range utf16.Encode([]rune(s)) {
		out = append(out, byte(u>>8), byte(u))
	}
	return fmt.Sprintf("<%02X>", out)
}

var toUnicodeTmpl = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CMapType 2 def
/CMapName /Adobe-Identity-UCS def
/CIDSystemInfo <<
/Registry (Adobe)
/Ordering (UCS)
/Supplement 0
>> def
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
{{range Chunks .}}{{len .}} beginbfchar
{{range . -}}
{{Code .CID}} {{Text .Text}}
{{end -}}
endbfchar
{{end -}}
endcmap
CMapName currentdict /CMap defineresource pop
end
end
`
