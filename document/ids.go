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

import "sync/atomic"

// FontId, XObjectId, GStateId and LayerId are opaque resource handles
//. They are generated deterministically from insertion order so
// that two runs over identical input produce identical ids, which in
// turn makes serialized output byte-for-byte reproducible (
// property 6, "Deterministic ids").
type (
	FontId    string
	XObjectId string
	GStateId  string
	LayerId   string
)

// idGenerator hands out ids of the form "<prefix><n>" from a
// per-document monotonic counter. The counter uses atomic increment
// rather than a mutex so that concurrent callers (e.g. a caller adding
// resources from several goroutines before Save) never race
// "that counter must tolerate concurrent access safely" — it does not
// need to be collision-free across processes or runs with different
// insertion order, only deterministic for a fixed insertion order.
type idGenerator struct {
	counter uint64
}

func (g *idGenerator) next(prefix string) string {
	n := atomic.AddUint64(&g.counter, 1)
	return prefix + itoa(n)
}

// itoa avoids pulling in strconv for this one call site's trivial
// unsigned-to-decimal conversion.
func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
