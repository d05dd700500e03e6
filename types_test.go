package pdf

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func render(t *testing.T, obj Object) string {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := obj.PDF(buf); err != nil {
		t.Fatalf("PDF() failed: %v", err)
	}
	return buf.String()
}

func TestIntegerReal(t *testing.T) {
	cases := []struct {
		obj  Object
		want string
	}{
		{Integer(42), "42"},
		{Integer(-7), "-7"},
		{Real(1.5), "1.5"},
		{Real(2), "2."},
	}
	for _, c := range cases {
		if got := render(t, c.obj); got != c.want {
			t.Errorf("%#v: got %q, want %q", c.obj, got, c.want)
		}
	}
}

func TestNameEscaping(t *testing.T) {
	cases := []struct {
		name Name
		want string
	}{
		{"F1", "/F1"},
		{"A#B", "/A#23B"},
		{"Name With Spaces", "/Name#20With#20Spaces"},
	}
	for _, c := range cases {
		if got := render(t, c.name); got != c.want {
			t.Errorf("%q: got %q, want %q", c.name, got, c.want)
		}
	}
}

func TestStringEscaping(t *testing.T) {
	got := render(t, String("(a)\\b"))
	want := `((a)\\b)`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHexString(t *testing.T) {
	got := render(t, HexString([]byte{0x00, 0x48}))
	if got != "<0048>" {
		t.Errorf("got %q", got)
	}
}

func TestDictSortedKeys(t *testing.T) {
	d := Dict{"B": Integer(2), "A": Integer(1), "C": nil}
	got := render(t, d)
	want := "<<\n/A 1\n/B 2\n>>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestArray(t *testing.T) {
	a := Array{Integer(1), nil, Name("X")}
	got := render(t, a)
	want := "[1 null /X]"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReference(t *testing.T) {
	ref := NewReference(12, 0)
	if diff := cmp.Diff(uint32(12), ref.Number()); diff != "" {
		t.Errorf("Number() mismatch (-want +got):\n%s", diff)
	}
	got := render(t, ref)
	if got != "12 0 R" {
		t.Errorf("got %q", got)
	}
}

func TestParseVersion(t *testing.T) {
	t1, err := ParseVersion("1.7")
	if err != nil || t1 != V1_7 {
		t.Fatalf("ParseVersion failed: %v %v", t1, err)
	}
}
