package ids

import "testing"

func TestNewIsSortableAndValid(t *testing.T) {
	a := New()
	b := New()
	if a == b {
		t.Fatalf("expected distinct ids, got %s twice", a)
	}
	if a > b {
		t.Fatalf("expected monotonic ids: %s > %s", a, b)
	}
	if !Valid(a) {
		t.Fatalf("expected %s to be valid", a)
	}
	if Valid("team-1") {
		t.Fatalf("unexpected valid id")
	}
}
