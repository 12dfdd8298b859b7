package version

import "testing"

func TestCompare_PadsShorterSequence(t *testing.T) {
	if !Newer("1.10", "1.9") {
		t.Fatalf("expected 1.10 newer than 1.9")
	}
	if !Newer("2", "1.9") {
		t.Fatalf("expected 2 newer than 1.9")
	}
	if !Equal("1.0", "1.0") {
		t.Fatalf("expected 1.0 == 1.0")
	}
	if !Equal("1", "1.0") {
		t.Fatalf("expected 1 == 1.0 via zero padding")
	}
	if Newer("1.9", "1.10") {
		t.Fatalf("expected 1.9 not newer than 1.10")
	}
}

func TestNewer_MalformedResolvesToNotNewer(t *testing.T) {
	if Newer("1.x", "1.0") {
		t.Fatalf("malformed left side must not compare newer")
	}
	if Newer("2.0", "abc") {
		t.Fatalf("malformed right side must not compare newer")
	}
	if _, ok := Compare("", "1.0"); ok {
		t.Fatalf("empty version must not be comparable")
	}
}

func TestMinorBump(t *testing.T) {
	cases := map[string]string{
		"1.0":   "1.1",
		"1.2":   "1.3",
		"2":     "2.1",
		"1.2.3": "1.2.4",
		"bogus": "bogus.1",
	}
	for in, want := range cases {
		if got := MinorBump(in); got != want {
			t.Fatalf("MinorBump(%q) = %q, want %q", in, got, want)
		}
	}
}
