package store

import "testing"

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		a, b string
		same bool
	}{
		{"https://x.com/p/1", "https://x.com/p/1?ref=abc", true},
		{"https://x.com/p/1", "https://x.com/p/1/", true},
		{"https://x.com/p/1", "HTTPS://X.COM/p/1", true},
		{"https://x.com/p/1", "https://x.com/p/1#reviews", true},
		{"https://x.com/p/1", "https://x.com/p/2", false},
		{"https://x.com/p/1", "https://y.com/p/1", false},
	}
	for _, tc := range cases {
		got := NormalizeURL(tc.a) == NormalizeURL(tc.b)
		if got != tc.same {
			t.Errorf("NormalizeURL(%q) vs (%q): same=%v, want %v", tc.a, tc.b, got, tc.same)
		}
	}
}

func TestNormalizeURL_UnparseableInput(t *testing.T) {
	// Garbage still normalizes deterministically rather than erroring.
	if NormalizeURL("not a url at all ") == "" {
		t.Error("expected non-empty normalization of garbage input")
	}
	if NormalizeURL("not a url") != NormalizeURL("NOT A URL") {
		t.Error("fallback normalization should be case-insensitive")
	}
}

func TestGenerateRoomCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := GenerateRoomCode()
		if len(code) != 6 {
			t.Fatalf("expected 6-char code, got %q", code)
		}
		for _, r := range code {
			found := false
			for _, a := range "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" {
				if r == a {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
		seen[code] = true
	}
	// 100 draws from a 32^6 space colliding down to a handful would mean the
	// generator is broken.
	if len(seen) < 90 {
		t.Errorf("expected mostly distinct codes, got %d unique of 100", len(seen))
	}
}
