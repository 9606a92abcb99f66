package qpack

import "testing"

func TestStaticTableSize(t *testing.T) {
	if got := StaticTableSize(); got != 61 {
		t.Fatalf("StaticTableSize() = %d, want 61", got)
	}
}

func TestFindStaticExactMatches(t *testing.T) {
	cases := []struct {
		name, value string
		wantIndex   int
	}{
		{":authority", "", 0},
		{":method", "GET", 1},
		{":method", "POST", 2},
		{":path", "/", 3},
		{":path", "/index.html", 4},
		{":scheme", "http", 5},
		{":scheme", "https", 6},
		{":status", "200", 7},
		{":status", "204", 8},
		{":status", "404", 12},
		{"accept-encoding", "gzip, deflate", 15},
		{"www-authenticate", "", 60},
	}
	for _, c := range cases {
		idx, valueMatched, found := FindStatic(c.name, c.value)
		if !found || !valueMatched || idx != c.wantIndex {
			t.Errorf("FindStatic(%q, %q) = (%d, %v, %v), want (%d, true, true)",
				c.name, c.value, idx, valueMatched, found, c.wantIndex)
		}
	}
}

func TestFindStaticNameOnlyMatch(t *testing.T) {
	idx, valueMatched, found := FindStatic(":method", "PATCH")
	if !found || valueMatched {
		t.Fatalf("FindStatic(:method, PATCH) = (%d, %v, %v), want (_, false, true)", idx, valueMatched, found)
	}
	if e, ok := GetStatic(idx); !ok || e.Name != ":method" {
		t.Fatalf("matched index %d isn't :method: %+v", idx, e)
	}
}

func TestFindStaticNoMatch(t *testing.T) {
	_, _, found := FindStatic("x-not-a-real-header", "whatever")
	if found {
		t.Fatalf("expected no match")
	}
}

func TestGetStaticBounds(t *testing.T) {
	if _, ok := GetStatic(-1); ok {
		t.Fatalf("GetStatic(-1) should fail")
	}
	if _, ok := GetStatic(61); ok {
		t.Fatalf("GetStatic(61) should fail")
	}
	if _, ok := GetStatic(60); !ok {
		t.Fatalf("GetStatic(60) should succeed")
	}
}
