package qpack

// StaticTable: the 61-entry table shared by encoder and decoder
// (spec.md §3). This is the table original_source/src/lsqpack.c calls
// `static_table[QPACK_STATIC_TABLE_SIZE]` — the HPACK static table
// (RFC 7541 Appendix A), not RFC 9204's own 99-entry QPACK static table.
// spec.md is explicit that this port tracks lsqpack's table, so indices
// here match lsqpack wire output rather than RFC 9204 §Appendix A.

// StaticEntry is one row of the static table.
type StaticEntry struct {
	Name  string
	Value string
}

// staticTable holds the 61 entries, 0-indexed; wire indices are
// 1-based (StaticTable[i] is wire index i+1), per lsqpack.c.
var staticTable = [61]StaticEntry{
	{":authority", ""},
	{":method", "GET"},
	{":method", "POST"},
	{":path", "/"},
	{":path", "/index.html"},
	{":scheme", "http"},
	{":scheme", "https"},
	{":status", "200"},
	{":status", "204"},
	{":status", "206"},
	{":status", "304"},
	{":status", "400"},
	{":status", "404"},
	{":status", "500"},
	{"accept-charset", ""},
	{"accept-encoding", "gzip, deflate"},
	{"accept-language", ""},
	{"accept-ranges", ""},
	{"accept", ""},
	{"access-control-allow-origin", ""},
	{"age", ""},
	{"allow", ""},
	{"authorization", ""},
	{"cache-control", ""},
	{"content-disposition", ""},
	{"content-encoding", ""},
	{"content-language", ""},
	{"content-length", ""},
	{"content-location", ""},
	{"content-range", ""},
	{"content-type", ""},
	{"cookie", ""},
	{"date", ""},
	{"etag", ""},
	{"expect", ""},
	{"expires", ""},
	{"from", ""},
	{"host", ""},
	{"if-match", ""},
	{"if-modified-since", ""},
	{"if-none-match", ""},
	{"if-range", ""},
	{"if-unmodified-since", ""},
	{"last-modified", ""},
	{"link", ""},
	{"location", ""},
	{"max-forwards", ""},
	{"proxy-authenticate", ""},
	{"proxy-authorization", ""},
	{"range", ""},
	{"referer", ""},
	{"refresh", ""},
	{"retry-after", ""},
	{"server", ""},
	{"set-cookie", ""},
	{"strict-transport-security", ""},
	{"transfer-encoding", ""},
	{"user-agent", ""},
	{"vary", ""},
	{"via", ""},
	{"www-authenticate", ""},
}

// StaticTableSize is the number of entries in the static table.
func StaticTableSize() int { return len(staticTable) }

// GetStatic returns the entry at the given 0-based index.
func GetStatic(index int) (StaticEntry, bool) {
	if index < 0 || index >= len(staticTable) {
		return StaticEntry{}, false
	}
	return staticTable[index], true
}

// FindStatic looks up (name, value) in the static table. It returns the
// 0-based index of a match, whether the value also matched (as opposed
// to name-only), and whether anything matched at all.
//
// Dispatch is hand-rolled on the length of value, then on name,
// mirroring original_source/src/lsqpack.c's
// lsqpack_enc_get_stx_tab_id: cheap values (the handful of :method,
// :scheme and :status values actually present in the static table) are
// checked first since they're the overwhelmingly common case, falling
// back to a name dispatch that switches on the header name's leading
// byte(s) and length to disambiguate same-prefix names (e.g.
// accept-encoding vs accept-language, content-length vs content-range).
func FindStatic(name, value string) (index int, valueMatched bool, found bool) {
	if idx, ok := findStaticByValue(name, value); ok {
		return idx, true, true
	}
	if idx, ok := findStaticByName(name); ok {
		return idx, staticTable[idx].Value == value, true
	}
	return 0, false, false
}

// findStaticByValue checks the small set of (name, value) pairs in the
// table that actually carry a value, keyed off value's length so a
// miss costs one branch instead of a full table scan.
func findStaticByValue(name, value string) (int, bool) {
	switch len(value) {
	case 0:
		return 0, false
	case 1:
		if value == "/" && name == ":path" {
			return 3, true
		}
	case 3:
		switch value {
		case "GET":
			if name == ":method" {
				return 1, true
			}
		case "200":
			if name == ":status" {
				return 7, true
			}
		case "400":
			if name == ":status" {
				return 11, true
			}
		case "404":
			if name == ":status" {
				return 12, true
			}
		case "500":
			if name == ":status" {
				return 13, true
			}
		}
	case 4:
		switch value {
		case "POST":
			if name == ":method" {
				return 2, true
			}
		case "http":
			if name == ":scheme" {
				return 5, true
			}
		}
	case 5:
		if value == "https" {
			if name == ":scheme" {
				return 6, true
			}
		}
	case 11:
		if value == "/index.html" {
			if name == ":path" {
				return 4, true
			}
		}
	case 13:
		if value == "gzip, deflate" {
			if name == "accept-encoding" {
				return 15, true
			}
		}
	}
	// 204/206/304 share len==3 with 200/400/404/500 but aren't worth
	// splitting out above; re-check them here against :status directly.
	if len(value) == 3 && name == ":status" {
		switch value {
		case "204":
			return 8, true
		case "206":
			return 9, true
		case "304":
			return 10, true
		}
	}
	return 0, false
}

// findStaticByName dispatches on name's first character(s) and length,
// confirming each candidate with a full comparison before accepting it.
func findStaticByName(name string) (int, bool) {
	if len(name) == 0 {
		return 0, false
	}
	if name[0] == ':' {
		switch name {
		case ":authority":
			return 0, true
		case ":method":
			return 1, true
		case ":path":
			return 3, true
		case ":scheme":
			return 5, true
		case ":status":
			return 7, true
		}
		return 0, false
	}

	switch name[0] {
	case 'a':
		switch name {
		case "accept-charset":
			return 14, true
		case "accept-encoding":
			return 15, true
		case "accept-language":
			return 16, true
		case "accept-ranges":
			return 17, true
		case "accept":
			return 18, true
		case "access-control-allow-origin":
			return 19, true
		case "age":
			return 20, true
		case "allow":
			return 21, true
		case "authorization":
			return 22, true
		}
	case 'c':
		switch name {
		case "cache-control":
			return 23, true
		case "content-disposition":
			return 24, true
		case "content-encoding":
			return 25, true
		case "content-language":
			return 26, true
		case "content-length":
			return 27, true
		case "content-location":
			return 28, true
		case "content-range":
			return 29, true
		case "content-type":
			return 30, true
		case "cookie":
			return 31, true
		}
	case 'd':
		if name == "date" {
			return 32, true
		}
	case 'e':
		switch name {
		case "etag":
			return 33, true
		case "expect":
			return 34, true
		case "expires":
			return 35, true
		}
	case 'f':
		if name == "from" {
			return 36, true
		}
	case 'h':
		if name == "host" {
			return 37, true
		}
	case 'i':
		switch name {
		case "if-match":
			return 38, true
		case "if-modified-since":
			return 39, true
		case "if-none-match":
			return 40, true
		case "if-range":
			return 41, true
		case "if-unmodified-since":
			return 42, true
		}
	case 'l':
		switch name {
		case "last-modified":
			return 43, true
		case "link":
			return 44, true
		case "location":
			return 45, true
		}
	case 'm':
		if name == "max-forwards" {
			return 46, true
		}
	case 'p':
		switch name {
		case "proxy-authenticate":
			return 47, true
		case "proxy-authorization":
			return 48, true
		}
	case 'r':
		switch name {
		case "range":
			return 49, true
		case "referer":
			return 50, true
		case "refresh":
			return 51, true
		case "retry-after":
			return 52, true
		}
	case 's':
		switch name {
		case "server":
			return 53, true
		case "set-cookie":
			return 54, true
		case "strict-transport-security":
			return 55, true
		}
	case 't':
		if name == "transfer-encoding" {
			return 56, true
		}
	case 'u':
		if name == "user-agent" {
			return 57, true
		}
	case 'v':
		switch name {
		case "vary":
			return 58, true
		case "via":
			return 59, true
		}
	case 'w':
		if name == "www-authenticate" {
			return 60, true
		}
	}
	return 0, false
}
