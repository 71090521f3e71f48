package headers

import (
	"net/http"
	"strings"
)

// ParseHeaders converts an array of header strings ("Key: Value") into a map
// keyed by canonical header name. Entries without a colon or with an empty
// key are skipped.
func ParseHeaders(h []string) map[string]string {
	m := make(map[string]string)
	for _, hdr := range h {
		parts := strings.SplitN(hdr, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		m[http.CanonicalHeaderKey(key)] = strings.TrimSpace(parts[1])
	}
	return m
}

// Merge returns base overlaid with override. Neither input is modified.
func Merge(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[http.CanonicalHeaderKey(k)] = v
	}
	for k, v := range override {
		out[http.CanonicalHeaderKey(k)] = v
	}
	return out
}
