// Package dedupe implements the single deduplication rule shared by every
// searcher: keep the first occurrence of each distinct Hit.Text.
package dedupe

import "deepsearcher/internal/vectorstore"

// Hits deduplicates an ordered sequence of Hit by exact Text equality,
// preserving the order of first occurrence. It is idempotent:
// Hits(Hits(h)) == Hits(h).
func Hits(hits []vectorstore.Hit) []vectorstore.Hit {
	if len(hits) == 0 {
		return hits
	}
	seen := make(map[string]struct{}, len(hits))
	out := make([]vectorstore.Hit, 0, len(hits))
	for _, h := range hits {
		if _, ok := seen[h.Text]; ok {
			continue
		}
		seen[h.Text] = struct{}{}
		out = append(out, h)
	}
	return out
}
