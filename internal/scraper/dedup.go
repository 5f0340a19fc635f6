package scraper

import "github.com/ibeckermayer/xextract/internal/types"

// FingerprintLength is how many leading characters of a post's text identify it.
//
// Distinct long posts that share an opening are treated as duplicates; this
// is a known approximation kept for parity with existing exports.
const FingerprintLength = 100

// Fingerprint returns the dedup key for a post: the first FingerprintLength
// characters (runes) of its text.
func Fingerprint(p types.Post) string {
	r := []rune(p.Text)
	if len(r) > FingerprintLength {
		r = r[:FingerprintLength]
	}
	return string(r)
}

// DedupIndex remembers fingerprints for the lifetime of one session.
type DedupIndex struct {
	seen map[string]struct{}
}

func NewDedupIndex() *DedupIndex {
	return &DedupIndex{seen: make(map[string]struct{})}
}

// ShouldKeep reports whether p is the first post with its fingerprint and,
// if so, records it.
func (d *DedupIndex) ShouldKeep(p types.Post) bool {
	fp := Fingerprint(p)
	if _, ok := d.seen[fp]; ok {
		return false
	}
	d.seen[fp] = struct{}{}
	return true
}

// Len returns the number of distinct fingerprints seen.
func (d *DedupIndex) Len() int { return len(d.seen) }
