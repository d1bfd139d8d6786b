// Package normalize turns raw comment nodes into deduplicated records.
package normalize

import (
	"strings"

	"commentharvest/internal/core/domain"
)

// key identifies a comment independently of the DOM node that rendered it,
// so recycled nodes during virtual scrolling do not produce duplicates.
type key struct {
	author    string
	text      string
	timestamp string
}

// Normalizer holds the dedup state of a single page.
type Normalizer struct {
	seen map[key]struct{}
	next int
}

// New returns a Normalizer with an empty seen-set.
func New() *Normalizer {
	return &Normalizer{seen: make(map[key]struct{})}
}

// Normalize converts raw comments and returns only those not seen before,
// in first-seen order. Positions continue from the previous call.
func (n *Normalizer) Normalize(raw []domain.RawComment) []domain.CommentRecord {
	var out []domain.CommentRecord
	for _, rc := range raw {
		k := key{
			author:    strings.TrimSpace(rc.Author),
			text:      strings.TrimSpace(rc.Text),
			timestamp: strings.TrimSpace(rc.Timestamp),
		}
		// Placeholder nodes render before their content arrives.
		if k.author == "" && k.text == "" && k.timestamp == "" {
			continue
		}
		if _, dup := n.seen[k]; dup {
			continue
		}
		n.seen[k] = struct{}{}
		n.next++

		out = append(out, domain.CommentRecord{
			Text:       k.text,
			Author:     k.author,
			Upvotes:    ParseCount(rc.Votes),
			Replies:    ParseReplies(rc.Replies),
			Timestamp:  k.timestamp,
			Pinned:     rc.Pinned,
			Hearted:    rc.Hearted,
			HasDislike: rc.HasDislike,
			Position:   n.next,
		})
	}
	return out
}

// Len is the number of distinct comments seen so far.
func (n *Normalizer) Len() int {
	return len(n.seen)
}
