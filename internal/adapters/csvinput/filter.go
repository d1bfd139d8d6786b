package csvinput

import "commentharvest/internal/core/domain"

// Filter drops work items by declared engagement. Zero disables a bound.
type Filter struct {
	MinComments int64
	MinLikes    int64
	MinViews    int64
	MaxComments int64
	MaxLikes    int64
	MaxViews    int64
}

// Removal reports how many items one rule dropped.
type Removal struct {
	Rule      string
	Threshold int64
	Removed   int
}

type rule struct {
	name      string
	threshold int64
	value     func(domain.WorkItem) int64
	max       bool
}

func (f Filter) rules() []rule {
	comments := func(it domain.WorkItem) int64 { return DeclaredCount(it.Comments) }
	likes := func(it domain.WorkItem) int64 { return DeclaredCount(it.Likes) }
	views := func(it domain.WorkItem) int64 { return DeclaredCount(it.Views) }
	return []rule{
		{"min_comments", f.MinComments, comments, false},
		{"min_likes", f.MinLikes, likes, false},
		{"min_views", f.MinViews, views, false},
		{"max_comments", f.MaxComments, comments, true},
		{"max_likes", f.MaxLikes, likes, true},
		{"max_views", f.MaxViews, views, true},
	}
}

// Apply runs the rules in order and returns the surviving items plus the
// rules that removed anything.
func (f Filter) Apply(items []domain.WorkItem) ([]domain.WorkItem, []Removal) {
	var removals []Removal
	for _, r := range f.rules() {
		if r.threshold <= 0 {
			continue
		}
		kept := items[:0:0]
		for _, it := range items {
			v := r.value(it)
			if (r.max && v <= r.threshold) || (!r.max && v >= r.threshold) {
				kept = append(kept, it)
			}
		}
		if n := len(items) - len(kept); n > 0 {
			removals = append(removals, Removal{Rule: r.name, Threshold: r.threshold, Removed: n})
		}
		items = kept
	}
	return items, removals
}
