package youtube

// Selectors locate the parts of a watch page. They are the only place the
// site's markup is spelled out.
type Selectors struct {
	Section      string // comment section container
	Thread       string // one top-level comment with its replies
	Comment      string // the top-level comment inside a thread
	Text         string
	Author       string
	Votes        string
	Replies      string
	Published    string
	Pinned       string
	Hearted      string
	Dislike      string
	Continuation string // pending "load more" spinner or button
	Scope        string // column that holds the comment section
	Related      string // recommendation widgets
}

// DefaultSelectors matches the desktop watch page.
func DefaultSelectors() Selectors {
	return Selectors{
		Section:      "ytd-comments#comments",
		Thread:       "ytd-comment-thread-renderer",
		Comment:      "#comment",
		Text:         "#content-text",
		Author:       "#author-text",
		Votes:        "#vote-count-middle",
		Replies:      "#more-replies",
		Published:    ".published-time-text a, #published-time-text a",
		Pinned:       "[aria-label*='Pinned'], ytd-pinned-comment-badge-renderer",
		Hearted:      "#creator-heart",
		Dislike:      "[aria-label*='Dislike']",
		Continuation: "ytd-continuation-item-renderer",
		Scope:        "#primary",
		Related:      "ytd-compact-video-renderer, ytd-rich-item-renderer, ytd-reel-shelf-renderer, ytd-watch-next-secondary-results-renderer",
	}
}
