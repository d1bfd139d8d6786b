package domain

import "time"

// WorkItem is one page to harvest, as read from the input work list.
type WorkItem struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Position int    `json:"position"` // 1-based ordinal in the input list

	// Declared metadata, passed through verbatim. Empty when absent.
	No       string `json:"no"`
	Date     string `json:"date"`
	Channel  string `json:"channel"`
	Title    string `json:"title"`
	Comments string `json:"comments"`
	Likes    string `json:"likes"`
	Views    string `json:"views"`
}

// RawComment is the loosely-typed content of one comment node.
// Missing sub-elements leave the corresponding field empty.
type RawComment struct {
	Text       string
	Author     string
	Votes      string
	Replies    string
	Timestamp  string
	Pinned     bool
	Hearted    bool
	HasDislike bool
}

// Snapshot is what the extraction adapter observed on one read of the DOM.
type Snapshot struct {
	Comments []RawComment
	Drifted  bool // related content is present below the last comment
}

// CommentRecord is one normalized comment.
type CommentRecord struct {
	Text       string `json:"comment_text"`
	Author     string `json:"author_name"`
	Upvotes    int64  `json:"upvotes"`
	Downvotes  int64  `json:"downvotes"`
	Replies    int64  `json:"reply_count"`
	Timestamp  string `json:"timestamp"` // site-relative, e.g. "2 weeks ago"
	Pinned     bool   `json:"is_pinned"`
	Hearted    bool   `json:"is_hearted"`
	HasDislike bool   `json:"has_dislike_button"`
	Position   int    `json:"comment_position"` // page-scoped, first-seen order
}

// PageStatus classifies the outcome of one page.
type PageStatus string

const (
	StatusSuccess PageStatus = "success"
	StatusEmpty   PageStatus = "empty"
	StatusFailed  PageStatus = "failed"
)

// PageResult is the outcome of processing one WorkItem.
type PageResult struct {
	Item       WorkItem
	Status     PageStatus
	Records    []CommentRecord
	Reason     string
	StopState  string // terminal engine state, empty when the engine did not run
	StartedAt  time.Time
	FinishedAt time.Time
}

// CheckpointEntry remembers how a work item ended.
type CheckpointEntry struct {
	Status      PageStatus `json:"status"`
	Reason      string     `json:"reason,omitempty"`
	Records     int        `json:"records"`
	CompletedAt time.Time  `json:"completed_at"`
}

// CheckpointState is the durable resume state of a batch.
type CheckpointState struct {
	Processed    map[string]CheckpointEntry `json:"processed"`
	TotalRecords int                        `json:"total_records"`
	LastRunID    string                     `json:"last_run_id,omitempty"`
	LastUpdated  time.Time                  `json:"last_updated"`

	// Written lists, per unfinished item, the sinks that already hold its rows.
	Written map[string][]string `json:"written,omitempty"`
}

// NewCheckpointState returns an empty state.
func NewCheckpointState() *CheckpointState {
	return &CheckpointState{Processed: make(map[string]CheckpointEntry)}
}

// Done reports whether id has already been processed.
func (s *CheckpointState) Done(id string) bool {
	_, ok := s.Processed[id]
	return ok
}

// Record marks id as processed. A second call for the same id is a no-op.
func (s *CheckpointState) Record(id string, e CheckpointEntry) bool {
	if s.Processed == nil {
		s.Processed = make(map[string]CheckpointEntry)
	}
	if s.Done(id) {
		return false
	}
	s.Processed[id] = e
	s.TotalRecords += e.Records
	s.LastUpdated = e.CompletedAt
	delete(s.Written, id)
	return true
}

// Wrote reports whether sink already received id's rows.
func (s *CheckpointState) Wrote(id, sink string) bool {
	for _, name := range s.Written[id] {
		if name == sink {
			return true
		}
	}
	return false
}

// MarkWritten notes that sink holds id's rows.
func (s *CheckpointState) MarkWritten(id, sink string) {
	if s.Wrote(id, sink) {
		return
	}
	if s.Written == nil {
		s.Written = make(map[string][]string)
	}
	s.Written[id] = append(s.Written[id], sink)
}

// OutputRow is one comment joined with its page's metadata.
type OutputRow struct {
	Item      WorkItem
	Record    CommentRecord
	RunID     string
	ScrapedAt time.Time
}

// Summary aggregates a batch run.
type Summary struct {
	RunID               string
	Successful          int
	Empty               int
	Failed              int
	Skipped             int
	Filtered            int
	TotalRecords        int
	UniqueAuthors       int
	TotalUpvotes        int64
	PagesWithReplies    int
	CommentsWithReplies int
	Interrupted         bool
}

// AverageComments is the mean record count over successful pages.
func (s Summary) AverageComments() float64 {
	if s.Successful == 0 {
		return 0
	}
	return float64(s.TotalRecords) / float64(s.Successful)
}
