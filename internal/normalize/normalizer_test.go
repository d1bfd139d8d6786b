package normalize

import (
	"testing"

	"commentharvest/internal/core/domain"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1,234", 1234},
		{"2.5K", 2500},
		{"1.2K", 1200},
		{"3M", 3000000},
		{"1.5b", 1500000000},
		{"42", 42},
		{"  7 ", 7},
		{"", 0},
		{"N/A", 0},
		{"K", 0},
		{"-5", 0},
		{"NaN", 0},
		{"Inf", 0},
		{"1e30", 0},
		{"2E3", 0},
		{"0x1p3", 0},
		{"1.2.3", 0},
		{"99999999999B", 0},
		{"9223372036854775807", 0},
		{"9000000000000B", 0},
		{"9.2B", 9200000000},
	}
	for _, tt := range tests {
		if got := ParseCount(tt.in); got != tt.want {
			t.Errorf("ParseCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseReplies(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"12 replies", 12},
		{"1 reply", 1},
		{"1.2K replies", 1200},
		{"", 0},
		{"Reply", 0},
	}
	for _, tt := range tests {
		if got := ParseReplies(tt.in); got != tt.want {
			t.Errorf("ParseReplies(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func raws() []domain.RawComment {
	return []domain.RawComment{
		{Author: "@alice", Text: "first", Timestamp: "2 weeks ago", Votes: "1.2K", Replies: "3 replies", Pinned: true},
		{Author: "@bob", Text: "second", Timestamp: "1 day ago", Votes: "", Hearted: true},
		{Author: "@alice", Text: "first", Timestamp: "2 weeks ago", Votes: "1.3K"},
		{Author: "", Text: "", Timestamp: ""},
	}
}

func TestNormalizeDedupsAndOrders(t *testing.T) {
	n := New()
	got := n.Normalize(raws())
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Author != "@alice" || got[0].Position != 1 || got[0].Upvotes != 1200 || got[0].Replies != 3 || !got[0].Pinned {
		t.Errorf("first record = %+v", got[0])
	}
	if got[1].Author != "@bob" || got[1].Position != 2 || got[1].Upvotes != 0 || !got[1].Hearted || got[1].Pinned {
		t.Errorf("second record = %+v", got[1])
	}
	if n.Len() != 2 {
		t.Errorf("Len = %d, want 2", n.Len())
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := New()
	n.Normalize(raws())
	if again := n.Normalize(raws()); len(again) != 0 {
		t.Fatalf("second pass yielded %d records, want 0", len(again))
	}
}

func TestNormalizePositionsContinue(t *testing.T) {
	n := New()
	n.Normalize(raws())
	more := n.Normalize([]domain.RawComment{
		{Author: "@carol", Text: "third", Timestamp: "3 days ago"},
		{Author: "@bob", Text: "second", Timestamp: "1 day ago"},
	})
	if len(more) != 1 || more[0].Position != 3 {
		t.Fatalf("got %+v, want one record at position 3", more)
	}
}

func TestNormalizeKeepsEmptyTextWithAuthor(t *testing.T) {
	got := New().Normalize([]domain.RawComment{{Author: "@dave", Timestamp: "now"}})
	if len(got) != 1 || got[0].Text != "" {
		t.Fatalf("got %+v", got)
	}
}
