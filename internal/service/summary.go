package service

import "commentharvest/internal/core/domain"

// aggregator folds page results into a Summary.
type aggregator struct {
	s           domain.Summary
	authors     map[string]struct{}
	skipped     int
	interrupted bool
}

func newAggregator(runID string) *aggregator {
	return &aggregator{
		s:       domain.Summary{RunID: runID},
		authors: make(map[string]struct{}),
	}
}

func (a *aggregator) add(res domain.PageResult) {
	switch res.Status {
	case domain.StatusSuccess:
		a.s.Successful++
	case domain.StatusEmpty:
		a.s.Empty++
	default:
		a.s.Failed++
	}

	withReplies := false
	for _, rec := range res.Records {
		a.s.TotalRecords++
		a.s.TotalUpvotes += rec.Upvotes
		if rec.Author != "" {
			a.authors[rec.Author] = struct{}{}
		}
		if rec.Replies > 0 {
			a.s.CommentsWithReplies++
			withReplies = true
		}
	}
	if withReplies {
		a.s.PagesWithReplies++
	}
}

func (a *aggregator) summary() domain.Summary {
	s := a.s
	s.UniqueAuthors = len(a.authors)
	s.Skipped = a.skipped
	s.Interrupted = a.interrupted
	return s
}
