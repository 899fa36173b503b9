package research

import "github.com/BaSui01/deepresearch/types"

// Update is a phase's partial state update. Every field carries a named
// merge rule, applied in one place so the loop and the fan-out cannot
// drift apart on similarly-shaped fields:
//
//   - append-only:        AppendMessages, AppendContents, AppendFindings
//   - replace:            SetSearchResults, SetURLsPending, SetQueryCursor,
//     SetNeedsMore, SetNextQuery, SetIteration
//   - write-once:         Plan, Strategy, SetCompressedNotes, Quality,
//     Clarification (first writer wins; later writes are ignored)
//   - commutative-append: MergeParallelFindings, MergeParallelContents
//     (merge(A,B) and merge(B,A) hold the same multiset of elements)
//
// Nil pointer fields leave their target untouched, so a phase updates only
// what it names.
type Update struct {
	AppendMessages []types.Message
	AppendContents []ReadContent
	AppendFindings []string

	SetSearchResults *[]SearchResult
	SetURLsPending   *[]string
	SetQueryCursor   *int
	SetNeedsMore     *bool
	SetNextQuery     *string
	SetIteration     *int

	Plan               *Plan
	Strategy           *Strategy
	SetCompressedNotes *string
	Quality            *Quality
	Clarification      *Clarification

	MergeParallelFindings []string
	MergeParallelContents []ReadContent
}

// Apply merges the update into state and returns the merged copy. Appends
// always copy into fresh backing arrays so states applied from a common
// ancestor never alias each other's storage.
func (u *Update) Apply(s State) State {
	if u == nil {
		return s
	}

	if len(u.AppendMessages) > 0 {
		s.Conversation = appendCopy(s.Conversation, u.AppendMessages)
	}
	if len(u.AppendContents) > 0 {
		s.ReadContents = appendCopy(s.ReadContents, u.AppendContents)
	}
	if len(u.AppendFindings) > 0 {
		s.Findings = appendCopy(s.Findings, u.AppendFindings)
	}

	if u.SetSearchResults != nil {
		s.SearchResults = *u.SetSearchResults
	}
	if u.SetURLsPending != nil {
		s.URLsPending = *u.SetURLsPending
	}
	if u.SetQueryCursor != nil {
		s.QueryCursor = *u.SetQueryCursor
	}
	if u.SetNeedsMore != nil {
		s.NeedsMoreResearch = *u.SetNeedsMore
	}
	if u.SetNextQuery != nil {
		s.NextQuery = *u.SetNextQuery
	}
	if u.SetIteration != nil {
		s.Iteration = *u.SetIteration
	}

	if u.Plan != nil && s.Plan == nil {
		s.Plan = u.Plan
	}
	if u.Strategy != nil && s.Strategy == nil {
		s.Strategy = u.Strategy
	}
	if u.SetCompressedNotes != nil && s.CompressedNotes == "" {
		s.CompressedNotes = *u.SetCompressedNotes
	}
	if u.Quality != nil && s.Quality == nil {
		s.Quality = u.Quality
	}
	if u.Clarification != nil && s.Clarification == nil {
		s.Clarification = u.Clarification
	}

	if len(u.MergeParallelFindings) > 0 {
		s.ParallelFindings = appendCopy(s.ParallelFindings, u.MergeParallelFindings)
	}
	if len(u.MergeParallelContents) > 0 {
		s.ParallelContents = appendCopy(s.ParallelContents, u.MergeParallelContents)
	}

	return s
}

// appendCopy returns current + update in a fresh backing array.
func appendCopy[T any](current, update []T) []T {
	out := make([]T, 0, len(current)+len(update))
	out = append(out, current...)
	out = append(out, update...)
	return out
}

func ptr[T any](v T) *T { return &v }
