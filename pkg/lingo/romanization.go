package lingo

import (
	"fmt"
	"strings"
)

// RomanizationFormatRevision is the current stored-shape revision of
// RomanizationRecord, bumped when the JSON layout changes so older records
// can be migrated forward.
const RomanizationFormatRevision = 3

// RomanizationRecord is the structured stored value of a Chinese romanization
// field. WordList is the segmentation of the source text; Solutions holds one
// ordered candidate list per word; SolutionOverrides selects one candidate per
// word. RenderedSolution is the join of the selected candidates, and
// RenderedSolutionOverride, when present, replaces it as the externally
// visible value.
//
// When the source text changes the whole record is replaced by a freshly
// computed one; overrides are deliberately not carried forward.
type RomanizationRecord struct {
	FormatRevision           int        `json:"format_revision"`
	WordList                 []string   `json:"word_list"`
	Solutions                [][]string `json:"solutions"`
	SolutionOverrides        []int      `json:"solution_overrides"`
	RenderedSolution         string     `json:"rendered_solution"`
	RenderedSolutionOverride *string    `json:"rendered_solution_override,omitempty"`
}

// Validate checks the record's shape invariants: one candidate list and one
// selected index per word, each index within range of its candidate list.
func (r *RomanizationRecord) Validate() error {
	if len(r.Solutions) != len(r.WordList) {
		return fmt.Errorf("%w: %d words but %d candidate lists",
			ErrInvalidRecord, len(r.WordList), len(r.Solutions))
	}
	if len(r.SolutionOverrides) != len(r.WordList) {
		return fmt.Errorf("%w: %d words but %d selected indices",
			ErrInvalidRecord, len(r.WordList), len(r.SolutionOverrides))
	}
	for i, idx := range r.SolutionOverrides {
		if idx < 0 || idx >= len(r.Solutions[i]) {
			return fmt.Errorf("%w: selected index %d out of range for word %d (%d candidates)",
				ErrInvalidRecord, idx, i, len(r.Solutions[i]))
		}
	}
	return nil
}

// Render joins the currently selected candidate of each word. Spacing between
// syllables is embedded in the candidates by the provider, so the join itself
// adds no separator.
func (r *RomanizationRecord) Render() string {
	parts := make([]string, 0, len(r.WordList))
	for i, idx := range r.SolutionOverrides {
		parts = append(parts, r.Solutions[i][idx])
	}
	return strings.Join(parts, "")
}

// ExportValue returns the externally visible value: the user override when
// present, the rendered solution otherwise.
func (r *RomanizationRecord) ExportValue() string {
	if r.RenderedSolutionOverride != nil {
		return *r.RenderedSolutionOverride
	}
	return r.RenderedSolution
}

// NormalizeRecord applies the in-place patch path used when a user edits the
// selected indices or the rendering override without changing the source
// text: the rendered solution is recomputed from the selected candidates, and
// an override, when present, takes precedence. Omitting the override key on
// an update clears it and reverts visibility to the computed rendering.
func NormalizeRecord(rec *RomanizationRecord) (*RomanizationRecord, error) {
	if rec == nil {
		return nil, nil
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	out := *rec
	out.RenderedSolution = rec.Render()
	if out.RenderedSolutionOverride != nil {
		out.RenderedSolution = *out.RenderedSolutionOverride
	}
	return &out, nil
}

// newRomanizationRecord builds a freshly computed record from a provider
// result: every word starts at its first candidate and no override is set.
func newRomanizationRecord(res *RomanizationResult) *RomanizationRecord {
	rec := &RomanizationRecord{
		FormatRevision:    RomanizationFormatRevision,
		WordList:          res.WordList,
		Solutions:         res.Solutions,
		SolutionOverrides: make([]int, len(res.WordList)),
	}
	rec.RenderedSolution = rec.Render()
	return rec
}
