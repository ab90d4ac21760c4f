package models

import (
	"strings"
	"time"
)

// VoteType is the voting method, fixed at creation.
type VoteType string

const (
	VoteTypeYesNo          VoteType = "yes_no"
	VoteTypeSingleChoice   VoteType = "single_choice"
	VoteTypeMultipleChoice VoteType = "multiple_choice"
)

// Valid reports whether t is a known vote type.
func (t VoteType) Valid() bool {
	switch t {
	case VoteTypeYesNo, VoteTypeSingleChoice, VoteTypeMultipleChoice:
		return true
	}
	return false
}

// OptionCountAllowed reports whether a vote of this type may carry n options.
// yes_no votes have exactly two; choice votes have 2-10.
func (t VoteType) OptionCountAllowed(n int) bool {
	if t == VoteTypeYesNo {
		return n == 2
	}
	return n >= MinOptionsPerVote && n <= MaxOptionsPerVote
}

// SelectionCountAllowed reports whether a response selecting n of total
// options satisfies this type's selection rule.
func (t VoteType) SelectionCountAllowed(n, total int) bool {
	if t == VoteTypeMultipleChoice {
		return n >= 1 && n <= total
	}
	return n == 1
}

// VoteStatus is the lifecycle stage of a vote.
type VoteStatus string

const (
	VoteStatusDraft    VoteStatus = "draft"
	VoteStatusActive   VoteStatus = "active"
	VoteStatusClosed   VoteStatus = "closed"
	VoteStatusArchived VoteStatus = "archived"
)

// Valid reports whether s is a known status.
func (s VoteStatus) Valid() bool {
	switch s {
	case VoteStatusDraft, VoteStatusActive, VoteStatusClosed, VoteStatusArchived:
		return true
	}
	return false
}

// CanTransitionTo reports whether s -> next is a permitted lifecycle edge.
// The only edges are draft->active, active->closed, closed->archived.
func (s VoteStatus) CanTransitionTo(next VoteStatus) bool {
	switch s {
	case VoteStatusDraft:
		return next == VoteStatusActive
	case VoteStatusActive:
		return next == VoteStatusClosed
	case VoteStatusClosed:
		return next == VoteStatusArchived
	}
	return false
}

// ShowResultsMode decides when aggregated results may be disclosed.
type ShowResultsMode string

const (
	ShowResultsImmediate  ShowResultsMode = "immediate"
	ShowResultsAfterVote  ShowResultsMode = "afterVote"
	ShowResultsAfterClose ShowResultsMode = "afterClose"
)

// Valid reports whether m is a known disclosure mode.
func (m ShowResultsMode) Valid() bool {
	switch m {
	case ShowResultsImmediate, ShowResultsAfterVote, ShowResultsAfterClose:
		return true
	}
	return false
}

// Option count bounds for single_choice/multiple_choice votes.
const (
	MinOptionsPerVote = 2
	MaxOptionsPerVote = 10
)

// Vote is a single poll instance.
type Vote struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Type            VoteType        `json:"type"`
	Status          VoteStatus      `json:"status"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	ShowResultsMode ShowResultsMode `json:"show_results_mode"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// InWindow reports whether now falls inside the vote's [start, end] window.
func (v *Vote) InWindow(now time.Time) bool {
	return !now.Before(v.StartDate) && !now.After(v.EndDate)
}

// VoteOption is one selectable choice belonging to exactly one vote.
// Position is the creation order; it is display- and tie-break-significant.
type VoteOption struct {
	ID       string `json:"id"`
	VoteID   string `json:"vote_id"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}

// VoteResponse is one voter's recorded selection for a vote.
// At most one exists per (vote, voter); a resubmission overwrites it.
type VoteResponse struct {
	ID                string    `json:"id"`
	VoteID            string    `json:"vote_id"`
	VoterID           string    `json:"voter_id"`
	SelectedOptionIDs []string  `json:"selected_option_ids"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// OptionResult is the aggregated outcome for a single option.
type OptionResult struct {
	OptionID   string `json:"option_id"`
	Text       string `json:"text"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// VoteResult is the derived aggregate over a vote's response set.
// TotalResponses counts distinct response rows, not option selections,
// so for multiple_choice votes the option counts may sum past it.
type VoteResult struct {
	VoteID         string         `json:"vote_id"`
	TotalResponses int            `json:"total_responses"`
	Options        []OptionResult `json:"options"`
}

// ValidateOptionTexts checks the option-count invariant for the vote type and
// rejects empty or duplicate texts. Returns a human-readable problem, or ""
// when the set is valid.
func ValidateOptionTexts(t VoteType, texts []string) string {
	if !t.OptionCountAllowed(len(texts)) {
		if t == VoteTypeYesNo {
			return "yes_no votes require exactly 2 options"
		}
		return "votes require between 2 and 10 options"
	}
	seen := make(map[string]bool, len(texts))
	for _, text := range texts {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return "option text cannot be empty"
		}
		if seen[trimmed] {
			return "option text must be unique within a vote"
		}
		seen[trimmed] = true
	}
	return ""
}

// WSMessage is a WebSocket announcement frame.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
