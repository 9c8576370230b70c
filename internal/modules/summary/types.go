package summary

import (
	"strings"
	"time"
)

// Style selects the summarization register. The set is closed; the
// dispatcher rejects anything else with a ConfigurationError.
type Style string

const (
	StyleConcise  Style = "concise"
	StyleDetailed Style = "detailed"
)

// Styles returns the declared style set.
func Styles() []Style {
	return []Style{StyleConcise, StyleDetailed}
}

func validStyle(style Style) bool {
	for _, s := range Styles() {
		if s == style {
			return true
		}
	}
	return false
}

// EntityKind identifies the parent entity table a summary belongs to.
type EntityKind string

const (
	KindDocument    EntityKind = "document"
	KindLegislation EntityKind = "legislation"
	KindMeeting     EntityKind = "meeting"
)

// ParentRef points at the entity a summary describes. Callers supply it
// explicitly; the engine never introspects parent types.
type ParentRef struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

// EntitySubtype is the closed classification consumed by the dispatcher.
// It is computed once at ingestion from the raw Legistar type string.
type EntitySubtype string

const (
	// SubtypeStructuredAction marks legislation that gets the 4-section
	// synthesis path (council bills with version/amendment history).
	SubtypeStructuredAction EntitySubtype = "structured_action"
	// SubtypePlainItem covers everything else: appointments, information
	// items, documents, meetings.
	SubtypePlainItem EntitySubtype = "plain_item"
)

// ClassifySubtype maps a raw Legistar type string to the closed subtype set.
func ClassifySubtype(rawType string) EntitySubtype {
	if strings.Contains(strings.ToLower(rawType), "council bill") {
		return SubtypeStructuredAction
	}
	return SubtypePlainItem
}

// ActionRecord is one raw historical event in a legislation's lifecycle.
type ActionRecord struct {
	Version  int    `json:"version"`
	Action   string `json:"action"`
	Result   string `json:"result"`
	ActionBy string `json:"action_by"`
	Date     string `json:"date"`
}

// MemberVote is a single council member's vote on an action.
type MemberVote struct {
	PersonName string `json:"person_name"`
	Vote       string `json:"vote"`
}

// ActionDetail carries the per-member vote rows crawled for one action.
type ActionDetail struct {
	Action string       `json:"action"`
	Result string       `json:"result"`
	Votes  []MemberVote `json:"votes"`
}

// AmendmentRecord is an action classified as amending the legislation.
type AmendmentRecord struct {
	Version  int    `json:"version"`
	Action   string `json:"action"`
	ActionBy string `json:"action_by"`
	Result   string `json:"result"`
	Date     string `json:"date"`
}

// VoteRecord is an action that carried a recorded result.
type VoteRecord struct {
	Version  int    `json:"version"`
	Action   string `json:"action"`
	Result   string `json:"result"`
	Date     string `json:"date"`
	ActionBy string `json:"action_by"`
}

// LegislationAnalysis is the structured view of a legislation's history.
// It is derived fresh on every pass and never cached.
type LegislationAnalysis struct {
	OriginalProposal string
	Amendments       []AmendmentRecord
	FinalText        string
	FinalAction      string
	VotesSummary     []VoteRecord
}

// GenerationRequest describes one entity to summarize.
type GenerationRequest struct {
	Parent        ParentRef
	Title         string
	Subtype       EntitySubtype
	Department    string // meetings only
	FullText      string
	TextUnits     []string // related summary texts, in dependency order
	Actions       []ActionRecord
	ActionDetails []ActionDetail
}

// SummaryArtifact is the immutable product of one synthesis pass.
type SummaryArtifact struct {
	Headline       string    `json:"headline"`
	Body           string    `json:"body"`
	OriginalText   string    `json:"original_text"`
	Chunks         []string  `json:"chunks"`
	ChunkSummaries []string  `json:"chunk_summaries"`
	Style          Style     `json:"style"`
	Model          string    `json:"model"`
	ContentHash    string    `json:"content_hash"`
	CreatedAt      time.Time `json:"created_at"`
}
