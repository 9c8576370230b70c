package summary

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func structuredRequest() GenerationRequest {
	return GenerationRequest{
		Parent:   ParentRef{Kind: KindLegislation, ID: "leg-12345"},
		Title:    "CB 12345: An ordinance relating to housing",
		Subtype:  SubtypeStructuredAction,
		FullText: "Full ordinance text establishing housing requirements.",
		Actions: []ActionRecord{
			{Version: 1, Action: "introduced", ActionBy: "Council", Date: "2024-01-10"},
			{Version: 1, Action: "Amendment 1 adopted", Result: "Pass", ActionBy: "Committee", Date: "2024-02-01"},
			{Version: 2, Action: "Passed as amended", Result: "Pass", ActionBy: "Full Council", Date: "2024-03-01"},
		},
		ActionDetails: []ActionDetail{
			{Action: "Passed as amended", Result: "Pass", Votes: []MemberVote{
				{PersonName: "Alice Moreno", Vote: "In Favor"},
				{PersonName: "Ben Okafor", Vote: "Opposed"},
			}},
		},
	}
}

func TestStructuredSynthesisWithAmendments(t *testing.T) {
	gen := &fakeGenerator{}
	sy := newSynthesizer(gen, time.Second, zap.NewNop())
	req := structuredRequest()
	analysis := AnalyzeHistory(req.Title, req.FullText, req.Actions)

	artifact, err := sy.structured(context.Background(), req, analysis)
	require.NoError(t, err)

	// Original proposal, final text, differences, headline.
	assert.Equal(t, 4, gen.callCount())

	body := artifact.Body
	assert.Contains(t, body, headerOriginalProposal)
	assert.Contains(t, body, headerAmendmentsVotes)
	assert.Contains(t, body, headerFinalText)
	assert.Contains(t, body, headerDifferences)
	assert.True(t, strings.Index(body, headerOriginalProposal) < strings.Index(body, headerAmendmentsVotes))
	assert.True(t, strings.Index(body, headerAmendmentsVotes) < strings.Index(body, headerFinalText))
	assert.True(t, strings.Index(body, headerFinalText) < strings.Index(body, headerDifferences))

	assert.Contains(t, body, "Amendment 1: Amendment 1 adopted (by Committee, 2024-02-01)")
	assert.Contains(t, body, "Vote History:")
	assert.Contains(t, body, "Alice Moreno: In Favor")
	assert.Contains(t, body, "Ben Okafor: Opposed")
	assert.NotContains(t, body, unchangedLine)

	assert.NotEmpty(t, artifact.Headline)
	assert.Contains(t, artifact.OriginalText, "Amendments: 2")
	assert.Equal(t, []string{artifact.OriginalText}, artifact.Chunks)
	assert.Equal(t, []string{artifact.Body}, artifact.ChunkSummaries)
}

func TestStructuredSynthesisNoAmendments(t *testing.T) {
	gen := &fakeGenerator{}
	sy := newSynthesizer(gen, time.Second, zap.NewNop())
	req := structuredRequest()
	req.Actions = []ActionRecord{
		{Version: 1, Action: "introduced", ActionBy: "Council", Date: "2024-01-10"},
	}
	req.ActionDetails = nil
	analysis := AnalyzeHistory(req.Title, req.FullText, req.Actions)

	artifact, err := sy.structured(context.Background(), req, analysis)
	require.NoError(t, err)

	// No differences call: original proposal, final text, headline only.
	assert.Equal(t, 3, gen.callCount())
	assert.Contains(t, artifact.Body, unchangedLine)
	assert.Contains(t, artifact.Body, noAmendmentsLine)
	assert.Contains(t, artifact.Body, noVotesLine)
	for _, prompt := range gen.prompts() {
		assert.NotContains(t, prompt, "Key differences")
	}
}

func TestStructuredSynthesisAllOrNothing(t *testing.T) {
	gen := &fakeGenerator{respond: failOnPrompt("current form")}
	sy := newSynthesizer(gen, time.Second, zap.NewNop())
	req := structuredRequest()
	analysis := AnalyzeHistory(req.Title, req.FullText, req.Actions)

	artifact, err := sy.structured(context.Background(), req, analysis)
	require.Error(t, err)
	assert.Nil(t, artifact)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "final_text", genErr.Stage)
	assert.Equal(t, req.Title, genErr.Entity)
	assert.True(t, genErr.Retryable)
}

func TestStructuredSynthesisEmptyResponseFails(t *testing.T) {
	gen := &fakeGenerator{respond: func(string, int) (string, error) { return "   ", nil }}
	sy := newSynthesizer(gen, time.Second, zap.NewNop())
	req := structuredRequest()
	analysis := AnalyzeHistory(req.Title, req.FullText, req.Actions)

	_, err := sy.structured(context.Background(), req, analysis)
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "original_proposal", genErr.Stage)
}

func TestSinglePassSynthesis(t *testing.T) {
	gen := &fakeGenerator{}
	sy := newSynthesizer(gen, time.Second, zap.NewNop())
	req := GenerationRequest{
		Parent:    ParentRef{Kind: KindLegislation, ID: "leg-2"},
		Title:     "Appt 00999: Appointment of review panel member",
		Subtype:   SubtypePlainItem,
		FullText:  "Appointment packet describing the nominee's qualifications.",
		TextUnits: []string{"First attachment summary.", "Second attachment summary."},
	}

	artifact, err := sy.singlePass(context.Background(), req)
	require.NoError(t, err)

	// Body plus headline.
	assert.Equal(t, 2, gen.callCount())
	assert.Contains(t, artifact.OriginalText, "1. First attachment summary.")
	assert.Contains(t, artifact.OriginalText, "2. Second attachment summary.")
	assert.Contains(t, artifact.OriginalText, "Appointment packet describing the nominee's qualifications.")

	// The body generation call sees the entity's own text, not just titles.
	prompts := gen.prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "Appointment packet describing the nominee's qualifications.")

	assert.NotEmpty(t, artifact.Headline)
	assert.NotContains(t, artifact.Body, headerOriginalProposal)
}

func TestSinglePassMeetingUsesDepartment(t *testing.T) {
	gen := &fakeGenerator{}
	sy := newSynthesizer(gen, time.Second, zap.NewNop())
	req := GenerationRequest{
		Parent:     ParentRef{Kind: KindMeeting, ID: "mtg-1"},
		Title:      "City Council meeting on 2024-03-01",
		Subtype:    SubtypePlainItem,
		Department: "City Council",
		TextUnits:  []string{"CB 12345 summary."},
	}

	artifact, err := sy.singlePass(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, artifact.OriginalText, "Department: City Council")

	prompts := gen.prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "meeting agenda")
}

func TestRenderAmendmentsAndVotesEmpty(t *testing.T) {
	out := renderAmendmentsAndVotes(LegislationAnalysis{}, nil)
	assert.Contains(t, out, noAmendmentsLine)
	assert.Contains(t, out, noVotesLine)
}
