package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	headerOriginalProposal = "WHAT WAS ORIGINALLY PROPOSED"
	headerAmendmentsVotes  = "AMENDMENTS AND VOTES"
	headerFinalText        = "WHAT THE FINAL TEXT DOES"
	headerDifferences      = "WHAT CHANGED FROM THE ORIGINAL"

	noAmendmentsLine = "No amendments have been proposed to this legislation."
	noVotesLine      = "No votes have been recorded yet."
	// Emitted without a generation call when the amendments list is empty.
	// Note this keys off classified amendments, not off final text
	// diverging from the original proposal.
	unchangedLine = "No amendments have been made. The current text is the same as originally proposed."

	defaultTemperature = 0.3
	defaultTopP        = 0.9
)

// synthesizer assembles summary artifacts. Every required generation
// failure aborts the whole artifact; no partial artifact ever escapes.
type synthesizer struct {
	gen     Generator
	timeout time.Duration
	log     *zap.Logger
}

func newSynthesizer(gen Generator, timeout time.Duration, log *zap.Logger) *synthesizer {
	return &synthesizer{gen: gen, timeout: timeout, log: log}
}

// generate issues one deadline-bounded generation call and tags failures
// with the entity title and pipeline stage.
func (sy *synthesizer) generate(ctx context.Context, entity, stage, prompt string, maxTokens int) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, sy.timeout)
	defer cancel()

	text, err := sy.gen.Generate(callCtx, prompt, GenerateOptions{
		MaxNewTokens: maxTokens,
		Temperature:  defaultTemperature,
		TopP:         defaultTopP,
	})
	if err != nil {
		return "", &GenerationError{
			Entity:    entity,
			Stage:     stage,
			Retryable: true,
			Err:       err,
		}
	}
	if strings.TrimSpace(text) == "" {
		return "", &GenerationError{
			Entity:    entity,
			Stage:     stage,
			Retryable: true,
			Err:       errors.New("empty response from AI"),
		}
	}
	return strings.TrimSpace(text), nil
}

// structured builds the 4-section artifact for structured legislative
// actions: two generated sections, one programmatic section, and a
// generated differences section that is skipped entirely when no
// amendments exist.
func (sy *synthesizer) structured(ctx context.Context, req GenerationRequest, analysis LegislationAnalysis) (*SummaryArtifact, error) {
	sy.log.Debug("synthesizing structured summary",
		zap.String("title", req.Title),
		zap.Int("amendments", len(analysis.Amendments)),
		zap.Int("votes", len(analysis.VotesSummary)))

	section1, err := sy.generate(ctx, req.Title, "original_proposal",
		buildOriginalProposalPrompt(req.Title, analysis.OriginalProposal), sectionSynopsisTokens)
	if err != nil {
		return nil, err
	}

	section2 := renderAmendmentsAndVotes(analysis, req.ActionDetails)

	section3, err := sy.generate(ctx, req.Title, "final_text",
		buildFinalTextPrompt(req.Title, analysis.FinalText, req.TextUnits), sectionFinalTextTokens)
	if err != nil {
		return nil, err
	}

	section4 := unchangedLine
	if len(analysis.Amendments) > 0 {
		section4, err = sy.generate(ctx, req.Title, "differences",
			buildDifferencesPrompt(req.Title, analysis), sectionSynopsisTokens)
		if err != nil {
			return nil, err
		}
	}

	headline, err := sy.generate(ctx, req.Title, "headline",
		buildHeadlinePrompt(req.Title), headlineTokens)
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("%s\n%s\n\n%s\n%s\n\n%s\n%s\n\n%s\n%s",
		headerOriginalProposal, section1,
		headerAmendmentsVotes, section2,
		headerFinalText, section3,
		headerDifferences, section4)

	hasFullText := "no"
	if analysis.FinalText != "" {
		hasFullText = "yes"
	}
	contextText := fmt.Sprintf("Title: %s\nFull text available: %s\nAmendments: %d\nVotes: %d",
		req.Title, hasFullText, len(analysis.Amendments), len(analysis.VotesSummary))

	return &SummaryArtifact{
		Headline:       headline,
		Body:           body,
		OriginalText:   contextText,
		Chunks:         []string{contextText},
		ChunkSummaries: []string{body},
	}, nil
}

// singlePass builds the simple artifact: one body call over the title and
// numbered text units, one headline call.
func (sy *synthesizer) singlePass(ctx context.Context, req GenerationRequest) (*SummaryArtifact, error) {
	contextText, prompt := buildSinglePassPrompt(req)

	body, err := sy.generate(ctx, req.Title, "body", prompt, singlePassBodyTokens)
	if err != nil {
		return nil, err
	}

	headline, err := sy.generate(ctx, req.Title, "headline",
		buildHeadlinePrompt(req.Title), headlineTokens)
	if err != nil {
		return nil, err
	}

	return &SummaryArtifact{
		Headline:       headline,
		Body:           body,
		OriginalText:   contextText,
		Chunks:         []string{contextText},
		ChunkSummaries: []string{body},
	}, nil
}

// renderAmendmentsAndVotes formats section 2 purely from structured data.
// No generation call is ever made here.
func renderAmendmentsAndVotes(analysis LegislationAnalysis, details []ActionDetail) string {
	var lines []string

	if len(analysis.Amendments) > 0 {
		for i, amendment := range analysis.Amendments {
			lines = append(lines, fmt.Sprintf("Amendment %d: %s (by %s, %s)",
				i+1, amendment.Action, amendment.ActionBy, amendment.Date))
			if amendment.Result != "" {
				lines = append(lines, fmt.Sprintf("  Result: %s", amendment.Result))
			}
		}
	} else {
		lines = append(lines, noAmendmentsLine)
	}

	lines = append(lines, "")

	if len(analysis.VotesSummary) > 0 {
		lines = append(lines, "Vote History:")
		for _, vote := range analysis.VotesSummary {
			lines = append(lines, fmt.Sprintf("- %s: %s (%s, %s)",
				vote.ActionBy, vote.Action, vote.Result, vote.Date))
		}

		for _, detail := range details {
			if len(detail.Votes) == 0 {
				continue
			}
			label := detail.Action
			if label == "" {
				label = "Vote"
			}
			if detail.Result != "" {
				label = fmt.Sprintf("%s (%s)", label, detail.Result)
			}
			lines = append(lines, "", label+":")
			for _, member := range detail.Votes {
				name := member.PersonName
				if name == "" {
					name = "Unknown"
				}
				vote := member.Vote
				if vote == "" {
					vote = "Unknown"
				}
				lines = append(lines, fmt.Sprintf("  - %s: %s", name, vote))
			}
		}
	} else {
		lines = append(lines, noVotesLine)
	}

	return strings.Join(lines, "\n")
}
