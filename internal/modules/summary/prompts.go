package summary

import (
	"fmt"
	"strings"
)

const (
	originalExcerptLimit   = 1500
	finalTextExcerptLimit  = 1200
	diffExcerptLimit       = 800
	relatedSummaryLimit    = 300
	maxRelatedSummaries    = 5
	singlePassExcerptLimit = 1500
	singlePassBodyTokens   = 512
	sectionSynopsisTokens  = 200
	sectionFinalTextTokens = 300
	headlineTokens         = 30
)

func buildOriginalProposalPrompt(title, originalProposal string) string {
	excerpt := truncateText(originalProposal, originalExcerptLimit)
	if strings.TrimSpace(excerpt) == "" {
		excerpt = title
	}
	return fmt.Sprintf(`Summarize in 2-3 sentences what this city council bill originally proposed:

Title: %s

Bill text (excerpt):
%s

What was originally proposed:`, title, excerpt)
}

func buildFinalTextPrompt(title, finalText string, relatedSummaries []string) string {
	var context strings.Builder
	fmt.Fprintf(&context, "Title: %s\n", title)
	if len(relatedSummaries) > 0 {
		context.WriteString("Related document summaries:\n")
		for i, s := range relatedSummaries {
			if i >= maxRelatedSummaries {
				break
			}
			fmt.Fprintf(&context, "- %s\n", truncateText(s, relatedSummaryLimit))
		}
	}
	if strings.TrimSpace(finalText) != "" {
		fmt.Fprintf(&context, "\nBill text (excerpt):\n%s", truncateText(finalText, finalTextExcerptLimit))
	}

	return fmt.Sprintf(`Summarize in 3-4 sentences what this city council bill does in its current form:

%s

What the legislation does:`, context.String())
}

func buildDifferencesPrompt(title string, analysis LegislationAnalysis) string {
	var amendments strings.Builder
	for _, a := range analysis.Amendments {
		fmt.Fprintf(&amendments, "- %s by %s (%s)\n", a.Action, a.ActionBy, a.Date)
	}

	return fmt.Sprintf(`This city council bill was amended. Summarize in 2-3 sentences how the final version differs from the original:

Title: %s
Original proposal excerpt: %s
Amendments made:
%s
Final text excerpt: %s

Key differences from the original:`,
		title,
		truncateText(analysis.OriginalProposal, diffExcerptLimit),
		strings.TrimRight(amendments.String(), "\n"),
		truncateText(analysis.FinalText, diffExcerptLimit))
}

func buildHeadlinePrompt(title string) string {
	return fmt.Sprintf("Create a concise headline (under 15 words) for: %s\nHeadline:", title)
}

func buildSinglePassPrompt(req GenerationRequest) (context string, prompt string) {
	var b strings.Builder
	if req.Department != "" {
		fmt.Fprintf(&b, "Department: %s\n\n", req.Department)
	} else {
		fmt.Fprintf(&b, "Title: %s\n\n", req.Title)
	}
	if text := strings.TrimSpace(req.FullText); text != "" {
		fmt.Fprintf(&b, "Text (excerpt):\n%s\n\n", truncateText(text, singlePassExcerptLimit))
	}
	if len(req.TextUnits) > 0 {
		b.WriteString("Document Summaries:\n")
		for i, unit := range req.TextUnits {
			fmt.Fprintf(&b, "%d. %s\n", i+1, unit)
		}
	}
	context = b.String()

	if req.Department != "" {
		prompt = fmt.Sprintf(`Summarize this %s meeting agenda:

%s

Provide a concise summary of the meeting's key items and legislative actions.`, req.Department, context)
		return context, prompt
	}

	prompt = fmt.Sprintf(`Summarize this city council legislation:

%s

Provide a comprehensive summary that explains what this legislation does.`, context)
	return context, prompt
}

func truncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen])
}
