package summary

import (
	"sort"
	"strings"
)

// amendmentKeywords classify an action as amending the legislation.
var amendmentKeywords = []string{"amend", "substitute", "revised", "modified", "changed"}

// AnalyzeHistory folds raw action records into a structured analysis.
// Pure and total: malformed fields default rather than fail, and the
// result is recomputed on every pass.
//
// Records are grouped by version and visited in ascending version order,
// preserving each group's original internal order. A record can appear in
// both the amendments and the votes list.
func AnalyzeHistory(title, fullText string, records []ActionRecord) LegislationAnalysis {
	analysis := LegislationAnalysis{
		FinalText:    fullText,
		Amendments:   []AmendmentRecord{},
		VotesSummary: []VoteRecord{},
	}

	if strings.TrimSpace(fullText) != "" {
		analysis.OriginalProposal = fullText
	} else {
		analysis.OriginalProposal = title
	}

	byVersion := make(map[int][]ActionRecord)
	versions := make([]int, 0)
	for _, rec := range records {
		version := rec.Version
		if version <= 0 {
			version = 1
		}
		if _, seen := byVersion[version]; !seen {
			versions = append(versions, version)
		}
		byVersion[version] = append(byVersion[version], rec)
	}
	sort.Ints(versions)

	for _, version := range versions {
		for _, rec := range byVersion[version] {
			if isAmendmentAction(rec.Action) {
				analysis.Amendments = append(analysis.Amendments, AmendmentRecord{
					Version:  version,
					Action:   rec.Action,
					ActionBy: rec.ActionBy,
					Result:   rec.Result,
					Date:     rec.Date,
				})
			}
			if strings.TrimSpace(rec.Result) != "" {
				analysis.VotesSummary = append(analysis.VotesSummary, VoteRecord{
					Version:  version,
					Action:   rec.Action,
					Result:   rec.Result,
					Date:     rec.Date,
					ActionBy: rec.ActionBy,
				})
			}
		}
	}

	if len(records) > 0 {
		analysis.FinalAction = records[len(records)-1].Action
	}

	return analysis
}

func isAmendmentAction(action string) bool {
	lowered := strings.ToLower(action)
	for _, keyword := range amendmentKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
