// Package match correlates pull requests with issue tracker tickets via the
// ticket key convention in PR titles ("OA-414: fix login flow").
package match

import (
	"regexp"
	"strings"

	"github.com/devpulse/devpulse/internal/types"
)

var keyPattern = regexp.MustCompile(`^([A-Za-z]+)-(\d+):`)

// TicketKey extracts the leading ticket key from a PR title, uppercased.
// ok is false when the title does not follow the convention.
func TicketKey(title string) (key string, ok bool) {
	m := keyPattern.FindStringSubmatch(strings.TrimSpace(title))
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]) + "-" + m[2], true
}

// Index is a ticket key lookup over issues, built once per run.
type Index struct {
	byKey map[string]types.Issue
}

func NewIndex(issues []types.Issue) *Index {
	byKey := make(map[string]types.Issue, len(issues))
	for _, is := range issues {
		byKey[strings.ToUpper(is.Key)] = is
	}
	return &Index{byKey: byKey}
}

func (ix *Index) Resolve(key string) (types.Issue, bool) {
	is, ok := ix.byKey[key]
	return is, ok
}

func (ix *Index) Len() int {
	return len(ix.byKey)
}

// Pair is a pull request matched to its issue.
type Pair struct {
	PR    types.PullRequest
	Issue types.Issue
}

// Split partitions pull requests into matched pairs and the unmatched
// remainder. Unmatched covers both keyless titles and keys absent from the
// index; those stay in totals but never in correlation metrics.
func Split(prs []types.PullRequest, ix *Index) (matched []Pair, unmatched []types.PullRequest) {
	for _, pr := range prs {
		key, ok := TicketKey(pr.Title)
		if !ok {
			unmatched = append(unmatched, pr)
			continue
		}
		issue, found := ix.Resolve(key)
		if !found {
			unmatched = append(unmatched, pr)
			continue
		}
		matched = append(matched, Pair{PR: pr, Issue: issue})
	}
	return matched, unmatched
}
