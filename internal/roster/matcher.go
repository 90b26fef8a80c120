package roster

import (
	"errors"
	"sort"
	"strings"

	"github.com/superteamvn/stvbot/internal/models"
)

// ErrNoMoreMatches is returned when a requested page is past the last match.
var ErrNoMoreMatches = errors.New("no more matches")

// Matcher ranks roster members against requested skills.
type Matcher struct {
	members  []models.Member
	pageSize int
}

// NewMatcher creates a matcher over the given members. pageSize bounds each
// result page.
func NewMatcher(members []models.Member, pageSize int) *Matcher {
	if pageSize <= 0 {
		pageSize = 3
	}
	return &Matcher{members: members, pageSize: pageSize}
}

// Match returns the page-th page of members having at least one of the
// requested skills, ranked by number of matching skills. Matching is
// case-insensitive and ties keep roster order. When nothing matches, the
// returned page carries the roster's full skill list instead of results.
// Requesting a page past the end returns ErrNoMoreMatches.
func (m *Matcher) Match(skills []string, page int) (*models.MatchPage, error) {
	wanted := make(map[string]bool, len(skills))
	for _, s := range skills {
		wanted[strings.ToLower(s)] = true
	}

	var all []models.MatchResult
	for _, member := range m.members {
		var matching []string
		seen := make(map[string]bool)
		for _, s := range member.Skills {
			low := strings.ToLower(s)
			if wanted[low] && !seen[low] {
				seen[low] = true
				matching = append(matching, low)
			}
		}
		if len(matching) == 0 {
			continue
		}
		sort.Strings(matching)
		all = append(all, models.MatchResult{
			Member:         member,
			MatchingSkills: matching,
			MatchCount:     len(matching),
		})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].MatchCount > all[j].MatchCount })

	if len(all) == 0 {
		return &models.MatchPage{Page: page, AllSkills: m.AllSkills()}, nil
	}

	start := page * m.pageSize
	if start >= len(all) {
		return nil, ErrNoMoreMatches
	}
	end := start + m.pageSize
	if end > len(all) {
		end = len(all)
	}
	return &models.MatchPage{
		Results:   all[start:end],
		Page:      page,
		StartRank: start + 1,
		HasMore:   end < len(all),
	}, nil
}

// AllSkills returns every skill in the roster, lowercased, deduplicated and
// sorted.
func (m *Matcher) AllSkills() []string {
	seen := make(map[string]bool)
	var skills []string
	for _, member := range m.members {
		for _, s := range member.Skills {
			low := strings.ToLower(s)
			if !seen[low] {
				seen[low] = true
				skills = append(skills, low)
			}
		}
	}
	sort.Strings(skills)
	return skills
}
