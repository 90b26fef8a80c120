package models

// Member is one entry of the community roster, loaded once at startup from a
// JSON snapshot and immutable for the process lifetime.
type Member struct {
	Name          string   `json:"name"`
	Skills        []string `json:"skills"`
	Projects      []string `json:"projects"`
	Availability  *bool    `json:"availability,omitempty"`
	TelegramID    string   `json:"telegram_id,omitempty"`
	TwitterHandle string   `json:"twitter_handle,omitempty"`
}

// Available reports the member's availability; unset defaults to true.
func (m *Member) Available() bool {
	if m.Availability == nil {
		return true
	}
	return *m.Availability
}

// MatchResult is one roster member matched against a skill query.
type MatchResult struct {
	Member         Member   `json:"member"`
	MatchingSkills []string `json:"matching_skills"`
	MatchCount     int      `json:"match_count"`
}

// MatchPage is one page of skill-match results. When no member matched at all,
// Results is empty and AllSkills carries the deduplicated union of roster
// skills as a discoverability aid.
type MatchPage struct {
	Results   []MatchResult `json:"results"`
	Page      int           `json:"page"`
	StartRank int           `json:"start_rank"`
	HasMore   bool          `json:"has_more"`
	AllSkills []string      `json:"all_skills,omitempty"`
}
