package models

import "time"

// DraftMetrics are the advisor's predicted metrics for a draft.
type DraftMetrics struct {
	EngagementScore int    `json:"engagement_score"`
	BestTime        string `json:"best_time"`
}

// Draft is an in-progress, not-yet-published tweet owned by one admin user.
type Draft struct {
	UserID      string       `json:"user_id"`
	Content     string       `json:"content"`
	Original    string       `json:"original"`
	Suggestions []string     `json:"suggestions"`
	Hashtags    []string     `json:"hashtags,omitempty"`
	Version     int          `json:"version"`
	Metrics     DraftMetrics `json:"metrics"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Tweet is a published tweet recorded for performance tracking.
type Tweet struct {
	ID              string     `json:"id" db:"id"`
	Content         string     `json:"content" db:"content"`
	Status          string     `json:"status" db:"status"`
	EngagementScore int        `json:"engagement_score" db:"engagement_score"`
	BestTime        string     `json:"best_time" db:"best_time"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	PublishedAt     *time.Time `json:"published_at,omitempty" db:"published_at"`
}

// Tweet status values.
const (
	TweetStatusPublished = "published"
	TweetStatusSimulated = "simulated"
)
