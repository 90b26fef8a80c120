package twitter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/superteamvn/stvbot/internal/advisor"
	"github.com/superteamvn/stvbot/internal/drafts"
	"github.com/superteamvn/stvbot/internal/models"
	"github.com/superteamvn/stvbot/internal/storage"
)

// Optimizer produces content advice. The advisor package satisfies this.
type Optimizer interface {
	Optimize(ctx context.Context, content, platform string) (*advisor.Optimization, error)
	Variants(ctx context.Context, content, platform string, n int) ([]advisor.Variant, error)
}

// Manager runs the tweet workflow: draft, improve, update, publish.
type Manager struct {
	optimizer Optimizer
	drafts    *drafts.Store
	publisher Publisher
	store     storage.Storage
	followed  []string
	logger    *zap.Logger
}

// NewManager wires the tweet workflow. publisher may be a Simulator when no
// credentials are configured; followed is the list of account handles checked
// for unknown mentions.
func NewManager(optimizer Optimizer, draftStore *drafts.Store, publisher Publisher, store storage.Storage, followed []string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		optimizer: optimizer,
		drafts:    draftStore,
		publisher: publisher,
		store:     store,
		followed:  followed,
		logger:    logger,
	}
}

// CreateDraft optimizes content and stores it as the user's draft, replacing
// any previous one.
func (m *Manager) CreateDraft(ctx context.Context, userID, content string) (*models.Draft, error) {
	draft, err := m.buildDraft(ctx, userID, content, 1)
	if err != nil {
		return nil, err
	}
	m.drafts.Put(draft)
	return draft, nil
}

// Preview returns the user's current draft.
func (m *Manager) Preview(userID string) (*models.Draft, error) {
	return m.drafts.Get(userID)
}

// Improve re-runs optimization on the current draft, merging the fresh
// suggestions and bumping the version.
func (m *Manager) Improve(ctx context.Context, userID string) (*models.Draft, error) {
	draft, err := m.drafts.Get(userID)
	if err != nil {
		return nil, err
	}
	opt, err := m.optimizer.Optimize(ctx, draft.Content, advisor.PlatformTwitter)
	if err != nil {
		return nil, err
	}
	draft.Content = opt.Optimized
	draft.Suggestions = mergeSuggestions(draft.Suggestions, opt.Suggestions)
	draft.Hashtags = opt.Hashtags
	draft.Version++
	draft.Metrics = models.DraftMetrics{EngagementScore: opt.EngagementScore, BestTime: opt.BestTime}
	m.drafts.Put(draft)
	return draft, nil
}

// Update replaces the draft content, re-optimizing it and carrying the version
// forward.
func (m *Manager) Update(ctx context.Context, userID, newContent string) (*models.Draft, error) {
	prev, err := m.drafts.Get(userID)
	if err != nil {
		return nil, err
	}
	draft, err := m.buildDraft(ctx, userID, newContent, prev.Version+1)
	if err != nil {
		return nil, err
	}
	m.drafts.Put(draft)
	return draft, nil
}

// Variants returns A/B candidates for the given content.
func (m *Manager) Variants(ctx context.Context, content string, n int) ([]advisor.Variant, error) {
	return m.optimizer.Variants(ctx, content, advisor.PlatformTwitter, n)
}

// Publish posts the user's draft, records it for performance tracking, and
// clears the draft. The returned tweet's status reports whether a real API
// call happened.
func (m *Manager) Publish(ctx context.Context, userID string) (*models.Tweet, error) {
	draft, err := m.drafts.Get(userID)
	if err != nil {
		return nil, err
	}

	id, err := m.publisher.Publish(ctx, draft.Content)
	if err != nil {
		return nil, fmt.Errorf("publish tweet: %w", err)
	}

	status := models.TweetStatusPublished
	if _, simulated := m.publisher.(*Simulator); simulated {
		status = models.TweetStatusSimulated
	}
	now := time.Now()
	tweet := &models.Tweet{
		ID:              id,
		Content:         draft.Content,
		Status:          status,
		EngagementScore: draft.Metrics.EngagementScore,
		BestTime:        draft.Metrics.BestTime,
		CreatedAt:       now,
		PublishedAt:     &now,
	}
	if m.store != nil {
		if err := m.store.SaveTweet(ctx, tweet); err != nil {
			m.logger.Warn("tweet published but not recorded", zap.String("tweet_id", id), zap.Error(err))
		}
	}

	m.drafts.Delete(userID)
	m.logger.Info("tweet published", zap.String("tweet_id", id), zap.String("status", status))
	return tweet, nil
}

func (m *Manager) buildDraft(ctx context.Context, userID, content string, version int) (*models.Draft, error) {
	opt, err := m.optimizer.Optimize(ctx, content, advisor.PlatformTwitter)
	if err != nil {
		return nil, err
	}

	suggestions := opt.Suggestions
	if len(opt.Optimized) > 240 {
		suggestions = append(suggestions, "⚠️ Tweet is too long, consider shortening")
	} else if len(opt.Optimized) < 50 {
		suggestions = append(suggestions, "Consider adding more context for better engagement")
	}
	for _, handle := range UnknownMentions(opt.Optimized, m.followed) {
		suggestions = append(suggestions, fmt.Sprintf("@%s is not in followed accounts", handle))
	}

	return &models.Draft{
		UserID:      userID,
		Content:     opt.Optimized,
		Original:    content,
		Suggestions: suggestions,
		Hashtags:    opt.Hashtags,
		Version:     version,
		Metrics:     models.DraftMetrics{EngagementScore: opt.EngagementScore, BestTime: opt.BestTime},
	}, nil
}

// UnknownMentions returns the @-handles in content that are not in the
// followed list, comparison case-insensitive.
func UnknownMentions(content string, followed []string) []string {
	known := make(map[string]bool, len(followed))
	for _, f := range followed {
		known[strings.ToLower(strings.TrimPrefix(f, "@"))] = true
	}
	var unknown []string
	for _, word := range strings.Fields(content) {
		if !strings.HasPrefix(word, "@") || len(word) < 2 {
			continue
		}
		handle := strings.TrimRight(word[1:], ".,!?:;")
		if handle == "" || known[strings.ToLower(handle)] {
			continue
		}
		unknown = append(unknown, handle)
	}
	return unknown
}

func mergeSuggestions(old, fresh []string) []string {
	seen := make(map[string]bool, len(old))
	merged := make([]string, 0, len(old)+len(fresh))
	for _, s := range old {
		if !seen[s] {
			seen[s] = true
			merged = append(merged, s)
		}
	}
	for _, s := range fresh {
		if !seen[s] {
			seen[s] = true
			merged = append(merged, s)
		}
	}
	return merged
}
