// Package advisor optimizes social content against the knowledge base and
// historical tweet performance.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/superteamvn/stvbot/internal/llm"
	"github.com/superteamvn/stvbot/internal/models"
	"github.com/superteamvn/stvbot/internal/storage"
)

const optimizationPrompt = `Analyze and optimize this content for %s.

Content: %s

Consider:
1. Platform-specific best practices
2. Engagement potential
3. Clarity and impact
4. Call to action effectiveness

Previous performance data:
%s

Provide specific suggestions for:
1. Content structure
2. Engagement elements
3. Timing and frequency
4. Keywords and hashtags

Response should be in JSON format with these keys:
- improved_content
- suggestions
- engagement_score (0-100)
- best_time_to_post
- hashtags
- keywords
`

// Querier answers a free-form prompt with a confidence gate. The RAG engine
// satisfies this.
type Querier interface {
	QueryWithThreshold(ctx context.Context, question string, threshold float64) (*models.Answer, error)
}

// Optimization is the advisor's verdict on one piece of content.
type Optimization struct {
	Original        string   `json:"original_content"`
	Optimized       string   `json:"optimized_content"`
	Suggestions     []string `json:"suggestions"`
	EngagementScore int      `json:"engagement_score"`
	BestTime        string   `json:"best_time"`
	Hashtags        []string `json:"hashtags,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
	Confidence      float64  `json:"confidence"`
}

// Variant is one A/B test candidate.
type Variant struct {
	Label           string `json:"variant"`
	Content         string `json:"content"`
	EngagementScore int    `json:"engagement_score"`
	BestTime        string `json:"best_time"`
}

// modelVerdict is the JSON shape the model is asked to produce.
type modelVerdict struct {
	ImprovedContent string   `json:"improved_content"`
	Suggestions     []string `json:"suggestions"`
	EngagementScore int      `json:"engagement_score"`
	BestTimeToPost  string   `json:"best_time_to_post"`
	Hashtags        []string `json:"hashtags"`
	Keywords        []string `json:"keywords"`
}

// Advisor asks the knowledge base for content advice, seasoned with recent
// tweet performance.
type Advisor struct {
	querier   Querier
	store     storage.Storage
	threshold float64
	logger    *zap.Logger
}

// New creates an Advisor. threshold is the confidence the underlying query
// must clear before its advice is trusted.
func New(querier Querier, store storage.Storage, threshold float64, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{querier: querier, store: store, threshold: threshold, logger: logger}
}

// Optimize returns platform-tuned content advice. When the model's answer is
// not parseable JSON (including low-confidence refusals), the original
// content comes back unchanged with a placeholder suggestion.
func (a *Advisor) Optimize(ctx context.Context, content, platform string) (*Optimization, error) {
	perf, err := a.performanceData(ctx, platform)
	if err != nil {
		a.logger.Warn("performance data unavailable", zap.Error(err))
		perf = `{"recent_performance":[]}`
	}

	prompt := fmt.Sprintf(optimizationPrompt, platform, content, perf)
	answer, err := a.querier.QueryWithThreshold(ctx, prompt, a.threshold)
	if err != nil {
		return nil, fmt.Errorf("query advisor: %w", err)
	}

	// Gemini habitually wraps JSON in a markdown code fence.
	var verdict modelVerdict
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(answer.Text)), &verdict); err != nil {
		a.logger.Debug("advisor answer not parseable, keeping original",
			zap.Float64("confidence", answer.Confidence))
		verdict = modelVerdict{
			ImprovedContent: content,
			Suggestions:     []string{"Error processing suggestions"},
			BestTimeToPost:  "N/A",
		}
	}
	if verdict.ImprovedContent == "" {
		verdict.ImprovedContent = content
	}

	opt := &Optimization{
		Original:        content,
		Optimized:       verdict.ImprovedContent,
		Suggestions:     verdict.Suggestions,
		EngagementScore: verdict.EngagementScore,
		BestTime:        verdict.BestTimeToPost,
		Hashtags:        verdict.Hashtags,
		Keywords:        verdict.Keywords,
		Confidence:      answer.Confidence,
	}
	opt.Suggestions = append(opt.Suggestions, platformSuggestions(platform, opt.Optimized)...)
	return opt, nil
}

// Variants produces n A/B candidates. Variant A is always the untouched
// original; each further variant re-optimizes the previous best.
func (a *Advisor) Variants(ctx context.Context, content, platform string, n int) ([]Variant, error) {
	if n < 1 {
		n = 1
	}
	base, err := a.Optimize(ctx, content, platform)
	if err != nil {
		return nil, err
	}
	variants := []Variant{{
		Label:           "A",
		Content:         content,
		EngagementScore: base.EngagementScore,
		BestTime:        base.BestTime,
	}}

	current := base.Optimized
	for i := 1; i < n; i++ {
		opt, err := a.Optimize(ctx, current, platform)
		if err != nil {
			return variants, err
		}
		variants = append(variants, Variant{
			Label:           string(rune('A' + i)),
			Content:         opt.Optimized,
			EngagementScore: opt.EngagementScore,
			BestTime:        opt.BestTime,
		})
		current = opt.Optimized
	}
	return variants, nil
}

func (a *Advisor) performanceData(ctx context.Context, platform string) (string, error) {
	if platform != PlatformTwitter || a.store == nil {
		return `{"recent_performance":[]}`, nil
	}
	tweets, err := a.store.ListRecentTweets(ctx, 10)
	if err != nil {
		return "", err
	}
	type perf struct {
		Content    string `json:"content"`
		Engagement int    `json:"engagement"`
		PostedAt   string `json:"posted_at"`
	}
	recent := make([]perf, 0, len(tweets))
	for _, t := range tweets {
		recent = append(recent, perf{
			Content:    t.Content,
			Engagement: t.EngagementScore,
			PostedAt:   t.CreatedAt.Format("2006-01-02T15:04:05"),
		})
	}
	data, err := json.Marshal(map[string]interface{}{"recent_performance": recent})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
