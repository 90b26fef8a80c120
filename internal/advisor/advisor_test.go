package advisor

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/superteamvn/stvbot/internal/models"
	"github.com/superteamvn/stvbot/internal/storage"
)

type fakeQuerier struct {
	answer  *models.Answer
	prompts []string
}

func (f *fakeQuerier) QueryWithThreshold(ctx context.Context, question string, threshold float64) (*models.Answer, error) {
	f.prompts = append(f.prompts, question)
	return f.answer, nil
}

func TestOptimizeParsesVerdict(t *testing.T) {
	q := &fakeQuerier{answer: &models.Answer{
		Text: `{
			"improved_content": "Join our Solana workshop! 🚀",
			"suggestions": ["Add a call to action"],
			"engagement_score": 85,
			"best_time_to_post": "9:00 AM",
			"hashtags": ["#Solana"],
			"keywords": ["workshop"]
		}`,
		Confidence: 0.91,
	}}
	a := New(q, nil, 0.8, nil)

	opt, err := a.Optimize(context.Background(), "join our workshop", PlatformTwitter)
	if err != nil {
		t.Fatal(err)
	}
	if opt.Optimized != "Join our Solana workshop! 🚀" {
		t.Fatalf("optimized = %q", opt.Optimized)
	}
	if opt.EngagementScore != 85 || opt.BestTime != "9:00 AM" {
		t.Fatalf("got %+v", opt)
	}
	if opt.Original != "join our workshop" {
		t.Fatalf("original = %q", opt.Original)
	}
	if opt.Confidence != 0.91 {
		t.Fatalf("confidence = %f", opt.Confidence)
	}
	if len(opt.Hashtags) != 1 || opt.Hashtags[0] != "#Solana" {
		t.Fatalf("hashtags = %v", opt.Hashtags)
	}
}

func TestOptimizeParsesFencedVerdict(t *testing.T) {
	q := &fakeQuerier{answer: &models.Answer{
		Text: "```json\n" + `{
			"improved_content": "Better tweet",
			"suggestions": ["Shorter opener"],
			"engagement_score": 70,
			"best_time_to_post": "9:00 AM"
		}` + "\n```",
		Confidence: 0.95,
	}}
	a := New(q, nil, 0.8, nil)

	opt, err := a.Optimize(context.Background(), "original tweet", PlatformTwitter)
	if err != nil {
		t.Fatal(err)
	}
	if opt.Optimized != "Better tweet" {
		t.Fatalf("optimized = %q, fenced verdict must parse", opt.Optimized)
	}
	for _, s := range opt.Suggestions {
		if s == "Error processing suggestions" {
			t.Fatal("fenced verdict fell back to the error placeholder")
		}
	}
	if opt.EngagementScore != 70 {
		t.Fatalf("engagement score = %d", opt.EngagementScore)
	}
}

func TestOptimizeFallsBackOnUnparseableAnswer(t *testing.T) {
	q := &fakeQuerier{answer: &models.Answer{
		Text:       "While I have some information, I'm not confident enough to provide an accurate answer to this question.",
		Confidence: 0.4,
	}}
	a := New(q, nil, 0.8, nil)

	opt, err := a.Optimize(context.Background(), "original text", PlatformTelegram)
	if err != nil {
		t.Fatal(err)
	}
	if opt.Optimized != "original text" {
		t.Fatalf("optimized = %q, want original back", opt.Optimized)
	}
	found := false
	for _, s := range opt.Suggestions {
		if s == "Error processing suggestions" {
			found = true
		}
	}
	if !found {
		t.Fatalf("suggestions = %v", opt.Suggestions)
	}
}

func TestOptimizeAddsTwitterLengthWarning(t *testing.T) {
	long := strings.Repeat("x", 300)
	q := &fakeQuerier{answer: &models.Answer{
		Text:       `{"improved_content": "` + long + `", "suggestions": [], "engagement_score": 50, "best_time_to_post": "noon"}`,
		Confidence: 0.9,
	}}
	a := New(q, nil, 0.8, nil)

	opt, err := a.Optimize(context.Background(), long, PlatformTwitter)
	if err != nil {
		t.Fatal(err)
	}
	hasLimit := false
	for _, s := range opt.Suggestions {
		if strings.Contains(s, "280 character limit") {
			hasLimit = true
		}
	}
	if !hasLimit {
		t.Fatalf("suggestions = %v", opt.Suggestions)
	}
}

func TestOptimizeAddsTelegramFormattingHint(t *testing.T) {
	q := &fakeQuerier{answer: &models.Answer{
		Text:       `{"improved_content": "single line", "suggestions": [], "engagement_score": 10, "best_time_to_post": "N/A"}`,
		Confidence: 0.9,
	}}
	a := New(q, nil, 0.8, nil)

	opt, err := a.Optimize(context.Background(), "single line", PlatformTelegram)
	if err != nil {
		t.Fatal(err)
	}
	hasHint := false
	for _, s := range opt.Suggestions {
		if strings.Contains(s, "line breaks") {
			hasHint = true
		}
	}
	if !hasHint {
		t.Fatalf("suggestions = %v", opt.Suggestions)
	}
}

func TestOptimizeIncludesPerformanceData(t *testing.T) {
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()
	store.SaveTweet(ctx, &models.Tweet{ID: "t1", Content: "previous banger", Status: models.TweetStatusPublished, EngagementScore: 90})

	q := &fakeQuerier{answer: &models.Answer{Text: "{}", Confidence: 0.9}}
	a := New(q, store, 0.8, nil)

	if _, err := a.Optimize(ctx, "new tweet", PlatformTwitter); err != nil {
		t.Fatal(err)
	}
	if len(q.prompts) != 1 || !strings.Contains(q.prompts[0], "previous banger") {
		t.Fatal("prompt should carry recent tweet performance")
	}
}

func TestVariants(t *testing.T) {
	q := &fakeQuerier{answer: &models.Answer{
		Text:       `{"improved_content": "better version", "suggestions": [], "engagement_score": 70, "best_time_to_post": "9:00 AM"}`,
		Confidence: 0.9,
	}}
	a := New(q, nil, 0.8, nil)

	variants, err := a.Variants(context.Background(), "base content", PlatformTwitter, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(variants) != 3 {
		t.Fatalf("got %d variants", len(variants))
	}
	if variants[0].Label != "A" || variants[0].Content != "base content" {
		t.Fatalf("variant A = %+v", variants[0])
	}
	if variants[1].Label != "B" || variants[2].Label != "C" {
		t.Fatalf("labels = %s, %s", variants[1].Label, variants[2].Label)
	}
	if variants[1].Content != "better version" {
		t.Fatalf("variant B content = %q", variants[1].Content)
	}
}
