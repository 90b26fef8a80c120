package twitter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/superteamvn/stvbot/internal/advisor"
	"github.com/superteamvn/stvbot/internal/drafts"
	"github.com/superteamvn/stvbot/internal/models"
	"github.com/superteamvn/stvbot/internal/storage"
)

type fakeOptimizer struct {
	optimized string
	score     int
}

func (f *fakeOptimizer) Optimize(ctx context.Context, content, platform string) (*advisor.Optimization, error) {
	out := f.optimized
	if out == "" {
		out = content
	}
	return &advisor.Optimization{
		Original:        content,
		Optimized:       out,
		Suggestions:     []string{"Add a call to action"},
		EngagementScore: f.score,
		BestTime:        "9:00 AM",
	}, nil
}

func (f *fakeOptimizer) Variants(ctx context.Context, content, platform string, n int) ([]advisor.Variant, error) {
	return []advisor.Variant{{Label: "A", Content: content}}, nil
}

func newTestManager(t *testing.T, opt Optimizer, pub Publisher) (*Manager, storage.Storage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	ds := drafts.NewStore(time.Hour, nil)
	return NewManager(opt, ds, pub, store, []string{"SuperteamVN", "solana"}, nil), store
}

func TestCreateAndPreviewDraft(t *testing.T) {
	m, _ := newTestManager(t, &fakeOptimizer{score: 70}, &Simulator{})
	ctx := context.Background()

	draft, err := m.CreateDraft(ctx, "u1", "short tweet")
	if err != nil {
		t.Fatal(err)
	}
	if draft.Version != 1 || draft.Original != "short tweet" {
		t.Fatalf("got %+v", draft)
	}
	if draft.Metrics.EngagementScore != 70 {
		t.Fatalf("metrics = %+v", draft.Metrics)
	}

	// Short content gets a context suggestion.
	hasHint := false
	for _, s := range draft.Suggestions {
		if s == "Consider adding more context for better engagement" {
			hasHint = true
		}
	}
	if !hasHint {
		t.Fatalf("suggestions = %v", draft.Suggestions)
	}

	preview, err := m.Preview("u1")
	if err != nil {
		t.Fatal(err)
	}
	if preview.Content != draft.Content {
		t.Fatal("preview should return the stored draft")
	}
}

func TestCreateDraftFlagsUnknownMentions(t *testing.T) {
	m, _ := newTestManager(t, &fakeOptimizer{}, &Simulator{})

	draft, err := m.CreateDraft(context.Background(), "u1", "shoutout to @SuperteamVN and @randomperson for the event today!")
	if err != nil {
		t.Fatal(err)
	}
	flagged := false
	for _, s := range draft.Suggestions {
		if s == "@randomperson is not in followed accounts" {
			flagged = true
		}
	}
	if !flagged {
		t.Fatalf("suggestions = %v", draft.Suggestions)
	}
	for _, s := range draft.Suggestions {
		if s == "@SuperteamVN is not in followed accounts" {
			t.Fatal("followed account must not be flagged")
		}
	}
}

func TestImproveBumpsVersion(t *testing.T) {
	m, _ := newTestManager(t, &fakeOptimizer{score: 50}, &Simulator{})
	ctx := context.Background()

	if _, err := m.CreateDraft(ctx, "u1", "base content for the announcement we are making"); err != nil {
		t.Fatal(err)
	}
	draft, err := m.Improve(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if draft.Version != 2 {
		t.Fatalf("version = %d, want 2", draft.Version)
	}
}

func TestUpdateCarriesVersionForward(t *testing.T) {
	m, _ := newTestManager(t, &fakeOptimizer{}, &Simulator{})
	ctx := context.Background()

	m.CreateDraft(ctx, "u1", "first version of the announcement tweet content")
	draft, err := m.Update(ctx, "u1", "second version of the announcement tweet content")
	if err != nil {
		t.Fatal(err)
	}
	if draft.Version != 2 {
		t.Fatalf("version = %d, want 2", draft.Version)
	}
	if draft.Original != "second version of the announcement tweet content" {
		t.Fatalf("original = %q", draft.Original)
	}
}

func TestUpdateWithoutDraftFails(t *testing.T) {
	m, _ := newTestManager(t, &fakeOptimizer{}, &Simulator{})
	if _, err := m.Update(context.Background(), "u1", "content"); !errors.Is(err, drafts.ErrNoDraft) {
		t.Fatalf("err = %v, want ErrNoDraft", err)
	}
}

func TestPublishSimulated(t *testing.T) {
	m, store := newTestManager(t, &fakeOptimizer{score: 64}, &Simulator{})
	ctx := context.Background()

	m.CreateDraft(ctx, "u1", "publishing this announcement about the next community call")
	tweet, err := m.Publish(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if tweet.Status != models.TweetStatusSimulated {
		t.Fatalf("status = %s", tweet.Status)
	}
	if tweet.EngagementScore != 64 {
		t.Fatalf("score = %d", tweet.EngagementScore)
	}

	// Draft is cleared after publishing.
	if _, err := m.Preview("u1"); !errors.Is(err, drafts.ErrNoDraft) {
		t.Fatalf("err = %v, want ErrNoDraft", err)
	}

	// Tweet was recorded for performance tracking.
	recent, err := store.ListRecentTweets(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].ID != tweet.ID {
		t.Fatalf("recent = %+v", recent)
	}
}

func TestPublishWithoutDraftFails(t *testing.T) {
	m, _ := newTestManager(t, &fakeOptimizer{}, &Simulator{})
	if _, err := m.Publish(context.Background(), "u1"); !errors.Is(err, drafts.ErrNoDraft) {
		t.Fatalf("err = %v, want ErrNoDraft", err)
	}
}

func TestAPIClientPublish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2/tweets" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token123" {
			t.Errorf("auth header = %q", got)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data": {"id": "1234567890"}}`))
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "token123")
	id, err := c.Publish(context.Background(), "hello world")
	if err != nil {
		t.Fatal(err)
	}
	if id != "1234567890" {
		t.Fatalf("id = %q", id)
	}
}

func TestAPIClientPublishError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail": "forbidden"}`))
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "bad")
	if _, err := c.Publish(context.Background(), "hello"); err == nil {
		t.Fatal("expected error on 403")
	}
}

func TestUnknownMentions(t *testing.T) {
	followed := []string{"SuperteamVN", "@solana"}
	got := UnknownMentions("hey @superteamvn meet @Unknown1 and @unknown2, plus @solana!", followed)
	want := []string{"Unknown1", "unknown2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if UnknownMentions("no mentions here", followed) != nil {
		t.Fatal("expected nil for no mentions")
	}
}
