package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/telegram-digest-bot/internal/models"
	"github.com/telegram-digest-bot/internal/stats"
)

// fakeGenerator serves canned responses per request type and records the
// prompts it was asked.
type fakeGenerator struct {
	responses map[string]string
	errs      map[string]error
	prompts   map[string]string
	used      map[string]models.ModelType
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		responses: make(map[string]string),
		errs:      make(map[string]error),
		prompts:   make(map[string]string),
		used:      make(map[string]models.ModelType),
	}
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, model models.ModelType, requestType string) (string, error) {
	f.prompts[requestType] = prompt
	f.used[requestType] = model
	if err := f.errs[requestType]; err != nil {
		return "", err
	}
	return f.responses[requestType], nil
}

type recorderSpy struct {
	entries []*models.AnalysisRequestLog
}

func (r *recorderSpy) SaveAnalysisRequest(ctx context.Context, entry *models.AnalysisRequestLog) error {
	r.entries = append(r.entries, entry)
	return nil
}

func testConfig() *models.BotConfig {
	return &models.BotConfig{
		MinMessagesForTitles: 5,
		MaxUsersForTitles:    10,
		MinQuoteLength:       5,
		MaxQuoteLength:       120,
		MaxTitleLength:       20,
		MaxReasonLength:      160,
	}
}

func testAnalyzer(t *testing.T, gen TextGenerator, rec RequestRecorder) *Analyzer {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Fatalf("failed to load timezone: %v", err)
	}
	return New(gen, rec, testConfig(), loc, zerolog.Nop())
}

func transcript(loc *time.Location) []models.ChatMessage {
	base := time.Date(2026, 3, 14, 20, 0, 0, 0, loc)
	var messages []models.ChatMessage
	add := func(userID, name, text string) {
		messages = append(messages, models.ChatMessage{
			UserID:    userID,
			Nickname:  name,
			Text:      text,
			CreatedAt: base.Add(time.Duration(len(messages)) * time.Minute),
		})
	}

	// Alice and Bob clear the 5-message threshold, Carol does not
	for i := 0; i < 5; i++ {
		add("1001", "Alice", "alice talking about dinner plans")
		add("1002", "Bob", "bob disagreeing loudly about it")
	}
	add("1003", "Carol", "carol checking in quickly")
	add("1003", "Carol", "and leaving again")
	return messages
}

func TestTopicsParsesAndValidates(t *testing.T) {
	gen := newFakeGenerator()
	gen.responses["topics"] = "```json\n" +
		`[{"topic": "dinner plans", "contributors": ["Alice", "Bob"], "detail": "where to eat tonight"}]` +
		"\n```"

	a := testAnalyzer(t, gen, nil)
	topics := a.Topics(context.Background(), transcript(a.loc))

	if len(topics) != 1 {
		t.Fatalf("topics = %d, want 1", len(topics))
	}
	if topics[0].Title != "dinner plans" {
		t.Errorf("title = %q", topics[0].Title)
	}
}

func TestTopicsFailureReturnsNil(t *testing.T) {
	gen := newFakeGenerator()
	gen.errs["topics"] = errors.New("model unavailable")

	a := testAnalyzer(t, gen, nil)
	if topics := a.Topics(context.Background(), transcript(a.loc)); topics != nil {
		t.Errorf("topics = %v, want nil on failure", topics)
	}
}

func TestTopicsUnparsableReturnsNil(t *testing.T) {
	gen := newFakeGenerator()
	gen.responses["topics"] = "I could not produce JSON today, sorry."

	a := testAnalyzer(t, gen, nil)
	if topics := a.Topics(context.Background(), transcript(a.loc)); topics != nil {
		t.Errorf("topics = %v, want nil on unparsable reply", topics)
	}
}

func TestRankingsOnlyEligibleUsersPrompted(t *testing.T) {
	gen := newFakeGenerator()
	gen.responses["rankings"] = `[
		{"name": "Alice", "rank": "B", "score": 75, "comment": "steady presence"},
		{"name": "Bob", "rank": "S", "score": 140, "comment": "argued with everyone"}
	]`

	a := testAnalyzer(t, gen, nil)
	messages := transcript(a.loc)
	userStats := stats.Aggregate(messages, a.loc)

	entries := a.Rankings(context.Background(), messages, userStats)

	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Name != "Bob" || entries[1].Name != "Alice" {
		t.Errorf("order = %q, %q, want Bob first", entries[0].Name, entries[1].Name)
	}
	if entries[0].UserID != "1002" {
		t.Errorf("user id not backfilled: %q", entries[0].UserID)
	}

	prompt := gen.prompts["rankings"]
	if !strings.Contains(prompt, "Alice") || !strings.Contains(prompt, "Bob") {
		t.Errorf("eligible users missing from prompt")
	}
	if strings.Contains(prompt, "Carol") {
		t.Errorf("user below threshold leaked into prompt")
	}
}

func TestRankingsNobodyEligible(t *testing.T) {
	gen := newFakeGenerator()
	a := testAnalyzer(t, gen, nil)

	loc := a.loc
	messages := []models.ChatMessage{
		{UserID: "1003", Nickname: "Carol", Text: "hi", CreatedAt: time.Date(2026, 3, 14, 20, 0, 0, 0, loc)},
	}
	userStats := stats.Aggregate(messages, loc)

	if entries := a.Rankings(context.Background(), messages, userStats); entries != nil {
		t.Errorf("entries = %v, want nil below threshold", entries)
	}
	if _, called := gen.prompts["rankings"]; called {
		t.Error("LLM called with nobody eligible")
	}
}

func TestGoldenQuotesFiltersCandidates(t *testing.T) {
	gen := newFakeGenerator()
	gen.responses["golden_quotes"] = `[{"content": "bob disagreeing loudly about it", "sender": "Bob", "reason": "classic bob"}]`

	a := testAnalyzer(t, gen, nil)
	loc := a.loc
	base := time.Date(2026, 3, 14, 20, 0, 0, 0, loc)
	messages := []models.ChatMessage{
		{UserID: "1002", Nickname: "Bob", Text: "bob disagreeing loudly about it", CreatedAt: base},
		{UserID: "1001", Nickname: "Alice", Text: "ok", CreatedAt: base},                                // too short
		{UserID: "1001", Nickname: "Alice", Text: "http://example.com/some/link", CreatedAt: base},      // link
		{UserID: "1001", Nickname: "Alice", Text: "/digest today", CreatedAt: base},                     // command
		{UserID: "1001", Nickname: "Alice", Text: strings.Repeat("long ", 40) + "tail", CreatedAt: base}, // over window
	}

	quotes := a.GoldenQuotes(context.Background(), messages)
	if len(quotes) != 1 {
		t.Fatalf("quotes = %d, want 1", len(quotes))
	}

	prompt := gen.prompts["golden_quotes"]
	for _, excluded := range []string{"http://example.com", "/digest", "ok\n"} {
		if strings.Contains(prompt, excluded) {
			t.Errorf("excluded candidate %q leaked into prompt", excluded)
		}
	}
}

func TestUserProfileDropsInvalid(t *testing.T) {
	gen := newFakeGenerator()
	gen.responses["user_profile"] = `{"tags": ["夜猫子"]}` // missing every other field

	a := testAnalyzer(t, gen, nil)
	loc := a.loc
	messages := []models.ChatMessage{
		{UserID: "1001", Nickname: "Alice", Text: "late night talk", CreatedAt: time.Date(2026, 3, 14, 1, 0, 0, 0, loc)},
	}
	activity := stats.AggregateUser(messages, loc)

	if profile := a.UserProfile(context.Background(), messages, activity); profile != nil {
		t.Errorf("profile = %+v, want nil for incomplete object", profile)
	}
}

func TestUserPortrait(t *testing.T) {
	gen := newFakeGenerator()
	gen.responses["user_portrait"] = `{"name": "Alice", "title": "Night Owl", "personality": "INTJ", "reason": "posts after midnight"}`

	a := testAnalyzer(t, gen, nil)
	loc := a.loc
	messages := []models.ChatMessage{
		{UserID: "1001", Nickname: "Alice", Text: "late night talk", CreatedAt: time.Date(2026, 3, 14, 1, 0, 0, 0, loc)},
	}
	activity := stats.AggregateUser(messages, loc)

	portrait := a.UserPortrait(context.Background(), messages, activity)
	if portrait == nil {
		t.Fatal("portrait dropped")
	}
	if portrait.Title != "Night Owl" || portrait.UserID != "1001" {
		t.Errorf("portrait = %+v", portrait)
	}
}

func TestGenerateRecordsRequest(t *testing.T) {
	gen := newFakeGenerator()
	gen.responses["narrative"] = "a quiet day"
	rec := &recorderSpy{}

	a := testAnalyzer(t, gen, rec)
	ctx := WithRun(context.Background(), RunInfo{ID: "run-1", ChatID: -100})

	text := a.Narrative(ctx, "2026-03-14", transcript(a.loc))
	if text != "a quiet day" {
		t.Fatalf("narrative = %q", text)
	}

	if len(rec.entries) != 1 {
		t.Fatalf("recorded entries = %d, want 1", len(rec.entries))
	}
	entry := rec.entries[0]
	if entry.RunID != "run-1" || entry.ChatID != -100 {
		t.Errorf("run metadata not propagated: %+v", entry)
	}
	if entry.RequestType != "narrative" || entry.ErrorMessage != "" {
		t.Errorf("entry = %+v", entry)
	}
}

func TestGenerateRecordsFailure(t *testing.T) {
	gen := newFakeGenerator()
	gen.errs["narrative"] = errors.New("quota exceeded")
	rec := &recorderSpy{}

	a := testAnalyzer(t, gen, rec)
	if text := a.Narrative(context.Background(), "2026-03-14", transcript(a.loc)); text != "" {
		t.Errorf("narrative = %q, want empty on failure", text)
	}

	if len(rec.entries) != 1 || rec.entries[0].ErrorMessage == "" {
		t.Errorf("failed request not recorded: %+v", rec.entries)
	}
}

func TestModelSelectionPerKind(t *testing.T) {
	gen := newFakeGenerator()
	gen.responses["narrative"] = "a quiet day"
	gen.responses["topics"] = `[{"topic": "dinner plans", "contributors": ["Alice"], "detail": "where to eat"}]`
	rec := &recorderSpy{}

	a := testAnalyzer(t, gen, rec)
	messages := transcript(a.loc)

	a.Narrative(context.Background(), "2026-03-14", messages)
	a.Topics(context.Background(), messages)

	// Free-text recaps get the larger model, structured extraction the fast one.
	if gen.used["narrative"] != models.ModelPro {
		t.Errorf("narrative model = %q, want %q", gen.used["narrative"], models.ModelPro)
	}
	if gen.used["topics"] != models.ModelFlash {
		t.Errorf("topics model = %q, want %q", gen.used["topics"], models.ModelFlash)
	}

	for _, entry := range rec.entries {
		want := models.ModelFlash
		if entry.RequestType == "narrative" {
			want = models.ModelPro
		}
		if entry.ModelUsed != string(want) {
			t.Errorf("%s audit model = %q, want %q", entry.RequestType, entry.ModelUsed, want)
		}
	}
}

