package report

import (
	"reflect"
	"strings"
	"testing"

	"github.com/telegram-digest-bot/internal/models"
)

func TestParseModuleOrder(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		want    [][]string
	}{
		{
			name:    "flat order",
			entries: []string{"Activity", "Topics", "Quotes"},
			want:    [][]string{{"Activity"}, {"Topics"}, {"Quotes"}},
		},
		{
			name:    "grouped entry",
			entries: []string{"Activity", "Portraits,Rankings", "Quotes"},
			want:    [][]string{{"Activity"}, {"Portraits", "Rankings"}, {"Quotes"}},
		},
		{
			name:    "case and spacing",
			entries: []string{" activity ", "TOPICS, quotes"},
			want:    [][]string{{"Activity"}, {"Topics", "Quotes"}},
		},
		{
			name:    "unknown dropped",
			entries: []string{"Activity", "Nonsense", "Quotes"},
			want:    [][]string{{"Activity"}, {"Quotes"}},
		},
		{
			name:    "duplicates keep first position",
			entries: []string{"Quotes", "Activity,Quotes"},
			want:    [][]string{{"Quotes"}, {"Activity"}},
		},
		{
			name:    "empty",
			entries: nil,
			want:    [][]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseModuleOrder(tt.entries)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseModuleOrder(%v) = %v, want %v", tt.entries, got, tt.want)
			}
		})
	}
}

func TestEscapeMarkdown(t *testing.T) {
	if got := escapeMarkdown("a_b*c`d[e"); got != "a\\_b\\*c\\`d\\[e" {
		t.Errorf("escapeMarkdown = %q", got)
	}
}

func rankEntries(n int) []models.RankEntry {
	entries := make([]models.RankEntry, 0, n)
	ranks := []string{"S", "A", "B", "C", "D"}
	for i := 0; i < n; i++ {
		entries = append(entries, models.RankEntry{
			Name:    string(rune('A' + i)),
			Rank:    ranks[i%len(ranks)],
			Score:   150 - i*10,
			Comment: "comment",
		})
	}
	return entries
}

func TestRankingsSectionTopOnly(t *testing.T) {
	f := &Formatter{maxRankEntries: 3, rankShowBottom: false}

	var sb strings.Builder
	f.rankingsSection(&sb, rankEntries(6))
	out := sb.String()

	if !strings.Contains(out, "1. [S] A") {
		t.Errorf("missing top entry:\n%s", out)
	}
	if strings.Contains(out, "…") {
		t.Errorf("bottom slice shown when disabled:\n%s", out)
	}
	if got := strings.Count(out, "\n"); got != 4 { // header + 3 entries
		t.Errorf("line count = %d:\n%s", got, out)
	}
}

func TestRankingsSectionWithBottom(t *testing.T) {
	f := &Formatter{maxRankEntries: 3, rankShowBottom: true}

	var sb strings.Builder
	f.rankingsSection(&sb, rankEntries(8))
	out := sb.String()

	if !strings.Contains(out, "…") {
		t.Fatalf("ellipsis missing:\n%s", out)
	}
	// Last entry is position 8
	if !strings.Contains(out, "8. ") {
		t.Errorf("bottom entries missing:\n%s", out)
	}
	// No overlap between top and bottom slices
	if strings.Count(out, "3. ") != 1 {
		t.Errorf("slice overlap:\n%s", out)
	}
}

func TestRankingsSectionShortListUnsliced(t *testing.T) {
	f := &Formatter{maxRankEntries: 10, rankShowBottom: true}

	var sb strings.Builder
	f.rankingsSection(&sb, rankEntries(4))
	out := sb.String()

	if strings.Contains(out, "…") {
		t.Errorf("short list should not be sliced:\n%s", out)
	}
	if !strings.Contains(out, "4. ") {
		t.Errorf("entry missing:\n%s", out)
	}
}

func TestFormatSkipsEmptySections(t *testing.T) {
	f := NewFormatter(&models.BotConfig{MaxRankEntries: 10})

	d := &Digest{
		Date:             "2026-03-14",
		MessageCount:     42,
		ParticipantCount: 5,
		Hourly:           map[int]int{9: 42},
	}
	order := [][]string{{SectionActivity}, {SectionTopics}, {SectionRankings}}

	out := f.Format(d, order)

	if !strings.Contains(out, "Daily Digest — 2026-03-14") {
		t.Errorf("header missing:\n%s", out)
	}
	if !strings.Contains(out, "42 messages from 5 members") {
		t.Errorf("activity missing:\n%s", out)
	}
	if strings.Contains(out, "Topics of the Day") || strings.Contains(out, "Chaos Index") {
		t.Errorf("empty sections rendered:\n%s", out)
	}
}

func TestFormatOrdersGroups(t *testing.T) {
	f := NewFormatter(&models.BotConfig{MaxRankEntries: 10})

	d := &Digest{
		Date:         "2026-03-14",
		MessageCount: 10,
		Quotes:       []models.Quote{{Content: "a quote", Sender: "Alice", Reason: "funny"}},
		Rankings:     []models.RankEntry{{Name: "Alice", Rank: "S", Score: 140, Comment: "chaos"}},
	}

	out := f.Format(d, [][]string{{SectionQuotes}, {SectionRankings}})
	if strings.Index(out, "Golden Quotes") > strings.Index(out, "Chaos Index") {
		t.Errorf("sections out of order:\n%s", out)
	}

	out = f.Format(d, [][]string{{SectionRankings}, {SectionQuotes}})
	if strings.Index(out, "Chaos Index") > strings.Index(out, "Golden Quotes") {
		t.Errorf("sections out of order after reorder:\n%s", out)
	}
}

func TestFormatUser(t *testing.T) {
	f := NewFormatter(&models.BotConfig{MaxRankEntries: 10})

	activity := &models.UserActivity{
		UserID:       "1001",
		Nickname:     "Alice",
		MessageCount: 12,
		CharCount:    240,
		EmojiCount:   3,
	}
	activity.Hourly[21] = 12

	d := &UserDigest{
		Date:     "2026-03-14",
		Name:     "Alice",
		Activity: activity,
		Summary:  "Alice had a chatty evening.",
		Rating:   &models.RankEntry{Name: "Alice", Rank: "A", Score: 100, Comment: "solid showing"},
	}

	order := [][]string{{SectionActivity}, {SectionSummary}, {SectionRankings}}
	out := f.FormatUser(d, order)

	if !strings.Contains(out, "Daily Digest for Alice — 2026-03-14") {
		t.Errorf("header missing:\n%s", out)
	}
	if !strings.Contains(out, "12 messages, 240 characters, 3 emoji") {
		t.Errorf("activity missing:\n%s", out)
	}
	if !strings.Contains(out, "Alice had a chatty evening.") {
		t.Errorf("summary missing:\n%s", out)
	}
	if !strings.Contains(out, "[A] Alice — 100") {
		t.Errorf("rating missing:\n%s", out)
	}
}

func TestFormatUserProfileSection(t *testing.T) {
	f := NewFormatter(&models.BotConfig{MaxRankEntries: 10})

	d := &UserDigest{
		Date: "2026-03-14",
		Name: "Alice",
		Profile: &models.Profile{
			UserID:          "1001",
			Tags:            []string{"night owl", "debugger"},
			ActiveTime:      "late evening",
			FunScore:        72,
			FunComment:      "keeps the chat_alive",
			TopicLeadership: 64,
			TopicComment:    "starts most threads",
			RankTitle:       "Resident Insomniac",
			RankDesc:        "last one typing every night",
			Mood:            models.MoodPositive,
			MoodScore:       80,
			MoodReason:      "shipped the fix",
		},
	}

	out := f.FormatUser(d, [][]string{{SectionProfile}})

	if !strings.Contains(out, "*Member Profile*") {
		t.Fatalf("profile section missing:\n%s", out)
	}
	if !strings.Contains(out, "#night owl #debugger") {
		t.Errorf("tags missing:\n%s", out)
	}
	if !strings.Contains(out, "Active: late evening") {
		t.Errorf("active time missing:\n%s", out)
	}
	if !strings.Contains(out, "Fun 72/100 · keeps the chat\\_alive") {
		t.Errorf("fun line missing or unescaped:\n%s", out)
	}
	if !strings.Contains(out, "Topic drive 64/100 · starts most threads") {
		t.Errorf("topic line missing:\n%s", out)
	}
	if !strings.Contains(out, "*Resident Insomniac* — last one typing every night") {
		t.Errorf("rank title missing:\n%s", out)
	}
	if !strings.Contains(out, "Mood: positive 80/100 · shipped the fix") {
		t.Errorf("mood line missing:\n%s", out)
	}
}

func TestFormatUserNilProfileSkipped(t *testing.T) {
	f := NewFormatter(&models.BotConfig{MaxRankEntries: 10})

	d := &UserDigest{Date: "2026-03-14", Name: "Alice"}
	out := f.FormatUser(d, [][]string{{SectionProfile}})

	if strings.Contains(out, "Member Profile") {
		t.Errorf("empty profile should render nothing:\n%s", out)
	}
}

func TestWriteHourlyChart(t *testing.T) {
	var sb strings.Builder
	writeHourlyChart(&sb, map[int]int{9: 10, 21: 5})
	out := sb.String()

	if !strings.Contains(out, "09:00") || !strings.Contains(out, "21:00") {
		t.Errorf("hours missing:\n%s", out)
	}
	if strings.Contains(out, "10:00") {
		t.Errorf("empty hour rendered:\n%s", out)
	}
	// Peak hour gets the widest bar
	lines := strings.Split(strings.TrimSpace(out), "\n")
	var nine, twentyOne string
	for _, line := range lines {
		if strings.HasPrefix(line, "09:00") {
			nine = line
		}
		if strings.HasPrefix(line, "21:00") {
			twentyOne = line
		}
	}
	if strings.Count(nine, "▇") <= strings.Count(twentyOne, "▇") {
		t.Errorf("peak bar not widest:\n%s", out)
	}
}
