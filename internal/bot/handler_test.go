package bot

import (
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/telegram-digest-bot/internal/models"
)

func TestResolveDate(t *testing.T) {
	b := &Bot{config: &models.BotConfig{Timezone: "Asia/Shanghai"}}
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Fatalf("failed to load timezone: %v", err)
	}
	now := time.Now().In(loc)

	tests := []struct {
		arg  string
		want string
	}{
		{"", now.Format("2006-01-02")},
		{"today", now.Format("2006-01-02")},
		{"Today", now.Format("2006-01-02")},
		{"yesterday", now.AddDate(0, 0, -1).Format("2006-01-02")},
		{" yesterday ", now.AddDate(0, 0, -1).Format("2006-01-02")},
	}

	for _, tt := range tests {
		got, err := b.resolveDate(tt.arg)
		if err != nil {
			t.Errorf("resolveDate(%q) error: %v", tt.arg, err)
			continue
		}
		if got != tt.want {
			t.Errorf("resolveDate(%q) = %q, want %q", tt.arg, got, tt.want)
		}
	}

	if _, err := b.resolveDate("last tuesday"); err == nil {
		t.Error("resolveDate should reject free-form dates")
	}
}

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"12345", true},
		{"0", true},
		{"", false},
		{"12a", false},
		{"-5", false},
		{"today", false},
	}

	for _, tt := range tests {
		if got := isNumeric(tt.in); got != tt.want {
			t.Errorf("isNumeric(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user *tgbotapi.User
		want string
	}{
		{"nil user", nil, ""},
		{"first only", &tgbotapi.User{FirstName: "Alice"}, "Alice"},
		{"first and last", &tgbotapi.User{FirstName: "Alice", LastName: "Doe"}, "Alice Doe"},
		{"falls back to username", &tgbotapi.User{UserName: "alice42"}, "alice42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := displayName(tt.user); got != tt.want {
				t.Errorf("displayName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitMessageShortTextUntouched(t *testing.T) {
	chunks := splitMessage("hello", 4096)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Errorf("chunks = %q", chunks)
	}
}

func TestSplitMessagePrefersNewlineBoundary(t *testing.T) {
	text := strings.Repeat("x", 30) + "\n" + strings.Repeat("y", 30)
	chunks := splitMessage(text, 40)

	if len(chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(chunks))
	}
	if chunks[0] != strings.Repeat("x", 30) {
		t.Errorf("first chunk = %q, want the full x line", chunks[0])
	}
	if chunks[1] != strings.Repeat("y", 30) {
		t.Errorf("second chunk = %q", chunks[1])
	}
}

func TestSplitMessageHardCutWithoutNewline(t *testing.T) {
	text := strings.Repeat("字", 100)
	chunks := splitMessage(text, 40)

	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	var total int
	for i, c := range chunks {
		n := len([]rune(c))
		if n > 40 {
			t.Errorf("chunk %d has %d runes, exceeds limit", i, n)
		}
		total += n
	}
	if total != 100 {
		t.Errorf("total runes = %d, want 100", total)
	}
}
