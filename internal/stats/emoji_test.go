package stats

import "testing"

func TestCountEmojis(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"no emoji", "plain text 123", 0},
		{"single", "nice 👍", 1},
		{"run counts once", "wow 😂😂😂", 1},
		{"separated runs", "😂 and 😂", 2},
		{"cjk not emoji", "今天天气不错", 0},
		{"flag pair", "🇯🇵", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountEmojis(tt.text); got != tt.want {
				t.Errorf("CountEmojis(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestStripEmojis(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"passthrough", "hello", "hello"},
		{"strip inline", "a😂b", "ab"},
		{"keeps cjk", "今天😂天气", "今天天气"},
		{"keeps digits", "1😂2", "12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripEmojis(tt.text); got != tt.want {
				t.Errorf("StripEmojis(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsEmoji(t *testing.T) {
	if !IsEmoji('😀') {
		t.Error("😀 should be an emoji")
	}
	if IsEmoji('中') {
		t.Error("CJK ideograph must not count as emoji")
	}
	if IsEmoji('A') || IsEmoji('9') {
		t.Error("ASCII must not count as emoji")
	}
}
