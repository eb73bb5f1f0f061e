package config

import (
	"reflect"
	"testing"
)

func TestParseFireTime(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{"23:00", 23, 0, false},
		{"00:00", 0, 0, false},
		{"9:05", 9, 5, false},
		{"23:59", 23, 59, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"noon", 0, 0, true},
		{"", 0, 0, true},
		{"12", 0, 0, true},
	}

	for _, tt := range tests {
		hour, minute, err := ParseFireTime(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFireTime(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFireTime(%q) error: %v", tt.in, err)
			continue
		}
		if hour != tt.hour || minute != tt.minute {
			t.Errorf("ParseFireTime(%q) = %d:%d, want %d:%d", tt.in, hour, minute, tt.hour, tt.minute)
		}
	}
}

func TestGetEnvListGroupedModules(t *testing.T) {
	t.Setenv("TEST_MODULES", "Activity; Portraits,Rankings ;Quotes")

	got := getEnvList("TEST_MODULES", nil)
	want := []string{"Activity", "Portraits,Rankings", "Quotes"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("getEnvList = %v, want %v", got, want)
	}
}

func TestGetEnvListDefault(t *testing.T) {
	def := []string{"Activity"}
	if got := getEnvList("UNSET_TEST_KEY", def); !reflect.DeepEqual(got, def) {
		t.Errorf("getEnvList unset = %v, want default", got)
	}

	t.Setenv("TEST_EMPTY_LIST", " ; ; ")
	if got := getEnvList("TEST_EMPTY_LIST", def); !reflect.DeepEqual(got, def) {
		t.Errorf("getEnvList blank entries = %v, want default", got)
	}
}

func TestGetEnvInt64List(t *testing.T) {
	t.Setenv("TEST_CHAT_IDS", "-100123, 456,notanumber, 789")

	got := getEnvInt64List("TEST_CHAT_IDS", nil)
	want := []int64{-100123, 456, 789}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("getEnvInt64List = %v, want %v", got, want)
	}
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("ALLOWED_CHAT_IDS", "-100123")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_KEY", "anon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DigestTime != "23:00" {
		t.Errorf("default digest time = %q", cfg.DigestTime)
	}
	if cfg.MyDigestDailyLimit != 3 {
		t.Errorf("default mydigest limit = %d", cfg.MyDigestDailyLimit)
	}
	if cfg.Timezone != "Asia/Shanghai" {
		t.Errorf("default timezone = %q", cfg.Timezone)
	}
	if len(cfg.MyDigestModules) != 3 {
		t.Errorf("default mydigest modules = %v", cfg.MyDigestModules)
	}

	t.Setenv("DIGEST_TIME", "25:00")
	if _, err := Load(); err == nil {
		t.Error("Load() should reject DIGEST_TIME 25:00")
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("ALLOWED_CHAT_IDS", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_KEY", "")

	if _, err := Load(); err == nil {
		t.Error("Load() should fail without required settings")
	}
}
