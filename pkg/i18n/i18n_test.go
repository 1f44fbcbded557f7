package i18n

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseAcceptLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   Locale
	}{
		{"", LocaleEn},
		{"ko", LocaleKo},
		{"ko-KR,ko;q=0.9,en-US;q=0.8", LocaleKo},
		{"en-US,en;q=0.9", LocaleEn},
		{"ja,en-US;q=0.7", LocaleJa},
		{"fr-FR,fr;q=0.9", LocaleEn}, // unsupported → fallback
		{"ja-JP", LocaleJa},
	}

	for _, tt := range tests {
		got := ParseAcceptLanguage(tt.header)
		if got != tt.want {
			t.Errorf("ParseAcceptLanguage(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestBundleTDefault(t *testing.T) {
	b := NewBundle(LocaleEn)
	for locale, msgs := range DefaultMessages() {
		b.LoadMessages(locale, msgs)
	}

	if got := b.TDefault(LocaleKo, "BaseElement.ShowTitleLabel", "Displayed"); got != "표시" {
		t.Errorf("ko ShowTitleLabel = %q", got)
	}
	// en has no entry, inline default wins
	if got := b.TDefault(LocaleEn, "BaseElement.ShowTitleLabel", "Displayed"); got != "Displayed" {
		t.Errorf("en ShowTitleLabel = %q", got)
	}
	if got := b.T(LocaleEn, "unknown.key"); got != "unknown.key" {
		t.Errorf("unknown key = %q", got)
	}
}

func TestBundleFallbackLocale(t *testing.T) {
	b := NewBundle(LocaleKo)
	b.LoadMessages(LocaleKo, map[string]string{"greet": "안녕 %s"})

	if got := b.T(LocaleJa, "greet", "철수"); got != "안녕 철수" {
		t.Errorf("fallback = %q", got)
	}
}

func TestLoadDirMerges(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{"BaseElement.ShowTitleLabel":"Visible"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0o600); err != nil {
		t.Fatal(err)
	}

	b := NewBundle(LocaleEn)
	b.LoadMessages(LocaleEn, map[string]string{"other": "kept"})
	if err := b.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	if got := b.TDefault(LocaleEn, "BaseElement.ShowTitleLabel", "Displayed"); got != "Visible" {
		t.Errorf("override = %q", got)
	}
	if got := b.T(LocaleEn, "other"); got != "kept" {
		t.Errorf("merge lost existing key, got %q", got)
	}
}
