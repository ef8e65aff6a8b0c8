package cerberus

import (
	"testing"
	"time"
)

func TestParsePositiveInt(t *testing.T) {
	cases := []struct {
		name  string
		value interface{}
		want  int
		ok    bool
	}{
		{"positive int", 42, 42, true},
		{"zero int", 0, 0, false},
		{"negative int", -5, 0, false},
		{"positive float64", 7.0, 7, true},
		{"negative float64", -1.0, 0, false},
		{"string is rejected", "42", 0, false},
		{"nil is rejected", nil, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parsePositiveInt(tc.value)
			if ok != tc.ok || got != tc.want {
				t.Errorf("parsePositiveInt(%v) = (%d, %v), want (%d, %v)", tc.value, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestParseDurationValue(t *testing.T) {
	got, ok := parseDurationValue("30s")
	if !ok || got != 30*time.Second {
		t.Errorf("parseDurationValue(\"30s\") = (%v, %v), want (30s, true)", got, ok)
	}

	if _, ok := parseDurationValue("not-a-duration"); ok {
		t.Error("parseDurationValue(garbage) ok = true, want false")
	}
	if _, ok := parseDurationValue(30); ok {
		t.Error("parseDurationValue(non-string) ok = true, want false")
	}
}

func TestParseHotkeyConfig_NestedSection(t *testing.T) {
	fallback := HotkeyConfig{Threshold: 100, Window: time.Minute}
	data := map[string]interface{}{
		"hotkey": map[string]interface{}{
			"threshold": 200,
			"window":    "90s",
		},
	}

	got := parseHotkeyConfig(data, fallback)
	if got.Threshold != 200 {
		t.Errorf("Threshold = %d, want 200", got.Threshold)
	}
	if got.Window != 90*time.Second {
		t.Errorf("Window = %v, want 90s", got.Window)
	}
}

func TestParseHotkeyConfig_FlatFallsBackToTopLevel(t *testing.T) {
	fallback := HotkeyConfig{Threshold: 100, Window: time.Minute}
	data := map[string]interface{}{
		"threshold": 50,
	}

	got := parseHotkeyConfig(data, fallback)
	if got.Threshold != 50 {
		t.Errorf("Threshold = %d, want 50", got.Threshold)
	}
	if got.Window != time.Minute {
		t.Errorf("Window = %v, want fallback unchanged (1m)", got.Window)
	}
}

func TestParseHotkeyConfig_InvalidFieldsKeepFallback(t *testing.T) {
	fallback := HotkeyConfig{Threshold: 100, Window: time.Minute}
	data := map[string]interface{}{
		"hotkey": map[string]interface{}{
			"threshold": -1,
			"window":    "garbage",
		},
	}

	got := parseHotkeyConfig(data, fallback)
	if got != fallback {
		t.Errorf("parseHotkeyConfig with invalid fields = %+v, want fallback unchanged %+v", got, fallback)
	}
}

func TestNewHotConfig_RequiresConfigPath(t *testing.T) {
	facade := &Facade{cfg: DefaultConfig(), logger: NewZerologLogger()}
	_, err := NewHotConfig(facade, HotConfigOptions{})
	if err == nil {
		t.Error("NewHotConfig with empty ConfigPath = nil error, want error")
	}
}
