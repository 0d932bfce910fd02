package trajectlyagent

import "testing"

func withEnv(t *testing.T, kv map[string]string, fn func()) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
	fn()
}

func TestLoadConfigRequiresMode(t *testing.T) {
	withEnv(t, map[string]string{
		envSpecName:    "demo",
		envFixturePath: "/tmp/bundle.jsonl",
	}, func() {
		if _, err := LoadConfig(); err == nil {
			t.Fatal("expected error when TRAJECTLY_MODE is unset")
		}
	})
}

func TestLoadConfigRejectsUnknownMode(t *testing.T) {
	withEnv(t, map[string]string{
		envMode:        "sideways",
		envSpecName:    "demo",
		envFixturePath: "/tmp/bundle.jsonl",
	}, func() {
		if _, err := LoadConfig(); err == nil {
			t.Fatal("expected error for an unrecognized mode")
		}
	})
}

func TestLoadConfigRequiresSpecNameAndFixturePath(t *testing.T) {
	withEnv(t, map[string]string{envMode: ModeRecord}, func() {
		if _, err := LoadConfig(); err == nil {
			t.Fatal("expected error when spec_name and fixture_path are unset")
		}
	})
	withEnv(t, map[string]string{envMode: ModeRecord, envSpecName: "demo"}, func() {
		if _, err := LoadConfig(); err == nil {
			t.Fatal("expected error when fixture_path is unset")
		}
	})
}

func TestLoadConfigParsesReplayFields(t *testing.T) {
	withEnv(t, map[string]string{
		envMode:              ModeReplay,
		envSpecName:          "demo",
		envFixturePath:       "/tmp/bundle.jsonl",
		envReplayMode:        "offline",
		envStrictSequence:    "true",
		envLLMMatchMode:      "signature_match",
		envToolMatchMode:     "args_signature_match",
		envAllowDomains:      "api.example.com,cdn.example.com",
		envNormalizerVersion: "v3",
	}, func() {
		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if cfg.Mode != ModeReplay || cfg.SpecName != "demo" {
			t.Errorf("cfg = %+v", cfg)
		}
		if !cfg.StrictSequence {
			t.Error("expected StrictSequence to parse true")
		}
		if cfg.NormalizerVersion != "v3" {
			t.Errorf("NormalizerVersion = %q, want v3", cfg.NormalizerVersion)
		}
		if len(cfg.AllowDomains) != 2 || cfg.AllowDomains[0] != "api.example.com" {
			t.Errorf("AllowDomains = %v", cfg.AllowDomains)
		}
	})
}

func TestLoadConfigRejectsUnparseableStrictSequence(t *testing.T) {
	withEnv(t, map[string]string{
		envMode:           ModeRecord,
		envSpecName:       "demo",
		envFixturePath:    "/tmp/bundle.jsonl",
		envStrictSequence: "not-a-bool",
	}, func() {
		if _, err := LoadConfig(); err == nil {
			t.Fatal("expected error for an unparseable strict_sequence value")
		}
	})
}
