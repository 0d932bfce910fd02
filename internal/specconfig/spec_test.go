package specconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSpec(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeSpec(t, "name: demo\n")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Refinement.Mode != RefinementSkeleton {
		t.Errorf("expected default refinement.mode=skeleton, got %s", s.Refinement.Mode)
	}
	if s.SchemaVersion != "v1" {
		t.Errorf("expected default schema_version, got %s", s.SchemaVersion)
	}
	if s.FixturePolicy != FixtureByHash {
		t.Errorf("expected default fixture_policy=by_hash, got %s", s.FixturePolicy)
	}
	if s.Replay.Mode != ReplayOffline {
		t.Errorf("expected default replay.mode=offline, got %s", s.Replay.Mode)
	}
	if s.Contracts.Network.Default != "allow" {
		t.Errorf("expected default contracts.network.default=allow, got %s", s.Contracts.Network.Default)
	}
}

func TestLoadRejectsUnknownRefinementMode(t *testing.T) {
	path := writeSpec(t, "refinement:\n  mode: bogus\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown refinement.mode")
	}
}

func TestLoadRejectsUnknownFixturePolicy(t *testing.T) {
	path := writeSpec(t, "fixture_policy: bogus\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown fixture_policy")
	}
}

func TestLoadRejectsUnknownNetworkDefault(t *testing.T) {
	path := writeSpec(t, "contracts:\n  network:\n    default: maybe\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown contracts.network.default")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/spec.yaml"); err == nil {
		t.Fatal("expected error for missing spec file")
	}
}

func TestResolvePolicyHashStableAcrossCalls(t *testing.T) {
	path := writeSpec(t, "name: demo\ncontracts:\n  tools:\n    allow: [search, refund]\n")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r1, err := Resolve(s)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	r2, err := Resolve(s)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r1.PolicyHash != r2.PolicyHash {
		t.Fatalf("expected identical policy hash for identical spec, got %s vs %s", r1.PolicyHash, r2.PolicyHash)
	}
}

func TestResolveRejectsInvalidRedactPattern(t *testing.T) {
	s := &Spec{Redact: []string{"[invalid"}}
	if _, err := Resolve(s); err == nil {
		t.Fatal("expected error for invalid redact pattern")
	}
}

func TestResolveDenylistDisabledByDefault(t *testing.T) {
	s := &Spec{}
	r, err := Resolve(s)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Denylist != nil {
		t.Fatal("expected nil Denylist when contracts.denylist.enabled is unset")
	}
}

func TestResolveDenylistLoadsWhenEnabled(t *testing.T) {
	s := &Spec{}
	s.Contracts.Denylist.Enabled = true
	r, err := Resolve(s)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Denylist == nil {
		t.Fatal("expected non-nil Denylist when contracts.denylist.enabled is true")
	}
}

func TestResolvePolicyHashChangesWithDenylistEnabled(t *testing.T) {
	off := &Spec{}
	on := &Spec{}
	on.Contracts.Denylist.Enabled = true

	rOff, err := Resolve(off)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	rOn, err := Resolve(on)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rOff.PolicyHash == rOn.PolicyHash {
		t.Fatal("expected policy hash to change when contracts.denylist.enabled changes")
	}
}
