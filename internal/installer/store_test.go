package installer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/embedlib/embedlib/internal/store"
)

// countingStore is the real package store, counting physical installs.
type countingStore struct {
	*store.Store
	installs int
}

func (c *countingStore) Install(ctx context.Context, req store.Request) (string, error) {
	c.installs++
	return c.Store.Install(ctx, req)
}

func writeLibrary(t *testing.T, dir string, lib map[string]any) {
	t.Helper()
	data, err := json.Marshal(lib)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "library.json"), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestInstallPinnedSourceIsIdempotentWithRealStore(t *testing.T) {
	sources := t.TempDir()
	servo := filepath.Join(sources, "servo-1.1")
	pwm := filepath.Join(sources, "pwm-fork")
	writeLibrary(t, servo, map[string]any{
		"name":         "ServoFork",
		"version":      "1.1.0",
		"dependencies": map[string]string{"PWM": pwm},
	})
	writeLibrary(t, pwm, map[string]any{"name": "PWMFork", "version": "0.3.0"})

	st := &countingStore{Store: store.New(filepath.Join(t.TempDir(), "lib"), nil)}
	in := New(nil, st, nil)
	ctx := context.Background()

	dir, err := in.Install(ctx, "Servo="+servo, Options{})
	if err != nil {
		t.Fatalf("first Install: %v", err)
	}
	if st.installs != 2 {
		t.Fatalf("first run installs = %d, want 2", st.installs)
	}
	if filepath.Base(dir) != "ServoFork" {
		t.Errorf("dir = %s, want ServoFork", dir)
	}

	st.installs = 0
	again, err := in.Install(ctx, "Servo="+servo, Options{})
	if err != nil {
		t.Fatalf("second Install: %v", err)
	}
	if again != dir {
		t.Errorf("second dir = %s, want %s", again, dir)
	}
	if st.installs != 0 {
		t.Errorf("second run installs = %d, want 0", st.installs)
	}

	if _, err := in.Install(ctx, servo, Options{}); err != nil {
		t.Fatalf("bare source Install: %v", err)
	}
	if st.installs != 0 {
		t.Errorf("bare source installs = %d, want 0", st.installs)
	}
}
