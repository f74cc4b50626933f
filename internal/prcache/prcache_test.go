package prcache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raphi011/wtsweep/internal/cache"
	"github.com/raphi011/wtsweep/internal/forge"
)

type countingLookup struct {
	prs   map[string]*forge.PRInfo
	err   error
	calls map[string]int
}

func newCountingLookup(prs map[string]*forge.PRInfo) *countingLookup {
	return &countingLookup{prs: prs, calls: make(map[string]int)}
}

func (l *countingLookup) Check(context.Context) error { return nil }

func (l *countingLookup) LookupPR(_ context.Context, branch string) (*forge.PRInfo, error) {
	l.calls[branch]++
	if l.err != nil {
		return nil, l.err
	}
	return l.prs[branch], nil
}

func (l *countingLookup) Key(branch string) string { return "git@github.com:o/r.git#" + branch }

func openStore(t *testing.T, path string) *cache.Store[Answer] {
	t.Helper()
	s, err := cache.Open[Answer](path, OpenTTL)
	if err != nil {
		t.Fatalf("cache.Open() error = %v", err)
	}
	return s
}

func TestCached_LookupPR(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inner := newCountingLookup(map[string]*forge.PRInfo{
		"wt/merged": {Number: 1, State: forge.PRStateMerged},
		"wt/open":   {Number: 2, State: forge.PRStateOpen},
	})
	c := Wrap(inner, openStore(t, filepath.Join(t.TempDir(), "prs.json")))

	for range 3 {
		pr, err := c.LookupPR(ctx, "wt/merged")
		if err != nil || pr == nil || pr.Number != 1 {
			t.Fatalf("LookupPR(wt/merged) = %+v, %v", pr, err)
		}
		none, err := c.LookupPR(ctx, "wt/nothing")
		if err != nil || none != nil {
			t.Fatalf("LookupPR(wt/nothing) = %+v, %v, want nil, nil", none, err)
		}
	}

	if inner.calls["wt/merged"] != 1 {
		t.Errorf("forge calls for merged = %d, want 1", inner.calls["wt/merged"])
	}
	if inner.calls["wt/nothing"] != 1 {
		t.Errorf("forge calls for missing PR = %d, want 1", inner.calls["wt/nothing"])
	}
}

func TestCached_ErrorsNotCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inner := newCountingLookup(nil)
	inner.err = errors.New("gh: rate limited")
	c := Wrap(inner, openStore(t, filepath.Join(t.TempDir(), "prs.json")))

	for range 2 {
		if _, err := c.LookupPR(ctx, "wt/a"); err == nil {
			t.Fatal("LookupPR() should surface the forge error")
		}
	}
	if inner.calls["wt/a"] != 2 {
		t.Errorf("forge calls = %d, want 2", inner.calls["wt/a"])
	}
}

func TestCached_PersistsAcrossRuns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prs.json")
	merged := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	first := newCountingLookup(map[string]*forge.PRInfo{
		"wt/a": {Number: 9, State: forge.PRStateMerged, MergedAt: merged},
	})
	c1 := Wrap(first, openStore(t, path))
	if _, err := c1.LookupPR(ctx, "wt/a"); err != nil {
		t.Fatal(err)
	}
	if err := c1.Save(ctx); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := newCountingLookup(nil)
	c2 := Wrap(second, openStore(t, path))
	pr, err := c2.LookupPR(ctx, "wt/a")
	if err != nil || pr == nil {
		t.Fatalf("LookupPR() = %+v, %v", pr, err)
	}
	if !pr.MergedAt.Equal(merged) {
		t.Errorf("MergedAt = %v, want %v", pr.MergedAt, merged)
	}
	if second.calls["wt/a"] != 0 {
		t.Errorf("second run called the forge %d times, want 0", second.calls["wt/a"])
	}
}

func TestCached_TTLByState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prs.json")
	inner := newCountingLookup(map[string]*forge.PRInfo{
		"wt/closed": {Number: 3, State: forge.PRStateClosed},
		"wt/open":   {Number: 4, State: forge.PRStateOpen},
	})
	c := Wrap(inner, openStore(t, path))
	for _, b := range []string{"wt/closed", "wt/open"} {
		if _, err := c.LookupPR(ctx, b); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Save(ctx); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		branch string
		want   time.Duration
	}{
		{"wt/closed", TerminalTTL},
		{"wt/open", OpenTTL},
	}
	for _, tt := range tests {
		if got := ttlOf(t, path, inner.Key(tt.branch)); got != tt.want {
			t.Errorf("TTL(%s) = %v, want %v", tt.branch, got, tt.want)
		}
	}
}

func ttlOf(t *testing.T, path, key string) time.Duration {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var f struct {
		Entries map[string]cache.Entry[Answer] `json:"entries"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatal(err)
	}
	e, ok := f.Entries[key]
	if !ok {
		t.Fatalf("no entry for %s", key)
	}
	return e.ExpiresAt.Sub(e.StoredAt)
}
