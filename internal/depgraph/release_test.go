package depgraph

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSelectReleaseGreatestVersionWins(t *testing.T) {
	releases := []Release{
		{Version: ModVersion{Minor: 12}},
		{Version: ModVersion{Minor: 14}},
		{Version: ModVersion{Minor: 13}},
	}
	got, ok := SelectRelease(releases, VersionRequirement{})
	if !ok {
		t.Fatal("expected a match")
	}
	if !got.Version.Equal(ModVersion{Minor: 14}) {
		t.Errorf("got %s, want 0.14.0", got.Version)
	}
}

func TestSelectReleaseTiesBrokenByReleasedAt(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)
	releases := []Release{
		{Version: ModVersion{Minor: 14}, ReleasedAt: older},
		{Version: ModVersion{Minor: 14}, ReleasedAt: newer},
	}
	got, ok := SelectRelease(releases, VersionRequirement{})
	if !ok {
		t.Fatal("expected a match")
	}
	if !got.ReleasedAt.Equal(newer) {
		t.Errorf("got ReleasedAt=%s, want the later %s", got.ReleasedAt, newer)
	}
}

func TestSelectReleaseHonorsRequirement(t *testing.T) {
	releases := []Release{
		{Version: ModVersion{Minor: 12}},
		{Version: ModVersion{Minor: 14}},
	}
	req := VersionRequirement{Present: true, Op: OpLE, Version: ModVersion{Minor: 13}}
	got, ok := SelectRelease(releases, req)
	if !ok {
		t.Fatal("expected a match")
	}
	if !got.Version.Equal(ModVersion{Minor: 12}) {
		t.Errorf("got %s, want 0.12.0 (the greatest release satisfying <= 0.13.0)", got.Version)
	}
}

func TestSelectReleaseNoMatch(t *testing.T) {
	releases := []Release{{Version: ModVersion{Minor: 12}}}
	req := VersionRequirement{Present: true, Op: OpGE, Version: ModVersion{Minor: 99}}
	if _, ok := SelectRelease(releases, req); ok {
		t.Error("expected no match")
	}
}

func TestSelectExact(t *testing.T) {
	releases := []Release{
		{Version: ModVersion{Minor: 12}},
		{Version: ModVersion{Minor: 14}},
	}
	got, ok := SelectExact(releases, ModVersion{Minor: 14})
	if !ok || !got.Version.Equal(ModVersion{Minor: 14}) {
		t.Errorf("SelectExact = %+v, %t, want 0.14.0 true", got, ok)
	}
	if _, ok := SelectExact(releases, ModVersion{Minor: 99}); ok {
		t.Error("expected no exact match for an absent version")
	}
}

type countingDownloader struct {
	calls int64
}

func (c *countingDownloader) Download(ctx context.Context, release Release) (string, error) {
	atomic.AddInt64(&c.calls, 1)
	return "cache-key", nil
}

func TestApplyInstallsDownloadsEveryPlannedRelease(t *testing.T) {
	plan := Plan{Install: []PlannedInstall{
		{Identifier: "a", Release: Release{Version: ModVersion{Patch: 1}}},
		{Identifier: "b", Release: Release{Version: ModVersion{Patch: 1}}},
		{Identifier: "c", Release: Release{Version: ModVersion{Patch: 1}}},
	}}
	dl := &countingDownloader{}

	if err := ApplyInstalls(context.Background(), dl, plan, 2); err != nil {
		t.Fatal(err)
	}
	if dl.calls != 3 {
		t.Errorf("Download was called %d times, want 3", dl.calls)
	}
}
