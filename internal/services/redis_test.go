package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/kmarlowe/frontier-engine/pkg/narrative"
	"github.com/kmarlowe/frontier-engine/pkg/session"
)

func setupRedisService(t *testing.T) (*RedisService, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewRedisService(mr.Addr(), time.Hour, logger)
	return svc, mr
}

func TestRedisService_SaveAndLoadSession(t *testing.T) {
	svc, mr := setupRedisService(t)
	defer mr.Close()
	defer func() { _ = svc.Close() }()

	ctx := context.Background()
	now := time.Now().UTC()

	sess := session.New("dust_hollow", narrative.InitialState(now), now)
	sess.Dispatch(narrative.AddNarrativeHistory("The stage rolls in."))

	if err := svc.SaveSession(ctx, sess); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	loaded, err := svc.LoadSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected session, got nil")
	}
	if loaded.StoryID != "dust_hollow" {
		t.Errorf("Expected story dust_hollow, got %s", loaded.StoryID)
	}

	state := loaded.Snapshot()
	if len(state.NarrativeHistory) != 1 || state.NarrativeHistory[0] != "The stage rolls in." {
		t.Errorf("Narrative history not round-tripped: %v", state.NarrativeHistory)
	}
	// Loaded sessions are normalized and dispatchable
	if state.Context.ImpactState == nil {
		t.Error("Loaded session should have a normalized impact state")
	}
	after := loaded.Dispatch(narrative.SetDisplayMode(narrative.ModeFlashback))
	if after.DisplayMode != narrative.ModeFlashback {
		t.Errorf("Loaded session rejected dispatch: %v", after.DisplayMode)
	}
}

func TestRedisService_LoadMissingSession(t *testing.T) {
	svc, mr := setupRedisService(t)
	defer mr.Close()
	defer func() { _ = svc.Close() }()

	loaded, err := svc.LoadSession(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if loaded != nil {
		t.Errorf("Expected nil for missing session, got %+v", loaded)
	}
}

func TestRedisService_DeleteSession(t *testing.T) {
	svc, mr := setupRedisService(t)
	defer mr.Close()
	defer func() { _ = svc.Close() }()

	ctx := context.Background()
	now := time.Now().UTC()
	sess := session.New("dust_hollow", narrative.InitialState(now), now)

	if err := svc.SaveSession(ctx, sess); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}
	if err := svc.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}

	loaded, err := svc.LoadSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if loaded != nil {
		t.Error("Expected session to be gone after delete")
	}
}

func TestRedisService_SessionTTL(t *testing.T) {
	svc, mr := setupRedisService(t)
	defer mr.Close()
	defer func() { _ = svc.Close() }()

	ctx := context.Background()
	now := time.Now().UTC()
	sess := session.New("dust_hollow", narrative.InitialState(now), now)

	if err := svc.SaveSession(ctx, sess); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	// Sessions expire after the configured TTL
	mr.FastForward(2 * time.Hour)

	loaded, err := svc.LoadSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if loaded != nil {
		t.Error("Expected session to expire after TTL")
	}
}
