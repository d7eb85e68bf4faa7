//go:build integration

package db

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/google/uuid"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	db, err := Connect(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	return db
}

func TestIntegration_RunLifecycle(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	runID, err := db.CreateRun(ctx, "deadbeef", "testdata/trust.pdf")
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	defer func() { _ = db.DeleteRun(ctx, runID) }()

	run, err := db.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != RunStatusRunning {
		t.Errorf("Status = %q, want %q", run.Status, RunStatusRunning)
	}

	if err := db.CompleteRun(ctx, runID, RunStatusComplete); err != nil {
		t.Fatalf("CompleteRun: %v", err)
	}
	run, err = db.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("GetRun after complete: %v", err)
	}
	if run.Status != RunStatusComplete || run.CompletedAt == nil {
		t.Errorf("run not marked complete: %+v", run)
	}
}

func TestIntegration_Artifacts(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	runID, err := db.CreateRun(ctx, "deadbeef", "testdata/trust.pdf")
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	defer func() { _ = db.DeleteRun(ctx, runID) }()

	payload := map[string]any{"chunks": 3}
	if err := db.SaveArtifact(ctx, runID, StepChunks, CategoryIntermediate, payload); err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}

	content, err := db.GetArtifact(ctx, runID, StepChunks)
	if err != nil {
		t.Fatalf("GetArtifact: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(content, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["chunks"] != float64(3) {
		t.Errorf("chunks = %v, want 3", got["chunks"])
	}

	missing, err := db.GetArtifact(ctx, runID, StepResult)
	if err != nil {
		t.Fatalf("GetArtifact missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing artifact, got %s", missing)
	}

	if _, err := db.GetArtifact(ctx, uuid.New(), StepChunks); err != nil {
		t.Fatalf("GetArtifact unknown run: %v", err)
	}
}
