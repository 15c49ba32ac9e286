package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/riskibarqy/geo-stats/internal/usecase"
)

func TestLoadRecentGames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.json")
	feed := `[{"time":"2026-03-01T10:00:00Z","payload":"[{\"payload\":{\"gameMode\":\"Duels\",\"gameId\":\"duel-1\"}}]","user":{"id":"p-alpha"}}]`
	if err := os.WriteFile(path, []byte(feed), 0o600); err != nil {
		t.Fatalf("write feed: %v", err)
	}

	entries, err := loadRecentGames(path)
	if err != nil {
		t.Fatalf("load feed: %v", err)
	}
	if len(entries) != 1 || entries[0].User.ID != "p-alpha" || !strings.Contains(entries[0].Payload, "duel-1") {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	if _, err := loadRecentGames(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestPrintSummary_ListsOnlyUncommitted(t *testing.T) {
	var buf bytes.Buffer
	err := printSummary(&buf, usecase.BatchResult{
		Requested: 2,
		Committed: 1,
		Rejected:  1,
		Outcomes: []usecase.IngestionOutcome{
			{GameID: "a", State: usecase.StateCommitted},
			{GameID: "b", State: usecase.StateRejected, Reason: usecase.ReasonStorageFailure, Err: errors.Join(usecase.ErrStorageFailure)},
		},
	})
	if err != nil {
		t.Fatalf("print summary: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, `"gameId":"a"`) {
		t.Fatalf("committed outcome should be omitted: %s", out)
	}
	if !strings.Contains(out, `"gameId":"b"`) || !strings.Contains(out, `"retryable":true`) {
		t.Fatalf("expected retryable rejected outcome: %s", out)
	}
}
