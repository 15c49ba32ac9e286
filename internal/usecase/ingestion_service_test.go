package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/riskibarqy/geo-stats/internal/domain/match"
	"github.com/riskibarqy/geo-stats/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/geo-stats/internal/platform/logging"
	matchmock "github.com/riskibarqy/geo-stats/internal/mocks/domain/match"
	"github.com/stretchr/testify/mock"
)

func newTestIngestion(t *testing.T, games GameProvider, profiles ProfileProvider, store match.Repository) *IngestionService {
	t.Helper()
	assembler := newTestAssembler(t, games, profiles, newTestTracker())
	return NewIngestionService(assembler, store, IngestionConfig{WorkerCount: 4, ChunkSize: 2}, logging.NewNop())
}

func TestIngestMatch_ReingestReportsAlreadyExists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewWriteSetRepository()
	games := NewMockGameProvider(t)
	profiles := NewMockProfileProvider(t)
	games.On("FetchDuel", mock.Anything, "duel-1v1").Return(oneVsOneDuel("duel-1v1"), nil).Once()
	expectProfiles(profiles, "p-alpha", "p-beta")

	service := newTestIngestion(t, games, profiles, store)
	outcome, err := service.IngestMatch(ctx, " duel-1v1 ")
	if err != nil {
		t.Fatalf("first ingestion: %v", err)
	}
	if outcome.State != StateCommitted || outcome.GameID != "duel-1v1" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	before := store.Counts()
	want := map[string]int{"duels_game": 1, "duels_round": 2, "guess": 2, "location": 2, "player": 2, "comp_team": 0, "fun_team": 0, "map": 1}
	for table, count := range want {
		if before[table] != count {
			t.Fatalf("unexpected %s rows: got=%d want=%d", table, before[table], count)
		}
	}

	outcome, err = service.IngestMatch(ctx, "duel-1v1")
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if outcome.State != StateRejected || outcome.Reason != ReasonAlreadyExists || outcome.Retryable() {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	after := store.Counts()
	for table, count := range before {
		if after[table] != count {
			t.Fatalf("re-ingestion changed %s rows: got=%d want=%d", table, after[table], count)
		}
	}
}

func TestIngestMatch_RejectionReasons(t *testing.T) {
	t.Parallel()

	unfinished := oneVsOneDuel("duel-live")
	unfinished.Status = "Ongoing"

	tests := []struct {
		name      string
		gameID    string
		duel      ExternalDuel
		fetchErr  error
		reason    string
		reached   IngestionState
		retryable bool
	}{
		{name: "not finished", gameID: "duel-live", duel: unfinished, reason: ReasonNotFinished},
		{name: "not found", gameID: "duel-gone", fetchErr: fmt.Errorf("fetch: %w", ErrNotFound), reason: ReasonNotFound},
		{name: "upstream", gameID: "duel-502", fetchErr: fmt.Errorf("fetch: %w", ErrUpstreamFetch), reason: ReasonUpstreamFetch, retryable: true},
		{name: "circuit open", gameID: "duel-open", fetchErr: fmt.Errorf("fetch: %w", ErrDependencyUnavailable), reason: ReasonUnavailable, retryable: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			games := NewMockGameProvider(t)
			games.On("FetchDuel", mock.Anything, tc.gameID).Return(tc.duel, tc.fetchErr).Once()
			service := newTestIngestion(t, games, NewMockProfileProvider(t), memory.NewWriteSetRepository())

			outcome, err := service.IngestMatch(context.Background(), tc.gameID)
			if err == nil {
				t.Fatalf("expected rejection")
			}
			if outcome.State != StateRejected || outcome.Reason != tc.reason {
				t.Fatalf("unexpected outcome: got=%+v want reason=%s", outcome, tc.reason)
			}
			if outcome.Retryable() != tc.retryable {
				t.Fatalf("unexpected retryable flag: got=%v want=%v", outcome.Retryable(), tc.retryable)
			}
		})
	}
}

func TestIngestMatch_EmptyID(t *testing.T) {
	t.Parallel()

	service := newTestIngestion(t, NewMockGameProvider(t), NewMockProfileProvider(t), matchmock.NewRepository(t))
	outcome, err := service.IngestMatch(context.Background(), "   ")
	if !errors.Is(err, ErrInvalidInput) || outcome.Reason != ReasonInvalidInput {
		t.Fatalf("expected invalid input rejection, got outcome=%+v err=%v", outcome, err)
	}
}

func TestIngestMatch_StorageFailureIsRetryable(t *testing.T) {
	t.Parallel()

	store := matchmock.NewRepository(t)
	games := NewMockGameProvider(t)
	profiles := NewMockProfileProvider(t)
	store.On("Exists", mock.Anything, "duel-1v1").Return(false, nil).Once()
	store.On("Commit", mock.Anything, mock.MatchedBy(func(set match.WriteSet) bool {
		return len(set.Matches) == 1 && set.Matches[0].ID == "duel-1v1"
	})).Return(fmt.Errorf("%w: connection reset", ErrStorageFailure)).Once()
	games.On("FetchDuel", mock.Anything, "duel-1v1").Return(oneVsOneDuel("duel-1v1"), nil).Once()
	expectProfiles(profiles, "p-alpha", "p-beta")

	outcome, err := newTestIngestion(t, games, profiles, store).IngestMatch(context.Background(), "duel-1v1")
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}
	if outcome.Reason != ReasonStorageFailure || outcome.Reached != StateAssembled || !outcome.Retryable() {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestIngestMatch_RetryAfterStorageFailureReemitsProfiles(t *testing.T) {
	t.Parallel()

	store := matchmock.NewRepository(t)
	games := NewMockGameProvider(t)
	profiles := NewMockProfileProvider(t)
	tracker := newTestTracker()
	store.On("Exists", mock.Anything, "duel-1v1").Return(false, nil).Twice()
	store.On("Commit", mock.Anything, mock.Anything).
		Return(fmt.Errorf("%w: connection reset", ErrStorageFailure)).Once()
	store.On("Commit", mock.Anything, mock.MatchedBy(func(set match.WriteSet) bool {
		return len(set.Players) == 2
	})).Return(nil).Once()
	games.On("FetchDuel", mock.Anything, "duel-1v1").Return(oneVsOneDuel("duel-1v1"), nil).Twice()
	expectProfiles(profiles, "p-alpha", "p-beta")

	service := NewIngestionService(newTestAssembler(t, games, profiles, tracker), store, IngestionConfig{WorkerCount: 1, ChunkSize: 1}, logging.NewNop())
	if _, err := service.IngestMatch(context.Background(), "duel-1v1"); !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}
	for _, key := range []string{"player:p-alpha", "player:p-beta"} {
		if !tracker.ShouldRefresh(key) {
			t.Fatalf("expected %s to be released after failed commit", key)
		}
	}

	outcome, err := service.IngestMatch(context.Background(), "duel-1v1")
	if err != nil || outcome.State != StateCommitted {
		t.Fatalf("retry should commit with profiles: outcome=%+v err=%v", outcome, err)
	}
	if tracker.ShouldRefresh("player:p-alpha") {
		t.Fatalf("expected player:p-alpha to be fresh after commit")
	}
}

func TestIngestMatches_FailedChunkReleasesProfiles(t *testing.T) {
	t.Parallel()

	store := matchmock.NewRepository(t)
	games := NewMockGameProvider(t)
	profiles := NewMockProfileProvider(t)
	tracker := newTestTracker()
	store.On("Exists", mock.Anything, "duel-1v1").Return(false, nil).Once()
	store.On("Commit", mock.Anything, mock.Anything).
		Return(fmt.Errorf("%w: connection reset", ErrStorageFailure)).Once()
	games.On("FetchDuel", mock.Anything, "duel-1v1").Return(oneVsOneDuel("duel-1v1"), nil).Once()
	expectProfiles(profiles, "p-alpha", "p-beta")

	service := NewIngestionService(newTestAssembler(t, games, profiles, tracker), store, IngestionConfig{WorkerCount: 2, ChunkSize: 2}, logging.NewNop())
	result, err := service.IngestMatches(context.Background(), []string{"duel-1v1"})
	if err != nil {
		t.Fatalf("IngestMatches returned error: %v", err)
	}
	if result.Rejected != 1 {
		t.Fatalf("unexpected result: got=%+v want one rejection", result)
	}
	if !tracker.ShouldRefresh("player:p-beta") {
		t.Fatalf("expected player:p-beta to be released after failed chunk")
	}
}

func TestIngestMatches_CasualTeamConvergesAcrossObservations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewWriteSetRepository()
	games := NewMockGameProvider(t)
	profiles := NewMockProfileProvider(t)
	games.On("FetchDuel", mock.Anything, "fun-1").
		Return(teamDuel("fun-1", false, [2]string{"p-a", "p-b"}, [2]string{"p-c", "p-d"}), nil).Once()
	games.On("FetchDuel", mock.Anything, "fun-2").
		Return(teamDuel("fun-2", false, [2]string{"p-b", "p-a"}, [2]string{"p-d", "p-c"}), nil).Once()
	expectProfiles(profiles, "p-a", "p-b", "p-c", "p-d")

	result, err := newTestIngestion(t, games, profiles, store).IngestMatches(ctx, []string{"fun-1", "fun-2", "fun-1"})
	if err != nil {
		t.Fatalf("ingest matches: %v", err)
	}
	if result.Requested != 2 || result.Committed != 2 {
		t.Fatalf("unexpected batch result: %+v", result)
	}

	counts := store.Counts()
	if counts["fun_team"] != 2 || counts["duels_game"] != 2 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	first, _ := store.Match("fun-1")
	second, _ := store.Match("fun-2")
	if first.TeamID1 != second.TeamID1 || first.TeamID1 != "p-a_p-b" {
		t.Fatalf("casual team ids must converge: %s vs %s", first.TeamID1, second.TeamID1)
	}
	if first.TeamGameMode != (match.TeamDuels{}) {
		t.Fatalf("unexpected mode: %s", first.TeamGameMode)
	}
	if _, ok := store.CasualTeam("p-c_p-d"); !ok {
		t.Fatalf("expected casual team p-c_p-d")
	}
}

func TestIngestMatches_CountsExistingAndRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewWriteSetRepository()
	games := NewMockGameProvider(t)
	profiles := NewMockProfileProvider(t)
	games.On("FetchDuel", mock.Anything, "duel-1v1").Return(oneVsOneDuel("duel-1v1"), nil).Once()
	games.On("FetchDuel", mock.Anything, "duel-2").Return(oneVsOneDuel("duel-2"), nil).Once()
	games.On("FetchDuel", mock.Anything, "duel-bad").Return(ExternalDuel{}, ErrUpstreamFetch).Once()
	expectProfiles(profiles, "p-alpha", "p-beta")

	service := newTestIngestion(t, games, profiles, store)
	if _, err := service.IngestMatch(ctx, "duel-1v1"); err != nil {
		t.Fatalf("seed ingestion: %v", err)
	}

	result, err := service.IngestMatches(ctx, []string{"duel-1v1", "duel-2", "duel-bad"})
	if err != nil {
		t.Fatalf("ingest matches: %v", err)
	}
	if result.Committed != 1 || result.AlreadyExists != 1 || result.Rejected != 1 {
		t.Fatalf("unexpected batch result: %+v", result)
	}
	if len(result.Outcomes) != 3 {
		t.Fatalf("expected one outcome per id, got %d", len(result.Outcomes))
	}
	if store.Counts()["location"] != 2 {
		t.Fatalf("shared locations must be stored once: %v", store.Counts())
	}
}

func TestIngestMatches_ChunkRaceFallsBackToSingleCommits(t *testing.T) {
	t.Parallel()

	store := matchmock.NewRepository(t)
	games := NewMockGameProvider(t)
	profiles := NewMockProfileProvider(t)
	for _, id := range []string{"duel-a", "duel-b"} {
		store.On("Exists", mock.Anything, id).Return(false, nil).Once()
		games.On("FetchDuel", mock.Anything, id).Return(oneVsOneDuel(id), nil).Once()
	}
	expectProfiles(profiles, "p-alpha", "p-beta")

	hasMatches := func(ids ...string) interface{} {
		return mock.MatchedBy(func(set match.WriteSet) bool {
			if len(set.Matches) != len(ids) {
				return false
			}
			for i, id := range ids {
				if set.Matches[i].ID != id {
					return false
				}
			}
			return true
		})
	}
	store.On("Commit", mock.Anything, hasMatches("duel-a", "duel-b")).Return(ErrAlreadyExists).Once()
	store.On("Commit", mock.Anything, hasMatches("duel-a")).Return(fmt.Errorf("%w: game_id=duel-a", ErrAlreadyExists)).Once()
	store.On("Commit", mock.Anything, hasMatches("duel-b")).Return(nil).Once()

	result, err := newTestIngestion(t, games, profiles, store).IngestMatches(context.Background(), []string{"duel-a", "duel-b"})
	if err != nil {
		t.Fatalf("ingest matches: %v", err)
	}
	if result.Committed != 1 || result.AlreadyExists != 1 {
		t.Fatalf("unexpected batch result: %+v", result)
	}
}

func TestIngestMatches_RequiresIDs(t *testing.T) {
	t.Parallel()

	service := newTestIngestion(t, NewMockGameProvider(t), NewMockProfileProvider(t), matchmock.NewRepository(t))
	if _, err := service.IngestMatches(context.Background(), []string{" ", ""}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIngestRecentGames_SkipsLiveChallenges(t *testing.T) {
	t.Parallel()

	store := memory.NewWriteSetRepository()
	games := NewMockGameProvider(t)
	profiles := NewMockProfileProvider(t)
	games.On("FetchDuel", mock.Anything, "duel-1v1").Return(oneVsOneDuel("duel-1v1"), nil).Once()
	expectProfiles(profiles, "p-alpha", "p-beta")

	entries := []RecentGameEntry{
		{Payload: `[{"payload":{"gameMode":"Duels","gameId":"duel-1v1"}},{"payload":{"gameMode":"LiveChallenge","gameId":"live-1"}}]`},
		{Payload: `not json`},
		{Payload: `[{"payload":{"gameMode":"LiveChallenge","gameId":"live-2"}}]`},
	}
	result, err := newTestIngestion(t, games, profiles, store).IngestRecentGames(context.Background(), entries)
	if err != nil {
		t.Fatalf("ingest recent games: %v", err)
	}
	if result.Requested != 1 || result.Committed != 1 {
		t.Fatalf("unexpected batch result: %+v", result)
	}

	if _, err := newTestIngestion(t, games, profiles, store).IngestRecentGames(context.Background(), nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty feed, got %v", err)
	}
}
