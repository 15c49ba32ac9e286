package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	sonic "github.com/bytedance/sonic"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/geo-stats/internal/domain/match"
	"github.com/riskibarqy/geo-stats/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultIngestWorkerCount = 8
	defaultIngestChunkSize   = 60
	liveChallengeGameMode    = "LiveChallenge"
)

// IngestionState is a step of the per-match pipeline. Committed and Rejected
// are terminal.
type IngestionState string

const (
	StateFetched    IngestionState = "fetched"
	StateClassified IngestionState = "classified"
	StateAssembled  IngestionState = "assembled"
	StateCommitted  IngestionState = "committed"
	StateRejected   IngestionState = "rejected"
)

// Rejection reasons carried by IngestionOutcome.Reason.
const (
	ReasonNotFinished       = "not_finished"
	ReasonAlreadyExists     = "already_exists"
	ReasonInvalidInput      = "invalid_input"
	ReasonNotFound          = "not_found"
	ReasonUpstreamFetch     = "upstream_fetch"
	ReasonUnavailable       = "dependency_unavailable"
	ReasonStorageFailure    = "storage_failure"
	ReasonCanceled          = "canceled"
	ReasonUnexpectedFailure = "unexpected_failure"
)

type IngestionOutcome struct {
	GameID string
	State  IngestionState
	// Reached is the last non-terminal state before the outcome was decided.
	Reached IngestionState
	Reason  string
	Err     error
}

func (o IngestionOutcome) Committed() bool { return o.State == StateCommitted }

func (o IngestionOutcome) Retryable() bool {
	return o.State == StateRejected && IsRetryable(o.Err)
}

type BatchResult struct {
	Requested     int
	Committed     int
	AlreadyExists int
	Rejected      int
	Outcomes      []IngestionOutcome
}

func (r *BatchResult) add(outcome IngestionOutcome) {
	r.Outcomes = append(r.Outcomes, outcome)
	switch {
	case outcome.Committed():
		r.Committed++
	case outcome.Reason == ReasonAlreadyExists:
		r.AlreadyExists++
	default:
		r.Rejected++
	}
}

// RecentGameEntry is one item of a player's activity feed. Payload is a JSON
// string holding a list of game references.
type RecentGameEntry struct {
	Payload string `json:"payload" validate:"required"`
	User    struct {
		ID string `json:"id"`
	} `json:"user"`
}

type recentGameReference struct {
	Payload struct {
		GameMode string `json:"gameMode"`
		GameID   string `json:"gameId"`
	} `json:"payload"`
}

type IngestionConfig struct {
	WorkerCount int
	ChunkSize   int
}

type IngestionService struct {
	assembler   *Assembler
	store       match.Repository
	workerCount int
	chunkSize   int
	logger      *logging.Logger
}

func NewIngestionService(assembler *Assembler, store match.Repository, cfg IngestionConfig, logger *logging.Logger) *IngestionService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultIngestWorkerCount
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultIngestChunkSize
	}
	return &IngestionService{
		assembler:   assembler,
		store:       store,
		workerCount: cfg.WorkerCount,
		chunkSize:   cfg.ChunkSize,
		logger:      logger,
	}
}

// IngestMatch fetches, assembles and commits one match. A rejected outcome is
// returned together with its error.
func (s *IngestionService) IngestMatch(ctx context.Context, gameID string) (outcome IngestionOutcome, err error) {
	gameID = strings.TrimSpace(gameID)
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.IngestMatch", attribute.String("game_id", gameID))
	defer func() { finishUsecaseSpan(span, err) }()

	pending, outcome := s.prepare(ctx, gameID)
	if outcome.State == StateRejected {
		return outcome, outcome.Err
	}

	outcome = s.commit(ctx, gameID, pending.Dedupe())
	return outcome, outcome.Err
}

// IngestMatches ingests distinct game ids in chunks. Each chunk is fetched on
// the worker pool and committed in one transaction; when the chunk loses an
// insert race its matches are committed one by one.
func (s *IngestionService) IngestMatches(ctx context.Context, gameIDs []string) (result BatchResult, err error) {
	ids := normalizeGameIDs(gameIDs)
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.IngestMatches", attribute.Int("game_ids", len(ids)))
	defer func() { finishUsecaseSpan(span, err) }()

	if len(ids) == 0 {
		return BatchResult{}, fmt.Errorf("%w: at least one game id is required", ErrInvalidInput)
	}
	result.Requested = len(ids)

	pool, err := ants.NewPool(s.workerCount)
	if err != nil {
		return BatchResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	for start := 0; start < len(ids); start += s.chunkSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		end := min(start+s.chunkSize, len(ids))
		if err := s.ingestChunk(ctx, pool, ids[start:end], &result); err != nil {
			return result, err
		}
	}

	s.logger.InfoContext(ctx, "batch ingestion finished",
		"requested", result.Requested,
		"committed", result.Committed,
		"already_exists", result.AlreadyExists,
		"rejected", result.Rejected,
	)
	return result, nil
}

// IngestRecentGames harvests game ids from activity-feed entries, skipping
// live challenges and entries whose payload does not decode.
func (s *IngestionService) IngestRecentGames(ctx context.Context, entries []RecentGameEntry) (BatchResult, error) {
	if len(entries) == 0 {
		return BatchResult{}, fmt.Errorf("%w: recent games feed is empty", ErrInvalidInput)
	}

	ids := make([]string, 0, len(entries))
	for idx, entry := range entries {
		var refs []recentGameReference
		if err := sonic.UnmarshalString(entry.Payload, &refs); err != nil {
			s.logger.WarnContext(ctx, "skip recent game entry with undecodable payload", "index", idx, "user_id", entry.User.ID, "error", err)
			continue
		}
		for _, ref := range refs {
			if ref.Payload.GameMode == liveChallengeGameMode || strings.TrimSpace(ref.Payload.GameID) == "" {
				continue
			}
			ids = append(ids, ref.Payload.GameID)
		}
	}
	if len(ids) == 0 {
		return BatchResult{}, nil
	}
	return s.IngestMatches(ctx, ids)
}

type chunkItem struct {
	gameID  string
	set     match.WriteSet
	outcome IngestionOutcome
}

func (s *IngestionService) ingestChunk(ctx context.Context, pool *ants.Pool, ids []string, result *BatchResult) error {
	items := make([]chunkItem, len(ids))

	var workers sync.WaitGroup
	for idx, gameID := range ids {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			set, outcome := s.prepare(ctx, gameID)
			items[idx] = chunkItem{gameID: gameID, set: set, outcome: outcome}
		}); err != nil {
			workers.Done()
			workers.Wait()
			return fmt.Errorf("submit ingestion task: %w", err)
		}
	}
	workers.Wait()

	var combined match.WriteSet
	pending := make([]int, 0, len(items))
	for idx, item := range items {
		if item.outcome.State == StateRejected {
			result.add(item.outcome)
			continue
		}
		combined.Append(item.set)
		pending = append(pending, idx)
	}
	if combined.IsEmpty() {
		return nil
	}

	err := s.store.Commit(ctx, combined.Dedupe())
	switch {
	case err == nil:
		for _, idx := range pending {
			result.add(IngestionOutcome{GameID: items[idx].gameID, State: StateCommitted, Reached: StateAssembled})
		}
	case errors.Is(err, ErrAlreadyExists):
		s.logger.WarnContext(ctx, "chunk lost an insert race, committing matches one by one", "matches", len(pending))
		for _, idx := range pending {
			result.add(s.commit(ctx, items[idx].gameID, items[idx].set.Dedupe()))
		}
	default:
		s.logger.ErrorContext(ctx, "chunk commit failed", "matches", len(pending), "error", err)
		for _, idx := range pending {
			s.assembler.Release(items[idx].set)
			result.add(rejected(items[idx].gameID, StateAssembled, fmt.Errorf("commit chunk: %w", err)))
		}
	}
	return nil
}

// prepare walks a match through Fetched, Classified and Assembled. The returned
// outcome is Rejected or carries the last state reached.
func (s *IngestionService) prepare(ctx context.Context, gameID string) (match.WriteSet, IngestionOutcome) {
	if gameID == "" {
		return match.WriteSet{}, rejected(gameID, "", fmt.Errorf("%w: game id is required", ErrInvalidInput))
	}

	exists, err := s.store.Exists(ctx, gameID)
	if err != nil {
		return match.WriteSet{}, rejected(gameID, "", fmt.Errorf("check existing match: %w", err))
	}
	if exists {
		return match.WriteSet{}, rejected(gameID, "", fmt.Errorf("%w: game_id=%s", ErrAlreadyExists, gameID))
	}

	duel, err := s.assembler.Fetch(ctx, gameID)
	if err != nil {
		return match.WriteSet{}, rejected(gameID, "", err)
	}
	s.logState(ctx, gameID, StateFetched)

	class, err := s.assembler.Classify(duel)
	if err != nil {
		return match.WriteSet{}, rejected(gameID, StateFetched, err)
	}
	s.logState(ctx, gameID, StateClassified)

	set, err := s.assembler.Build(ctx, duel, class)
	if err != nil {
		return match.WriteSet{}, rejected(gameID, StateClassified, err)
	}
	s.logState(ctx, gameID, StateAssembled)

	return set, IngestionOutcome{GameID: gameID, State: StateAssembled, Reached: StateAssembled}
}

func (s *IngestionService) commit(ctx context.Context, gameID string, set match.WriteSet) IngestionOutcome {
	if err := s.store.Commit(ctx, set); err != nil {
		if !errors.Is(err, ErrAlreadyExists) {
			s.assembler.Release(set)
		}
		return rejected(gameID, StateAssembled, fmt.Errorf("commit match %s: %w", gameID, err))
	}
	s.logState(ctx, gameID, StateCommitted)
	return IngestionOutcome{GameID: gameID, State: StateCommitted, Reached: StateAssembled}
}

func (s *IngestionService) logState(ctx context.Context, gameID string, state IngestionState) {
	s.logger.DebugContext(ctx, "ingestion state changed", "game_id", gameID, "state", string(state))
}

func rejected(gameID string, reached IngestionState, err error) IngestionOutcome {
	return IngestionOutcome{
		GameID:  gameID,
		State:   StateRejected,
		Reached: reached,
		Reason:  rejectionReason(err),
		Err:     err,
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFinished):
		return ReasonNotFinished
	case errors.Is(err, ErrAlreadyExists):
		return ReasonAlreadyExists
	case errors.Is(err, ErrInvalidInput):
		return ReasonInvalidInput
	case errors.Is(err, ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrDependencyUnavailable):
		return ReasonUnavailable
	case errors.Is(err, ErrUpstreamFetch):
		return ReasonUpstreamFetch
	case errors.Is(err, ErrStorageFailure):
		return ReasonStorageFailure
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCanceled
	default:
		return ReasonUnexpectedFailure
	}
}

func normalizeGameIDs(gameIDs []string) []string {
	trimmed := make([]string, 0, len(gameIDs))
	for _, id := range gameIDs {
		if id = strings.TrimSpace(id); id != "" {
			trimmed = append(trimmed, id)
		}
	}
	return match.DedupeByKey(trimmed, func(id string) string { return id })
}
