package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/riskibarqy/geo-stats/internal/usecase"
)

type ingestMatchesRequest struct {
	GameIDs []string `json:"gameIds" validate:"required,min=1,max=1000,dive,required"`
}

type ingestRecentGamesRequest struct {
	Entries []usecase.RecentGameEntry `json:"entries" validate:"required,min=1,dive"`
}

type ingestionOutcomeDTO struct {
	GameID    string `json:"gameId"`
	State     string `json:"state"`
	Reason    string `json:"reason,omitempty"`
	Retryable bool   `json:"retryable"`
	Error     string `json:"error,omitempty"`
}

type batchResultDTO struct {
	Requested     int                   `json:"requested"`
	Committed     int                   `json:"committed"`
	AlreadyExists int                   `json:"alreadyExists"`
	Rejected      int                   `json:"rejected"`
	Outcomes      []ingestionOutcomeDTO `json:"outcomes"`
}

func (h *Handler) IngestMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.IngestMatch")
	defer span.End()

	gameID := strings.TrimSpace(r.PathValue("gameID"))
	if gameID == "" {
		writeError(ctx, w, fmt.Errorf("%w: game id is required", usecase.ErrInvalidInput))
		return
	}

	outcome, err := h.ingestion.IngestMatch(ctx, gameID)
	if err != nil && outcome.Reason != usecase.ReasonAlreadyExists {
		h.logger.WarnContext(ctx, "ingest match failed", "game_id", gameID, "reason", outcome.Reason, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, outcomeToDTO(outcome))
}

func (h *Handler) IngestMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.IngestMatches")
	defer span.End()

	var req ingestMatchesRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.ingestion.IngestMatches(ctx, req.GameIDs)
	if err != nil {
		h.logger.WarnContext(ctx, "ingest matches failed", "game_ids", len(req.GameIDs), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, batchToDTO(result))
}

func (h *Handler) IngestRecentGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.IngestRecentGames")
	defer span.End()

	var req ingestRecentGamesRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.ingestion.IngestRecentGames(ctx, req.Entries)
	if err != nil {
		h.logger.WarnContext(ctx, "ingest recent games failed", "entries", len(req.Entries), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, batchToDTO(result))
}

func outcomeToDTO(outcome usecase.IngestionOutcome) ingestionOutcomeDTO {
	dto := ingestionOutcomeDTO{
		GameID:    outcome.GameID,
		State:     string(outcome.State),
		Reason:    outcome.Reason,
		Retryable: outcome.Retryable(),
	}
	if outcome.Reason == usecase.ReasonAlreadyExists {
		dto.State = usecase.ReasonAlreadyExists
		return dto
	}
	if outcome.Err != nil {
		dto.Error = outcome.Err.Error()
	}
	return dto
}

func batchToDTO(result usecase.BatchResult) batchResultDTO {
	outcomes := make([]ingestionOutcomeDTO, 0, len(result.Outcomes))
	for _, outcome := range result.Outcomes {
		outcomes = append(outcomes, outcomeToDTO(outcome))
	}
	return batchResultDTO{
		Requested:     result.Requested,
		Committed:     result.Committed,
		AlreadyExists: result.AlreadyExists,
		Rejected:      result.Rejected,
		Outcomes:      outcomes,
	}
}
