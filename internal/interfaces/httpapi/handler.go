package httpapi

import (
	"context"
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/geo-stats/internal/platform/logging"
	"github.com/riskibarqy/geo-stats/internal/usecase"
)

const maxRequestBodyBytes = 4 << 20

// MatchIngester is the ingestion surface the handlers drive.
type MatchIngester interface {
	IngestMatch(ctx context.Context, gameID string) (usecase.IngestionOutcome, error)
	IngestMatches(ctx context.Context, gameIDs []string) (usecase.BatchResult, error)
	IngestRecentGames(ctx context.Context, entries []usecase.RecentGameEntry) (usecase.BatchResult, error)
}

type Handler struct {
	ingestion MatchIngester
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(ingestion MatchIngester, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		ingestion: ingestion,
		logger:    logger.Named("httpapi"),
		validator: validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := sonic.ConfigDefault.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}
