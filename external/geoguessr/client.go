package geoguessr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/geo-stats/internal/platform/logging"
	"github.com/riskibarqy/geo-stats/internal/platform/resilience"
	"github.com/riskibarqy/geo-stats/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL       = "https://www.geoguessr.com"
	defaultGameServerURL = "https://game-server.geoguessr.com"
	maxResponseBytes     = 8 << 20
)

var errGeoGuessrTransient = crerr.New("geoguessr transient failure")

// CookieSource supplies the Cookie header for upstream calls.
type CookieSource interface {
	Cookie(ctx context.Context) (string, error)
	Invalidate()
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	GameServerURL  string
	Timeout        time.Duration
	MaxRetries     int
	RateLimit      float64
	RateBurst      int
	Session        CookieSource
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient    *http.Client
	baseURL       string
	gameServerURL string
	timeout       time.Duration
	maxRetries    int
	limiter       *rate.Limiter
	session       CookieSource
	logger        *logging.Logger
	breaker       *resilience.CircuitBreaker
	flight        singleflight.Group
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	named := logger.Named("geoguessr")
	breaker := resilience.NewCircuitBreaker(cfg.CircuitBreaker, nil).
		OnStateChange(func(from, to resilience.CircuitState) {
			named.Warn("geoguessr circuit breaker state changed", "from", from, "to", to)
		})

	return &Client{
		httpClient:    httpClient,
		baseURL:       normalizeBaseURL(cfg.BaseURL, defaultBaseURL),
		gameServerURL: normalizeBaseURL(cfg.GameServerURL, defaultGameServerURL),
		timeout:       timeout,
		maxRetries:    max(cfg.MaxRetries, 0),
		limiter:       rate.NewLimiter(limit, burst),
		session:       cfg.Session,
		logger:        named,
		breaker:       breaker,
	}
}

func (c *Client) FetchDuel(ctx context.Context, gameID string) (usecase.ExternalDuel, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return usecase.ExternalDuel{}, fmt.Errorf("%w: game id is required", usecase.ErrInvalidInput)
	}

	var payload duelPayload
	if err := c.doJSON(ctx, c.gameServerURL+"/api/duels/"+url.PathEscape(gameID), true, &payload); err != nil {
		return usecase.ExternalDuel{}, fmt.Errorf("fetch duel game_id=%s: %w", gameID, err)
	}
	return payload.toExternal(), nil
}

func (c *Client) FetchUser(ctx context.Context, playerID string) (usecase.ExternalUser, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return usecase.ExternalUser{}, fmt.Errorf("%w: player id is required", usecase.ErrInvalidInput)
	}

	var payload userPayload
	if err := c.doJSON(ctx, c.baseURL+"/api/v3/users/"+url.PathEscape(playerID), false, &payload); err != nil {
		return usecase.ExternalUser{}, fmt.Errorf("fetch user player_id=%s: %w", playerID, err)
	}
	out := payload.toExternal()
	if out.ID == "" {
		out.ID = playerID
	}
	return out, nil
}

func (c *Client) FetchRankedProgress(ctx context.Context, playerID string) (usecase.ExternalRankedProgress, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return usecase.ExternalRankedProgress{}, fmt.Errorf("%w: player id is required", usecase.ErrInvalidInput)
	}

	var payload rankedProgressPayload
	if err := c.doJSON(ctx, c.baseURL+"/api/v4/ranked-system/progress/"+url.PathEscape(playerID), false, &payload); err != nil {
		return usecase.ExternalRankedProgress{}, fmt.Errorf("fetch ranked progress player_id=%s: %w", playerID, err)
	}
	return payload.toExternal(), nil
}

func (c *Client) FetchRankedTeam(ctx context.Context, playerID1, playerID2 string) (usecase.ExternalRankedTeam, error) {
	playerID1 = strings.TrimSpace(playerID1)
	playerID2 = strings.TrimSpace(playerID2)
	if playerID1 == "" || playerID2 == "" {
		return usecase.ExternalRankedTeam{}, fmt.Errorf("%w: two player ids are required", usecase.ErrInvalidInput)
	}

	query := url.Values{}
	query.Add("userId", playerID1)
	query.Add("userId", playerID2)

	var payload rankedTeamPayload
	if err := c.doJSON(ctx, c.baseURL+"/api/v4/ranked-team-duels/teams/?"+query.Encode(), false, &payload); err != nil {
		return usecase.ExternalRankedTeam{}, fmt.Errorf("fetch ranked team players=%s,%s: %w", playerID1, playerID2, err)
	}
	return payload.toExternal(), nil
}

func (c *Client) doJSON(ctx context.Context, fullURL string, withSession bool, target any) error {
	out, shared, err := shareCall(ctx, &c.flight, fullURL, func(flightCtx context.Context) (any, error) {
		flightCtx, cancel := context.WithTimeout(flightCtx, c.flightBudget())
		defer cancel()

		var raw []byte
		callErr := c.breaker.Do(func() error {
			var reqErr error
			raw, reqErr = c.executeRequest(flightCtx, fullURL, withSession)
			return reqErr
		}, isGeoGuessrCircuitFailure)
		return raw, callErr
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("geoguessr request abandoned: %w", ctxErr)
		}
		if crerr.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "geoguessr circuit breaker rejected request",
				"state", c.breaker.State(),
				"rejected_total", c.breaker.Counts().Rejected,
			)
			return fmt.Errorf("%w: geoguessr is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
		return err
	}
	if shared {
		c.logger.DebugContext(ctx, "geoguessr request shared", "url", fullURL)
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("%w: unexpected response payload type %T", usecase.ErrUpstreamFetch, out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: decode payload: %v", usecase.ErrUpstreamFetch, err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string, withSession bool) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, retryable, err := c.send(ctx, fullURL, withSession)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !retryable || attempt == c.maxRetries {
			break
		}

		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "geoguessr request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) send(ctx context.Context, fullURL string, withSession bool) ([]byte, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, fmt.Errorf("%w: rate limiter: %v", usecase.ErrUpstreamFetch, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, false, crerr.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if withSession && c.session != nil {
		cookie, err := c.session.Cookie(reqCtx)
		if err != nil {
			return nil, true, fmt.Errorf("%w: %w: guest session: %v", usecase.ErrUpstreamFetch, errGeoGuessrTransient, err)
		}
		req.Header.Set("Cookie", cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %w: send request: %v", usecase.ErrUpstreamFetch, errGeoGuessrTransient, err)
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, true, fmt.Errorf("%w: %w: read response body: %v", usecase.ErrUpstreamFetch, errGeoGuessrTransient, readErr)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, false, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, fmt.Errorf("%w: upstream status=%d", usecase.ErrNotFound, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if withSession && c.session != nil {
			c.session.Invalidate()
		}
		return nil, withSession, fmt.Errorf("%w: upstream status=%d body=%s", usecase.ErrUpstreamFetch, resp.StatusCode, abbreviateBody(raw))
	case isRetryableStatus(resp.StatusCode):
		return nil, true, fmt.Errorf("%w: %w: upstream status=%d body=%s", usecase.ErrUpstreamFetch, errGeoGuessrTransient, resp.StatusCode, abbreviateBody(raw))
	default:
		return nil, false, fmt.Errorf("%w: upstream status=%d body=%s", usecase.ErrUpstreamFetch, resp.StatusCode, abbreviateBody(raw))
	}
}

// flightBudget bounds one shared request: every attempt's timeout plus the
// linear backoff between attempts.
func (c *Client) flightBudget() time.Duration {
	attempts := c.maxRetries + 1
	backoff := time.Duration(attempts*(attempts-1)/2) * time.Second
	return time.Duration(attempts)*c.timeout + backoff
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func isGeoGuessrCircuitFailure(err error) bool {
	return crerr.Is(err, errGeoGuessrTransient)
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) <= limit {
		return body
	}
	return body[:limit] + "..."
}

func normalizeBaseURL(raw, fallback string) string {
	value := strings.TrimRight(strings.TrimSpace(raw), "/")
	if value == "" {
		return fallback
	}
	return value
}
