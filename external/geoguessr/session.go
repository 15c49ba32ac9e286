package geoguessr

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/geo-stats/internal/platform/logging"
	"github.com/riskibarqy/geo-stats/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/singleflight"
)

const (
	defaultGuestNick      = "geo_stats"
	defaultCookieLifetime = 50000 * time.Second
	cookieRefreshMargin   = 15 * time.Second
	defaultLoginTimeout   = 20 * time.Second
)

type GuestSessionConfig struct {
	BaseURL string
	Nick    string
	Timeout time.Duration
	Client  *fasthttp.Client
	Logger  *logging.Logger
	Now     func() time.Time
}

// GuestSession logs in as a guest and keeps the resulting cookie header until
// shortly before the earliest cookie expires.
type GuestSession struct {
	client  *fasthttp.Client
	url     string
	body    []byte
	timeout time.Duration
	logger  *logging.Logger
	now     func() time.Time

	mu        sync.Mutex
	header    string
	expiresAt time.Time

	flight singleflight.Group
}

type guestLoginRequest struct {
	Nick string `json:"nick"`
}

func NewGuestSession(cfg GuestSessionConfig) (*GuestSession, error) {
	nick := strings.TrimSpace(cfg.Nick)
	if nick == "" {
		nick = defaultGuestNick
	}
	body, err := sonic.Marshal(guestLoginRequest{Nick: nick})
	if err != nil {
		return nil, fmt.Errorf("encode guest login body: %w", err)
	}

	client := cfg.Client
	if client == nil {
		client = &fasthttp.Client{Name: "geo-stats"}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultLoginTimeout
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &GuestSession{
		client:  client,
		url:     normalizeBaseURL(cfg.BaseURL, defaultBaseURL) + "/api/v4/guest-users",
		body:    body,
		timeout: timeout,
		logger:  logger.Named("guest_session"),
		now:     now,
	}, nil
}

// Cookie returns a valid cookie header, logging in again when the cached one
// is missing or about to expire.
func (s *GuestSession) Cookie(ctx context.Context) (string, error) {
	if header, ok := s.cached(); ok {
		return header, nil
	}

	out, _, err := shareCall(ctx, &s.flight, "login", func(loginCtx context.Context) (any, error) {
		if header, ok := s.cached(); ok {
			return header, nil
		}
		header, expiresAt, err := s.login(loginCtx)
		if err != nil {
			return "", err
		}

		s.mu.Lock()
		s.header = header
		s.expiresAt = expiresAt
		s.mu.Unlock()

		s.logger.InfoContext(loginCtx, "guest session refreshed", "expires_at", expiresAt.Format(time.RFC3339))
		return header, nil
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// Invalidate drops the cached cookie so the next call logs in again.
func (s *GuestSession) Invalidate() {
	s.mu.Lock()
	s.header = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}

func (s *GuestSession) cached() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.header == "" {
		return "", false
	}
	if !s.now().Add(cookieRefreshMargin).Before(s.expiresAt) {
		return "", false
	}
	return s.header, true
}

func (s *GuestSession) login(ctx context.Context) (string, time.Time, error) {
	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", time.Time{}, ctx.Err()
		}
		timeout = min(timeout, remaining)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(s.body)

	if err := s.client.DoTimeout(req, resp, timeout); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: guest login: %v", usecase.ErrUpstreamFetch, err)
	}
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		return "", time.Time{}, fmt.Errorf("%w: guest login status=%d", usecase.ErrUpstreamFetch, status)
	}

	header, expiresAt, ok := s.collectCookies(resp)
	if !ok {
		return "", time.Time{}, fmt.Errorf("%w: guest login returned no cookies", usecase.ErrUpstreamFetch)
	}
	return header, expiresAt, nil
}

// collectCookies builds "k=v; k=v" from every Set-Cookie header. The session
// ends at the earliest cookie expiry; Max-Age takes precedence over Expires.
func (s *GuestSession) collectCookies(resp *fasthttp.Response) (string, time.Time, bool) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	now := s.now()
	var earliest time.Time
	count := 0

	cookie := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(cookie)

	resp.Header.VisitAllCookie(func(_, value []byte) {
		cookie.Reset()
		if err := cookie.ParseBytes(value); err != nil || len(cookie.Key()) == 0 {
			return
		}

		if count > 0 {
			_, _ = buf.WriteString("; ")
		}
		_, _ = buf.Write(cookie.Key())
		_ = buf.WriteByte('=')
		_, _ = buf.Write(cookie.Value())
		count++

		var expiresAt time.Time
		switch {
		case cookie.MaxAge() > 0:
			expiresAt = now.Add(time.Duration(cookie.MaxAge()) * time.Second)
		case !cookie.Expire().Equal(fasthttp.CookieExpireUnlimited):
			expiresAt = cookie.Expire()
		default:
			return
		}
		if earliest.IsZero() || expiresAt.Before(earliest) {
			earliest = expiresAt
		}
	})

	if count == 0 {
		return "", time.Time{}, false
	}
	if earliest.IsZero() {
		earliest = now.Add(defaultCookieLifetime)
	}
	return buf.String(), earliest, true
}
