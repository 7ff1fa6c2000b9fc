package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/flock"
	"go.uber.org/zap"
	xproxy "golang.org/x/net/proxy"
	"golang.org/x/net/publicsuffix"

	"github.com/RealRedbaron07/JobApplier/internal/utils"
)

// Session is the single entry point for every page interaction: it owns the
// cookie jar, the rotated identity, egress routing, pacing, retry and
// rate-limit cooldown. One session serves one automation at a time; the data
// dir lock enforces that across processes.
type Session struct {
	cfg       Config
	logger    *zap.Logger
	client    *http.Client
	limiter   *HostLimiter
	lock      *flock.Flock
	userAgent string

	mu            sync.Mutex
	cooldownUntil time.Time
}

// NewSession acquires a browsing session. The caller must Close it.
func NewSession(cfg Config, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	transport, err := newTransport(cfg.Proxy)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	s := &Session{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   cfg.Timeout,
		},
		limiter:   NewHostLimiter(cfg.RequestsPerSecond, cfg.Burst),
		userAgent: cfg.UserAgents[rand.Intn(len(cfg.UserAgents))],
	}

	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating session data dir: %w", err)
		}

		lock := flock.New(filepath.Join(cfg.DataDir, "session.lock"))
		locked, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("locking session data dir: %w", err)
		}
		if !locked {
			return nil, fmt.Errorf("session data dir %q is in use by another process", cfg.DataDir)
		}
		s.lock = lock
	}

	s.logger.Debug("session acquired",
		zap.String("user_agent", utils.TruncateForLog(s.userAgent, 50)),
		zap.Bool("proxy", cfg.Proxy != ""),
	)

	return s, nil
}

// Close releases the session and its data dir lock.
func (s *Session) Close() error {
	s.client.CloseIdleConnections()

	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			return fmt.Errorf("releasing session lock: %w", err)
		}
	}

	return nil
}

func newTransport(rawProxy string) (*http.Transport, error) {
	transport := &http.Transport{}
	if rawProxy == "" {
		return transport, nil
	}

	u, err := url.Parse(rawProxy)
	if err != nil {
		return nil, fmt.Errorf("parsing proxy url: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
	case "socks5", "socks5h":
		dialer, err := xproxy.FromURL(u, xproxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("building socks dialer: %w", err)
		}
		if ctxDialer, ok := dialer.(xproxy.ContextDialer); ok {
			transport.DialContext = ctxDialer.DialContext
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}

	return transport, nil
}

// Open navigates to url and returns the parsed page.
func (s *Session) Open(ctx context.Context, rawurl string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, &NavigationError{URL: rawurl, Err: err}
	}

	return s.fetch(ctx, req)
}

// fetch is the one path every request takes: cooldown gate, per-host pacing,
// the request itself, parsing and rate-limit inspection.
func (s *Session) fetch(ctx context.Context, req *http.Request) (*Page, error) {
	if err := s.waitCooldown(ctx); err != nil {
		return nil, err
	}

	if err := s.limiter.WaitURL(ctx, req.URL.String()); err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", s.userAgent)

	s.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &NavigationError{URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &NavigationError{URL: req.URL.String(), Status: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &NavigationError{URL: req.URL.String(), Err: fmt.Errorf("parsing page: %w", err)}
	}

	page := newPage(resp.Request.URL, doc)

	if sig, found := page.ContainsAny(s.cfg.RateLimitSignatures); found {
		s.armCooldown()
		s.logger.Warn("rate limit detected",
			zap.String("signature", sig),
			zap.Duration("cooldown", s.cfg.Cooldown),
		)
		return nil, &RateLimitError{Signature: sig}
	}

	return page, nil
}

// DetectRateLimit reports whether the page matches a rate-limit signature and
// arms the cooldown gate when it does.
func (s *Session) DetectRateLimit(page *Page) bool {
	if page == nil {
		return false
	}

	sig, found := page.ContainsAny(s.cfg.RateLimitSignatures)
	if found {
		s.armCooldown()
		s.logger.Warn("rate limit detected", zap.String("signature", sig))
	}

	return found
}

func (s *Session) armCooldown() {
	s.mu.Lock()
	s.cooldownUntil = time.Now().Add(s.cfg.Cooldown)
	s.mu.Unlock()
}

func (s *Session) waitCooldown(ctx context.Context) error {
	s.mu.Lock()
	remaining := time.Until(s.cooldownUntil)
	s.mu.Unlock()

	if remaining <= 0 {
		return nil
	}

	s.logger.Warn("cooling down after rate limit", zap.Duration("remaining", remaining))

	return utils.WaitFor(ctx, remaining)
}

// Type fills el with value, pausing between keystrokes the way a person
// would.
func (s *Session) Type(ctx context.Context, el *Element, value string) error {
	if el == nil {
		return fmt.Errorf("no element to type into")
	}

	if err := s.pause(ctx, s.cfg.ActionDelayMin, s.cfg.ActionDelayMax); err != nil {
		return err
	}

	for range value {
		if err := s.pause(ctx, s.cfg.TypeDelayMin, s.cfg.TypeDelayMax); err != nil {
			return err
		}
	}
	el.setValue(value)

	s.logger.Debug("typed value",
		zap.String("field", el.describe()),
		zap.String("value", utils.TruncateForLog(value, 20)),
	)

	return nil
}

// Upload attaches the file at path to a file input. The file must exist.
func (s *Session) Upload(el *Element, path string) error {
	if el == nil {
		return fmt.Errorf("no element to upload into")
	}
	if el.Type != "file" {
		return fmt.Errorf("%s is not a file input", el.describe())
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("upload file: %w", err)
	}
	el.attachFile(path)

	s.logger.Debug("attached file", zap.String("field", el.describe()), zap.String("path", path))

	return nil
}

// Click activates el: a link is followed, a form control submits its form.
// The resulting page is returned.
func (s *Session) Click(ctx context.Context, page *Page, el *Element) (*Page, error) {
	if page == nil || el == nil {
		return nil, fmt.Errorf("nothing to click")
	}

	if err := s.pause(ctx, s.cfg.ActionDelayMin, s.cfg.ActionDelayMax); err != nil {
		return nil, err
	}

	s.logger.Debug("click", zap.String("control", el.describe()))

	if el.Tag == "a" {
		if el.href == "" {
			return nil, fmt.Errorf("link %q has no destination", el.Text)
		}
		return s.Open(ctx, page.resolve(el.href))
	}

	if el.form == nil {
		return nil, fmt.Errorf("control %s is not part of a form", el.describe())
	}

	return s.submit(ctx, page, el)
}

func (s *Session) submit(ctx context.Context, page *Page, clicked *Element) (*Page, error) {
	f := clicked.form
	action := page.resolve(f.action)
	if f.action == "" {
		action = page.URL()
	}

	values := f.cloneValues()
	if clicked.Name != "" {
		value := clicked.Value
		if value == "" {
			value = clicked.Text
		}
		values.Set(clicked.Name, value)
	}

	if !strings.EqualFold(f.method, http.MethodPost) {
		u, err := url.Parse(action)
		if err != nil {
			return nil, &NavigationError{URL: action, Err: err}
		}
		u.RawQuery = values.Encode()

		return s.Open(ctx, u.String())
	}

	body, contentType, err := encodeForm(values, f)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, action, body)
	if err != nil {
		return nil, &NavigationError{URL: action, Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	return s.fetch(ctx, req)
}

// encodeForm serializes the form the way a browser would: urlencoded unless a
// file is attached or the form asks for multipart.
func encodeForm(values url.Values, f *form) (io.Reader, string, error) {
	if len(f.files) == 0 && !strings.EqualFold(f.enctype, "multipart/form-data") {
		return strings.NewReader(values.Encode()), "application/x-www-form-urlencoded", nil
	}

	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		for _, val := range values[key] {
			field, err := w.CreateFormField(key)
			if err != nil {
				return nil, "", err
			}
			if _, err := io.Copy(field, strings.NewReader(val)); err != nil {
				return nil, "", err
			}
		}
	}

	names := make([]string, 0, len(f.files))
	for name := range f.files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := f.files[name]

		part, err := w.CreateFormFile(name, filepath.Base(path))
		if err != nil {
			return nil, "", err
		}

		file, err := os.Open(path)
		if err != nil {
			return nil, "", fmt.Errorf("opening upload %q: %w", path, err)
		}
		if _, err := io.Copy(part, file); err != nil {
			file.Close()
			return nil, "", fmt.Errorf("reading upload %q: %w", path, err)
		}
		file.Close()
	}
	w.Close()

	return &b, w.FormDataContentType(), nil
}

// Do runs op under the retry policy: bounded attempts with exponential
// backoff and jitter. A rate-limit error aborts immediately since hammering a
// throttled site only digs the hole deeper; cooldown handles it instead.
func (s *Session) Do(ctx context.Context, op func() error) error {
	attempts := 0
	operation := func() error {
		attempts++

		err := op()
		if err == nil {
			return nil
		}

		var rateLimited *RateLimitError
		if errors.As(err, &rateLimited) {
			return backoff.Permanent(err)
		}

		if attempts < s.cfg.Retries {
			s.logger.Warn("operation failed, retrying",
				zap.Int("attempt", attempts),
				zap.Int("max", s.cfg.Retries),
				zap.Error(err),
			)
		}

		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.BackoffBase
	bo.MaxInterval = s.cfg.BackoffCap
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(s.cfg.Retries-1)), ctx))
	if err == nil {
		return nil
	}

	var rateLimited *RateLimitError
	if errors.As(err, &rateLimited) {
		return err
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	s.logger.Warn("all attempts failed", zap.Int("attempts", attempts), zap.Error(err))

	return &RetryExhaustedError{Attempts: attempts, Err: err}
}

func (s *Session) pause(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		d += time.Duration(rand.Int63n(int64(max - min)))
	}

	return utils.WaitFor(ctx, d)
}
