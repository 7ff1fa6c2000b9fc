package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/RealRedbaron07/JobApplier/internal/browser"
	"github.com/RealRedbaron07/JobApplier/internal/jobs"
	"github.com/RealRedbaron07/JobApplier/internal/logger"
)

const defaultFetchTimeout = 20 * time.Second

// Source produces postings from one upstream: an ATS board, a JSON feed or a
// mailbox of alerts.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]jobs.Posting, error)
}

// Gather runs all sources concurrently and merges their postings. A failing
// source is logged and skipped so one broken upstream never empties the run.
func Gather(ctx context.Context, log *zap.Logger, sources ...Source) []jobs.Posting {
	if log == nil {
		log = zap.NewNop()
	}

	var (
		mu  sync.Mutex
		out []jobs.Posting
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, source := range sources {
		source := source
		g.Go(func() error {
			postings, err := source.Fetch(ctx)
			if err != nil {
				log.Warn("source failed", zap.String(logger.FieldSource, source.Name()), zap.Error(err))
				return nil
			}

			log.Info("source finished",
				zap.String(logger.FieldSource, source.Name()),
				zap.Int("postings", len(postings)),
			)

			mu.Lock()
			out = append(out, postings...)
			mu.Unlock()

			return nil
		})
	}

	_ = g.Wait()

	// Merge order must not depend on which source finished first.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].ID < out[j].ID
	})

	return out
}

// fetcher is the shared HTTP side of the sources: one client, one
// User-Agent, one per-host limiter.
type fetcher struct {
	client  *http.Client
	limiter *browser.HostLimiter
	agent   string
}

func newFetcher(timeout time.Duration, limiter *browser.HostLimiter) *fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	agents := browser.DefaultUserAgents()

	return &fetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		agent:   agents[rand.Intn(len(agents))],
	}
}

func (f *fetcher) get(ctx context.Context, rawurl string) (*http.Response, error) {
	if f.limiter != nil {
		if err := f.limiter.WaitURL(ctx, rawurl); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %q: %w", rawurl, err)
	}
	req.Header.Set("User-Agent", f.agent)

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", rawurl, err)
	}
	if res.StatusCode >= 400 {
		res.Body.Close()
		return nil, fmt.Errorf("get %q: status %d", rawurl, res.StatusCode)
	}

	return res, nil
}

func (f *fetcher) document(ctx context.Context, rawurl string) (*goquery.Document, error) {
	res, err := f.get(ctx, rawurl)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", rawurl, err)
	}

	return doc, nil
}

func (f *fetcher) json(ctx context.Context, rawurl string, v any) error {
	res, err := f.get(ctx, rawurl)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %q: %w", rawurl, err)
	}

	return nil
}
