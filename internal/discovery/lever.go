package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/RealRedbaron07/JobApplier/internal/browser"
	"github.com/RealRedbaron07/JobApplier/internal/jobs"
)

const leverBase = "https://api.lever.co"

// LeverOrg names one org under api.lever.co/v0/postings/<slug>.
type LeverOrg struct {
	Slug    string `mapstructure:"slug"`
	Company string `mapstructure:"company"`
}

type LeverConfig struct {
	BaseURL string        `mapstructure:"base-url"`
	Orgs    []LeverOrg    `mapstructure:"orgs"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Lever reads the public postings feed per org.
type Lever struct {
	cfg     LeverConfig
	fetcher *fetcher
	logger  *zap.Logger
}

func NewLever(cfg LeverConfig, limiter *browser.HostLimiter, log *zap.Logger) *Lever {
	if cfg.BaseURL == "" {
		cfg.BaseURL = leverBase
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Lever{
		cfg:     cfg,
		fetcher: newFetcher(cfg.Timeout, limiter),
		logger:  log,
	}
}

func (l *Lever) Name() string { return "lever" }

type leverPosting struct {
	ID               string `json:"id"`
	Text             string `json:"text"`
	HostedURL        string `json:"hostedUrl"`
	CreatedAt        int64  `json:"createdAt"`
	DescriptionPlain string `json:"descriptionPlain"`
	Categories       struct {
		Location   string `json:"location"`
		Commitment string `json:"commitment"`
	} `json:"categories"`
}

func (l *Lever) Fetch(ctx context.Context) ([]jobs.Posting, error) {
	var out []jobs.Posting
	for _, org := range l.cfg.Orgs {
		postings, err := l.fetchOrg(ctx, org)
		if err != nil {
			l.logger.Warn("lever feed failed", zap.String("org", org.Slug), zap.Error(err))
			continue
		}
		out = append(out, postings...)
	}

	return out, nil
}

// The v0 feed is not strict about number vs string fields, so the decode
// is weakly typed.
func decodeLeverFeed(items []map[string]any) ([]leverPosting, error) {
	var feed []leverPosting

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           &feed,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, err
	}

	return feed, nil
}

func (l *Lever) fetchOrg(ctx context.Context, org LeverOrg) ([]jobs.Posting, error) {
	feedURL := fmt.Sprintf("%s/v0/postings/%s?mode=json", strings.TrimRight(l.cfg.BaseURL, "/"), org.Slug)

	var items []map[string]any
	if err := l.fetcher.json(ctx, feedURL, &items); err != nil {
		return nil, err
	}

	feed, err := decodeLeverFeed(items)
	if err != nil {
		return nil, fmt.Errorf("decode feed for %q: %w", org.Slug, err)
	}

	out := make([]jobs.Posting, 0, len(feed))
	for _, p := range feed {
		title := strings.TrimSpace(p.Text)
		if p.ID == "" || p.HostedURL == "" || title == "" {
			continue
		}

		discovered := time.Now()
		if p.CreatedAt > 0 {
			discovered = time.UnixMilli(p.CreatedAt)
		}

		out = append(out, jobs.Posting{
			ID:           fmt.Sprintf("lever:%s:%s", org.Slug, p.ID),
			Title:        title,
			Company:      org.Company,
			Location:     strings.TrimSpace(p.Categories.Location),
			Description:  p.DescriptionPlain,
			Source:       l.Name(),
			ATS:          jobs.ATSLever,
			ApplyURL:     p.HostedURL,
			DiscoveredAt: discovered,
		})
	}

	return out, nil
}
