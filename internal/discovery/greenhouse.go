package discovery

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/RealRedbaron07/JobApplier/internal/browser"
	"github.com/RealRedbaron07/JobApplier/internal/jobs"
)

const greenhouseBase = "https://boards.greenhouse.io"

// GreenhouseBoard names one board under boards.greenhouse.io/<slug>.
type GreenhouseBoard struct {
	Slug    string `mapstructure:"slug"`
	Company string `mapstructure:"company"`
}

type GreenhouseConfig struct {
	// BaseURL overrides the boards host, e.g. for the EU instance.
	BaseURL string            `mapstructure:"base-url"`
	Boards  []GreenhouseBoard `mapstructure:"boards"`
	Timeout time.Duration     `mapstructure:"timeout"`
}

// Greenhouse walks configured board pages and pulls every linked job
// posting, hydrating each from its own page.
type Greenhouse struct {
	cfg     GreenhouseConfig
	fetcher *fetcher
	logger  *zap.Logger
}

func NewGreenhouse(cfg GreenhouseConfig, limiter *browser.HostLimiter, log *zap.Logger) *Greenhouse {
	if cfg.BaseURL == "" {
		cfg.BaseURL = greenhouseBase
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Greenhouse{
		cfg:     cfg,
		fetcher: newFetcher(cfg.Timeout, limiter),
		logger:  log,
	}
}

func (g *Greenhouse) Name() string { return "greenhouse" }

func (g *Greenhouse) Fetch(ctx context.Context) ([]jobs.Posting, error) {
	var out []jobs.Posting
	for _, board := range g.cfg.Boards {
		postings, err := g.fetchBoard(ctx, board)
		if err != nil {
			// One dead board must not sink the others.
			g.logger.Warn("greenhouse board failed", zap.String("board", board.Slug), zap.Error(err))
			continue
		}
		out = append(out, postings...)
	}

	return out, nil
}

var greenhouseJobID = regexp.MustCompile(`/jobs/(\d+)`)

func (g *Greenhouse) fetchBoard(ctx context.Context, board GreenhouseBoard) ([]jobs.Posting, error) {
	boardURL := fmt.Sprintf("%s/%s", strings.TrimRight(g.cfg.BaseURL, "/"), board.Slug)

	base, err := url.Parse(boardURL)
	if err != nil {
		return nil, fmt.Errorf("board url %q: %w", boardURL, err)
	}

	doc, err := g.fetcher.document(ctx, boardURL)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var postings []jobs.Posting

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return
		}

		ref, err := base.Parse(href)
		if err != nil {
			return
		}
		abs := ref.String()

		m := greenhouseJobID.FindStringSubmatch(abs)
		if m == nil {
			return
		}

		id := fmt.Sprintf("greenhouse:%s:%s", board.Slug, m[1])
		if seen[id] {
			return
		}
		seen[id] = true

		title := cleanText(a.Text())
		if junkLinkText(title) {
			// The job page will supply the real title.
			title = ""
		}

		postings = append(postings, jobs.Posting{
			ID:           id,
			Title:        title,
			Company:      board.Company,
			Source:       g.Name(),
			ATS:          jobs.ATSGreenhouse,
			ApplyURL:     abs,
			DiscoveredAt: time.Now(),
		})
	})

	for i := range postings {
		if err := g.hydrate(ctx, &postings[i]); err != nil {
			g.logger.Debug("job page hydration failed",
				zap.String("url", postings[i].ApplyURL), zap.Error(err))
		}
	}

	return postings, nil
}

// hydrate fills title, location and description from the job page. Errors
// leave the minimal entry from the board intact.
func (g *Greenhouse) hydrate(ctx context.Context, posting *jobs.Posting) error {
	doc, err := g.fetcher.document(ctx, posting.ApplyURL)
	if err != nil {
		return err
	}

	if posting.Title == "" {
		posting.Title = cleanText(doc.Find("h1").First().Text())
	}
	if posting.Location == "" {
		posting.Location = cleanText(doc.Find(".location").First().Text())
	}
	if posting.Description == "" {
		sel := doc.Find("#content").First()
		if sel.Length() == 0 {
			sel = doc.Find("body").First()
		}
		posting.Description = cleanText(sel.Text())
	}

	return nil
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}

func junkLinkText(t string) bool {
	l := strings.ToLower(t)
	return l == "" || strings.Contains(l, "view") || strings.Contains(l, "apply")
}
