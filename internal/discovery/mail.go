package discovery

import (
	"bytes"
	"context"
	"crypto/sha1"
	"crypto/tls"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"

	"github.com/RealRedbaron07/JobApplier/internal/browser"
	"github.com/RealRedbaron07/JobApplier/internal/jobs"
)

const (
	defaultMailbox     = "INBOX"
	defaultMaxMessages = 50
	defaultLookback    = 30 * 24 * time.Hour

	// maxHydrations caps how many linked pages get fetched for titles per
	// run; alert digests can carry hundreds of links.
	maxHydrations = 25
)

type MailConfig struct {
	// Host is the IMAP endpoint with port, e.g. imap.gmail.com:993.
	Host            string        `mapstructure:"host"`
	Username        string        `mapstructure:"username"`
	Mailbox         string        `mapstructure:"mailbox"`
	SubjectKeywords []string      `mapstructure:"subject-keywords"`
	MaxMessages     int           `mapstructure:"max-messages"`
	MarkSeen        bool          `mapstructure:"mark-seen"`
	Lookback        time.Duration `mapstructure:"lookback"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

func DefaultSubjectKeywords() []string {
	return []string{"job alert", "jobs for you", "new jobs", "job recommendations"}
}

// MailAlerts reads unseen job-alert mails over IMAP and turns the links they
// carry into postings.
type MailAlerts struct {
	cfg      MailConfig
	password string
	fetcher  *fetcher
	logger   *zap.Logger
}

func NewMailAlerts(cfg MailConfig, password string, limiter *browser.HostLimiter, log *zap.Logger) *MailAlerts {
	if cfg.Mailbox == "" {
		cfg.Mailbox = defaultMailbox
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = defaultMaxMessages
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = defaultLookback
	}
	if len(cfg.SubjectKeywords) == 0 {
		cfg.SubjectKeywords = DefaultSubjectKeywords()
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &MailAlerts{
		cfg:      cfg,
		password: password,
		fetcher:  newFetcher(cfg.Timeout, limiter),
		logger:   log,
	}
}

func (m *MailAlerts) Name() string { return "mail" }

func (m *MailAlerts) Fetch(ctx context.Context) ([]jobs.Posting, error) {
	if m.cfg.Host == "" || m.cfg.Username == "" || m.password == "" {
		return nil, errors.New("mail source needs host, username and password")
	}

	client, err := imapclient.DialTLS(m.cfg.Host, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12},
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial %q: %w", m.cfg.Host, err)
	}
	defer client.Close()

	// Best-effort close on cancellation; the protocol calls below do not
	// take a context themselves.
	go func() {
		<-ctx.Done()
		_ = client.Close()
	}()

	if err := client.Login(m.cfg.Username, m.password).Wait(); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select(m.cfg.Mailbox, &imap.SelectOptions{ReadOnly: !m.cfg.MarkSeen}).Wait(); err != nil {
		return nil, fmt.Errorf("imap select %q: %w", m.cfg.Mailbox, err)
	}

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   time.Now().Add(-m.cfg.Lookback),
	}

	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap search unseen: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	// Newest first, capped.
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if len(uids) > m.cfg.MaxMessages {
		uids = uids[:m.cfg.MaxMessages]
	}

	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})

	var (
		postings []jobs.Posting
		matched  []imap.UID
		seen     = map[string]bool{}
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}

		buf, err := msgData.Collect()
		if err != nil {
			m.logger.Warn("alert mail fetch failed", zap.Error(err))
			continue
		}

		var subject string
		if buf.Envelope != nil {
			subject = buf.Envelope.Subject
		}
		if !subjectMatches(subject, m.cfg.SubjectKeywords) {
			continue
		}

		raw := buf.FindBodySection(bodyAll)
		if len(raw) == 0 {
			continue
		}

		matched = append(matched, buf.UID)

		for _, posting := range postingsFromAlert(raw) {
			if seen[posting.ID] {
				continue
			}
			seen[posting.ID] = true
			postings = append(postings, posting)
		}
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}

	m.logger.Debug("alert mails processed",
		zap.Int("matched", len(matched)),
		zap.Int("links", len(postings)),
	)

	m.hydrate(ctx, postings)

	if m.cfg.MarkSeen && len(matched) > 0 {
		storeFlags := &imap.StoreFlags{
			Op:     imap.StoreFlagsAdd,
			Silent: true,
			Flags:  []imap.Flag{imap.FlagSeen},
		}
		if err := client.Store(imap.UIDSetNum(matched...), storeFlags, nil).Close(); err != nil {
			m.logger.Warn("marking alerts seen failed", zap.Error(err))
		}
	}

	return postings, nil
}

// hydrate fetches linked pages for missing titles and descriptions, a few at
// most so a fat digest cannot turn into a crawl.
func (m *MailAlerts) hydrate(ctx context.Context, postings []jobs.Posting) {
	budget := maxHydrations
	for i := range postings {
		if budget == 0 {
			return
		}
		if postings[i].Title != "" && postings[i].Description != "" {
			continue
		}
		budget--

		doc, err := m.fetcher.document(ctx, postings[i].ApplyURL)
		if err != nil {
			m.logger.Debug("alert link hydration failed",
				zap.String("url", postings[i].ApplyURL), zap.Error(err))
			continue
		}

		if postings[i].Title == "" {
			postings[i].Title = cleanText(doc.Find("h1").First().Text())
		}
		if postings[i].Title == "" {
			postings[i].Title = cleanText(doc.Find("title").First().Text())
		}
		if postings[i].Description == "" {
			postings[i].Description = cleanText(doc.Find("body").First().Text())
		}
	}
}

func subjectMatches(subject string, keywords []string) bool {
	low := strings.ToLower(subject)
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(low, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

type alertLink struct {
	url  string
	text string
}

// postingsFromAlert parses one raw RFC822 alert and returns the postings its
// links point at.
func postingsFromAlert(raw []byte) []jobs.Posting {
	plain, htmlBody := messageBody(raw)

	index := map[string]int{}
	var postings []jobs.Posting

	for _, link := range extractAlertLinks(htmlBody, plain) {
		posting, ok := postingFromLink(link)
		if !ok {
			continue
		}

		if at, dup := index[posting.ID]; dup {
			// Alerts link each job more than once; keep whichever
			// anchor carried a real title.
			if postings[at].Title == "" && posting.Title != "" {
				postings[at].Title = posting.Title
			}
			continue
		}

		index[posting.ID] = len(postings)
		postings = append(postings, posting)
	}

	return postings
}

// messageBody splits an RFC822 message into its text and HTML parts.
func messageBody(raw []byte) (plain, htmlBody string) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return string(raw), ""
	}

	body, _ := io.ReadAll(io.LimitReader(msg.Body, 8<<20))

	return textParts(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), body)
}

func textParts(contentType, encoding string, body []byte) (plain, htmlBody string) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(decodeBody(body, encoding)), ""
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return string(decodeBody(body, encoding)), ""
		}

		reader := multipart.NewReader(bytes.NewReader(body), boundary)
		for {
			part, err := reader.NextPart()
			if err != nil {
				break
			}

			content, _ := io.ReadAll(io.LimitReader(part, 8<<20))
			pl, ht := textParts(part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"), content)
			if len(pl) > len(plain) {
				plain = pl
			}
			if len(ht) > len(htmlBody) {
				htmlBody = ht
			}
		}

		return plain, htmlBody
	}

	decoded := string(decodeBody(body, encoding))
	if strings.HasPrefix(mediaType, "text/html") {
		return "", decoded
	}

	return decoded, ""
}

func decodeBody(b []byte, encoding string) []byte {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		dec := base64.NewDecoder(base64.StdEncoding, bytes.NewReader(b))
		out, _ := io.ReadAll(io.LimitReader(dec, 8<<20))
		return out
	case "quoted-printable":
		dec := quotedprintable.NewReader(bytes.NewReader(b))
		out, _ := io.ReadAll(io.LimitReader(dec, 8<<20))
		return out
	default:
		return b
	}
}

var nakedURLPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// extractAlertLinks pulls anchors out of the HTML part and naked URLs out of
// the text part.
func extractAlertLinks(htmlBody, plain string) []alertLink {
	var links []alertLink

	if strings.TrimSpace(htmlBody) != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody)); err == nil {
			doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
				href := strings.TrimSpace(a.AttrOr("href", ""))
				if href == "" {
					return
				}
				links = append(links, alertLink{url: href, text: cleanText(a.Text())})
			})
		}
	}

	for _, u := range nakedURLPattern.FindAllString(plain, -1) {
		links = append(links, alertLink{url: strings.TrimRight(u, `.,);:]"'`)})
	}

	return links
}

var junkURLMarkers = []string{
	"unsubscribe", "preferences", "privacy", "terms",
	"facebook.com", "twitter.com", "x.com", "instagram.com", "youtube.com",
}

var jobURLMarkers = []string{
	"job", "career", "position", "vacanc",
	"greenhouse", "lever.co", "workday", "indeed", "linkedin.com",
}

// canonicalizeJobURL normalizes one link target and decides whether it can
// point at a posting: tracking params and fragments are dropped, junk and
// non-job destinations rejected.
func canonicalizeJobURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" {
		return "", false
	}

	low := strings.ToLower(u.Host + u.Path)
	for _, marker := range junkURLMarkers {
		if strings.Contains(low, marker) {
			return "", false
		}
	}

	jobish := false
	for _, marker := range jobURLMarkers {
		if strings.Contains(low, marker) {
			jobish = true
			break
		}
	}
	if !jobish {
		return "", false
	}

	q := u.Query()
	for key := range q {
		lk := strings.ToLower(key)
		if strings.HasPrefix(lk, "utm_") || lk == "fbclid" || lk == "gclid" || lk == "ref" || lk == "trk" || lk == "trkemail" {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""

	return u.String(), true
}

func postingFromLink(link alertLink) (jobs.Posting, bool) {
	canonical, ok := canonicalizeJobURL(link.url)
	if !ok {
		return jobs.Posting{}, false
	}

	title := link.text
	if junkLinkText(title) {
		title = ""
	}

	sum := sha1.Sum([]byte(canonical))

	return jobs.Posting{
		ID:           "mail:" + hex.EncodeToString(sum[:8]),
		Title:        title,
		Source:       "mail",
		ATS:          jobs.DetectATS(canonical),
		ApplyURL:     canonical,
		DiscoveredAt: time.Now(),
	}, true
}
