package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/core"
	"github.com/calder/inbox-sentinel/internal/utils"
)

// IMAPConfig holds the connection parameters for an IMAP mailbox.
type IMAPConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	TLS          bool
	Mailbox      string
	PollInterval time.Duration
	FetchLimit   int
}

// IMAPFeed polls an IMAP mailbox and delivers newly seen messages as row
// batches. Each message becomes a SimRow whose fields mirror the rendered
// attributes the extractor probes; List-Unsubscribe header URLs become the
// row's links.
type IMAPFeed struct {
	cfg    IMAPConfig
	logger *zap.Logger

	mu      sync.Mutex
	seen    map[imap.UID]bool
	rows    []*SimRow
	batches chan []core.Row
	stop    chan struct{}

	stopOnce sync.Once
}

// NewIMAPFeed creates a feed over the configured mailbox.
func NewIMAPFeed(cfg IMAPConfig, logger *zap.Logger) *IMAPFeed {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = 50
	}
	return &IMAPFeed{
		cfg:     cfg,
		logger:  logger,
		seen:    make(map[imap.UID]bool),
		batches: make(chan []core.Row),
		stop:    make(chan struct{}),
	}
}

func (f *IMAPFeed) Batches() <-chan []core.Row { return f.batches }

// Start launches the poll loop. The first poll happens immediately.
func (f *IMAPFeed) Start() error {
	go func() {
		defer close(f.batches)
		ticker := time.NewTicker(f.cfg.PollInterval)
		defer ticker.Stop()

		f.poll()
		for {
			select {
			case <-ticker.C:
				f.poll()
			case <-f.stop:
				return
			}
		}
	}()
	return nil
}

func (f *IMAPFeed) Stop() error {
	f.stopOnce.Do(func() { close(f.stop) })
	return nil
}

// Snapshot returns every row fetched so far.
func (f *IMAPFeed) Snapshot(ctx context.Context) ([]core.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.Row, len(f.rows))
	for i, r := range f.rows {
		out[i] = r
	}
	return out, nil
}

func (f *IMAPFeed) poll() {
	rows, err := f.fetchNew()
	if err != nil {
		f.logger.Error("mailbox poll failed", zap.Error(err))
		return
	}
	if len(rows) == 0 {
		return
	}

	f.mu.Lock()
	f.rows = append(f.rows, rows...)
	f.mu.Unlock()

	batch := make([]core.Row, len(rows))
	for i, r := range rows {
		batch[i] = r
	}
	select {
	case f.batches <- batch:
	case <-f.stop:
	}
}

func (f *IMAPFeed) connect() (*imapclient.Client, error) {
	addr := f.cfg.Host + ":" + f.cfg.Port

	var client *imapclient.Client
	var err error
	if f.cfg.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	if err := client.Login(f.cfg.Username, f.cfg.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("login failed for %s: %w", f.cfg.Username, err)
	}
	return client, nil
}

// fetchNew pulls recent messages and converts the unseen ones into rows.
func (f *IMAPFeed) fetchNew() ([]*SimRow, error) {
	client, err := f.connect()
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select(f.cfg.Mailbox, nil).Wait(); err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", f.cfg.Mailbox, err)
	}

	criteria := &imap.SearchCriteria{
		Since: time.Now().AddDate(0, 0, -7),
	}
	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	uids := searchData.AllUIDs()
	f.mu.Lock()
	fresh := make([]imap.UID, 0, len(uids))
	for _, uid := range uids {
		if !f.seen[uid] {
			fresh = append(fresh, uid)
		}
	}
	f.mu.Unlock()

	if len(fresh) == 0 {
		return nil, nil
	}
	if len(fresh) > f.cfg.FetchLimit {
		fresh = fresh[len(fresh)-f.cfg.FetchLimit:]
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := client.Fetch(imap.UIDSetNum(fresh...), &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})

	var rows []*SimRow
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			continue
		}

		row := f.rowFromMessage(buf, buf.FindBodySection(bodySection))
		if row == nil {
			continue
		}
		rows = append(rows, row)

		f.mu.Lock()
		f.seen[buf.UID] = true
		f.mu.Unlock()
	}
	if err := fetchCmd.Close(); err != nil {
		return rows, fmt.Errorf("fetch failed: %w", err)
	}
	return rows, nil
}

// rowFromMessage maps an envelope plus raw body onto the selector keys the
// extractor probes.
func (f *IMAPFeed) rowFromMessage(buf *imapclient.FetchMessageBuffer, raw []byte) *SimRow {
	if buf.Envelope == nil || len(buf.Envelope.From) == 0 {
		return nil
	}
	from := buf.Envelope.From[0]
	sender := from.Addr()
	if from.Name != "" {
		sender = from.Name + " <" + from.Addr() + ">"
	}

	id := buf.Envelope.MessageID
	if id == "" {
		id = strconv.FormatUint(uint64(buf.UID), 10)
	}

	snippet, links := parseBody(raw)
	return NewSimRow(id, map[string]string{
		"data-tooltip":        sender,
		"data-thread-perm-id": buf.Envelope.Subject,
		"bog":                 snippet,
	}, links)
}

const snippetLimit = 200

// parseBody extracts a plain-text snippet and the List-Unsubscribe URLs
// from a raw RFC 5322 message.
func parseBody(raw []byte) (snippet string, links []string) {
	if len(raw) == 0 {
		return "", nil
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return utils.Snippet(string(raw), snippetLimit), nil
	}
	defer mr.Close()

	links = unsubscribeHeaderURLs(mr.Header.Get("List-Unsubscribe"))

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		if !strings.HasPrefix(contentType, "text/plain") {
			continue
		}
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		snippet = utils.Snippet(string(body), snippetLimit)
		break
	}
	return snippet, links
}

// unsubscribeHeaderURLs splits a List-Unsubscribe header value into its
// angle-bracketed URLs.
func unsubscribeHeaderURLs(header string) []string {
	if header == "" {
		return nil
	}
	var urls []string
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(part, "<")
		part = strings.TrimSuffix(part, ">")
		if part != "" {
			urls = append(urls, part)
		}
	}
	return urls
}

