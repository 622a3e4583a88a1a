// Package inbox pulls lead-notification emails over IMAP and runs their HTML
// bodies through the intake pipeline.
package inbox

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/domain"
	"leadhunt-engine/internal/intake"
	"leadhunt-engine/internal/metrics"
)

var ErrAlreadyRunning = eris.New("inbox: a run is already in progress")

const runTimeout = 120 * time.Second

// Summary describes one inbox run.
type Summary struct {
	Messages int `json:"messages"`
	Matched  int `json:"matched"`
	Leads    int `json:"leads"`
	Stored   int `json:"stored"`
}

// Status is the last known state of the runner.
type Status struct {
	Enabled   bool      `json:"enabled"`
	Running   bool      `json:"running"`
	LastRunAt time.Time `json:"lastRunAt"`
	LastError string    `json:"lastError,omitempty"`
	Last      Summary   `json:"last"`
}

// Processor runs one document through intake. *intake.Pipeline and
// *intake.Current implement it.
type Processor interface {
	ProcessAndStore(ctx context.Context, doc domain.RawDocument) intake.Result
}

type Runner struct {
	Cfg      config.InboxConfig
	Pipeline Processor
	Metrics  *metrics.Metrics
	// Password resolves the IMAP password at run time.
	Password func(config.InboxConfig) (string, error)

	mu     sync.Mutex
	status Status
}

func NewRunner(cfg config.InboxConfig, p Processor, m *metrics.Metrics, password func(config.InboxConfig) (string, error)) *Runner {
	return &Runner{
		Cfg:      cfg,
		Pipeline: p,
		Metrics:  m,
		Password: password,
		status:   Status{Enabled: cfg.Enabled},
	}
}

func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Runner) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status.Running {
		return false
	}
	r.status.Running = true
	return true
}

func (r *Runner) finish(sum Summary, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.Running = false
	r.status.LastRunAt = time.Now().UTC()
	r.status.Last = sum
	r.status.LastError = ""
	if err != nil {
		r.status.LastError = err.Error()
	}
}

// RunOnce polls the mailbox one time. It is a no-op when the inbox is
// disabled.
func (r *Runner) RunOnce(ctx context.Context) (sum Summary, err error) {
	if !r.Cfg.Enabled {
		return Summary{}, nil
	}
	if !r.begin() {
		return Summary{}, ErrAlreadyRunning
	}
	defer func() { r.finish(sum, err) }()

	if r.Cfg.IMAPHost == "" || r.Cfg.Username == "" {
		return Summary{}, eris.New("inbox: enabled but missing imap_host/username")
	}
	password, err := r.Password(r.Cfg)
	if err != nil {
		return Summary{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	c, err := DialAndLogin(ctx, r.addr(), r.Cfg.Username, password)
	if err != nil {
		return Summary{}, err
	}
	defer LogoutAndClose(c)

	if _, err := c.Select(r.mailbox(), &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		return Summary{}, eris.Wrapf(err, "imap: select %q", r.mailbox())
	}

	msgs, err := FetchUnseen(ctx, c, r.Cfg.MaxMessages)
	if err != nil {
		return Summary{}, err
	}

	seen, sum := r.Process(ctx, msgs)
	if err := MarkSeen(c, seen); err != nil {
		return sum, err
	}

	zap.L().Info("inbox: run finished",
		zap.String("mailbox", r.mailbox()),
		zap.Int("messages", sum.Messages),
		zap.Int("matched", sum.Matched),
		zap.Int("leads", sum.Leads),
		zap.Int("stored", sum.Stored),
	)
	return sum, nil
}

// Process runs every matching message through the pipeline and returns the
// UIDs to mark seen. Messages whose subject does not match stay unread.
func (r *Runner) Process(ctx context.Context, msgs []EmailMessage) ([]imap.UID, Summary) {
	sum := Summary{Messages: len(msgs)}
	seen := make([]imap.UID, 0, len(msgs))

	for _, m := range msgs {
		if ctx.Err() != nil {
			break
		}

		parsed, err := ParseMessage(m.RawMessage, m.Subject)
		if err != nil {
			r.Metrics.InboxMessage("parse_error")
			zap.L().Warn("inbox: parse message", zap.Uint32("uid", uint32(m.UID)), zap.Error(err))
			seen = append(seen, m.UID)
			continue
		}

		if len(r.Cfg.SearchSubjectAny) > 0 && !containsAnyCI(parsed.Subject, r.Cfg.SearchSubjectAny) {
			r.Metrics.InboxMessage("skipped")
			continue
		}
		sum.Matched++
		seen = append(seen, m.UID)

		if strings.TrimSpace(parsed.HTML) == "" {
			r.Metrics.InboxMessage("no_html")
			zap.L().Debug("inbox: message has no html part", zap.String("subject", parsed.Subject))
			continue
		}

		fetchedAt := m.Date
		if fetchedAt.IsZero() {
			fetchedAt = parsed.Date
		}
		res := r.Pipeline.ProcessAndStore(ctx, domain.RawDocument{
			HTML:      parsed.HTML,
			SourceURL: r.messageURL(m.UID),
			FetchedAt: fetchedAt,
		})
		sum.Leads += len(res.Leads)
		sum.Stored += res.StoredCount
		r.Metrics.InboxMessage("processed")
	}
	return seen, sum
}

func (r *Runner) addr() string {
	addr := r.Cfg.IMAPHost
	if strings.Contains(addr, ":") {
		return addr
	}
	port := r.Cfg.IMAPPort
	if port == 0 {
		port = 993
	}
	return fmt.Sprintf("%s:%d", addr, port)
}

func (r *Runner) mailbox() string {
	if r.Cfg.Mailbox == "" {
		return "INBOX"
	}
	return r.Cfg.Mailbox
}

func (r *Runner) messageURL(uid imap.UID) string {
	u := url.URL{
		Scheme: "imap",
		User:   url.User(r.Cfg.Username),
		Host:   r.Cfg.IMAPHost,
		Path:   fmt.Sprintf("/%s/%d", r.mailbox(), uid),
	}
	return u.String()
}
