// Package collector pulls a channel's history out of Slack, filters it down
// to analyzable messages, and expands threads into combined documents.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/swyang-dev/opskb/internal/slack"
	"github.com/swyang-dev/opskb/internal/usercache"
	"github.com/swyang-dev/opskb/pkg/logging"
)

// ErrChannelNotFound means no channel matched the selector.
var ErrChannelNotFound = errors.New("collector: channel not found")

// slackAPI is the slice of the Slack client the collector uses.
type slackAPI interface {
	ListChannels(ctx context.Context, types string) ([]slack.Channel, error)
	History(ctx context.Context, channelID, oldest, cursor string, limit int) (*slack.HistoryPage, error)
	ThreadReplies(ctx context.Context, channelID, threadTs string) ([]slack.Message, error)
	UserInfo(ctx context.Context, userID string) (*slack.User, error)
}

// Collector runs the sequential collection phase. All Slack I/O is paced
// through a single Pacer; nothing here is concurrent.
type Collector struct {
	api      slackAPI
	pacer    *Pacer
	cache    usercache.Cache
	logger   *slog.Logger
	limit    int
	pageSize int
	names    map[string]string

	lastRaw  int
	lastKept int
}

// LastRun reports the raw and kept message counts of the most recent
// Collect call, for metrics and run summaries.
func (c *Collector) LastRun() (raw, kept int) {
	return c.lastRaw, c.lastKept
}

// Option configures a Collector.
type Option func(*Collector)

// WithMessageLimit caps how many filtered messages a run processes. Zero
// means unlimited.
func WithMessageLimit(n int) Option {
	return func(c *Collector) { c.limit = n }
}

// WithNameCache adds a shared display-name cache in front of users.info.
func WithNameCache(cache usercache.Cache) Option {
	return func(c *Collector) { c.cache = cache }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) { c.logger = logger }
}

func New(api slackAPI, pacer *Pacer, opts ...Option) *Collector {
	if api == nil {
		panic("collector: nil slack api")
	}
	if pacer == nil {
		pacer = NewPacer(0, 0)
	}
	c := &Collector{
		api:      api,
		pacer:    pacer,
		logger:   logging.Default().Logger,
		pageSize: 200,
		names:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect resolves the channel selector, pages through its history since
// daysBack, filters and chronologically orders the messages, and expands
// each thread. daysBack <= 0 means the entire history.
func (c *Collector) Collect(ctx context.Context, selector string, daysBack int) (*slack.Channel, []ThreadedMessage, error) {
	channel, err := c.resolveChannel(ctx, selector)
	if err != nil {
		return nil, nil, err
	}
	c.logger.Info("collecting channel history", "channel", channel.Name, "id", channel.ID, "days_back", daysBack)

	oldest := ""
	if daysBack > 0 {
		oldest = strconv.FormatInt(time.Now().Add(-time.Duration(daysBack)*24*time.Hour).Unix(), 10)
	}

	var raw []slack.Message
	cursor := ""
	for {
		page, err := c.fetchPage(ctx, channel.ID, oldest, cursor)
		if err != nil {
			return nil, nil, err
		}
		raw = append(raw, page.Messages...)
		cursor = page.NextCursor
		if cursor == "" {
			break
		}
		if err := sleepCtx(ctx, c.pacer.Delay(FetchPage)); err != nil {
			return nil, nil, err
		}
	}

	kept := raw[:0:0]
	for _, m := range raw {
		if KeepMessage(m) {
			kept = append(kept, m)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return tsValue(kept[i].Ts) < tsValue(kept[j].Ts)
	})
	if c.limit > 0 && len(kept) > c.limit {
		kept = kept[:c.limit]
	}
	c.lastRaw, c.lastKept = len(raw), len(kept)
	c.logger.Info("history collected", "raw", len(raw), "kept", len(kept))

	messages := make([]ThreadedMessage, 0, len(kept))
	for _, m := range kept {
		tm, err := c.expand(ctx, channel.ID, m)
		if err != nil {
			return nil, nil, err
		}
		messages = append(messages, tm)
	}
	return channel, messages, nil
}

func (c *Collector) resolveChannel(ctx context.Context, selector string) (*slack.Channel, error) {
	channels, err := c.api.ListChannels(ctx, "public_channel,private_channel")
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	for i := range channels {
		if channels[i].Name == selector {
			return &channels[i], nil
		}
	}
	for i := range channels {
		if strings.Contains(channels[i].Name, selector) {
			return &channels[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrChannelNotFound, selector)
}

// fetchPage fetches one history page. A rate-limited response is retried
// exactly once after an adaptive pause; a second failure aborts the run.
func (c *Collector) fetchPage(ctx context.Context, channelID, oldest, cursor string) (*slack.HistoryPage, error) {
	page, err := c.api.History(ctx, channelID, oldest, cursor, c.pageSize)
	if err == nil {
		c.pacer.Observe(OutcomeOK)
		return page, nil
	}
	if !slack.IsRateLimited(err) {
		return nil, err
	}

	c.pacer.Observe(OutcomeRateLimited)
	wait := rateLimitWait(err, c.pacer.Delay(FetchPage))
	c.logger.Warn("history fetch rate limited, retrying once", "channel", channelID, "wait", wait)
	if err := sleepCtx(ctx, wait); err != nil {
		return nil, err
	}

	page, err = c.api.History(ctx, channelID, oldest, cursor, c.pageSize)
	if err != nil {
		return nil, fmt.Errorf("history retry: %w", err)
	}
	c.pacer.Observe(OutcomeOK)
	return page, nil
}

// expand resolves the root author and, for threaded roots, pulls in the
// reply chain. A thread fetch that stays rate limited after one retry is
// logged and skipped; the root survives with no replies.
func (c *Collector) expand(ctx context.Context, channelID string, m slack.Message) (ThreadedMessage, error) {
	tm := ThreadedMessage{
		ChannelID:  channelID,
		UserID:     m.User,
		UserName:   c.displayName(ctx, m.User),
		Text:       m.Text,
		Ts:         m.Ts,
		ThreadTs:   m.ThreadTs,
		ReplyCount: m.ReplyCount,
	}

	if m.ThreadTs != "" && m.ReplyCount > 0 {
		if err := sleepCtx(ctx, c.pacer.Delay(FetchThread)); err != nil {
			return ThreadedMessage{}, err
		}
		replies, err := c.fetchThread(ctx, channelID, m.ThreadTs)
		if err != nil {
			return ThreadedMessage{}, err
		}
		for _, r := range replies {
			if r.Ts == m.Ts || !KeepReply(r) {
				continue
			}
			tm.Replies = append(tm.Replies, ReplyMessage{
				Author: c.displayName(ctx, r.User),
				Text:   strings.TrimSpace(r.Text),
				Ts:     r.Ts,
			})
		}
	}

	tm.CombinedText = CombineText(tm.Text, tm.Replies)
	return tm, nil
}

func (c *Collector) fetchThread(ctx context.Context, channelID, threadTs string) ([]slack.Message, error) {
	replies, err := c.api.ThreadReplies(ctx, channelID, threadTs)
	if err == nil {
		c.pacer.Observe(OutcomeOK)
		return replies, nil
	}
	if !slack.IsRateLimited(err) {
		c.logger.Warn("thread fetch failed, keeping root only", "thread", threadTs, "error", err)
		return nil, nil
	}

	c.pacer.Observe(OutcomeRateLimited)
	wait := rateLimitWait(err, c.pacer.Delay(FetchThread))
	c.logger.Warn("thread fetch rate limited, retrying once", "thread", threadTs, "wait", wait)
	if err := sleepCtx(ctx, wait); err != nil {
		return nil, err
	}

	replies, err = c.api.ThreadReplies(ctx, channelID, threadTs)
	if err != nil {
		c.logger.Warn("thread fetch failed after retry, keeping root only", "thread", threadTs, "error", err)
		return nil, nil
	}
	c.pacer.Observe(OutcomeOK)
	return replies, nil
}

// displayName resolves a user ID through the in-run map, the shared cache,
// then users.info. Lookup failures produce a stable placeholder that is
// remembered for the rest of the run but never written to the shared cache.
func (c *Collector) displayName(ctx context.Context, userID string) string {
	if userID == "" {
		return "unknown"
	}
	if name, ok := c.names[userID]; ok {
		return name
	}
	if c.cache != nil {
		if name, ok := c.cache.Get(ctx, userID); ok {
			c.names[userID] = name
			return name
		}
	}

	user, err := c.api.UserInfo(ctx, userID)
	if err != nil {
		name := fmt.Sprintf("%s (lookup failed)", userID)
		c.logger.Warn("user lookup failed", "user", userID, "error", err)
		c.names[userID] = name
		return name
	}
	name := user.DisplayName()
	if name == "" {
		name = userID
	}
	c.names[userID] = name
	if c.cache != nil {
		c.cache.Set(ctx, userID, name)
	}
	return name
}

func rateLimitWait(err error, fallback time.Duration) time.Duration {
	var apiErr *slack.APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}
	return fallback
}

func tsValue(ts string) float64 {
	v, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return 0
	}
	return v
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
