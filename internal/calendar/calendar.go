package calendar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	ical "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/hamed0406/rosterbot/internal/domain"
)

// DefaultTTL is how long a fetched feed stays fresh. Callers may poll
// every tick without over-fetching the provider.
const DefaultTTL = 5 * time.Minute

// Client fetches the shared calendar feed and serves it through a
// read-through cache. Fetch failures propagate; the caller's next poll
// naturally retries.
type Client struct {
	url    string
	http   *http.Client
	logger *zap.Logger
	ttl    time.Duration

	mu        sync.Mutex
	cached    []domain.CalendarEvent
	fetchedAt time.Time
}

func New(url string, logger *zap.Logger) *Client {
	return &Client{
		url:    url,
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logger,
		ttl:    DefaultTTL,
	}
}

// FutureEvents returns events starting strictly after now, ascending by
// start time.
func (c *Client) FutureEvents(ctx context.Context, now time.Time) ([]domain.CalendarEvent, error) {
	events, err := c.events(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if ev.Start.After(now) {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (c *Client) events(ctx context.Context) ([]domain.CalendarEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && time.Since(c.fetchedAt) < c.ttl {
		return c.cached, nil
	}

	body, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	events, err := parseICS(body, c.logger)
	if err != nil {
		return nil, err
	}

	c.cached = events
	c.fetchedAt = time.Now()
	c.logger.Debug("calendar_fetched", zap.Int("events", len(events)))
	return events, nil
}

func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar fetch: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func parseICS(body []byte, logger *zap.Logger) ([]domain.CalendarEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty calendar body")
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("calendar parse: %w", err)
	}

	events := make([]domain.CalendarEvent, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve)
		if err != nil {
			// Skip this event but keep parsing the rest.
			logger.Warn("calendar_event_skipped", zap.Error(err))
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (domain.CalendarEvent, error) {
	var ev domain.CalendarEvent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		ev.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Summary = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return ev, fmt.Errorf("event %q: missing DTSTART: %w", ev.Summary, err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		return ev, fmt.Errorf("event %q: missing DTEND: %w", ev.Summary, err)
	}

	ev.Start = start.UTC()
	ev.End = end.UTC()
	return ev, nil
}
