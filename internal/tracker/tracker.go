// Package tracker owns the per-shift lifecycle: announce shifts as they
// approach, correlate inbound reactions and thread replies back to the
// right shift, escalate unacknowledged shifts to the fallback operators,
// and discard bookkeeping once a shift has ended. It also raises a
// standing alert when an upcoming checked hour has no coverage at all.
package tracker

import (
	"context"
	"regexp"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/rosterbot/internal/domain"
	"github.com/hamed0406/rosterbot/internal/gateway"
	"github.com/hamed0406/rosterbot/internal/identity"
)

// EventSource lists future calendar events, nearest first.
type EventSource interface {
	FutureEvents(ctx context.Context, now time.Time) ([]domain.CalendarEvent, error)
}

type Config struct {
	NotifyWindow time.Duration // announce when time-to-start falls below this
	DangerWindow time.Duration // escalate once time-to-start falls to or below this
	NoUsersMins  int           // coverage check runs when fewer minutes than this remain in the hour

	// Active coverage window in UTC hours-of-day, wraparound-aware, plus
	// the fixed local offset used when naming the hour to humans.
	ActiveStartUTC int
	ActiveEndUTC   int
	TZOffsetHours  int

	OhnoUsers []string // fallback operator ids
	RosterURL string   // offered when an hour has no coverage

	StartAt      time.Time // no actions before this instant
	PollInterval time.Duration
}

// ActiveWindowUTC converts a local-hours active window to UTC hours.
func ActiveWindowUTC(localStart, localEnd, tzOffset int) (int, int) {
	mod := func(h int) int { return (h%24 + 24) % 24 }
	return mod(localStart - tzOffset), mod(localEnd - tzOffset)
}

// Tracker is the coordinating component that owns the three shared maps.
// Both the poll tick and the inbound-event handlers mutate them, so every
// access goes through mu and every mutation re-checks existence first:
// the ack path and the escalation path may each find the other has
// already fired, and must treat that as a no-op.
type Tracker struct {
	mu          sync.Mutex
	shifts      map[domain.ShiftID]*domain.ShiftRecord
	watched     map[string]*domain.WatchedMessage
	checkedHour int // last hour-of-day evaluated for coverage, -1 = none

	source   EventSource
	resolver *identity.Resolver
	sender   gateway.Sender
	logger   *zap.Logger
	cfg      Config
}

func New(source EventSource, resolver *identity.Resolver, sender gateway.Sender, logger *zap.Logger, cfg Config) *Tracker {
	return &Tracker{
		shifts:      make(map[domain.ShiftID]*domain.ShiftRecord),
		watched:     make(map[string]*domain.WatchedMessage),
		checkedHour: -1,
		source:      source,
		resolver:    resolver,
		sender:      sender,
		logger:      logger,
		cfg:         cfg,
	}
}

// Run starts the poll loop. It does an immediate pass, then runs each
// tick. Stops when ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	tick := time.NewTicker(t.cfg.PollInterval)
	defer tick.Stop()

	t.safeTick(ctx, time.Now().UTC())

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("tracker_stopped")
			return
		case <-tick.C:
			t.safeTick(ctx, time.Now().UTC())
		}
	}
}

// safeTick keeps a single bad tick from killing the long-lived loop.
func (t *Tracker) safeTick(ctx context.Context, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("tick_panic", zap.Any("panic", r), zap.Time("now", now))
		}
	}()
	t.tick(ctx, now)
}

func (t *Tracker) tick(ctx context.Context, now time.Time) {
	if now.Before(t.cfg.StartAt) {
		t.logger.Warn("tick_before_start",
			zap.Time("now", now), zap.Time("start_at", t.cfg.StartAt))
		return
	}

	// Coverage pre-check: once per hour window, flag the next hour until
	// the event scan proves it has coverage.
	nextHour := now.Add(time.Hour).UTC().Hour()
	warnNoCoverage := false
	t.mu.Lock()
	if 60-now.Minute() < t.cfg.NoUsersMins {
		if t.checkedHour != nextHour && t.isCheckedHour(nextHour) {
			warnNoCoverage = true
		}
		t.checkedHour = nextHour
	}
	t.mu.Unlock()

	events, err := t.source.FutureEvents(ctx, now)
	if err != nil {
		// Transient; the next tick retries naturally.
		t.logger.Warn("calendar_error", zap.Error(err))
		return
	}
	t.logger.Info("tick", zap.Int("pending", len(events)), zap.Time("now", now))

	for _, ev := range events {
		if ev.Start.UTC().Hour() == nextHour {
			warnNoCoverage = false // the next hour has coverage
		}
	}

	// Events are sorted ascending, so the first one outside the notify
	// window ends the scan.
	for _, ev := range events {
		untilStart := ev.Start.Sub(now)
		if untilStart >= t.cfg.NotifyWindow {
			break
		}
		t.announce(ctx, ev, untilStart)
	}

	if warnNoCoverage {
		t.warnCoverageGap(ctx, now, nextHour)
	}

	t.sweep(ctx, now)
}

// announce sends the first notification for a shift. This is the only
// path that creates a ShiftRecord, and an existing record means the
// shift was already announced.
func (t *Tracker) announce(ctx context.Context, ev domain.CalendarEvent, untilStart time.Duration) {
	sid := ev.ShiftID()
	t.mu.Lock()
	_, announced := t.shifts[sid]
	t.mu.Unlock()
	if announced {
		return
	}

	name, ok := identity.ExtractName(ev.Summary)
	if !ok {
		t.logger.Info("name_not_extracted", zap.String("summary", ev.Summary))
		name = ""
	}
	var id string
	if name != "" {
		id, _ = t.resolver.Lookup(name)
	}

	msgID, err := t.sender.Send(ctx, gateway.Message{
		Text: t.announceText(id, name, untilStart),
	})
	if err != nil {
		// No record yet, so the next tick re-announces.
		t.logger.Warn("announce_error", zap.String("shift", string(sid)), zap.Error(err))
		return
	}

	t.mu.Lock()
	if _, exists := t.shifts[sid]; !exists {
		t.shifts[sid] = &domain.ShiftRecord{Event: ev, MessageID: msgID}
		t.watched[msgID] = &domain.WatchedMessage{Name: name, ShiftID: sid}
	}
	t.mu.Unlock()

	t.logger.Info("announce_sent",
		zap.String("shift", string(sid)),
		zap.String("ts", msgID),
		zap.String("name", name),
		zap.String("id", id),
		zap.Duration("until_start", untilStart))
}

// sweep runs the per-record expiry and escalation checks for one tick.
// Expiry is unconditional once the end time has passed, whatever state
// the shift reached.
func (t *Tracker) sweep(ctx context.Context, now time.Time) {
	type candidate struct {
		msgID string
		name  string
		sid   domain.ShiftID
	}
	var escalate []candidate

	t.mu.Lock()
	for sid, rec := range t.shifts {
		if rec.Event.End.Before(now) {
			delete(t.shifts, sid)
			if rec.MessageID != "" {
				delete(t.watched, rec.MessageID)
			}
			t.logger.Info("shift_expired", zap.String("shift", string(sid)), zap.Bool("acked", rec.Acked))
			continue
		}
		if rec.Acked {
			continue
		}
		w, open := t.watched[rec.MessageID]
		if !open {
			continue // already escalated
		}
		untilStart := rec.Event.Start.Sub(now)
		t.logger.Info("shift_countdown",
			zap.String("shift", string(sid)),
			zap.String("name", w.Name),
			zap.String("in", domain.PrettyDuration(untilStart)))
		if untilStart > t.cfg.DangerWindow {
			continue
		}
		// Past the danger threshold, started or not.
		escalate = append(escalate, candidate{msgID: rec.MessageID, name: w.Name, sid: sid})
	}
	t.mu.Unlock()

	for _, c := range escalate {
		_, err := t.sender.Send(ctx, gateway.Message{
			Text:     t.escalationText(c.name),
			ThreadID: c.msgID,
		})
		if err != nil {
			// Watch stays open; the next tick escalates again.
			t.logger.Warn("escalation_error", zap.String("shift", string(c.sid)), zap.Error(err))
			continue
		}
		// An ack may have landed while the send was in flight; then the
		// watch is already gone and there is nothing left to close.
		t.mu.Lock()
		if _, open := t.watched[c.msgID]; open {
			delete(t.watched, c.msgID)
			if rec, exists := t.shifts[c.sid]; exists {
				rec.MessageID = ""
			}
		}
		t.mu.Unlock()
		t.logger.Info("shift_escalated", zap.String("shift", string(c.sid)), zap.String("name", c.name))
	}
}

func (t *Tracker) warnCoverageGap(ctx context.Context, now time.Time, nextHour int) {
	localHour := ((nextHour+t.cfg.TZOffsetHours)%24 + 24) % 24
	rounded := now.Truncate(time.Hour).Add(time.Hour)

	msg := gateway.Message{Text: t.coverageText(rounded, localHour)}
	if t.cfg.RosterURL != "" {
		msg.Actions = []gateway.Action{{Text: "Update Roster", URL: t.cfg.RosterURL}}
	}
	if _, err := t.sender.Send(ctx, msg); err != nil {
		t.logger.Warn("coverage_warn_error", zap.Error(err))
		return
	}
	t.logger.Info("coverage_gap_warned", zap.Int("next_hour", nextHour), zap.Int("local_hour", localHour))
}

var mentionRe = regexp.MustCompile(`^<@(\w+)>`)

// ReactionAdded handles an inbound reaction. Only a reaction from the
// identity currently resolved for the shift's extracted name counts as
// an acknowledgment; anything else is a bystander and is ignored. A
// shift with no resolvable name can never be acked this way.
func (t *Tracker) ReactionAdded(ctx context.Context, messageID, userID, reaction string) {
	t.mu.Lock()
	w, open := t.watched[messageID]
	if !open {
		t.mu.Unlock()
		return // some other message
	}
	resolved, _ := t.resolver.Lookup(w.Name)
	if w.Name == "" || resolved != userID {
		t.mu.Unlock()
		t.logger.Info("reaction_from_non_target",
			zap.String("ts", messageID),
			zap.String("user", userID),
			zap.String("reaction", reaction))
		return
	}
	delete(t.watched, messageID)
	if rec, exists := t.shifts[w.ShiftID]; exists {
		rec.Acked = true
		rec.MessageID = ""
	}
	t.mu.Unlock()

	if _, err := t.sender.Send(ctx, gateway.Message{
		Text:     t.ackText(userID),
		ThreadID: messageID,
	}); err != nil {
		t.logger.Warn("ack_confirm_error", zap.String("ts", messageID), zap.Error(err))
	}
	t.logger.Info("shift_acked",
		zap.String("ts", messageID),
		zap.String("user", userID),
		zap.String("reaction", reaction))
}

// ThreadReply handles a reply in a watched message's thread. A reply
// that leads with a mention corrects the name→identity mapping; the
// watch stays open because correlation alone is not acknowledgment.
func (t *Tracker) ThreadReply(ctx context.Context, threadID, userID, text string) {
	t.mu.Lock()
	w, open := t.watched[threadID]
	t.mu.Unlock()
	if !open {
		return // not a thread we care about
	}

	m := mentionRe.FindStringSubmatch(text)
	if m == nil {
		t.logger.Info("reply_without_mention", zap.String("thread", threadID))
		return
	}
	foundID := m[1]

	if w.Name == "" {
		// Nothing to correct: the announcement had no extractable name.
		t.logger.Info("reply_for_nameless_shift", zap.String("thread", threadID), zap.String("id", foundID))
		return
	}

	if err := t.resolver.Correct(ctx, w.Name, foundID); err != nil {
		// In-memory mapping is updated regardless; only persistence failed.
		t.logger.Warn("correction_persist_error", zap.String("name", w.Name), zap.Error(err))
	}
	t.logger.Info("member_connected",
		zap.String("thread", threadID),
		zap.String("name", w.Name),
		zap.String("id", foundID))

	if _, err := t.sender.Send(ctx, gateway.Message{
		Text:     t.correlationText(w.Name, foundID),
		ThreadID: threadID,
	}); err != nil {
		t.logger.Warn("correlation_confirm_error", zap.String("thread", threadID), zap.Error(err))
	}
}

func (t *Tracker) isCheckedHour(hour int) bool {
	start, end := t.cfg.ActiveStartUTC, t.cfg.ActiveEndUTC
	if start > end {
		// window wraps midnight
		return hour >= start || hour < end
	}
	return hour >= start && hour < end
}

// ShiftStatus is the read-only view served by the status API.
type ShiftStatus struct {
	ShiftID   string    `json:"shift_id"`
	Name      string    `json:"name,omitempty"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Acked     bool      `json:"acked"`
	Watching  bool      `json:"watching"`
	MessageID string    `json:"message_id,omitempty"`
}

// Snapshot returns the current shift records, earliest start first.
func (t *Tracker) Snapshot() []ShiftStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]ShiftStatus, 0, len(t.shifts))
	for sid, rec := range t.shifts {
		name, _ := identity.ExtractName(rec.Event.Summary)
		_, watching := t.watched[rec.MessageID]
		out = append(out, ShiftStatus{
			ShiftID:   string(sid),
			Name:      name,
			Start:     rec.Event.Start,
			End:       rec.Event.End,
			Acked:     rec.Acked,
			Watching:  rec.MessageID != "" && watching,
			MessageID: rec.MessageID,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
