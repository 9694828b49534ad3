package gateway

import (
	"context"

	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"
)

// Handler receives the inbound signals the shift tracker cares about.
type Handler interface {
	ReactionAdded(ctx context.Context, messageID, userID, reaction string)
	ThreadReply(ctx context.Context, threadID, userID, text string)
}

// Registry receives directory updates.
type Registry interface {
	Register(realName, identityID string)
}

// Directory looks up a single member, used when a join event carries
// only an id.
type Directory interface {
	MemberInfo(ctx context.Context, id string) (Member, error)
}

// Dispatcher drives handlers from the platform's Socket Mode event
// stream. Unrouteable or unknown events are logged and dropped.
type Dispatcher struct {
	client    *socketmode.Client
	handler   Handler
	registry  Registry
	directory Directory
	logger    *zap.Logger
}

func NewDispatcher(client *socketmode.Client, h Handler, reg Registry, dir Directory, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		client:    client,
		handler:   h,
		registry:  reg,
		directory: dir,
		logger:    logger,
	}
}

// Run consumes events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	go d.consume(ctx)
	err := d.client.RunContext(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (d *Dispatcher) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-d.client.Events:
			if !ok {
				return
			}
			d.handleEnvelope(ctx, evt)
		}
	}
}

func (d *Dispatcher) handleEnvelope(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		d.logger.Info("socket_connecting")
	case socketmode.EventTypeConnected:
		d.logger.Info("socket_connected")
	case socketmode.EventTypeConnectionError:
		d.logger.Warn("socket_connection_error")
	case socketmode.EventTypeEventsAPI:
		apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		if evt.Request != nil {
			d.client.Ack(*evt.Request)
		}
		d.handleInner(ctx, apiEvent.InnerEvent)
	default:
		d.logger.Debug("socket_event_ignored", zap.String("type", string(evt.Type)))
	}
}

func (d *Dispatcher) handleInner(ctx context.Context, inner slackevents.EventsAPIInnerEvent) {
	switch ev := inner.Data.(type) {
	case *slackevents.ReactionAddedEvent:
		d.handler.ReactionAdded(ctx, ev.Item.Timestamp, ev.User, ev.Reaction)
	case *slackevents.MessageEvent:
		// Only human thread replies matter; our own confirmations come
		// back through this stream too.
		if ev.ThreadTimeStamp == "" || ev.BotID != "" || ev.SubType != "" {
			return
		}
		d.handler.ThreadReply(ctx, ev.ThreadTimeStamp, ev.User, ev.Text)
	case *slackevents.MemberJoinedChannelEvent:
		m, err := d.directory.MemberInfo(ctx, ev.User)
		if err != nil {
			d.logger.Warn("member_info_error", zap.String("user", ev.User), zap.Error(err))
			return
		}
		d.registry.Register(m.RealName, m.ID)
	case *slackevents.UserProfileChangedEvent:
		if ev.User == nil {
			return
		}
		name := ev.User.RealName
		if name == "" {
			name = ev.User.Name
		}
		d.registry.Register(name, ev.User.ID)
	default:
		d.logger.Debug("event_ignored", zap.String("type", inner.Type))
	}
}
