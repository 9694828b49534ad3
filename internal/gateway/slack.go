package gateway

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Slack sends through the Web API and reads the member directory.
type Slack struct {
	api     *slack.Client
	channel string
	logger  *zap.Logger
}

func NewSlack(api *slack.Client, channel string, logger *zap.Logger) *Slack {
	return &Slack{api: api, channel: channel, logger: logger}
}

func (s *Slack) Send(ctx context.Context, m Message) (string, error) {
	opts := []slack.MsgOption{
		slack.MsgOptionText(m.Text, false),
		slack.MsgOptionAsUser(true),
	}
	if m.ThreadID != "" {
		opts = append(opts, slack.MsgOptionTS(m.ThreadID))
	}
	if len(m.Actions) > 0 {
		opts = append(opts, slack.MsgOptionAttachments(attachment(m.Actions)))
	}

	_, ts, err := s.api.PostMessageContext(ctx, s.channel, opts...)
	if err != nil {
		return "", fmt.Errorf("post message: %w", err)
	}
	if m.ThreadID != "" {
		s.logger.Info("thread_reply_sent", zap.String("thread", m.ThreadID), zap.String("ts", ts))
	} else {
		s.logger.Info("message_sent", zap.String("ts", ts))
	}
	return ts, nil
}

func attachment(actions []Action) slack.Attachment {
	att := slack.Attachment{}
	for _, a := range actions {
		if att.Fallback == "" {
			att.Fallback = a.Text + ": " + a.URL
		}
		att.Actions = append(att.Actions, slack.AttachmentAction{
			Type: "button",
			Text: a.Text,
			URL:  a.URL,
		})
	}
	return att
}

// ListMembers returns the full directory snapshot.
func (s *Slack) ListMembers(ctx context.Context) ([]Member, error) {
	users, err := s.api.GetUsersContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("users list: %w", err)
	}
	members := make([]Member, 0, len(users))
	for _, u := range users {
		members = append(members, memberFromUser(u))
	}
	return members, nil
}

// MemberInfo fetches a single member by id.
func (s *Slack) MemberInfo(ctx context.Context, id string) (Member, error) {
	u, err := s.api.GetUserInfoContext(ctx, id)
	if err != nil {
		return Member{}, fmt.Errorf("user info %s: %w", id, err)
	}
	return memberFromUser(*u), nil
}

func memberFromUser(u slack.User) Member {
	name := u.RealName
	if name == "" {
		name = u.Name
	}
	return Member{ID: u.ID, RealName: name}
}
