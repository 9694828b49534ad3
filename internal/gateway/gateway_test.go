package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"
)

func TestSlackSend_ReturnsMessageID(t *testing.T) {
	var form string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form = string(body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":true,"channel":"C1","ts":"1700000000.000100"}`)
	}))
	defer ts.Close()

	api := slack.New("xoxb-test", slack.OptionAPIURL(ts.URL+"/"))
	s := NewSlack(api, "C1", zap.NewNop())

	id, err := s.Send(context.Background(), Message{Text: "hello", ThreadID: "1699.0001"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "1700000000.000100" {
		t.Fatalf("got ts %q", id)
	}
	if !strings.Contains(form, "thread_ts") {
		t.Fatalf("thread id not sent: %s", form)
	}
}

func TestSlackSend_ErrorPropagates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":false,"error":"channel_not_found"}`)
	}))
	defer ts.Close()

	api := slack.New("xoxb-test", slack.OptionAPIURL(ts.URL+"/"))
	s := NewSlack(api, "C_NOPE", zap.NewNop())

	if _, err := s.Send(context.Background(), Message{Text: "hello"}); err == nil {
		t.Fatal("expected error from API failure")
	}
}

func TestDryRun_FabricatesUniqueIDs(t *testing.T) {
	d := NewDryRun(zap.NewNop())
	a, err := d.Send(context.Background(), Message{Text: "one"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	b, _ := d.Send(context.Background(), Message{Text: "two"})
	if a == b {
		t.Fatalf("ids should be unique: %q", a)
	}
	if !strings.HasPrefix(a, "dry-") {
		t.Fatalf("id %q lacks dry- prefix", a)
	}
}

// ---- dispatcher routing ----

type recordingHandler struct {
	reactions []string
	replies   []string
}

func (h *recordingHandler) ReactionAdded(ctx context.Context, messageID, userID, reaction string) {
	h.reactions = append(h.reactions, messageID+"/"+userID+"/"+reaction)
}

func (h *recordingHandler) ThreadReply(ctx context.Context, threadID, userID, text string) {
	h.replies = append(h.replies, threadID+"/"+text)
}

type recordingRegistry struct {
	pairs []string
}

func (r *recordingRegistry) Register(realName, identityID string) {
	r.pairs = append(r.pairs, realName+"="+identityID)
}

type fakeDirectory struct{}

func (fakeDirectory) MemberInfo(ctx context.Context, id string) (Member, error) {
	return Member{ID: id, RealName: "Joined Person"}, nil
}

func TestDispatcher_RoutesInnerEvents(t *testing.T) {
	h := &recordingHandler{}
	reg := &recordingRegistry{}
	d := NewDispatcher(nil, h, reg, fakeDirectory{}, zap.NewNop())
	ctx := context.Background()

	d.handleInner(ctx, slackevents.EventsAPIInnerEvent{Data: &slackevents.ReactionAddedEvent{
		User:     "U1",
		Reaction: "thumbsup",
		Item:     slackevents.Item{Timestamp: "100.1"},
	}})
	if len(h.reactions) != 1 || h.reactions[0] != "100.1/U1/thumbsup" {
		t.Fatalf("reaction not routed: %+v", h.reactions)
	}

	// thread reply routed; top-level and bot messages are not
	d.handleInner(ctx, slackevents.EventsAPIInnerEvent{Data: &slackevents.MessageEvent{
		ThreadTimeStamp: "100.1", User: "U2", Text: "<@U3>",
	}})
	d.handleInner(ctx, slackevents.EventsAPIInnerEvent{Data: &slackevents.MessageEvent{
		User: "U2", Text: "top level chatter",
	}})
	d.handleInner(ctx, slackevents.EventsAPIInnerEvent{Data: &slackevents.MessageEvent{
		ThreadTimeStamp: "100.1", BotID: "B9", Text: "our own reply",
	}})
	if len(h.replies) != 1 || h.replies[0] != "100.1/<@U3>" {
		t.Fatalf("replies wrong: %+v", h.replies)
	}

	d.handleInner(ctx, slackevents.EventsAPIInnerEvent{Data: &slackevents.MemberJoinedChannelEvent{User: "U7"}})
	if len(reg.pairs) != 1 || reg.pairs[0] != "Joined Person=U7" {
		t.Fatalf("join not registered: %+v", reg.pairs)
	}
}
