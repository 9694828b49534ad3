package tracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/hamed0406/rosterbot/internal/domain"
)

// announceText varies by how much we know about the person on shift:
// a direct mention when the identity is resolved, a self-identify
// request when only the name is known, and a ping to the fallback
// operators when neither is.
func (t *Tracker) announceText(id, name string, untilStart time.Duration) string {
	in := domain.PrettyDuration(untilStart)
	switch {
	case id != "":
		return fmt.Sprintf(":smile: <@%s>'s (%s) shift starts in %s. Please ack with an emoji reaction.", id, name, in)
	case name != "":
		return fmt.Sprintf(":smile: %s's shift starts in %s, but I don't know their Slack username. Please reply to this thread with an @mention of their username to let me know who they are!", name, in)
	default:
		return fmt.Sprintf(":smile: someone's shift starts in %s, but I couldn't find their name in the calendar summary (in brackets, like (Ludwig Kumar)). I'm confused! Pinging %s", in, t.ohnoMentions())
	}
}

func (t *Tracker) ackText(userID string) string {
	return fmt.Sprintf("Thanks <@%s>! :+1::star-struck:", userID)
}

func (t *Tracker) correlationText(name, id string) string {
	return fmt.Sprintf("Thanks! I've updated %s's Slack username to be <@%s> -- please ack the original message with an emoji reaction. :+1:", name, id)
}

func (t *Tracker) escalationText(name string) string {
	who := "someone"
	if name != "" {
		who = t.resolver.Mention(name)
	}
	return fmt.Sprintf("Oh no! %s hasn't responded. Pinging %s", who, t.ohnoMentions())
}

func (t *Tracker) coverageText(rounded time.Time, localHour int) string {
	return fmt.Sprintf("<!here> Warning! There're no tutors rostered on at <!date^%d^{time}|%d:00>! (%s)",
		rounded.Unix(), localHour, t.ohnoMentions())
}

func (t *Tracker) ohnoMentions() string {
	mentions := make([]string, 0, len(t.cfg.OhnoUsers))
	for _, u := range t.cfg.OhnoUsers {
		mentions = append(mentions, "<@"+u+">")
	}
	return strings.Join(mentions, ", ")
}
