package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/scorekeeper/internal/domain/model"
)

var errPlatformDown = errors.New("platform unavailable")

// fakePlatform serves canned members, channels and history.
type fakePlatform struct {
	mu        sync.Mutex
	members   []model.Member
	channels  []model.Channel
	history   map[string][]model.Message         // channel ID -> messages
	reactors  map[string]map[string][]model.User // message ID -> emoji -> users
	failOn    string                             // "members", "history" or "reactions"
	slow      time.Duration                      // delay for reaction fetches
	reactions int                                // reaction fetch count
	limits    []int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		channels: []model.Channel{
			{ID: "c-general", Name: "general", Kind: model.ChannelText},
			{ID: "c-voice", Name: "lounge", Kind: model.ChannelVoice},
		},
		history:  map[string][]model.Message{},
		reactors: map[string]map[string][]model.User{},
	}
}

func (f *fakePlatform) Members(context.Context) ([]model.Member, error) {
	if f.failOn == "members" {
		return nil, errPlatformDown
	}
	return f.members, nil
}

func (f *fakePlatform) TextChannels(context.Context) ([]model.Channel, error) {
	return f.channels, nil
}

func (f *fakePlatform) History(_ context.Context, c model.Channel, limit int) ([]model.Message, error) {
	if f.failOn == "history" {
		return nil, errPlatformDown
	}
	f.mu.Lock()
	f.limits = append(f.limits, limit)
	f.mu.Unlock()
	msgs := f.history[c.ID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (f *fakePlatform) ReactingUsers(ctx context.Context, _ model.Channel, messageID string, r model.Reaction) ([]model.User, error) {
	f.mu.Lock()
	f.reactions++
	f.mu.Unlock()
	if f.failOn == "reactions" {
		return nil, errPlatformDown
	}
	if f.slow > 0 {
		select {
		case <-time.After(f.slow):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.reactors[messageID][r.Emoji], nil
}

func (f *fakePlatform) user(name string) *model.User {
	for _, m := range f.members {
		if m.Name == name {
			return &model.User{ID: m.ID, Name: m.Name, DisplayName: m.DisplayName, IsBot: m.IsBot}
		}
	}
	return &model.User{ID: "u-" + name, Name: name}
}

// message builds a general-channel message with thumbs-up reactions from
// reactors and registers the reacting users.
func (f *fakePlatform) message(id, author string, created time.Time, reactors ...string) model.Message {
	msg := model.Message{
		ID:          id,
		Author:      f.user(author),
		Content:     "gm",
		CreatedAt:   created,
		ChannelID:   "c-general",
		ChannelName: "general",
		ChannelKind: model.ChannelText,
	}
	if len(reactors) > 0 {
		msg.Reactions = []model.Reaction{{Emoji: "👍", Count: len(reactors)}}
		users := make([]model.User, 0, len(reactors))
		for _, r := range reactors {
			users = append(users, *f.user(r))
		}
		f.reactors[id] = map[string][]model.User{"👍": users}
	}
	return msg
}

func (f *fakePlatform) add(msgs ...model.Message) {
	f.history["c-general"] = append(f.history["c-general"], msgs...)
}
