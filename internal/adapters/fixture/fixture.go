// Package fixture serves a recorded community history from a JSON file, for
// offline replays and tests.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/okian/scorekeeper/internal/domain/model"
)

const filePermission = 0o644

// User is a recorded account.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Bot         bool   `json:"bot,omitempty"`
}

// Member is a recorded community member.
type Member struct {
	User
	Owner bool `json:"owner,omitempty"`
}

// Channel is a recorded channel. Kind is "text", "voice" or "thread".
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Reaction is a recorded reaction with its reacting users.
type Reaction struct {
	Emoji string `json:"emoji"`
	Users []User `json:"users"`
}

// Message is a recorded message.
type Message struct {
	ID        string     `json:"id"`
	ChannelID string     `json:"channel_id"`
	Author    *User      `json:"author"`
	Webhook   bool       `json:"webhook,omitempty"`
	System    bool       `json:"system,omitempty"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	Mentions  []User     `json:"mentions,omitempty"`
	Reactions []Reaction `json:"reactions,omitempty"`
}

// History is the file format.
type History struct {
	Guild    string    `json:"guild"`
	Members  []Member  `json:"members"`
	Channels []Channel `json:"channels"`
	Messages []Message `json:"messages"`
}

// Save writes h as indented JSON, creating parent directories.
func (h History) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create fixture dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	return os.WriteFile(path, data, filePermission)
}

// Platform replays a History. It is read-only and safe for concurrent use.
type Platform struct {
	history  History
	channels map[string]Channel
	messages map[string]Message
}

// Load reads a fixture file.
func Load(path string) (*Platform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, model.Wrap("fixture.Load", model.ErrCollaborator, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a fixture from r.
func Decode(r io.Reader) (*Platform, error) {
	var h History
	if err := json.NewDecoder(r).Decode(&h); err != nil {
		return nil, model.Wrap("fixture.Decode", model.ErrMalformedEvent, err)
	}
	seen := make(map[string]struct{}, len(h.Messages))
	for i, m := range h.Messages {
		if m.ID == "" {
			return nil, model.Wrap("fixture.Decode", model.ErrMalformedEvent, fmt.Errorf("message %d has no id", i))
		}
		if _, dup := seen[m.ID]; dup {
			return nil, model.Wrap("fixture.Decode", model.ErrMalformedEvent, fmt.Errorf("message id %q repeats", m.ID))
		}
		seen[m.ID] = struct{}{}
	}
	return New(h), nil
}

// New indexes h.
func New(h History) *Platform {
	p := &Platform{
		history:  h,
		channels: make(map[string]Channel, len(h.Channels)),
		messages: make(map[string]Message, len(h.Messages)),
	}
	for _, c := range h.Channels {
		p.channels[c.ID] = c
	}
	for _, m := range h.Messages {
		p.messages[m.ID] = m
	}
	return p
}

// Members returns the recorded members.
func (p *Platform) Members(ctx context.Context) ([]model.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.Member, 0, len(p.history.Members))
	for _, m := range p.history.Members {
		out = append(out, model.Member{
			ID:          m.ID,
			Name:        m.Name,
			DisplayName: m.DisplayName,
			IsBot:       m.Bot,
			IsOwner:     m.Owner,
		})
	}
	return out, nil
}

// TextChannels returns the recorded channels.
func (p *Platform) TextChannels(ctx context.Context) ([]model.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.Channel, 0, len(p.history.Channels))
	for _, c := range p.history.Channels {
		out = append(out, model.Channel{ID: c.ID, Name: c.Name, Kind: model.ParseChannelKind(c.Kind)})
	}
	return out, nil
}

// History returns the channel's limit most recent messages, newest first.
func (p *Platform) History(ctx context.Context, channel model.Channel, limit int) ([]model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var msgs []Message
	for _, m := range p.history.Messages {
		if m.ChannelID == channel.ID {
			msgs = append(msgs, m)
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt.After(msgs[j].CreatedAt) })
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}

	c := p.channels[channel.ID]
	out := make([]model.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.toModel(c))
	}
	return out, nil
}

// ReactingUsers returns the users recorded for the reaction.
func (p *Platform) ReactingUsers(ctx context.Context, _ model.Channel, messageID string, reaction model.Reaction) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, ok := p.messages[messageID]
	if !ok {
		return nil, model.Wrap("fixture.ReactingUsers", model.ErrNotFound, fmt.Errorf("message %q", messageID))
	}
	for _, r := range m.Reactions {
		if r.Emoji == reaction.Emoji {
			out := make([]model.User, 0, len(r.Users))
			for _, u := range r.Users {
				out = append(out, u.toModel())
			}
			return out, nil
		}
	}
	return nil, nil
}

func (u User) toModel() model.User {
	return model.User{ID: u.ID, Name: u.Name, DisplayName: u.DisplayName, IsBot: u.Bot}
}

func (m Message) toModel(c Channel) model.Message {
	out := model.Message{
		ID:          m.ID,
		Webhook:     m.Webhook,
		System:      m.System,
		Content:     m.Content,
		CreatedAt:   m.CreatedAt,
		ChannelID:   m.ChannelID,
		ChannelName: c.Name,
		ChannelKind: model.ParseChannelKind(c.Kind),
	}
	if m.Author != nil {
		a := m.Author.toModel()
		out.Author = &a
	}
	for _, u := range m.Mentions {
		out.Mentions = append(out.Mentions, u.toModel())
	}
	for _, r := range m.Reactions {
		out.Reactions = append(out.Reactions, model.Reaction{Emoji: r.Emoji, EmojiID: r.Emoji, Count: len(r.Users)})
	}
	return out
}
