// Package model contains the scoreboard entities and the value projections of
// chat-platform data that the core consumes.
package model

import "time"

// ChannelKind classifies a platform channel.
type ChannelKind int

// Channel kinds. Only ChannelText is eligible for attribution.
const (
	ChannelOther ChannelKind = iota
	ChannelText
	ChannelVoice
	ChannelThread
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelText:
		return "text"
	case ChannelVoice:
		return "voice"
	case ChannelThread:
		return "thread"
	default:
		return "other"
	}
}

// ParseChannelKind maps a kind name to a ChannelKind; unknown names are ChannelOther.
func ParseChannelKind(s string) ChannelKind {
	switch s {
	case "text":
		return ChannelText
	case "voice":
		return ChannelVoice
	case "thread":
		return ChannelThread
	default:
		return ChannelOther
	}
}

// Member is a community member as listed by the platform.
type Member struct {
	ID          string
	Name        string // account name
	DisplayName string // community nickname, empty when unset
	IsBot       bool
	IsOwner     bool
}

// PlayerName is the nickname when set, otherwise the account name.
func (m Member) PlayerName() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Name
}

// Channel is a platform channel.
type Channel struct {
	ID   string
	Name string
	Kind ChannelKind
}

// User is a platform account as seen on a message or reaction.
type User struct {
	ID          string
	Name        string
	DisplayName string
	IsBot       bool
}

// Reaction is one emoji reaction on a message. Reacting users are fetched separately.
type Reaction struct {
	Emoji   string // rendered glyph, e.g. "👍" or "👍🏽"
	EmojiID string // platform identifier used to fetch reacting users
	Count   int
}

// Message is a historical platform message.
type Message struct {
	ID          string
	Author      *User // nil when the platform could not attribute the message
	Webhook     bool
	System      bool // join notices, pins and other non-user messages
	Content     string
	CreatedAt   time.Time
	ChannelID   string
	ChannelName string
	ChannelKind ChannelKind
	Mentions    []User
	Reactions   []Reaction
}

// ReactionEvent is a reaction with its reacting players resolved.
type ReactionEvent struct {
	Emoji    string
	Reactors []string // player names, in fetch order, bots and non-members removed
}

// Post is a validated message ready for attribution. The core never sees
// live platform objects, only this projection.
type Post struct {
	ID        string
	Author    string // author player name
	Channel   string
	Content   string
	CreatedAt time.Time
	Mentions  []string // mentioned player names
	Reactions []ReactionEvent
}
