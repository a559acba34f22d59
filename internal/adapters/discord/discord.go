// Package discord reads community history from a Discord guild over the REST API.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/okian/scorekeeper/internal/domain/model"
	"github.com/okian/scorekeeper/pkg/logger"
)

// Discord API page limits.
const (
	memberPageSize   = 1000
	messagePageSize  = 100
	reactionPageSize = 100
)

// Session is the subset of *discordgo.Session the client calls.
type Session interface {
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	MessageReactions(channelID, messageID, emojiID string, limit int, beforeID, afterID string, options ...discordgo.RequestOption) ([]*discordgo.User, error)
}

// Client reads one guild. It never opens a gateway connection.
type Client struct {
	session Session
	guildID string
	log     logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a bot-token REST client for guildID.
func New(token, guildID string, opts ...Option) (*Client, error) {
	if token == "" || guildID == "" {
		return nil, model.Wrap("discord.New", model.ErrValidation, fmt.Errorf("token and guild id are required"))
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, model.Wrap("discord.New", model.ErrCollaborator, err)
	}
	return NewWithSession(s, guildID, opts...), nil
}

// NewWithSession wraps an existing session.
func NewWithSession(s Session, guildID string, opts ...Option) *Client {
	c := &Client{session: s, guildID: guildID, log: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func wrap(op string, err error) error {
	return model.Wrap("discord."+op, model.ErrCollaborator, err)
}

// Members lists every guild member, marking bots and the guild owner.
func (c *Client) Members(ctx context.Context) ([]model.Member, error) {
	guild, err := c.session.Guild(c.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrap("Members", err)
	}

	var (
		out   []model.Member
		after string
	)
	for {
		page, err := c.session.GuildMembers(c.guildID, after, memberPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, wrap("Members", err)
		}
		for _, m := range page {
			if m == nil || m.User == nil {
				continue
			}
			out = append(out, model.Member{
				ID:          m.User.ID,
				Name:        m.User.Username,
				DisplayName: m.Nick,
				IsBot:       m.User.Bot,
				IsOwner:     m.User.ID == guild.OwnerID,
			})
			after = m.User.ID
		}
		if len(page) < memberPageSize {
			break
		}
	}

	c.log.Debug(ctx, "guild members listed", logger.String("guild", c.guildID), logger.Int("members", len(out)))
	return out, nil
}

// TextChannels lists the guild's channels with their kinds.
func (c *Client) TextChannels(ctx context.Context) ([]model.Channel, error) {
	channels, err := c.session.GuildChannels(c.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrap("TextChannels", err)
	}
	out := make([]model.Channel, 0, len(channels))
	for _, ch := range channels {
		out = append(out, model.Channel{ID: ch.ID, Name: ch.Name, Kind: channelKind(ch.Type)})
	}
	return out, nil
}

func channelKind(t discordgo.ChannelType) model.ChannelKind {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return model.ChannelText
	case discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice:
		return model.ChannelVoice
	case discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread, discordgo.ChannelTypeGuildNewsThread:
		return model.ChannelThread
	default:
		return model.ChannelOther
	}
}

// History pages backwards from the newest message until limit messages are
// collected or the channel is exhausted. Messages come back newest first.
func (c *Client) History(ctx context.Context, channel model.Channel, limit int) ([]model.Message, error) {
	var (
		out    []model.Message
		before string
	)
	for len(out) < limit {
		n := min(messagePageSize, limit-len(out))
		page, err := c.session.ChannelMessages(channel.ID, n, before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, wrap("History", err)
		}
		for _, m := range page {
			out = append(out, toMessage(m, channel))
			before = m.ID
		}
		if len(page) < n {
			break
		}
	}
	return out, nil
}

// ReactingUsers pages through the users behind one reaction.
func (c *Client) ReactingUsers(ctx context.Context, channel model.Channel, messageID string, reaction model.Reaction) ([]model.User, error) {
	var (
		out   []model.User
		after string
	)
	for {
		page, err := c.session.MessageReactions(channel.ID, messageID, reaction.EmojiID, reactionPageSize, "", after, discordgo.WithContext(ctx))
		if err != nil {
			return nil, wrap("ReactingUsers", err)
		}
		for _, u := range page {
			out = append(out, toUser(u))
			after = u.ID
		}
		if len(page) < reactionPageSize {
			return out, nil
		}
	}
}

func toUser(u *discordgo.User) model.User {
	return model.User{ID: u.ID, Name: u.Username, DisplayName: u.GlobalName, IsBot: u.Bot}
}

func toMessage(m *discordgo.Message, channel model.Channel) model.Message {
	out := model.Message{
		ID:          m.ID,
		Webhook:     m.WebhookID != "",
		System:      m.Type != discordgo.MessageTypeDefault && m.Type != discordgo.MessageTypeReply,
		Content:     m.Content,
		CreatedAt:   m.Timestamp,
		ChannelID:   channel.ID,
		ChannelName: channel.Name,
		ChannelKind: channel.Kind,
	}
	if m.Author != nil {
		a := toUser(m.Author)
		out.Author = &a
	}
	for _, u := range m.Mentions {
		if u != nil {
			out.Mentions = append(out.Mentions, toUser(u))
		}
	}
	for _, r := range m.Reactions {
		if r == nil || r.Emoji == nil {
			continue
		}
		out.Reactions = append(out.Reactions, model.Reaction{
			Emoji:   r.Emoji.Name,
			EmojiID: r.Emoji.APIName(),
			Count:   r.Count,
		})
	}
	return out
}
