package service

import (
	"context"

	"github.com/okian/scorekeeper/internal/domain/model"
)

// Platform is the chat-platform collaborator the replay reads from. Every
// call may block on the network; implementations honor ctx.
type Platform interface {
	// Members lists the community members once per run.
	Members(ctx context.Context) ([]model.Member, error)
	// TextChannels lists the channels a replay can select by name.
	TextChannels(ctx context.Context) ([]model.Channel, error)
	// History returns up to limit of the channel's most recent messages.
	History(ctx context.Context, channel model.Channel, limit int) ([]model.Message, error)
	// ReactingUsers lists the users behind one reaction on a message.
	ReactingUsers(ctx context.Context, channel model.Channel, messageID string, reaction model.Reaction) ([]model.User, error)
}
