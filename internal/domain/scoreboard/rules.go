package scoreboard

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/okian/scorekeeper/internal/domain/model"
)

// Default attribution rules.
const (
	DefaultMessageChannel = "general"
	DefaultMessageEXP     = 2
	DefaultGiveREPEXP     = 2
	DefaultReceiveREP     = 1
	DefaultRepEmoji       = "👍"
	DefaultSystemName     = "SolTree"
)

// Default consensus rewards. Consensus attribution stays off until a channel
// and a steward are configured.
const (
	DefaultProposalEmoji       = "🗳️"
	DefaultVoteEmoji           = "☑️"
	DefaultProposalEXP         = 15
	DefaultVoteEXP             = 10
	DefaultConsensusMessageEXP = 3
)

// Rules are the point values and matching rules used when attributing posts.
type Rules struct {
	MessageChannels []string // posts here earn MESSAGE actions
	MessageEXP      int
	GiveREPEXP      int    // EXP paid to a reactor
	ReceiveREP      int    // REP paid to the reacted author
	RepEmoji        string // matched on its first rune, so skin tones qualify
	SystemName      string // authors with this name never receive REP
	ReactionEXP     int    // EXP paid once per reacting player per post, any emoji; 0 disables

	Consensus Consensus
}

// Consensus pays authors in the consensus channel when the steward marks
// their post with the proposal or vote emoji.
type Consensus struct {
	Channel       string
	Steward       string // player name of the steward
	ProposalEmoji string
	VoteEmoji     string
	ProposalEXP   int
	VoteEXP       int
	MessageEXP    int // paid for any post in Channel
}

// Enabled reports whether consensus attribution applies.
func (c Consensus) Enabled() bool { return c.Channel != "" && c.Steward != "" }

// DefaultRules returns the stock rules.
func DefaultRules() Rules {
	return Rules{
		MessageChannels: []string{DefaultMessageChannel},
		MessageEXP:      DefaultMessageEXP,
		GiveREPEXP:      DefaultGiveREPEXP,
		ReceiveREP:      DefaultReceiveREP,
		RepEmoji:        DefaultRepEmoji,
		SystemName:      DefaultSystemName,
		Consensus: Consensus{
			ProposalEmoji: DefaultProposalEmoji,
			VoteEmoji:     DefaultVoteEmoji,
			ProposalEXP:   DefaultProposalEXP,
			VoteEXP:       DefaultVoteEXP,
			MessageEXP:    DefaultConsensusMessageEXP,
		},
	}
}

// Validate reports rules that would produce invalid actions.
func (r Rules) Validate() error {
	const op = "scoreboard.Rules.Validate"
	c := r.Consensus
	switch {
	case r.MessageEXP < 0:
		return model.Wrap(op, model.ErrValidation, fmt.Errorf("message EXP %d is negative", r.MessageEXP))
	case r.GiveREPEXP < 0:
		return model.Wrap(op, model.ErrValidation, fmt.Errorf("give REP EXP %d is negative", r.GiveREPEXP))
	case r.ReactionEXP < 0:
		return model.Wrap(op, model.ErrValidation, fmt.Errorf("reaction EXP %d is negative", r.ReactionEXP))
	case strings.TrimSpace(r.RepEmoji) == "":
		return model.Wrap(op, model.ErrValidation, fmt.Errorf("rep emoji is empty"))
	case c.ProposalEXP < 0 || c.VoteEXP < 0 || c.MessageEXP < 0:
		return model.Wrap(op, model.ErrValidation, fmt.Errorf("consensus EXP must not be negative"))
	case c.Enabled() && (strings.TrimSpace(c.ProposalEmoji) == "" || strings.TrimSpace(c.VoteEmoji) == ""):
		return model.Wrap(op, model.ErrValidation, fmt.Errorf("consensus emojis must be set"))
	}
	return nil
}

// Qualifies reports whether emoji counts as a REP reaction.
func (r Rules) Qualifies(emoji string) bool {
	return sameGlyph(r.RepEmoji, emoji)
}

// Fetches reports whether the reacting users of emoji on a post in channel
// are needed for attribution.
func (r Rules) Fetches(channel, emoji string) bool {
	if r.Qualifies(emoji) || r.ReactionEXP > 0 {
		return true
	}
	return r.isConsensusChannel(channel) &&
		(sameGlyph(r.Consensus.ProposalEmoji, emoji) || sameGlyph(r.Consensus.VoteEmoji, emoji))
}

func (r Rules) isMessageChannel(name string) bool {
	for _, c := range r.MessageChannels {
		if c == name {
			return true
		}
	}
	return false
}

func (r Rules) isConsensusChannel(name string) bool {
	return r.Consensus.Enabled() && r.Consensus.Channel == name
}

// sameGlyph compares emojis on their first rune, ignoring skin tone and
// variation selectors.
func sameGlyph(want, got string) bool {
	w, _ := utf8.DecodeRuneInString(want)
	g, _ := utf8.DecodeRuneInString(got)
	return w != utf8.RuneError && g == w
}
