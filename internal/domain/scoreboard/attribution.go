package scoreboard

import (
	"fmt"

	"github.com/okian/scorekeeper/internal/domain/model"
	"github.com/okian/scorekeeper/internal/domain/questbook"
)

// attribute computes the awards for post in order: channel actions first,
// then reaction actions by reaction and reactor order.
func (s *Scoreboard) attribute(post model.Post, date model.Date) ([]Award, error) {
	var awards []Award
	add := func(player string, a model.Action) {
		awards = append(awards, Award{Player: player, Date: date, Action: a})
	}

	if err := s.channelActions(post, date, add); err != nil {
		return nil, err
	}
	if err := s.reactionActions(post, add); err != nil {
		return nil, err
	}
	return awards, nil
}

// reactionActions pays REP for qualifying reactions and, when enabled, one
// REACTION action per reacting player for any emoji.
func (s *Scoreboard) reactionActions(post model.Post, add func(string, model.Action)) error {
	reacted := make(map[string]bool)
	for _, r := range post.Reactions {
		rep := s.rules.Qualifies(r.Emoji)
		for _, reactor := range r.Reactors {
			if rep {
				give, err := model.NewAction(model.ActionREP, fmt.Sprintf("give +REP(%s)", post.Author), s.rules.GiveREPEXP, 0, 0)
				if err != nil {
					return err
				}
				add(reactor, give)

				if post.Author != s.rules.SystemName {
					receive, err := model.NewAction(model.ActionREP, fmt.Sprintf("receive +REP(%s)", reactor), 0, s.rules.ReceiveREP, 0)
					if err != nil {
						return err
					}
					add(post.Author, receive)
				}
			}

			if s.rules.ReactionEXP > 0 && !reacted[reactor] {
				reacted[reactor] = true
				a, err := model.NewAction(model.ActionReaction, "reacted to message - "+post.Channel, s.rules.ReactionEXP, 0, 0)
				if err != nil {
					return err
				}
				add(reactor, a)
			}
		}
	}
	return nil
}

// channelActions adds the awards earned by where the post was made.
func (s *Scoreboard) channelActions(post model.Post, date model.Date, add func(string, model.Action)) error {
	switch {
	case s.rules.isConsensusChannel(post.Channel):
		if err := s.consensusActions(post, add); err != nil {
			return err
		}
	case s.rules.isMessageChannel(post.Channel):
		quest := false
		if questbook.IsMention(post.Content) {
			a, ok, err := s.book.ForMention(post.Content, post.Author, date)
			if err != nil {
				return err
			}
			if ok {
				add(post.Author, a)
				quest = true
			}
		}
		if !quest {
			a, err := model.NewAction(model.ActionMessage, "Message - #"+post.Channel, s.rules.MessageEXP, 0, 0)
			if err != nil {
				return err
			}
			add(post.Author, a)
		}
	}

	a, ok, err := s.book.ForChannel(post.Channel, post.Author, date)
	if err != nil {
		return err
	}
	if ok {
		add(post.Author, a)
	}

	if len(post.Mentions) > 0 {
		a, ok, err := s.book.BountyAward(post.Channel, post.Content)
		if err != nil {
			return err
		}
		if ok {
			for _, name := range post.Mentions {
				add(name, a)
			}
		}
	}
	return nil
}

// consensusActions pays the consensus message EXP, then a proposal or vote
// award for each ballot emoji the steward reacted with.
func (s *Scoreboard) consensusActions(post model.Post, add func(string, model.Action)) error {
	c := s.rules.Consensus
	msg, err := model.NewAction(model.ActionMessage, "Message - #"+post.Channel, c.MessageEXP, 0, 0)
	if err != nil {
		return err
	}
	add(post.Author, msg)

	for _, r := range post.Reactions {
		if !contains(r.Reactors, c.Steward) {
			continue
		}
		var (
			a   model.Action
			err error
		)
		switch {
		case sameGlyph(c.ProposalEmoji, r.Emoji):
			a, err = model.NewAction(model.ActionQuest, "Proposal", c.ProposalEXP, 0, 0)
		case sameGlyph(c.VoteEmoji, r.Emoji):
			a, err = model.NewAction(model.ActionQuest, "Vote", c.VoteEXP, 0, 0)
		default:
			continue
		}
		if err != nil {
			return err
		}
		add(post.Author, a)
	}
	return nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
