package questbook

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/okian/scorekeeper/internal/domain/model"
)

const (
	mentionPrefix = "@stgquest"
	checkInAlias  = "check-in"
	checkInTitle  = "Daily Quest - Check-In"
	fulfilledWord = "fulfilled"
	dailyPrefix   = "Daily Quest - "
)

type streak struct {
	last   model.Date
	length int
}

type questEntry struct {
	Quest
	rewards map[int]int
	days    []int // sorted streak days with a reward
	streaks map[string]*streak
}

// Book resolves posts to quest and bounty actions. It keeps per-player
// streak state, so one Book belongs to one replay run.
type Book struct {
	mu       sync.Mutex
	byChan   map[string]*questEntry
	byTitle  map[string]*questEntry
	bounties map[string]Bounty
}

// New validates the definitions and builds a Book.
func New(quests []Quest, bounties []Bounty) (*Book, error) {
	const op = "questbook.New"
	b := &Book{
		byChan:   make(map[string]*questEntry),
		byTitle:  make(map[string]*questEntry),
		bounties: make(map[string]Bounty),
	}
	for _, q := range quests {
		if err := q.validate(); err != nil {
			return nil, asValidation(op, err)
		}
		rewards, err := q.dailyRewards()
		if err != nil {
			return nil, asValidation(op, err)
		}
		e := &questEntry{Quest: q, rewards: rewards, streaks: make(map[string]*streak)}
		for day := range rewards {
			e.days = append(e.days, day)
		}
		sort.Ints(e.days)
		title := strings.ToLower(q.Title)
		if _, dup := b.byChan[q.channel()]; dup {
			return nil, asValidation(op, fmt.Errorf("%w: quest %q: channel %q is already a quest channel", ErrInvalidDefinition, q.Title, q.channel()))
		}
		if _, dup := b.byTitle[title]; dup {
			return nil, asValidation(op, fmt.Errorf("%w: quest %q is defined twice", ErrInvalidDefinition, q.Title))
		}
		b.byChan[q.channel()] = e
		b.byTitle[title] = e
	}
	for _, bounty := range bounties {
		if err := bounty.validate(); err != nil {
			return nil, asValidation(op, err)
		}
		if _, dup := b.bounties[bounty.channel()]; dup {
			return nil, asValidation(op, fmt.Errorf("%w: bounty %q: channel %q is already a bounty channel", ErrInvalidDefinition, bounty.Title, bounty.channel()))
		}
		b.bounties[bounty.channel()] = bounty
	}
	return b, nil
}

// Empty reports whether the book has no definitions.
func (b *Book) Empty() bool {
	return b == nil || (len(b.byChan) == 0 && len(b.bounties) == 0)
}

// ForChannel returns the quest action earned by a post in channel, if the
// channel belongs to a quest.
func (b *Book) ForChannel(channel, player string, day model.Date) (model.Action, bool, error) {
	if b == nil {
		return model.Action{}, false, nil
	}
	e, ok := b.byChan[channel]
	if !ok {
		return model.Action{}, false, nil
	}
	a, err := b.award(e, player, day)
	return a, err == nil, err
}

// ForMention returns the quest action for a "@stgquest <title>" post.
func (b *Book) ForMention(content, player string, day model.Date) (model.Action, bool, error) {
	if b == nil {
		return model.Action{}, false, nil
	}
	e, ok := b.mentioned(content)
	if !ok {
		return model.Action{}, false, nil
	}
	a, err := b.award(e, player, day)
	return a, err == nil, err
}

// IsMention reports whether content opens with the quest mention prefix.
func IsMention(content string) bool {
	tokens := strings.Fields(content)
	return len(tokens) > 0 && strings.EqualFold(tokens[0], mentionPrefix)
}

func (b *Book) mentioned(content string) (*questEntry, bool) {
	tokens := strings.Fields(content)
	if len(tokens) < 2 || !strings.EqualFold(tokens[0], mentionPrefix) {
		return nil, false
	}
	candidates := []string{strings.Join(tokens[1:], " "), tokens[1]}
	for _, c := range candidates {
		title := strings.ToLower(c)
		if title == checkInAlias {
			title = strings.ToLower(checkInTitle)
		}
		if e, ok := b.byTitle[title]; ok {
			return e, true
		}
	}
	return nil, false
}

func (b *Book) award(e *questEntry, player string, day model.Date) (model.Action, error) {
	if len(e.days) == 0 {
		return model.NewAction(model.ActionQuest, "Quest - "+e.Title, e.EXP, 0, e.JCE)
	}

	b.mu.Lock()
	length := e.track(player, day)
	b.mu.Unlock()

	title := e.Title
	if !strings.HasPrefix(title, dailyPrefix) {
		title = dailyPrefix + title
	}
	desc := fmt.Sprintf("%s - Day %d", title, length)
	return model.NewAction(model.ActionQuest, desc, e.rewardFor(length), 0, e.JCE)
}

// track records a response on day and returns the current streak length.
func (e *questEntry) track(player string, day model.Date) int {
	s, ok := e.streaks[player]
	switch {
	case !ok:
		s = &streak{last: day, length: 1}
		e.streaks[player] = s
	case day == s.last:
	case day == s.last.AddDays(1):
		s.length++
		s.last = day
	default:
		s.length = 1
		s.last = day
	}
	return s.length
}

// rewardFor pays the highest defined day not above length.
func (e *questEntry) rewardFor(length int) int {
	best := e.days[0]
	for _, day := range e.days {
		if day > length {
			break
		}
		best = day
	}
	return e.rewards[best]
}

// BountyAward returns the action paid to each member mentioned in a bounty
// channel post. Posts containing "fulfilled" pay the winner tier, others the
// participation tier when the bounty has one.
func (b *Book) BountyAward(channel, content string) (model.Action, bool, error) {
	if b == nil {
		return model.Action{}, false, nil
	}
	bounty, ok := b.bounties[channel]
	if !ok {
		return model.Action{}, false, nil
	}
	if hasWord(content, fulfilledWord) {
		a, err := model.NewAction(model.ActionBounty, "fulfilled bounty - "+bounty.Title, bounty.Winner.EXP, 0, bounty.Winner.JCE)
		return a, err == nil, err
	}
	if bounty.Participation == nil {
		return model.Action{}, false, nil
	}
	a, err := model.NewAction(model.ActionBounty, "attempted bounty - "+bounty.Title, bounty.Participation.EXP, 0, bounty.Participation.JCE)
	return a, err == nil, err
}

func hasWord(content, word string) bool {
	for _, tok := range strings.Fields(content) {
		if strings.EqualFold(strings.Trim(tok, ".,!?:;"), word) {
			return true
		}
	}
	return false
}
