package domain

import (
	"time"

	"github.com/samber/lo"
)

const MinParticipants = 2

// Conversation is a populated view: participants carry their user,
// LatestMessage carries its sender.
type Conversation struct {
	ID            string
	Participants  []Participant
	LatestMessage *Message
	UpdatedAt     time.Time
}

func (c Conversation) ParticipantIDs() []string {
	return lo.Map(c.Participants, func(p Participant, _ int) string {
		return p.UserID()
	})
}

func (c Conversation) HasParticipant(userID string) bool {
	return lo.ContainsBy(c.Participants, func(p Participant) bool {
		return p.UserID() == userID
	})
}

// ParticipantDelta computes which users must be added to and removed from
// current to reach requested. Order follows the input slices.
func ParticipantDelta(current, requested []string) (toAdd, toRemove []string) {
	toAdd = lo.Filter(requested, func(id string, _ int) bool {
		return !lo.Contains(current, id)
	})
	toRemove = lo.Filter(current, func(id string, _ int) bool {
		return !lo.Contains(requested, id)
	})
	return toAdd, toRemove
}
