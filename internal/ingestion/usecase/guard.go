package usecase

import "docuflow-backend/pkg/dedup"

// DefaultGuardCapacity bounds each of the two membership sets.
const DefaultGuardCapacity = 1000

// IdempotencyGuard tracks message and attachment IDs already handled in this
// process, so bursts of duplicate webhook deliveries do not trigger redundant
// provider calls or duplicate notifications. It is deliberately not durable:
// the database dedup keys are the correctness layer, this is the cheap one.
type IdempotencyGuard struct {
	messages    *dedup.BoundedSet
	attachments *dedup.BoundedSet
}

func NewIdempotencyGuard(capacity int) *IdempotencyGuard {
	return &IdempotencyGuard{
		messages:    dedup.NewBoundedSet(capacity),
		attachments: dedup.NewBoundedSet(capacity),
	}
}

func (g *IdempotencyGuard) AlreadySeenMessage(messageID string) bool {
	return g.messages.Contains(messageID)
}

func (g *IdempotencyGuard) MarkMessageSeen(messageID string) {
	g.messages.Add(messageID)
}

func (g *IdempotencyGuard) AlreadySeenAttachment(messageID, attachmentID string) bool {
	return g.attachments.Contains(attachmentKey(messageID, attachmentID))
}

func (g *IdempotencyGuard) MarkAttachmentSeen(messageID, attachmentID string) {
	g.attachments.Add(attachmentKey(messageID, attachmentID))
}

// MessageSetSize is exposed for capacity checks.
func (g *IdempotencyGuard) MessageSetSize() int {
	return g.messages.Len()
}

func attachmentKey(messageID, attachmentID string) string {
	return messageID + "/" + attachmentID
}
