package messaging

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("conversation not found")

type Repository interface {
	// EnsureConversation returns the patient-doctor thread, creating it on
	// first contact. Creation is idempotent per pair.
	EnsureConversation(ctx context.Context, patientID, doctorID uuid.UUID) (*Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error)
	ListConversations(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]*Conversation, int, error)

	CreateMessage(ctx context.Context, m *Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*Message, int, error)
	// MarkRead stamps all messages in the thread not sent by readerID.
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) error
}
