package messaging

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Conversation is the single thread between one patient and one doctor.
type Conversation struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID `db:"doctor_id" json:"doctor_id"`
	LastMessageAt time.Time `db:"last_message_at" json:"last_message_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`

	// UnreadCount is filled on list queries for the requesting member.
	UnreadCount int `db:"-" json:"unread_count"`
}

// Participant reports whether id is a member of the thread.
func (c *Conversation) Participant(id uuid.UUID) bool {
	return id == c.PatientID || id == c.DoctorID
}

const maxMessageLen = 4000

// Message is one entry in a conversation.
type Message struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ConversationID uuid.UUID  `db:"conversation_id" json:"conversation_id"`
	SenderID       uuid.UUID  `db:"sender_id" json:"sender_id"`
	Body           string     `db:"body" json:"body"`
	AnalysisID     *uuid.UUID `db:"analysis_id" json:"analysis_id,omitempty"`
	ReadAt         *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

func (m *Message) Validate() error {
	if m.Body == "" {
		return fmt.Errorf("body is required")
	}
	if len(m.Body) > maxMessageLen {
		return fmt.Errorf("body exceeds %d characters", maxMessageLen)
	}
	return nil
}
