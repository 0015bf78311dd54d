package messaging

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

var ErrNotParticipant = fmt.Errorf("not a participant in this conversation")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Start opens (or returns) the thread between a patient and a doctor.
func (s *Service) Start(ctx context.Context, patientID, doctorID uuid.UUID) (*Conversation, error) {
	if patientID == uuid.Nil || doctorID == uuid.Nil {
		return nil, fmt.Errorf("patient_id and doctor_id are required")
	}
	return s.repo.EnsureConversation(ctx, patientID, doctorID)
}

func (s *Service) ListConversations(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]*Conversation, int, error) {
	return s.repo.ListConversations(ctx, memberID, limit, offset)
}

// Send posts a message into the thread, optionally linking an analysis
// the parties are discussing. Only participants may send.
func (s *Service) Send(ctx context.Context, conversationID, senderID uuid.UUID, body string, analysisID *uuid.UUID) (*Message, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.Participant(senderID) {
		return nil, ErrNotParticipant
	}

	m := &Message{ConversationID: conversationID, SenderID: senderID, Body: body, AnalysisID: analysisID}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.CreateMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Messages returns the thread for a participant and marks the other
// party's messages as read.
func (s *Service) Messages(ctx context.Context, conversationID, readerID uuid.UUID, limit, offset int) ([]*Message, int, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, 0, err
	}
	if !conv.Participant(readerID) {
		return nil, 0, ErrNotParticipant
	}

	items, total, err := s.repo.ListMessages(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if err := s.repo.MarkRead(ctx, conversationID, readerID); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
