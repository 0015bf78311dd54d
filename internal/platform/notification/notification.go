// Package notification delivers booking lifecycle emails and SMS. It holds
// the template engine, the sender interfaces with their test doubles, and
// the dispatcher that consumes appointment events.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kneecare/kneecare/internal/domain/appointment"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Notification is one outbound message.
type Notification struct {
	ID         uuid.UUID         `json:"id"`
	Channel    Channel           `json:"channel"`
	Recipient  string            `json:"recipient"`
	Subject    string            `json:"subject,omitempty"`
	Body       string            `json:"body"`
	TemplateID string            `json:"template_id,omitempty"`
	Status     string            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	SentAt     *time.Time        `json:"sent_at,omitempty"`
	Error      string            `json:"error,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// EmailSender sends email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender sends SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Template is a reusable message with {{key}} placeholders.
type Template struct {
	ID      string  `json:"id"`
	Subject string  `json:"subject"`
	Body    string  `json:"body"`
	Channel Channel `json:"channel"`
}

type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine returns an engine with the booking templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	for _, t := range []Template{
		{
			ID:      "booking-confirmed",
			Subject: "Appointment confirmed for {{date}}",
			Body:    "Dear {{patient_name}}, your appointment with {{doctor_name}} on {{date}} at {{time}} is confirmed.",
			Channel: ChannelEmail,
		},
		{
			ID:      "booking-cancelled",
			Subject: "Appointment on {{date}} cancelled",
			Body:    "Dear {{patient_name}}, your appointment with {{doctor_name}} on {{date}} at {{time}} has been cancelled. The slot is available for rebooking.",
			Channel: ChannelEmail,
		},
		{
			ID:      "booking-reminder",
			Subject: "Appointment reminder for {{date}}",
			Body:    "Dear {{patient_name}}, this is a reminder of your appointment on {{date}} at {{time}} with {{doctor_name}}.",
			Channel: ChannelEmail,
		},
	} {
		tpl := t
		e.templates[t.ID] = &tpl
	}
	return e
}

func (e *TemplateEngine) Register(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render substitutes {{key}} placeholders. Keys missing from data stay
// as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, channel Channel, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", "", fmt.Errorf("template %q not found", templateID)
	}
	subject, body = t.Subject, t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, t.Channel, nil
}

// Manager sends notifications and keeps an in-memory record of outcomes.
type Manager struct {
	email     EmailSender
	sms       SMSSender
	templates *TemplateEngine

	mu   sync.RWMutex
	sent map[uuid.UUID]*Notification
}

func NewManager(email EmailSender, sms SMSSender, templates *TemplateEngine) *Manager {
	return &Manager{
		email:     email,
		sms:       sms,
		templates: templates,
		sent:      make(map[uuid.UUID]*Notification),
	}
}

const sendAttempts = 3

// Send delivers one notification, retrying transient failures.
func (m *Manager) Send(ctx context.Context, n *Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now().UTC()
	n.Status = "pending"

	var sendErr error
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		switch n.Channel {
		case ChannelEmail:
			sendErr = m.email.SendEmail(ctx, n.Recipient, n.Subject, n.Body)
		case ChannelSMS:
			sendErr = m.sms.SendSMS(ctx, n.Recipient, n.Body)
		default:
			sendErr = fmt.Errorf("unsupported channel: %s", n.Channel)
			attempt = sendAttempts
		}
		if sendErr == nil || ctx.Err() != nil {
			break
		}
	}

	if sendErr != nil {
		n.Status = "failed"
		n.Error = sendErr.Error()
	} else {
		n.Status = "sent"
		sentAt := time.Now().UTC()
		n.SentAt = &sentAt
	}

	m.mu.Lock()
	m.sent[n.ID] = n
	m.mu.Unlock()
	return sendErr
}

// SendFromTemplate renders and sends.
func (m *Manager) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Notification, error) {
	subject, body, channel, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	n := &Notification{
		Channel:    channel,
		Recipient:  recipient,
		Subject:    subject,
		Body:       body,
		TemplateID: templateID,
	}
	if err := m.Send(ctx, n); err != nil {
		return n, err
	}
	return n, nil
}

// History returns recorded notifications, newest not guaranteed first.
func (m *Manager) History() []*Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Notification, 0, len(m.sent))
	for _, n := range m.sent {
		cp := *n
		out = append(out, &cp)
	}
	return out
}

// ContactLookup resolves the people behind a booking to deliverable
// contacts. Implemented over the identity service.
type ContactLookup interface {
	PatientContact(ctx context.Context, id uuid.UUID) (name, email string, err error)
	DoctorName(ctx context.Context, id uuid.UUID) (string, error)
}

// Dispatcher turns booking events into notifications. Delivery failures
// are logged, never propagated: a lost email must not fail a booking.
type Dispatcher struct {
	manager  *Manager
	contacts ContactLookup
}

func NewDispatcher(manager *Manager, contacts ContactLookup) *Dispatcher {
	return &Dispatcher{manager: manager, contacts: contacts}
}

func (d *Dispatcher) BookingCreated(ctx context.Context, ev appointment.BookingEvent) {
	d.dispatch(ctx, "booking-confirmed", ev)
}

func (d *Dispatcher) BookingCancelled(ctx context.Context, ev appointment.BookingEvent) {
	d.dispatch(ctx, "booking-cancelled", ev)
}

func (d *Dispatcher) dispatch(ctx context.Context, templateID string, ev appointment.BookingEvent) {
	patientName, email, err := d.contacts.PatientContact(ctx, ev.PatientID)
	if err != nil {
		log.Warn().Err(err).Str("patient_id", ev.PatientID.String()).Msg("cannot resolve patient contact, skipping notification")
		return
	}
	if email == "" {
		log.Debug().Str("patient_id", ev.PatientID.String()).Msg("patient has no email, skipping notification")
		return
	}
	doctorName, err := d.contacts.DoctorName(ctx, ev.DoctorID)
	if err != nil {
		doctorName = "your doctor"
	}

	n, err := d.manager.SendFromTemplate(ctx, templateID, map[string]string{
		"patient_name": patientName,
		"doctor_name":  doctorName,
		"date":         ev.Date,
		"time":         ev.Time,
	}, email)
	if err != nil {
		log.Error().Err(err).Str("template", templateID).Str("appointment_id", ev.AppointmentID.String()).Msg("notification delivery failed")
		return
	}
	log.Info().Str("template", templateID).Str("notification_id", n.ID.String()).Msg("booking notification sent")
}

// LogEmailSender writes emails to the log instead of delivering them.
// Used in development when no SMTP relay is configured.
type LogEmailSender struct{}

func (LogEmailSender) SendEmail(_ context.Context, to, subject, _ string) error {
	log.Info().Str("to", to).Str("subject", subject).Msg("email (log sender)")
	return nil
}

// LogSMSSender is the SMS counterpart of LogEmailSender.
type LogSMSSender struct{}

func (LogSMSSender) SendSMS(_ context.Context, to, _ string) error {
	log.Info().Str("to", to).Msg("sms (log sender)")
	return nil
}

// MockEmailSender records calls for tests.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
}

type EmailCall struct {
	To      string
	Subject string
	Body    string
}

func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockSMSSender records calls for tests.
type MockSMSSender struct {
	mu         sync.Mutex
	calls      []SMSCall
	ShouldFail bool
}

type SMSCall struct {
	To   string
	Body string
}

func (m *MockSMSSender) SendSMS(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, SMSCall{To: to, Body: body})
	if m.ShouldFail {
		return errors.New("sms gateway unavailable")
	}
	return nil
}

func (m *MockSMSSender) Calls() []SMSCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SMSCall, len(m.calls))
	copy(out, m.calls)
	return out
}
