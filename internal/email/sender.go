package email

import (
	"context"
	"time"

	"fieldvisits_backend/platform/config"
)

// VisitAssignment describes a visit booked for an agent by someone else.
type VisitAssignment struct {
	AgentName       string
	AssignedBy      string
	VisitType       string
	PropertyAddress string
	ClientName      string
	ClientPhone     string
	Start           time.Time
	End             time.Time
}

type Sender interface {
	SendVisitAssignedEmail(ctx context.Context, toEmail string, visit VisitAssignment) error
}

type NoopSender struct{}

func (NoopSender) SendVisitAssignedEmail(context.Context, string, VisitAssignment) error {
	return nil
}

// NewSender returns an SMTP sender, or a NoopSender when SMTP is not configured.
func NewSender(cfg config.SMTPConfig) (Sender, error) {
	if !cfg.IsSMTPEnabled() {
		return NoopSender{}, nil
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetSMTPFromEmail(),
		cfg.GetSMTPFromName(),
	), nil
}
