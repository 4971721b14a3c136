package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) buildMessage(toEmail, subject, htmlContent string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)
	return msg, nil
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg, err := s.buildMessage(toEmail, subject, htmlContent)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendVisitAssignedEmail(ctx context.Context, toEmail string, visit VisitAssignment) error {
	subject, content, err := renderVisitAssigned(visit)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

// renderVisitAssigned formats times in the location carried by visit.Start.
func renderVisitAssigned(visit VisitAssignment) (string, string, error) {
	start := visit.Start
	end := visit.End.In(start.Location())

	content, err := renderEmailTemplate("visit_assigned.html", visitAssignedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Nueva visita asignada",
			Heading: "Tienes una nueva visita",
		},
		AgentName:       visit.AgentName,
		AssignedBy:      visit.AssignedBy,
		VisitType:       visit.VisitType,
		PropertyAddress: visit.PropertyAddress,
		ClientName:      visit.ClientName,
		ClientPhone:     visit.ClientPhone,
		Date:            start.Format("02/01/2006"),
		TimeRange:       start.Format("15:04") + " - " + end.Format("15:04"),
	})
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf(subjectVisitAssignedFmt, start.Format("02/01/2006 15:04")), content, nil
}

var _ Sender = (*SMTPSender)(nil)
