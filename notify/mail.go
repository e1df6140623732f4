package notify

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/relloyd/tableload/constants"
	"github.com/relloyd/tableload/logger"
	"github.com/wneessen/go-mail"
)

// MailConfig selects the transport: an SMTP relay when SmtpHost is set, otherwise the local sendmail binary.
type MailConfig struct {
	From         string
	SmtpHost     string
	SmtpPort     int
	Username     string
	Password     string
	SendmailPath string
}

// MailNotifier sends messages by email with attachments.
type MailNotifier struct {
	log  logger.Logger
	cfg  MailConfig
	send func(ctx context.Context, m *mail.Msg) error
}

func NewMailNotifier(log logger.Logger, cfg MailConfig) (*MailNotifier, error) {
	if cfg.From == "" {
		cfg.From = constants.NotifySenderDefault
	}
	if cfg.SendmailPath == "" {
		cfg.SendmailPath = mail.SendmailPath
	}
	n := &MailNotifier{log: log, cfg: cfg}
	if cfg.SmtpHost == "" {
		n.send = func(ctx context.Context, m *mail.Msg) error {
			return m.WriteToSendmailWithContext(ctx, cfg.SendmailPath)
		}
		return n, nil
	}
	opts := []mail.Option{mail.WithTLSPolicy(mail.TLSOpportunistic)}
	if cfg.SmtpPort > 0 {
		opts = append(opts, mail.WithPort(cfg.SmtpPort))
	}
	if cfg.Username != "" {
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthPlain), mail.WithUsername(cfg.Username), mail.WithPassword(cfg.Password))
	}
	client, err := mail.NewClient(cfg.SmtpHost, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to configure SMTP relay %v", cfg.SmtpHost)
	}
	n.send = func(ctx context.Context, m *mail.Msg) error {
		return client.DialAndSendWithContext(ctx, m)
	}
	return n, nil
}

func (n *MailNotifier) Notify(ctx context.Context, msg Message) error {
	m, err := n.buildMessage(msg)
	if err != nil {
		return err
	}
	n.log.Info("Sending notification to ", msg.Recipients)
	if err := n.send(ctx, m); err != nil {
		return errors.Wrap(err, "unable to send notification")
	}
	return nil
}

func (n *MailNotifier) buildMessage(msg Message) (*mail.Msg, error) {
	if len(msg.Recipients) == 0 {
		return nil, errors.New("no recipients configured for notification")
	}
	m := mail.NewMsg()
	if err := m.From(n.cfg.From); err != nil {
		return nil, errors.Wrapf(err, "invalid sender %q", n.cfg.From)
	}
	if err := m.To(msg.Recipients...); err != nil {
		return nil, errors.Wrapf(err, "invalid recipients %v", msg.Recipients)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	for _, a := range msg.Attachments {
		if err := m.AttachReader(a.Name, bytes.NewReader(a.Content)); err != nil {
			return nil, errors.Wrapf(err, "unable to attach %v", a.Name)
		}
	}
	return m, nil
}
