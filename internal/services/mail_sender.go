package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

type MailMessage struct {
	To       string
	Subject  string
	HTMLBody string
}

type MailSender interface {
	Send(ctx context.Context, message MailMessage) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPSender delivers mail through a submission server, upgrading to TLS
// when the server offers STARTTLS.
type SMTPSender struct {
	config SMTPConfig
}

func NewSMTPSender(config SMTPConfig) *SMTPSender {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &SMTPSender{config: config}
}

func (sender *SMTPSender) Send(ctx context.Context, message MailMessage) error {
	msg, err := sender.buildMessage(message)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(sender.config.Host, sender.clientOptions()...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (sender *SMTPSender) clientOptions() []mail.Option {
	options := []mail.Option{
		mail.WithPort(sender.config.Port),
		mail.WithTimeout(sender.config.Timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTLSConfig(&tls.Config{ServerName: sender.config.Host, MinVersion: tls.VersionTLS12}),
	}
	if sender.config.Username != "" {
		options = append(options,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(sender.config.Username),
			mail.WithPassword(sender.config.Password),
		)
	}
	return options
}

func (sender *SMTPSender) buildMessage(message MailMessage) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(sender.config.From); err != nil {
		return nil, fmt.Errorf("mail from %q: %w", sender.config.From, err)
	}
	if err := msg.To(message.To); err != nil {
		return nil, fmt.Errorf("mail to %q: %w", message.To, err)
	}
	msg.Subject(message.Subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextHTML, message.HTMLBody)
	return msg, nil
}
