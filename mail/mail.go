// Package mail delivers verification messages.
package mail

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/samber/oops"
	gomail "github.com/wneessen/go-mail"
)

const (
	DefaultFrom    = `"No Reply" <noreply@example.com>`
	DefaultTimeout = 15 * time.Second
)

// SMTPMailer sends HTML messages through an SMTP relay. Every network
// operation is bounded by the caller's context deadline and by timeout.
type SMTPMailer struct {
	host    string
	port    int
	user    string
	pass    string
	from    string
	timeout time.Duration
	tls     gomail.TLSPolicy
	now     func() time.Time
	send    func(ctx context.Context, c *gomail.Client, msg *gomail.Msg) error
}

// NewSMTPMailer returns a mailer for host:port. Authentication is only used
// when user is non-empty. STARTTLS is used when the server offers it.
func NewSMTPMailer(host string, port int, user, pass, from string, timeout time.Duration) *SMTPMailer {
	if from == "" {
		from = DefaultFrom
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SMTPMailer{
		host:    host,
		port:    port,
		user:    user,
		pass:    pass,
		from:    from,
		timeout: timeout,
		tls:     gomail.TLSOpportunistic,
		now:     time.Now,
		send: func(ctx context.Context, c *gomail.Client, msg *gomail.Msg) error {
			return c.DialAndSendWithContext(ctx, msg)
		},
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := buildMessage(m.from, to, subject, htmlBody, m.now())
	if err != nil {
		return err
	}

	c, err := m.client(ctx)
	if err != nil {
		return oops.Code("MAIL_CLIENT_FAILED").With("host", m.host).Wrap(err)
	}
	if err := m.send(ctx, c, msg); err != nil {
		return oops.Code("MAIL_SEND_FAILED").With("host", m.host).With("port", m.port).With("to", to).Wrap(err)
	}
	return nil
}

func (m *SMTPMailer) client(ctx context.Context) (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(m.port),
		gomail.WithTimeout(m.timeout),
		gomail.WithTLSPolicy(m.tls),
		gomail.WithDialContextFunc(m.dialContext(ctx)),
	}
	if m.user != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.user),
			gomail.WithPassword(m.pass),
		)
	}
	return gomail.NewClient(m.host, opts...)
}

// dialContext returns a dialer whose connections expire at the earlier of
// the ctx deadline and timeout, and are cut off when ctx is cancelled.
func (m *SMTPMailer) dialContext(ctx context.Context) gomail.DialContextFunc {
	return func(dialCtx context.Context, network, addr string) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(dialCtx, network, addr)
		if err != nil {
			return nil, err
		}

		deadline := time.Now().Add(m.timeout)
		if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
			deadline = dl
		}
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return nil, err
		}
		context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
		return conn, nil
	}
}

func buildMessage(from, to, subject, htmlBody string, date time.Time) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, oops.Code("MAIL_INVALID_SENDER").With("from", from).Wrap(err)
	}
	if err := msg.To(to); err != nil {
		return nil, oops.Code("MAIL_INVALID_RECIPIENT").With("to", to).Wrap(err)
	}
	msg.Subject(subject)
	msg.SetDateWithValue(date)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)
	return msg, nil
}

// LogMailer records messages in the log instead of delivering them. It is
// used when no SMTP host is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.logger.InfoContext(ctx, "mail not delivered, no SMTP host configured",
		"to", to, "subject", subject, "bytes", len(htmlBody))
	return nil
}
