package mail

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

func renderMessage(t *testing.T, msg *gomail.Msg) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestSMTPMailer_Send(t *testing.T) {
	var sent []*gomail.Msg
	m := NewSMTPMailer("smtp.example.com", 587, "user", "pass", "", 0)
	m.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	m.send = func(_ context.Context, _ *gomail.Client, msg *gomail.Msg) error {
		sent = append(sent, msg)
		return nil
	}

	err := m.Send(context.Background(), "a@x.com", "Verify Your Email", "<p>hi</p>")
	require.NoError(t, err)

	require.Len(t, sent, 1)
	raw := renderMessage(t, sent[0])
	assert.Contains(t, raw, "noreply@example.com")
	assert.Contains(t, raw, "<a@x.com>")
	assert.Contains(t, raw, "Date: Tue, 02 Jan 2024 03:04:05 +0000")
}

func TestNewSMTPMailer_Defaults(t *testing.T) {
	m := NewSMTPMailer("localhost", 1025, "", "", "", 0)

	assert.Equal(t, DefaultFrom, m.from)
	assert.Equal(t, DefaultTimeout, m.timeout)
}

func TestSMTPMailer_Errors(t *testing.T) {
	calls := 0
	m := NewSMTPMailer("localhost", 25, "", "", DefaultFrom, time.Second)
	m.send = func(context.Context, *gomail.Client, *gomail.Msg) error {
		calls++
		return errors.New("421 service not available")
	}

	err := m.Send(context.Background(), "a@x.com", "s", "b")
	assert.ErrorContains(t, err, "421 service not available")

	err = m.Send(context.Background(), "not an address", "s", "b")
	assert.Error(t, err)

	m.from = "not an address"
	err = m.Send(context.Background(), "a@x.com", "s", "b")
	assert.Error(t, err)
	assert.Equal(t, 1, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, "a@x.com", "s", "b"), context.Canceled)
}

func TestSMTPMailer_StalledServerHonoursDeadline(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	// Accept connections and never send the SMTP greeting.
	go func() {
		var held []net.Conn
		defer func() {
			for _, c := range held {
				_ = c.Close()
			}
		}()
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			held = append(held, c)
		}
	}()

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	m := NewSMTPMailer("127.0.0.1", port, "", "", "", time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = m.Send(ctx, "a@x.com", "Verify Your Email", "<p>hi</p>")

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestBuildMessage(t *testing.T) {
	msg, err := buildMessage(DefaultFrom, "a@x.com", "Vérifier", `<a href="x">link</a>`,
		time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	raw := renderMessage(t, msg)
	assert.Contains(t, raw, "V=C3=A9rifier")
	assert.Contains(t, raw, "MIME-Version: 1.0")
	assert.Contains(t, raw, "text/html")
	assert.Contains(t, raw, "Content-Transfer-Encoding: quoted-printable")
	assert.Contains(t, raw, "link</a>")

	_, err = buildMessage("nobody", "a@x.com", "s", "b", time.Now())
	assert.Error(t, err)
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, m.Send(context.Background(), "a@x.com", "Verify Your Email", "<p>hi</p>"))
	assert.Contains(t, buf.String(), `"to":"a@x.com"`)
	assert.Contains(t, buf.String(), `"subject":"Verify Your Email"`)
}
