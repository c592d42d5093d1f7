// Package notify delivers one-time codes to account holders.
package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
)

// SMTPConfig configures the outbound relay.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	// ImplicitTLS dials TLS directly (port 465). Otherwise the connection
	// starts in clear and is upgraded with STARTTLS when offered.
	ImplicitTLS bool
	TTL         time.Duration
}

// SMTPGateway sends one-time codes by e-mail.
type SMTPGateway struct {
	cfg  SMTPConfig
	dial func(ctx context.Context, addr string) (net.Conn, error)
}

// NewSMTPGateway returns a gateway for cfg.
func NewSMTPGateway(cfg SMTPConfig) *SMTPGateway {
	g := &SMTPGateway{cfg: cfg}
	if g.cfg.From == "" {
		g.cfg.From = g.cfg.User
	}
	g.dial = g.dialDefault
	return g
}

func (g *SMTPGateway) dialDefault(ctx context.Context, addr string) (net.Conn, error) {
	if g.cfg.ImplicitTLS {
		d := &tls.Dialer{Config: &tls.Config{ServerName: g.cfg.Host}}
		return d.DialContext(ctx, "tcp", addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}

// SendOTP mails code to the account's address.
func (g *SMTPGateway) SendOTP(ctx context.Context, account *models.Account, code string) error {
	return g.send(ctx, account.EmailAddress, otpSubject(g.cfg.TTL), otpBody(account, code, g.cfg.TTL))
}

func (g *SMTPGateway) send(ctx context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(g.cfg.Host, strconv.Itoa(g.cfg.Port))

	conn, err := g.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, g.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if !g.cfg.ImplicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: g.cfg.Host}); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}

	if g.cfg.User != "" {
		auth := smtp.PlainAuth("", g.cfg.User, g.cfg.Password, g.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(g.cfg.From); err != nil {
		return fmt.Errorf("smtp mail: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(buildMessage(g.cfg.From, to, subject, body)); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}

	return client.Quit()
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: admin <%s>\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

func otpSubject(ttl time.Duration) string {
	return fmt.Sprintf("Verifikasi OTP Anda (Hanya berlaku selama %d menit)", int(ttl.Minutes()))
}

func otpBody(account *models.Account, code string, ttl time.Duration) string {
	name := account.DisplayName
	if name == "" {
		name = account.EmailAddress
	}
	return fmt.Sprintf("Halo %s,\n\nKode OTP Anda: %s\n\nKode ini berlaku selama %d menit. Abaikan e-mail ini jika Anda tidak memintanya.\n",
		name, code, int(ttl.Minutes()))
}
