package notification

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

const timeLayout = "2006-01-02 15:04:05"

var _ EmailService = (*SMTPService)(nil)

type SMTPConfig struct {
	Server   string
	Port     int
	Username string
	Password string
	Sender   string
	UseTLS   bool // 587 端口走 STARTTLS, 465 端口始终是隐式 TLS
}

// SMTPService 基于 net/smtp 的邮件发送
type SMTPService struct {
	cfg  SMTPConfig
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewSMTPService(cfg SMTPConfig) *SMTPService {
	d := &net.Dialer{Timeout: 30 * time.Second}
	return &SMTPService{cfg: cfg, dial: d.DialContext}
}

func (s *SMTPService) SendText(ctx context.Context, to, subject, body string) error {
	return s.send(ctx, to, subject, "text/plain", body)
}

func (s *SMTPService) SendHTML(ctx context.Context, to, subject, body string) error {
	return s.send(ctx, to, subject, "text/html", body)
}

func (s *SMTPService) send(ctx context.Context, to, subject, contentType, body string) error {
	host := s.cfg.Server
	addr := net.JoinHostPort(host, strconv.Itoa(s.cfg.Port))

	conn, err := s.dial(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	implicitTLS := s.cfg.Port == 465
	if implicitTLS {
		conn = tls.Client(conn, &tls.Config{ServerName: host})
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if s.cfg.UseTLS && !implicitTLS {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			return errors.New("smtp server does not support STARTTLS")
		}
		if err = c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}

	if s.cfg.Username != "" {
		if err = c.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err = c.Mail(s.cfg.Sender); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err = c.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err = w.Write(buildMail(s.cfg.Sender, to, subject, contentType, body)); err != nil {
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("smtp close body: %w", err)
	}
	return c.Quit()
}

func buildMail(from, to, subject, contentType, body string) []byte {
	var buf bytes.Buffer
	buf.WriteString("From: " + from + "\r\n")
	buf.WriteString("To: " + to + "\r\n")
	buf.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	buf.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: " + contentType + "; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	buf.WriteString("\r\n")
	return buf.Bytes()
}

var _ Channel = (*EmailChannel)(nil)

// EmailChannel 以 HTML 邮件发送通知
type EmailChannel struct {
	svc EmailService
	to  string
}

func NewEmailChannel(svc EmailService, to string) *EmailChannel {
	return &EmailChannel{svc: svc, to: to}
}

func (c *EmailChannel) Name() string {
	return "email"
}

func (c *EmailChannel) Send(ctx context.Context, msg Message) error {
	subject := fmt.Sprintf("[%s] %s", msg.Level, msg.Title)
	if err := c.svc.SendHTML(ctx, c.to, subject, renderHTML(msg)); err != nil {
		return err
	}
	slog.Info("email sent", "to", c.to)
	return nil
}

func renderHTML(msg Message) string {
	content := strings.ReplaceAll(html.EscapeString(msg.Content), "\n", "<br>")
	return fmt.Sprintf("<h2>%s</h2>\n"+
		"<p><strong>Level:</strong> %s</p>\n"+
		"<p><strong>Time:</strong> %s</p>\n"+
		"<hr>\n"+
		"<p>%s</p>\n",
		html.EscapeString(msg.Title), msg.Level, msg.Timestamp.Format(timeLayout), content)
}
