// Package alert sends operator notifications for critical failures. It is
// a side channel: callers log and continue when sending fails.
package alert

import (
	"fmt"
	"net/smtp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config holds SMTP settings for the alert channel.
type Config struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	From     string
	To       string
}

// Mailer sends failure alerts over SMTP. A disabled mailer is a no-op, so
// callers never need to branch on configuration.
type Mailer struct {
	cfg Config
	log *zap.Logger
}

func NewMailer(cfg Config, log *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log.Named("alert")}
}

// SendErrorAlert notifies operators of a critical failure. Context fields
// are rendered into the body sorted by key.
func (m *Mailer) SendErrorAlert(kind, message string, fields map[string]string) {
	if !m.cfg.Enabled {
		return
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Subject: [chess-academy] %s\r\n\r\n", kind)
	fmt.Fprintf(&body, "Time: %s\r\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&body, "Error: %s\r\n", message)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&body, "%s: %s\r\n", k, fields[k])
	}

	addr := m.cfg.Host + ":" + m.cfg.Port
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	err := smtp.SendMail(addr, auth, m.cfg.From, []string{m.cfg.To}, []byte(body.String()))
	if err != nil {
		m.log.Error("send alert", zap.String("kind", kind), zap.Error(err))
		return
	}
	m.log.Info("alert sent", zap.String("kind", kind))
}
