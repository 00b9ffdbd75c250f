package notification

import (
	"fmt"
	"net/smtp"
	"strings"

	"byov-backend/internal/config"
	"byov-backend/internal/features/dashsync"

	"go.uber.org/zap"
)

// Notifier delivers sync outcome notices to operators. Delivery failures
// are reported to the caller but must never fail the sync itself.
type Notifier interface {
	NotifySyncOutcome(enrollmentID, techID string, result *dashsync.SyncResult) error
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	To       []string
}

type SMTPNotifier struct {
	cfg    SMTPConfig
	logger *zap.Logger
}

func NewNotifier(cfg *config.Config, logger *zap.Logger) Notifier {
	var to []string
	for _, addr := range strings.Split(cfg.NotifyTo, ",") {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			to = append(to, addr)
		}
	}

	return &SMTPNotifier{
		cfg: SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.NotifyFrom,
			To:       to,
		},
		logger: logger.With(zap.String("component", "notification")),
	}
}

func (n *SMTPNotifier) NotifySyncOutcome(enrollmentID, techID string, result *dashsync.SyncResult) error {
	if n.cfg.Host == "" || len(n.cfg.To) == 0 {
		return nil
	}

	subject := fmt.Sprintf("BYOV sync %s: %s", result.Status, techID)
	body := n.renderBody(enrollmentID, techID, result)

	if err := n.send(subject, body); err != nil {
		n.logger.Warn("sync notification failed",
			zap.String("enrollment_id", enrollmentID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (n *SMTPNotifier) renderBody(enrollmentID, techID string, result *dashsync.SyncResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h3>Dashboard sync %s</h3>", result.Status)
	fmt.Fprintf(&b, "<p>Enrollment %s (tech %s): %d photos uploaded.</p>",
		enrollmentID, techID, result.PhotoCount)

	if len(result.Failed) > 0 {
		b.WriteString("<p>Failed uploads:</p><ul>")
		for _, f := range result.Failed {
			fmt.Fprintf(&b, "<li>%s: %s</li>", f.Path, f.Reason)
		}
		b.WriteString("</ul>")
	}
	return b.String()
}

func (n *SMTPNotifier) send(subject, htmlBody string) error {
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)

	headers := map[string]string{
		"From":         n.cfg.From,
		"To":           strings.Join(n.cfg.To, ", "),
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=\"UTF-8\"",
	}

	msg := ""
	for k, v := range headers {
		msg += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	msg += "\r\n" + htmlBody

	addr := fmt.Sprintf("%s:%s", n.cfg.Host, n.cfg.Port)
	return smtp.SendMail(addr, auth, n.cfg.From, n.cfg.To, []byte(msg))
}
