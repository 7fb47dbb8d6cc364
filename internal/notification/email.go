package notification

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/smtp"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/dstps/dstps/internal/metrics"
)

// EmailConfig holds SMTP settings. Leaving From or Password empty disables
// the notifier.
type EmailConfig struct {
	Host     string
	Port     int
	From     string
	Password string
}

const alertBodyTemplate = `DSTPS SECURITY ALERT SYSTEM

ALERT DETAILS:
- Incident: {{.Subject}}
- Description: {{.Message}}
- Timestamp: {{.Time}}

ACTION REQUIRED:
1. Review the attached evidence
2. Check the live camera feed
3. Dispatch security if needed

This is an automated alert from your DSTPS security system.
`

// EmailNotifier sends alert emails over SMTP with the evidence image
// attached. One Send call covers one destination address; the dispatcher
// fans out across addresses itself so per-address failures stay independent.
type EmailNotifier struct {
	cfg     EmailConfig
	tmpl    *template.Template
	enabled bool
	logger  *zap.Logger
}

// NewEmailNotifier builds the notifier. Missing credentials produce a
// disabled notifier whose Send always reports false.
func NewEmailNotifier(cfg EmailConfig, logger *zap.Logger) *EmailNotifier {
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}

	enabled := cfg.From != "" && cfg.Password != ""
	if !enabled {
		logger.Warn("email notifier disabled, SMTP credentials not configured")
	}

	return &EmailNotifier{
		cfg:     cfg,
		tmpl:    template.Must(template.New("alert").Parse(alertBodyTemplate)),
		enabled: enabled,
		logger:  logger,
	}
}

// Enabled reports whether the notifier has usable credentials.
func (n *EmailNotifier) Enabled() bool {
	return n.enabled
}

// Send delivers one alert email. Returns true when the SMTP server accepted
// the message; all failures are logged and reported as false.
func (n *EmailNotifier) Send(ctx context.Context, to, subject, body, imagePath string) bool {
	if !n.enabled {
		return false
	}

	msg, err := n.buildMessage(to, subject, body, imagePath)
	if err != nil {
		n.logger.Error("email build failed", zap.String("to", to), zap.Error(err))
		metrics.NotificationFailures.WithLabelValues("email").Inc()
		return false
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.From, n.cfg.Password, n.cfg.Host)

	err = sendWithRetry(ctx, func(context.Context) error {
		return smtp.SendMail(addr, auth, n.cfg.From, []string{to}, msg)
	})
	if err != nil {
		n.logger.Error("email send failed",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
		metrics.NotificationFailures.WithLabelValues("email").Inc()
		return false
	}

	n.logger.Info("alert email sent", zap.String("to", to), zap.String("subject", subject))
	return true
}

// buildMessage assembles a multipart/mixed MIME message with the rendered
// text body and, when available, the evidence JPEG as an attachment.
func (n *EmailNotifier) buildMessage(to, subject, body, imagePath string) ([]byte, error) {
	var textBody bytes.Buffer
	err := n.tmpl.Execute(&textBody, map[string]string{
		"Subject": subject,
		"Message": body,
		"Time":    time.Now().Format("2006-01-02 15:04:05"),
	})
	if err != nil {
		return nil, fmt.Errorf("render alert body: %w", err)
	}

	const boundary = "dstps-alert-boundary"
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", "DSTPS Alert: "+subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Auto-Submitted: auto-generated\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(textBody.String())
	fmt.Fprintf(&buf, "\r\n")

	if imagePath != "" {
		if img, err := os.ReadFile(imagePath); err == nil {
			name := filepath.Base(imagePath)
			fmt.Fprintf(&buf, "--%s\r\n", boundary)
			fmt.Fprintf(&buf, "Content-Type: image/jpeg; name=%q\r\n", name)
			fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n", name)
			fmt.Fprintf(&buf, "Content-Transfer-Encoding: base64\r\n\r\n")
			writeBase64Wrapped(&buf, img)
			fmt.Fprintf(&buf, "\r\n")
		} else {
			n.logger.Warn("evidence attachment unreadable, sending without it",
				zap.String("path", imagePath),
				zap.Error(err),
			)
		}
	}

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes(), nil
}

// writeBase64Wrapped emits base64 in 76-character lines per RFC 2045.
func writeBase64Wrapped(buf *bytes.Buffer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")
}
