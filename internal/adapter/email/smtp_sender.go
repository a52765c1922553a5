package email

import (
	"errors"
	"fmt"

	"github.com/Rahima097/find-Roommate-server/internal/config"
	"github.com/Rahima097/find-Roommate-server/internal/platform/logger"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var ErrIncompleteConfig = errors.New("SMTP configuration is incomplete")

type Sender interface {
	SendEmail(to []string, subject, body string) error
}

type smtpSender struct {
	cfg    *config.SMTPConfig
	dialer *gomail.Dialer
	logger *logger.Logger
}

func NewSMTPSender(cfg *config.SMTPConfig, log *logger.Logger) Sender {
	return &smtpSender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: log.Named("SMTPSender"),
	}
}

func (s *smtpSender) SendEmail(to []string, subject, body string) error {
	if s.cfg.Host == "" || s.cfg.Username == "" || s.cfg.Password == "" || s.cfg.SenderEmail == "" {
		s.logger.Error("SMTP configuration is incomplete, email not sent",
			zap.String("host", s.cfg.Host),
			zap.String("username", s.cfg.Username),
			zap.Bool("password_set", s.cfg.Password != ""),
			zap.String("sender", s.cfg.SenderEmail))
		return ErrIncompleteConfig
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients for %q", subject)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.SenderEmail)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("failed to send email", zap.Strings("to", to), zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent", zap.Strings("to", to), zap.String("subject", subject))
	return nil
}
