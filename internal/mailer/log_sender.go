package mailer

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/petway-backend/internal/logger"
)

// LogSender печатает письма в лог вместо отправки. Используется, когда SMTP не настроен.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	logger.Log.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("mailer: письмо (SMTP не настроен)\n" + msg.TextBody)
	return nil
}
