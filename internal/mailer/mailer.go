package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/petway-backend/internal/logger"
)

// Status - итог попытки доставки письма.
type Status string

const (
	StatusSent     Status = "sent"
	StatusDeferred Status = "deferred"
)

// Result описывает исход отправки. Err заполнен только для StatusDeferred.
type Result struct {
	Status Status
	Err    error
}

// Sent сообщает, что письмо ушло.
func (r Result) Sent() bool {
	return r.Status == StatusSent
}

// Message - письмо с текстовым и HTML телом.
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender доставляет письма конкретным транспортом.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Gateway отправляет уведомления пользователям.
// Ошибки транспорта не пробрасываются: вызывающий получает Result и решает сам.
type Gateway struct {
	sender  Sender
	timeout time.Duration
}

// NewGateway создаёт шлюз поверх транспорта.
func NewGateway(sender Sender) *Gateway {
	return &Gateway{sender: sender, timeout: 15 * time.Second}
}

// SendVerificationCode отправляет код подтверждения email.
func (g *Gateway) SendVerificationCode(ctx context.Context, to, code string, expiresAt time.Time) Result {
	minutes := int(time.Until(expiresAt).Round(time.Minute).Minutes())
	if minutes < 1 {
		minutes = 1
	}

	msg := Message{
		To:      to,
		Subject: "PetWay: код подтверждения",
		TextBody: fmt.Sprintf(
			"Ваш код подтверждения: %s\nКод действует %d мин.\nЕсли вы не регистрировались в PetWay, просто проигнорируйте это письмо.",
			code, minutes,
		),
		HTMLBody: fmt.Sprintf(
			`<html><body><h2>Подтверждение email</h2><p>Ваш код подтверждения:</p><p style="font-size:24px;letter-spacing:4px"><b>%s</b></p><p>Код действует %d мин.</p></body></html>`,
			code, minutes,
		),
	}

	return g.deliver(ctx, msg)
}

func (g *Gateway) deliver(ctx context.Context, msg Message) Result {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.sender.Send(ctx, msg); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"to":      msg.To,
			"subject": msg.Subject,
		}).WithError(err).Warn("mailer: письмо не отправлено, доставка отложена")
		return Result{Status: StatusDeferred, Err: err}
	}
	return Result{Status: StatusSent}
}
