package mailer

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	mailtpl "github.com/oksasatya/go-ddd-user-service/pkg/mailer/templates"
)

// Outcome tells the consumer what to do with a delivery.
type Outcome int

const (
	Ack Outcome = iota
	// Drop rejects without requeue; the payload can never succeed.
	Drop
	// Requeue rejects with requeue; sending may succeed later.
	Requeue
)

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Worker turns queued EmailJob payloads into sent mail.
type Worker struct {
	Sender      Sender
	Defaults    mailtpl.EmailData
	SendTimeout time.Duration
	Logger      *logrus.Logger
}

func (w *Worker) log() *logrus.Logger {
	if w.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return w.Logger
}

// Handle processes one payload.
func (w *Worker) Handle(ctx context.Context, body []byte) Outcome {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.log().WithError(err).Warn("bad email job payload")
		return Drop
	}

	msg, err := Compose(job, w.Defaults)
	if err != nil {
		w.log().WithError(err).WithField("template", job.Template).Warn("email job cannot be rendered")
		return Drop
	}

	timeout := w.SendTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := w.Sender.Send(c, msg); err != nil {
		w.log().WithError(err).WithField("to", msg.To).Error("send failed")
		return Requeue
	}
	w.log().WithFields(logrus.Fields{"to": msg.To, "template": job.Template}).Info("email sent")
	return Ack
}
