// Package notify turns user lifecycle events into queued email jobs.
package notify

import (
	"context"
	"time"

	"github.com/oksasatya/go-ddd-user-service/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-service/pkg/mailer"
	mailtpl "github.com/oksasatya/go-ddd-user-service/pkg/mailer/templates"
)

// Publisher is satisfied by helpers.RabbitPublisher.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

type UserMailer struct {
	pub     Publisher
	appName string
	company string
	now     func() time.Time
}

func NewUserMailer(pub Publisher, appName, company string) *UserMailer {
	return &UserMailer{pub: pub, appName: appName, company: company, now: time.Now}
}

// Notify enqueues the mail for event. Events without a template are ignored.
func (m *UserMailer) Notify(ctx context.Context, event string, u *entity.User) error {
	if !mailtpl.Known(event) || u == nil || u.Email == "" {
		return nil
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: event,
		Data: mailtpl.ToMap(mailtpl.EmailData{
			UserID:      u.ID,
			Name:        u.Name,
			Email:       u.Email,
			Age:         u.Age,
			Time:        m.now().UTC().Format("02 January 2006, 15:04 MST"),
			CompanyName: m.company,
			AppName:     m.appName,
		}),
	}
	return m.pub.PublishJSON(ctx, job)
}
