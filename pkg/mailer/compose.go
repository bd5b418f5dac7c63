package mailer

import (
	"errors"
	"fmt"

	mailtpl "github.com/oksasatya/go-ddd-user-service/pkg/mailer/templates"
)

var ErrNoRecipient = errors.New("email job has no recipient")

// Message is a rendered email ready to send.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Compose renders job into a Message. Template jobs are rendered with
// defaults filling blank CompanyName/AppName; raw jobs are passed through.
func Compose(job EmailJob, defaults mailtpl.EmailData) (Message, error) {
	if job.To == "" {
		return Message{}, ErrNoRecipient
	}
	if job.Template == "" {
		if job.Subject == "" || (job.Text == "" && job.HTML == "") {
			return Message{}, fmt.Errorf("email job to %s: subject with text or html required", job.To)
		}
		return Message{To: job.To, Subject: job.Subject, Text: job.Text, HTML: job.HTML}, nil
	}

	data, err := mailtpl.FromMap(job.Data)
	if err != nil {
		return Message{}, err
	}
	if data.Email == "" {
		data.Email = job.To
	}
	if data.CompanyName == "" {
		data.CompanyName = defaults.CompanyName
	}
	if data.AppName == "" {
		data.AppName = defaults.AppName
	}

	subject, text, html, err := mailtpl.Render(job.Template, data)
	if err != nil {
		return Message{}, err
	}
	return Message{To: job.To, Subject: subject, Text: text, HTML: html}, nil
}
