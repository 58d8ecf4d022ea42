package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	mailtpl "github.com/oksasatya/bmi-tracker/pkg/mailer/templates"
)

// ErrEmptyJob marks a job with neither a template nor a body.
var ErrEmptyJob = errors.New("email job has no template or body")

// Worker turns queued EmailJobs into delivered mail.
type Worker struct {
	Sender   Sender
	Resolver mailtpl.GeoResolver
	Logger   *logrus.Logger
	Timeout  time.Duration
}

// Handle processes one message body. requeue reports whether the failure is
// worth retrying (delivery) as opposed to a poison message (decode/render).
func (w *Worker) Handle(ctx context.Context, body []byte) (requeue bool, err error) {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return false, fmt.Errorf("decode job: %w", err)
	}
	if job.To == "" {
		return false, errors.New("email job has no recipient")
	}
	job.Normalize()

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		mailtpl.Localize(ctx, w.Resolver, job.Data)
		subject, text, html, err = mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return false, fmt.Errorf("render %s: %w", job.Template, err)
		}
	} else if subject == "" || (text == "" && html == "") {
		return false, ErrEmptyJob
	}

	timeout := w.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := w.Sender.Send(c, job.To, subject, text, html); err != nil {
		return true, fmt.Errorf("send: %w", err)
	}
	if w.Logger != nil {
		w.Logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Info("email sent")
	}
	return false, nil
}
