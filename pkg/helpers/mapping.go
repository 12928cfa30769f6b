package helpers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oksasatya/go-rental-marketplace/pkg/mailer"
	mailtpl "github.com/oksasatya/go-rental-marketplace/pkg/mailer/templates"
)

var ErrEmptyJob = errors.New("email job needs a template or a subject with text/html")

// NormalizeJob lowercases the template name and fills the recipient fields
// templates expect, then checks the job can be rendered.
func NormalizeJob(job *mailer.EmailJob) error {
	job.To = strings.TrimSpace(job.To)
	if job.To == "" {
		return errors.New("email job has no recipient")
	}
	job.Template = strings.ToLower(strings.TrimSpace(job.Template))
	if job.Template == "" {
		if job.Subject == "" || (job.Text == "" && job.HTML == "") {
			return ErrEmptyJob
		}
		return nil
	}
	if !mailtpl.Known(job.Template) {
		return fmt.Errorf("unknown template %q", job.Template)
	}
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	for _, k := range []string{"Email", "RecipientEmail"} {
		if v, ok := job.Data[k]; !ok || fmt.Sprintf("%v", v) == "" {
			job.Data[k] = job.To
		}
	}
	if v, ok := job.Data["Type"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Type"] = job.Template
	}
	return nil
}

// RenderJob returns the subject, text and html bodies for a normalized job
func RenderJob(job *mailer.EmailJob) (string, string, string, error) {
	if job.Template == "" {
		return job.Subject, job.Text, job.HTML, nil
	}
	subject, text, html, err := mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return "", "", "", err
	}
	if job.Subject != "" {
		subject = job.Subject
	}
	return subject, text, html, nil
}
