package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"video-annotator/internal/models"
	"video-annotator/shared/config"
)

type Sender struct {
	config *config.EmailConfig
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
	}
}

// SendReviewDigest mails the list of videos that need a human pass. A
// digest with nothing to review sends nothing.
func (s *Sender) SendReviewDigest(digest *models.ReviewDigest) error {
	if digest == nil {
		return fmt.Errorf("digest cannot be nil")
	}

	if len(digest.NeedsReview) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Annotation Review - %d of %d Videos Need Review (%s)",
		len(digest.NeedsReview), len(digest.NeedsReview)+len(digest.Ready),
		digest.GeneratedAt.Format("Jan 2, 2006"))

	body, err := RenderReviewDigest(digest)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.SendHTML(subject, body)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	return s.sendViaSMTP(subject, htmlBody)
}

func (s *Sender) sendViaSMTP(subject, body string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.FromEmail, to, msg)
}

const digestTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Annotation Review</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 20px; }
        .header { background-color: #6A1B9A; color: white; padding: 20px; border-radius: 8px; margin-bottom: 20px; text-align: center; }
        .summary { background-color: #FFF3E0; padding: 15px; border-radius: 8px; margin-bottom: 20px; border-left: 4px solid #FF9800; }
        .item { background-color: #f8f9fa; padding: 15px; border-radius: 8px; margin-bottom: 12px; }
        .ready { color: #4CAF50; font-weight: bold; }
        .review { color: #FF9800; font-weight: bold; }
        .error { color: #C62828; font-size: 14px; }
        .footer { text-align: center; color: #666; font-size: 12px; margin-top: 30px; border-top: 1px solid #ddd; padding-top: 15px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>🎬 Annotation Review</h1>
        <p>{{.GeneratedAt.Format "Monday, January 2, 2006 at 3:04 PM MST"}}</p>
    </div>

    <div class="summary">
        <p><span class="review">{{len .NeedsReview}} need review</span> • <span class="ready">{{len .Ready}} ready</span></p>
        <p>Videos below scored under the readiness threshold or could not be annotated.</p>
    </div>

    {{range .NeedsReview}}
    <div class="item">
        <h3>{{if .URL}}<a href="{{.URL}}">{{or .Title .ItemKey}}</a>{{else}}{{or .Title .ItemKey}}{{end}}</h3>
        <p><strong>Collection:</strong> {{.CollectionID}}</p>
        <p><strong>Confidence:</strong> {{percent .OverallConfidence}} across {{.Segments}} segments</p>
        {{if .Error}}<p class="error">⚠️ {{.Error}}</p>{{end}}
    </div>
    {{end}}

    <div class="footer">
        <p>Generated by Video Annotator</p>
    </div>
</body>
</html>
`

// RenderReviewDigest builds the HTML body of a review digest.
func RenderReviewDigest(digest *models.ReviewDigest) (string, error) {
	tmpl, err := template.New("email").Funcs(template.FuncMap{
		"percent": func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
	}).Parse(digestTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, digest); err != nil {
		return "", err
	}

	return buf.String(), nil
}
