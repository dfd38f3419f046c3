package dispatch

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
)

// The email is a single self-contained HTML document with inline styles so
// it renders the same across mail clients.
const emailTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="margin:0;padding:0;background-color:#f4f5f7;font-family:Arial,Helvetica,sans-serif;color:#1f2933;">
  <div style="max-width:640px;margin:0 auto;padding:24px;">
    <div style="background-color:#ffffff;border-radius:8px;padding:32px;">
      <h1 style="margin-top:0;font-size:22px;color:#102a43;">Meeting Summary</h1>
      <p style="color:#627d98;font-size:13px;margin-bottom:24px;">Generated {{.Timestamp}}</p>
      {{if .Instruction}}
      <div style="background-color:#e3f2fd;border-left:4px solid #1976d2;padding:12px 16px;margin-bottom:24px;font-size:14px;">
        <strong>Instruction:</strong> {{.Instruction}}
      </div>
      {{end}}
      <div style="font-size:15px;line-height:1.6;">{{.Summary}}</div>
    </div>
    <p style="text-align:center;color:#829ab1;font-size:12px;margin-top:16px;">Sent by the meeting summarizer service.</p>
  </div>
</body>
</html>`

var emailTmpl = template.Must(template.New("summary-email").Parse(emailTemplate))

type emailData struct {
	Instruction string
	Timestamp   string
	Summary     template.HTML
}

// renderHTML converts the markdown summary to HTML and wraps it in the email
// shell. Goldmark escapes raw HTML in the source by default, and the inputs
// were already sanitized at the pipeline boundary.
func renderHTML(summaryMarkdown, instruction, timestamp string) (string, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(summaryMarkdown), &body); err != nil {
		return "", fmt.Errorf("render summary markdown: %w", err)
	}

	var out bytes.Buffer
	err := emailTmpl.Execute(&out, emailData{
		Instruction: instruction,
		Timestamp:   timestamp,
		Summary:     template.HTML(body.String()),
	})
	if err != nil {
		return "", fmt.Errorf("render email template: %w", err)
	}
	return out.String(), nil
}
