// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"html"
	"html/template"
	"regexp"
	"strings"
)

// NotificationEmailData holds the rendered notification an email wraps.
type NotificationEmailData struct {
	Subject   string
	Body      string // already rendered and sanitized HTML
	Link      string
	LinkLabel string
}

// BuildNotificationEmail wraps a rendered notification in the email layout.
func BuildNotificationEmail(data NotificationEmailData) Email {
	return Email{
		To:       "", // Set by caller
		Subject:  data.Subject,
		TextBody: buildNotificationText(data),
		HTMLBody: buildNotificationHTML(data),
	}
}

var tagRE = regexp.MustCompile(`<[^>]*>`)

func buildNotificationText(data NotificationEmailData) string {
	var buf bytes.Buffer
	text := tagRE.ReplaceAllString(data.Body, "")
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			buf.WriteString(html.UnescapeString(line) + "\n")
		}
	}
	if data.Link != "" {
		buf.WriteString("\n" + data.Link + "\n")
	}
	return buf.String()
}

var notificationTmpl = template.Must(template.New("notification").Parse(notificationHTMLTemplate))

func buildNotificationHTML(data NotificationEmailData) string {
	var buf bytes.Buffer
	_ = notificationTmpl.Execute(&buf, struct {
		NotificationEmailData
		SafeBody template.HTML
	}{data, template.HTML(data.Body)})
	return buf.String()
}

const notificationHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Subject}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 560px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 24px 32px; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 18px; font-weight: 600; color: #1f2937;">{{.Subject}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px; font-size: 15px; color: #374151; line-height: 1.5;">
              {{.SafeBody}}
            </td>
          </tr>
          {{if .Link}}<tr>
            <td align="center" style="padding: 0 32px 32px;">
              <a href="{{.Link}}" style="display: inline-block; padding: 12px 28px; background-color: #4f46e5; color: #ffffff; text-decoration: none; border-radius: 6px;">{{if .LinkLabel}}{{.LinkLabel}}{{else}}Open{{end}}</a>
            </td>
          </tr>{{end}}
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
