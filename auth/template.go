package auth

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"
)

const verificationSubject = "Verify Your Email"

var verificationTmpl = template.Must(template.New("verification").Parse(`
<div style="font-family: Arial, sans-serif; font-size: 16px; color: #333;">
  <h2>Hello, {{.Name}}!</h2>
  <p>Thank you for registering. Please click the link below to verify your email address:</p>
  <p><a href="{{.Link}}" target="_blank" style="color: #007bff;">Verify Email</a></p>
  <p>If you did not create an account, please ignore this email.</p>
</div>
`))

// VerificationLink builds the link a user follows to confirm their email.
func VerificationLink(frontendURL, token string) string {
	return strings.TrimRight(frontendURL, "/") + "/verify-email?token=" + url.QueryEscape(token)
}

// VerificationEmail renders the HTML body of the verification message.
func VerificationEmail(name, link string) (string, error) {
	var buf bytes.Buffer
	err := verificationTmpl.Execute(&buf, struct{ Name, Link string }{name, link})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
