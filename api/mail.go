package main

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/go-mail/mail/v2"
)

type mailer struct {
	dialer *mail.Dialer
	sender string
}

func newMailer(host string, port int, username string, password string, sender string) *mailer {
	dialer := mail.NewDialer(host, port, username, password)
	return &mailer{
		dialer: dialer,
		sender: sender,
	}
}

func (m *mailer) send(to string, tmpl *template.Template, data any) error {
	var subject bytes.Buffer
	err := tmpl.ExecuteTemplate(&subject, "subject", data)
	if err != nil {
		return err
	}
	var plainBody bytes.Buffer
	err = tmpl.ExecuteTemplate(&plainBody, "plainBody", data)
	if err != nil {
		return err
	}
	var htmlBody bytes.Buffer
	err = tmpl.ExecuteTemplate(&htmlBody, "htmlBody", data)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/plain", plainBody.String())
	msg.AddAlternative("text/html", htmlBody.String())

	for i := 0; i < 3; i++ {
		err = m.dialer.DialAndSend(msg)
		if err == nil {
			break
		}
	}
	return err
}

var verificationMailTmpl = template.Must(template.New("verification").Parse(`
{{define "subject"}}Verify your email address{{end}}

{{define "plainBody"}}
Hi,

Thanks for signing up. Please verify your email address by visiting the link
below within 72 hours:

{{.VerifyURL}}

If you didn't sign up, you can safely ignore this email.
{{end}}

{{define "htmlBody"}}
<!doctype html>
<html>
<body>
<p>Hi,</p>
<p>Thanks for signing up. Please verify your email address by clicking the
link below within 72 hours:</p>
<p><a href="{{.VerifyURL}}">Verify email address</a></p>
<p>If you didn't sign up, you can safely ignore this email.</p>
</body>
</html>
{{end}}
`))

func (app *application) sendVerificationMail(u *user) error {
	if app.mailer == nil {
		return fmt.Errorf("cannot send verification mail to %s: smtp is not configured", u.Email)
	}
	token, err := mintVerificationToken(u.ID, verificationTokenTTL, []byte(app.config.jwt.secret))
	if err != nil {
		return err
	}
	data := struct {
		VerifyURL string
	}{
		VerifyURL: fmt.Sprintf("%s/auth/verify?token=%s", app.config.baseURL, token),
	}
	return app.mailer.send(u.Email, verificationMailTmpl, data)
}
