package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

var verificationTmpl = template.Must(template.New("verification").Parse(`<html>
<body style="font-family: sans-serif; color: #333;">
	<h2>Welcome to Gemstone System, {{.Name}}!</h2>
	<p>Please confirm your email address to activate your account.</p>
	<p><a href="{{.Link}}" style="display:inline-block;padding:10px 20px;background:#1a73e8;color:#fff;text-decoration:none;border-radius:4px;">Verify email</a></p>
	<p>If the button does not work, copy this link into your browser:</p>
	<p>{{.Link}}</p>
	<p>If you did not create an account, you can ignore this email.</p>
</body>
</html>`))

var passwordResetTmpl = template.Must(template.New("password_reset").Parse(`<html>
<body style="font-family: sans-serif; color: #333;">
	<h2>Password reset requested</h2>
	<p>Hi {{.Name}}, someone asked to reset the password for your Gemstone System account.</p>
	<p><a href="{{.Link}}" style="display:inline-block;padding:10px 20px;background:#1a73e8;color:#fff;text-decoration:none;border-radius:4px;">Reset password</a></p>
	<p>The link expires in one hour. If you did not ask for a reset, you can ignore this email and your password will stay unchanged.</p>
</body>
</html>`))

type linkData struct {
	Name string
	Link string
}

// VerificationEmail builds the email carrying the account activation link.
func VerificationEmail(to, name, baseURL, token string) (Message, error) {
	link := fmt.Sprintf("%s/verify-email?token=%s", baseURL, token)

	var body bytes.Buffer
	if err := verificationTmpl.Execute(&body, linkData{Name: name, Link: link}); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	return Message{
		SendTo:   to,
		Subject:  "Verify your Gemstone System account",
		BodyHTML: body.String(),
		Tag:      "email-verification",
	}, nil
}

// PasswordResetEmail builds the email carrying the password reset link.
func PasswordResetEmail(to, name, baseURL, token string) (Message, error) {
	link := fmt.Sprintf("%s/reset-password?token=%s", baseURL, token)

	var body bytes.Buffer
	if err := passwordResetTmpl.Execute(&body, linkData{Name: name, Link: link}); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	return Message{
		SendTo:   to,
		Subject:  "Reset your Gemstone System password",
		BodyHTML: body.String(),
		Tag:      "password-reset",
	}, nil
}
