package templates

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"villa-portal-service/internal/domain/entity"
)

// GuestEmailData is the template context shared by all guest emails
type GuestEmailData struct {
	PropertyName string
	GuestName    string
	Link         string
	ExpiresAt    string
	Stays        []StayLine
}

// StayLine is one reservation rendered in an email
type StayLine struct {
	CheckIn  string
	CheckOut string
}

type guestTemplate struct {
	subject string
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

var (
	inviteTemplate = guestTemplate{
		subject: "You're invited to register your stay at %s",
		text: texttemplate.Must(texttemplate.New("invite").Parse(
			`Hi {{.GuestName}},

Your stay at {{.PropertyName}} has been pre-registered:
{{range .Stays}}- {{.CheckIn}} to {{.CheckOut}}
{{end}}
Complete your registration here: {{.Link}}
This invitation expires on {{.ExpiresAt}}.
`)),
		html: htmltemplate.Must(htmltemplate.New("invite").Parse(
			`<p>Hi {{.GuestName}},</p>
<p>Your stay at <b>{{.PropertyName}}</b> has been pre-registered:</p>
<ul>{{range .Stays}}<li>{{.CheckIn}} to {{.CheckOut}}</li>{{end}}</ul>
<p><a href="{{.Link}}">Complete your registration</a></p>
<p>This invitation expires on {{.ExpiresAt}}.</p>`)),
	}

	verificationTemplate = guestTemplate{
		subject: "Verify your email for %s",
		text: texttemplate.Must(texttemplate.New("verify").Parse(
			`Hi {{.GuestName}},

Please confirm your email address: {{.Link}}
The link expires on {{.ExpiresAt}}.
`)),
		html: htmltemplate.Must(htmltemplate.New("verify").Parse(
			`<p>Hi {{.GuestName}},</p>
<p><a href="{{.Link}}">Confirm your email address</a></p>
<p>The link expires on {{.ExpiresAt}}.</p>`)),
	}

	confirmationTemplate = guestTemplate{
		subject: "Your reservation at %s is confirmed",
		text: texttemplate.Must(texttemplate.New("confirm").Parse(
			`Hi {{.GuestName}},

Your email is verified and your reservation is confirmed:
{{range .Stays}}- {{.CheckIn}} to {{.CheckOut}}
{{end}}
We look forward to welcoming you.
`)),
		html: htmltemplate.Must(htmltemplate.New("confirm").Parse(
			`<p>Hi {{.GuestName}},</p>
<p>Your email is verified and your reservation is confirmed:</p>
<ul>{{range .Stays}}<li>{{.CheckIn}} to {{.CheckOut}}</li>{{end}}</ul>
<p>We look forward to welcoming you.</p>`)),
	}
)

// InviteEmail renders the pre-registration invitation
func InviteEmail(to string, data GuestEmailData) (*entity.OutboundEmail, error) {
	return inviteTemplate.render(to, data)
}

// VerificationEmail renders the email-verification message
func VerificationEmail(to string, data GuestEmailData) (*entity.OutboundEmail, error) {
	return verificationTemplate.render(to, data)
}

// ConfirmationEmail renders the reservation confirmation sent after verification
func ConfirmationEmail(to string, data GuestEmailData) (*entity.OutboundEmail, error) {
	return confirmationTemplate.render(to, data)
}

func (t guestTemplate) render(to string, data GuestEmailData) (*entity.OutboundEmail, error) {
	var text, html bytes.Buffer
	if err := t.text.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("failed to render text body: %w", err)
	}
	if err := t.html.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render html body: %w", err)
	}

	return &entity.OutboundEmail{
		To:      to,
		ToName:  data.GuestName,
		Subject: fmt.Sprintf(t.subject, data.PropertyName),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
