package core

// Email template names.
const (
	MailPasswordReset      = "password_reset"
	MailEnrollmentReceived = "enrollment_received"
	MailEnrollmentApproved = "enrollment_approved"
	MailEnrollmentRejected = "enrollment_rejected"
	MailContactReply       = "contact_reply"
)

type mailTemplateSource struct {
	text string
	html string
}

var mailTemplateSources = map[string]mailTemplateSource{
	MailPasswordReset: {
		text: `Hello {{ .Data.Name }},

You requested a password reset for your {{ .AppName }} account.
Follow this link to choose a new password:

{{ .FrontendBaseURL }}/password-reset/{{ .Data.UID }}/{{ .Data.Token }}

If you did not request this, you can safely ignore this email.
`,
		html: `<p>Hello {{ .Data.Name }},</p>
<p>You requested a password reset for your {{ .AppName }} account.</p>
<p><a href="{{ .FrontendBaseURL }}/password-reset/{{ .Data.UID }}/{{ .Data.Token }}">Choose a new password</a></p>
<p>If you did not request this, you can safely ignore this email.</p>
`,
	},
	MailEnrollmentReceived: {
		text: `Hello {{ .Data.ParentName }},

We received your enrollment request for {{ .Data.ChildName }} in our "{{ .Data.ProgramTitle }}" program.
Our team will review it shortly and you will be notified of the decision.
`,
		html: `<p>Hello {{ .Data.ParentName }},</p>
<p>We received your enrollment request for <strong>{{ .Data.ChildName }}</strong> in our
&ldquo;{{ .Data.ProgramTitle }}&rdquo; program.</p>
<p>Our team will review it shortly and you will be notified of the decision.</p>
`,
	},
	MailEnrollmentApproved: {
		text: `Hello {{ .Data.ParentName }},

Good news! The enrollment of {{ .Data.ChildName }} in "{{ .Data.ProgramTitle }}" has been approved.
We are looking forward to welcoming your child.
`,
		html: `<p>Hello {{ .Data.ParentName }},</p>
<p>Good news! The enrollment of <strong>{{ .Data.ChildName }}</strong> in
&ldquo;{{ .Data.ProgramTitle }}&rdquo; has been approved.</p>
<p>We are looking forward to welcoming your child.</p>
`,
	},
	MailEnrollmentRejected: {
		text: `Hello {{ .Data.ParentName }},

Unfortunately we could not accept the enrollment of {{ .Data.ChildName }} in "{{ .Data.ProgramTitle }}".
{{ if .Data.Notes }}Note from our team: {{ .Data.Notes }}{{ end }}
Feel free to contact us for more information.
`,
		html: `<p>Hello {{ .Data.ParentName }},</p>
<p>Unfortunately we could not accept the enrollment of <strong>{{ .Data.ChildName }}</strong> in
&ldquo;{{ .Data.ProgramTitle }}&rdquo;.</p>
{{ if .Data.Notes }}<p>Note from our team: {{ .Data.Notes }}</p>{{ end }}
<p>Feel free to contact us for more information.</p>
`,
	},
	MailContactReply: {
		text: `Hello {{ .Data.Name }},

You contacted us about "{{ .Data.Subject }}". Here is our reply:

{{ .Data.Response }}
`,
		html: `<p>Hello {{ .Data.Name }},</p>
<p>You contacted us about &ldquo;{{ .Data.Subject }}&rdquo;. Here is our reply:</p>
<blockquote>{{ .Data.Response }}</blockquote>
`,
	},
}
