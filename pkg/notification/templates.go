package notification

// Default email templates for the hub's notices. Reset links carry the uid
// and token as query parameters.
var (
	PasswordResetTemplate = NoticeTemplate{
		Subject: "Password reset request",
		Text: `Hello,

We received a request to reset the password for your account.
Open the link below to choose a new password:

{{.ResetLink}}

If you did not request this, you can ignore this message.
`,
		Html: `<p>Hello,</p>
<p>We received a request to reset the password for your account.</p>
<p><a href="{{.ResetLink}}">Reset your password</a></p>
<p>If you did not request this, you can ignore this message.</p>
`,
	}

	PasswordChangedTemplate = NoticeTemplate{
		Subject: "Your password was changed",
		Text: `Hello,

The password for your account was just changed.
If this was not you, contact your administrator immediately.
`,
	}

	AccountProvisionedTemplate = NoticeTemplate{
		Subject: "Your account is ready",
		Text: `Hello {{.Username}},

An account has been created for you. Sign in with the temporary password
you received and you will be asked to choose your own.
`,
	}
)

// RegisterDefaultTemplates wires the hub's standard email templates into a
// manager.
func RegisterDefaultTemplates(nm *NotificationManager) error {
	pairs := []struct {
		notice   NoticeType
		template NoticeTemplate
	}{
		{PasswordResetNotice, PasswordResetTemplate},
		{PasswordChangedNotice, PasswordChangedTemplate},
		{AccountProvisionedNotice, AccountProvisionedTemplate},
	}
	for _, p := range pairs {
		if err := nm.RegisterNotification(p.notice, EmailSystem, p.template); err != nil {
			return err
		}
	}
	return nil
}
