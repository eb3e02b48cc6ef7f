package notification

// NotificationSystem represents a delivery channel (e.g. email).
type NotificationSystem string

// NoticeType identifies a kind of notice the hub sends.
type NoticeType string

const (
	EmailSystem NotificationSystem = "email"

	PasswordResetNotice      NoticeType = "password_reset"
	PasswordChangedNotice    NoticeType = "password_changed"
	AccountProvisionedNotice NoticeType = "account_provisioned"
)

// NotificationData carries the recipient and per-send template values.
type NotificationData struct {
	To      string            // Recipient address
	Subject string            // Optional subject override
	Data    map[string]string // Template values (reset link, username, ...)
}

// NoticeTemplate holds the subject and body templates for a notice. Text and
// Html are Go text/html templates executed against NotificationData.Data.
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

// Notifier sends a rendered notice over one delivery channel.
type Notifier interface {
	Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error
}
