package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRoutesToRegisteredNotifier(t *testing.T) {
	nm := NewNotificationManager()
	mock := &MockNotifier{}
	nm.RegisterNotifier(EmailSystem, mock)
	require.NoError(t, RegisterDefaultTemplates(nm))

	err := nm.Send(PasswordResetNotice, EmailSystem, NotificationData{
		To:   "user@example.com",
		Data: map[string]string{"ResetLink": "https://hub.example.com/password/reset?uid=abc&token=xyz"},
	})
	require.NoError(t, err)
	require.Len(t, mock.SentNotifications, 1)
	assert.Equal(t, "user@example.com", mock.SentNotifications[0].To)
}

func TestManagerMissingRegistrations(t *testing.T) {
	nm := NewNotificationManager()

	err := nm.Send(PasswordResetNotice, EmailSystem, NotificationData{To: "user@example.com"})
	assert.Error(t, err)

	require.NoError(t, nm.RegisterNotification(PasswordResetNotice, EmailSystem, PasswordResetTemplate))

	// template registered but no notifier
	err = nm.Send(PasswordResetNotice, EmailSystem, NotificationData{To: "user@example.com"})
	assert.Error(t, err)
}

func TestRegisterNotificationValidation(t *testing.T) {
	nm := NewNotificationManager()

	assert.Error(t, nm.RegisterNotification("", EmailSystem, PasswordResetTemplate))
	assert.Error(t, nm.RegisterNotification(PasswordResetNotice, "", PasswordResetTemplate))
	assert.Error(t, nm.RegisterNotification(PasswordResetNotice, EmailSystem, NoticeTemplate{}))
}
