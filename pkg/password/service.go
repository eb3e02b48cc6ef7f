package password

import (
	"context"
	"fmt"

	"github.com/corpident/identity-hub/pkg/directory"
	hubErrors "github.com/corpident/identity-hub/pkg/errors"
	"github.com/corpident/identity-hub/pkg/login"
	"github.com/corpident/identity-hub/pkg/notification"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// PasswordService implements the password lifecycle: reset requests, reset
// confirmations, and authenticated changes. Every successful change
// invalidates outstanding reset tokens, since the token signature covers
// the old hash; only the authenticated change clears the must-change flag.
type PasswordService struct {
	repo          directory.DirectoryRepository
	hasher        login.PasswordHasher
	resetTokens   *ResetTokenGenerator
	notifications *notification.NotificationManager
	baseURL       string
}

func NewPasswordService(
	repo directory.DirectoryRepository,
	hasher login.PasswordHasher,
	resetTokens *ResetTokenGenerator,
	notifications *notification.NotificationManager,
	baseURL string,
) *PasswordService {
	return &PasswordService{
		repo:          repo,
		hasher:        hasher,
		resetTokens:   resetTokens,
		notifications: notifications,
		baseURL:       baseURL,
	}
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return hubErrors.Newf(hubErrors.ErrCodeWeakPassword, "password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// RequestReset mails a reset link to the account behind the email address.
// It reports success whether or not the account exists, so the endpoint
// cannot be used to enumerate registered addresses.
func (s *PasswordService) RequestReset(ctx context.Context, email string) error {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		slog.Info("Password reset requested for unknown email")
		return nil
	}

	token := s.resetTokens.MakeToken(user)
	resetLink := fmt.Sprintf("%s/password/reset?uid=%s&token=%s", s.baseURL, EncodeUserRef(user.ID), token)

	err = s.notifications.Send(notification.PasswordResetNotice, notification.EmailSystem, notification.NotificationData{
		To:   user.Email,
		Data: map[string]string{"ResetLink": resetLink},
	})
	if err != nil {
		// The caller always gets the same acknowledgement; a mail outage
		// must not reveal which addresses exist.
		slog.Error("Failed to send password reset email", "userId", user.ID, "err", err)
		return nil
	}

	slog.Info("Password reset email sent", "userId", user.ID)
	return nil
}

// ConfirmReset validates a reset link and sets the new password. The uid
// reference and the token fail with distinct codes so the UI can tell a
// broken link from an expired or consumed token.
func (s *PasswordService) ConfirmReset(ctx context.Context, userRef, token, newPassword string) error {
	userID, err := DecodeUserRef(userRef)
	if err != nil {
		return hubErrors.New(hubErrors.ErrCodeInvalidResetLink, "invalid reset link")
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return hubErrors.New(hubErrors.ErrCodeInvalidResetLink, "invalid reset link")
	}

	if !s.resetTokens.CheckToken(user, token) {
		return hubErrors.New(hubErrors.ErrCodeResetTokenInvalid, "reset token is invalid or expired")
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return hubErrors.Wrap(err, hubErrors.ErrCodeInternal, "failed to hash password")
	}

	// A reset proves mailbox ownership, not a completed first login, so the
	// must-change flag stays as it is.
	if err := s.repo.SetPassword(ctx, user.ID, hash, false); err != nil {
		slog.Error("Failed to set password", "userId", user.ID, "err", err)
		return hubErrors.Wrap(err, hubErrors.ErrCodeInternal, "failed to set password")
	}

	s.notifyPasswordChanged(user.Email)
	slog.Info("Password reset completed", "userId", user.ID)
	return nil
}

// ChangePassword sets a new password for an authenticated user. Identity
// comes from the verified token, so no further credential check happens
// here. This is the operation that completes the mandatory change flow for
// freshly provisioned accounts.
func (s *PasswordService) ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return hubErrors.Wrap(err, hubErrors.ErrCodeNotFound, "user not found")
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return hubErrors.Wrap(err, hubErrors.ErrCodeInternal, "failed to hash password")
	}

	if err := s.repo.SetPassword(ctx, userID, hash, true); err != nil {
		slog.Error("Failed to set password", "userId", userID, "err", err)
		return hubErrors.Wrap(err, hubErrors.ErrCodeInternal, "failed to set password")
	}

	s.notifyPasswordChanged(user.Email)
	slog.Info("Password changed", "userId", userID)
	return nil
}

// notifyPasswordChanged sends the confirmation notice. Delivery failure is
// logged, not surfaced; the password change already happened.
func (s *PasswordService) notifyPasswordChanged(email string) {
	err := s.notifications.Send(notification.PasswordChangedNotice, notification.EmailSystem, notification.NotificationData{
		To: email,
	})
	if err != nil {
		slog.Error("Failed to send password changed email", "err", err)
	}
}
