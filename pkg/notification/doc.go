// Package notification delivers the hub's outbound notices: password reset
// links, password change confirmations, and account provisioning mail. The
// Notifier interface keeps delivery channels pluggable; email over SMTP is
// the one the hub ships with, and MockNotifier backs the tests.
package notification
