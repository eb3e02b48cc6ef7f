// Package password covers the credential lifecycle: reset links requested by
// email, reset confirmations, and authenticated changes. Reset tokens are
// stateless HMAC signatures over the user's current password hash, so every
// successful change invalidates the links that preceded it.
package password
