// Package login implements the two-phase authentication flow. The first
// phase checks credentials and returns a short-lived temp token together
// with the companies the user belongs to; the second exchanges that token
// and a company choice for a company-scoped access token carrying the
// resolved permission set.
package login
