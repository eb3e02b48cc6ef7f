// Package permission holds the static permission catalog and the resolver
// that computes a membership's effective permission set.
//
// The catalog is a plain in-process registry of permission codes grouped by
// business module. It is the single source of truth for which codes can be
// granted or delegated; there is no corresponding database table.
package permission
