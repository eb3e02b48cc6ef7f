// Package audit records every delegated permission change as an immutable
// entry. Delegation operations never commit without their audit record, and
// users referenced by the history cannot be deleted.
package audit
