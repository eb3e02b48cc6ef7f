// Package errors provides structured error handling with error codes for the identity hub.
//
// Every user-facing failure in the hub carries a typed ErrorCode. Services
// construct errors with New/Newf/Wrap, handlers map them to HTTP status codes
// with HTTPStatusCode, and tests assert on codes with IsCode.
//
// The authentication codes are deliberately coarse: a failed login is always
// INVALID_CREDENTIALS whether the username exists or not, and a rejected
// company selection is always ACCESS_DENIED whether the company exists or
// not. This prevents account and tenant enumeration through error responses.
package errors
