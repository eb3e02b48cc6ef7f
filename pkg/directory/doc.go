// Package directory holds the organizational model of the hub: users and
// their security profiles, companies, areas, roles with optional managerial
// profiles, and the membership records that tie a user to one role per
// company. Exception permissions delegated by managers live on the
// membership, next to the role assignment they modify.
package directory
