// Package delegation lets managers grant and revoke individual exception
// permissions on the memberships of users in their own company and area.
// Every change is applied together with its audit entry or not at all.
package delegation
