// Package session models the authenticated principal and how its role is decided.
package session

import "strings"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Principal is the identity carried by a session or bearer token.
type Principal struct {
	Subject string
	Email   string
	Name    string
	Picture string
	Role    Role
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// AdminList is the email allow-list consulted once, when a principal logs in.
type AdminList struct {
	emails map[string]struct{}
}

// NewAdminList builds the allow-list. An entry may itself be a comma
// separated list, as it arrives from an environment variable.
func NewAdminList(emails ...string) AdminList {
	l := AdminList{emails: make(map[string]struct{}, len(emails))}
	for _, entry := range emails {
		for _, e := range strings.Split(entry, ",") {
			if e = normalize(e); e != "" {
				l.emails[e] = struct{}{}
			}
		}
	}
	return l
}

func (l AdminList) Contains(email string) bool {
	_, ok := l.emails[normalize(email)]
	return ok
}

// RoleFor returns admin for listed emails and user for everyone else.
func (l AdminList) RoleFor(email string) Role {
	if l.Contains(email) {
		return RoleAdmin
	}
	return RoleUser
}

func (l AdminList) Len() int { return len(l.emails) }

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
