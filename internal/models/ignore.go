package models

import (
	"strings"
	"time"
)

// IgnoreEmail suppresses helpdesk handling of mail from an address. The
// address may use a * wildcard on either side of the @.
type IgnoreEmail struct {
	ID            uint      `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Date          time.Time `json:"date" db:"date"`
	EmailAddress  string    `json:"email_address" db:"email_address"`
	KeepInMailbox bool      `json:"keep_in_mailbox" db:"keep_in_mailbox"`
}

// Matches reports whether the given address is covered by this entry.
// Supported patterns: user@domain, *@domain, user@*, *@*.
func (ig *IgnoreEmail) Matches(email string) bool {
	pattern := strings.ToLower(strings.TrimSpace(ig.EmailAddress))
	addr := strings.ToLower(strings.TrimSpace(email))
	if pattern == "" || addr == "" {
		return false
	}
	pUser, pDomain, ok := splitAddress(pattern)
	if !ok {
		return pattern == addr
	}
	aUser, aDomain, ok := splitAddress(addr)
	if !ok {
		return false
	}
	userMatch := pUser == "*" || pUser == aUser
	domainMatch := pDomain == "*" || pDomain == aDomain
	return userMatch && domainMatch
}

func splitAddress(addr string) (user, domain string, ok bool) {
	i := strings.LastIndex(addr, "@")
	if i <= 0 || i == len(addr)-1 {
		return "", "", false
	}
	return addr[:i], addr[i+1:], true
}
