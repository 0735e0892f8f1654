// Package middleware carries the gin middleware shared by the HTTP
// surface: caller identity resolution, request ids, and request metrics.
package middleware

import (
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/access"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
)

// Identity headers. Authentication happens upstream; the proxy strips
// these from client traffic and stamps the verified caller onto the
// request before it reaches us.
const (
	HeaderUser        = "X-Helpdesk-User"
	HeaderPermissions = "X-Helpdesk-Permissions"
	HeaderEmail       = "X-Helpdesk-Email"
)

const identityKey = "helpdesk.identity"

// ResolveIdentity builds the caller's identity from the trusted proxy
// headers. X-Helpdesk-User names a staff login by e-mail address and is
// resolved against the user table; X-Helpdesk-Permissions lists the
// caller's queue grants. X-Helpdesk-Email identifies a public submitter.
// Requests without either header proceed anonymously and are turned away
// by whichever endpoints need a caller.
func ResolveIdentity(users repository.IUserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if email := c.GetHeader(HeaderUser); email != "" {
			user, err := users.GetByEmail(email)
			if err != nil {
				log.Printf("identity: resolve %q: %v", email, err)
			}
			if user != nil && user.IsActive && user.IsStaff {
				c.Set(identityKey, access.StaffIdentity(user, splitGrants(c.GetHeader(HeaderPermissions))...))
				c.Next()
				return
			}
			// An unknown or deactivated login keeps only its address.
			c.Set(identityKey, access.PublicIdentity(email))
			c.Next()
			return
		}
		if email := c.GetHeader(HeaderEmail); email != "" {
			c.Set(identityKey, access.PublicIdentity(email))
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity resolved for this request, or nil
// for an anonymous caller.
func CurrentIdentity(c *gin.Context) *access.Identity {
	if value, ok := c.Get(identityKey); ok {
		if id, ok := value.(*access.Identity); ok {
			return id
		}
	}
	return nil
}

func splitGrants(header string) []string {
	if header == "" {
		return nil
	}
	var grants []string
	for _, part := range strings.Split(header, ",") {
		if part = strings.TrimSpace(part); part != "" {
			grants = append(grants, part)
		}
	}
	return grants
}
