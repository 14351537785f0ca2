package webapp

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Access is the protection level a route declares.
type Access int

const (
	// AccessNone renders for everyone.
	AccessNone Access = iota
	// AccessAuthenticated requires a signed-in identity of any role.
	AccessAuthenticated
	// AccessAdmin requires a signed-in identity with the admin role.
	AccessAdmin
)

// guard returns route middleware enforcing the given access level.
//
// Unauthenticated visitors are sent to the login page; authenticated
// non-admins hitting an admin route land on their dashboard instead. The
// session manager resolves the persisted credential before the server starts,
// so the decision here is never made against an indeterminate session.
func (s *server) guard(access Access) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			switch access {
			case AccessAuthenticated:
				if !s.opts.Manager.IsAuthenticated() {
					return ctx.Redirect(http.StatusSeeOther, "/login")
				}
			case AccessAdmin:
				if !s.opts.Manager.IsAuthenticated() {
					return ctx.Redirect(http.StatusSeeOther, "/login")
				}
				if !s.opts.Manager.IsAdmin() {
					return ctx.Redirect(http.StatusSeeOther, "/dashboard")
				}
			}
			return next(ctx)
		}
	}
}
