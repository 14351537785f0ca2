package webapp

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kramik/kramik/core"
	"github.com/kramik/kramik/core/session"
)

func (s *server) home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"app":           core.Conf.AppName,
		"build":         core.Conf.Build,
		"authenticated": s.opts.Manager.IsAuthenticated(),
	})
}

func (s *server) loginPage(ctx echo.Context) error {
	// signed-in visitors have no business on the login page
	if identity, ok := s.opts.Manager.Identity(); ok {
		return s.redirectForRole(ctx, identity)
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"tabs":        []session.Role{session.RoleStudent, session.RoleAdmin},
		"walletLogin": true,
	})
}

func (s *server) login(ctx echo.Context) error {
	var creds session.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return err
	}

	identity, err := s.opts.Manager.Login(ctx.Request().Context(), creds)
	if err != nil {
		return err
	}
	return s.redirectForRole(ctx, identity)
}

func (s *server) register(ctx echo.Context) error {
	var acc session.NewAccount
	if err := ctx.Bind(&acc); err != nil {
		return err
	}

	identity, err := s.opts.Manager.Register(ctx.Request().Context(), acc)
	if err != nil {
		return err
	}
	return s.redirectForRole(ctx, identity)
}

// walletLogin drives the whole wallet handshake: connect, sign a fresh
// challenge, exchange it for a session.
func (s *server) walletLogin(ctx echo.Context) error {
	var body struct {
		UserType session.Role `json:"userType"`
	}
	if err := ctx.Bind(&body); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	address, err := s.opts.Wallet.Connect(reqCtx)
	if err != nil {
		return err
	}

	message := walletChallenge(address, time.Now().UTC())
	signature, err := s.opts.Wallet.SignMessage(reqCtx, message)
	if err != nil {
		return err
	}

	identity, err := s.opts.Manager.WalletLogin(reqCtx, session.WalletLoginRequest{
		WalletAddress: address,
		Signature:     signature,
		Message:       message,
		UserType:      body.UserType,
	})
	if err != nil {
		return err
	}
	return s.redirectForRole(ctx, identity)
}

func (s *server) logout(ctx echo.Context) error {
	s.opts.Manager.Logout(ctx.Request().Context())
	return ctx.Redirect(http.StatusSeeOther, "/login")
}

func (s *server) dashboard(ctx echo.Context) error {
	identity, _ := s.opts.Manager.Identity()
	return ctx.JSON(http.StatusOK, echo.Map{
		"user": identity,
		"courses": []echo.Map{
			{"id": 1, "title": "Introduction to Blockchain", "progress": 42},
			{"id": 2, "title": "Smart Contract Basics", "progress": 10},
		},
	})
}

func (s *server) profile(ctx echo.Context) error {
	identity, _ := s.opts.Manager.Identity()
	return ctx.JSON(http.StatusOK, echo.Map{"user": identity})
}

func (s *server) updateProfile(ctx echo.Context) error {
	var patch session.ProfilePatch
	if err := ctx.Bind(&patch); err != nil {
		return err
	}

	identity, err := s.opts.Manager.UpdateProfile(ctx.Request().Context(), patch)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"user": identity})
}

func (s *server) admin(ctx echo.Context) error {
	identity, _ := s.opts.Manager.Identity()
	return ctx.JSON(http.StatusOK, echo.Map{
		"user": identity,
		"stats": echo.Map{
			"students": 128,
			"courses":  12,
		},
	})
}

func (s *server) redirectForRole(ctx echo.Context, identity session.Identity) error {
	if identity.IsAdmin() {
		return ctx.Redirect(http.StatusSeeOther, "/admin")
	}
	return ctx.Redirect(http.StatusSeeOther, "/dashboard")
}

// walletChallenge builds the message the wallet signs. The backend verifies
// the signature against this exact string, so it travels with the request.
func walletChallenge(address string, at time.Time) string {
	return fmt.Sprintf("Kramik Authentication\nAddress: %s\nTime: %s", address, at.Format(time.RFC3339))
}
