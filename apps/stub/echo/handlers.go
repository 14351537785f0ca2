package stubapi

import (
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kramik/kramik/core"
	"github.com/kramik/kramik/core/session"
	walletsvc "github.com/kramik/kramik/services/wallet"
)

const claimsContextKey = "stub.claims"

// requireAuth guards a route behind a valid, non-revoked Bearer token.
func (s *server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		header := ctx.Request().Header.Get(echo.HeaderAuthorization)
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			return errInvalidToken
		}

		claims, err := ParseToken(token)
		if err != nil {
			return errInvalidToken
		}

		revoked, err := s.opts.Store.IsTokenInvalidated(ctx.Request().Context(), claims.ID)
		if err != nil {
			return err
		}
		if revoked {
			return errTokenRevoked
		}

		ctx.Set(claimsContextKey, claims)
		return next(ctx)
	}
}

func getContextClaims(ctx echo.Context) (*Claims, error) {
	if claims, ok := ctx.Get(claimsContextKey).(*Claims); ok {
		return claims, nil
	}
	return nil, errInvalidToken
}

// simulateLatency mimics a remote backend's response times in demos.
func simulateLatency() {
	if d := core.Conf.StubAPI.SimulatedLatency; d > 0 {
		time.Sleep(d)
	}
}

func (s *server) login(ctx echo.Context) error {
	var creds session.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return err
	}
	if err := creds.Validate(s.validate); err != nil {
		return err
	}
	simulateLatency()

	var identity session.Identity
	if acct, ok := s.accounts.get(creds.Email); ok {
		if err := acct.checkPassword(creds.Password); err != nil {
			return errAuthenticationFailed
		}
		identity = acct.identity
	} else {
		// unknown emails are provisioned on the fly as demo identities
		identity = session.Identity{
			ID:    uuid.New().String(),
			Name:  "John Doe",
			Email: creds.Email,
		}
	}
	// the portal tab decides which role the demo session gets
	identity.Role = creds.UserType

	return s.respondWithToken(ctx, http.StatusOK, identity)
}

func (s *server) register(ctx echo.Context) error {
	var na session.NewAccount
	if err := ctx.Bind(&na); err != nil {
		return err
	}
	if err := na.Validate(s.validate); err != nil {
		return err
	}
	simulateLatency()

	acct := &account{
		identity: session.Identity{
			ID:    uuid.New().String(),
			Name:  na.Name,
			Email: na.Email,
			Role:  session.RoleStudent,
		},
	}
	if err := acct.setPassword(na.Password); err != nil {
		return err
	}
	if err := s.accounts.add(acct); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
	}

	s.sendWelcomeEmail(acct.identity)

	return s.respondWithToken(ctx, http.StatusCreated, acct.identity)
}

func (s *server) blockchainLogin(ctx echo.Context) error {
	var req session.WalletLoginRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := req.Validate(s.validate); err != nil {
		return err
	}
	simulateLatency()

	if err := walletsvc.VerifyPersonalSignature(req.WalletAddress, req.Message, req.Signature); err != nil {
		return errAuthenticationFailed
	}

	identity := session.Identity{
		ID:            req.WalletAddress,
		Name:          "Blockchain User",
		Role:          req.UserType,
		WalletAddress: req.WalletAddress,
	}
	return s.respondWithToken(ctx, http.StatusOK, identity)
}

func (s *server) verify(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	identity := claims.identity()
	// profile updates since the token was minted win over its claims
	if acct, ok := s.accounts.getByID(identity.ID); ok {
		identity = acct.identity
	}
	return ctx.JSON(http.StatusOK, echo.Map{"user": identity})
}

func (s *server) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
		if err := s.opts.Store.InvalidateToken(ctx.Request().Context(), claims.ID, remaining); err != nil {
			return err
		}
	}
	if err := s.opts.Events.PublishLogout(ctx.Request().Context(), claims.Subject, claims.ID); err != nil {
		s.opts.Logger.Warn("publishing logout event", err)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (s *server) updateProfile(ctx echo.Context) error {
	var patch session.ProfilePatch
	if err := ctx.Bind(&patch); err != nil {
		return err
	}
	if err := patch.Validate(s.validate); err != nil {
		return err
	}
	simulateLatency()

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	identity := claims.identity()
	if acct, ok := s.accounts.getByID(identity.ID); ok {
		identity = acct.identity
	}
	if patch.Name != "" {
		identity.Name = patch.Name
	}
	if patch.Email != "" && patch.Email != identity.Email {
		if other, exists := s.accounts.get(patch.Email); exists && other.identity.ID != identity.ID {
			return core.NewValidationError(errEmailExists, core.FieldError{Field: "email", Error: errEmailExists.Error()})
		}
		identity.Email = patch.Email
	}
	s.accounts.update(identity)

	return ctx.JSON(http.StatusOK, echo.Map{"user": identity})
}

func (s *server) respondWithToken(ctx echo.Context, code int, identity session.Identity) error {
	token, err := NewAccessToken(identity)
	if err != nil {
		return err
	}
	return ctx.JSON(code, echo.Map{"user": identity, "token": token})
}

func (s *server) sendWelcomeEmail(identity session.Identity) {
	s.opts.MailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: identity.Name, Address: identity.Email}},
		Subject: "Welcome to " + core.Conf.AppName,
		BodyStr: "Hi " + identity.Name + ",\n\nYour " + core.Conf.AppName +
			" student account is ready. Log in with your email and password to get started.\n",
	})
}
