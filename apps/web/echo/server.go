package webapp

import (
	"context"
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/kramik/kramik/core"
	"github.com/kramik/kramik/core/session"
	"github.com/kramik/kramik/core/wallet"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		Manager        *session.Manager
		Wallet         wallet.Capability
		Logger         core.Logger
		// Translator must be the one registered (via core.InitValidators)
		// with the validator the Manager validates with; field errors are
		// translated against it.
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
		done chan struct{}
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
		done: make(chan struct{}),
	}
	s.setup()
	go s.watchWallet()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newHTTPErrorHandler(s.opts.Logger, s.opts.Translator)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", s.home, s.guard(AccessNone))
	s.app.GET("/login", s.loginPage, s.guard(AccessNone))
	s.app.POST("/login", s.login, s.guard(AccessNone))
	s.app.POST("/register", s.register, s.guard(AccessNone))
	s.app.POST("/wallet-login", s.walletLogin, s.guard(AccessNone))
	s.app.POST("/logout", s.logout, s.guard(AccessNone))

	s.app.GET("/dashboard", s.dashboard, s.guard(AccessAuthenticated))
	s.app.GET("/profile", s.profile, s.guard(AccessAuthenticated))
	s.app.PUT("/profile", s.updateProfile, s.guard(AccessAuthenticated))

	s.app.GET("/admin", s.admin, s.guard(AccessAdmin))
}

// watchWallet reacts to wallet-side events for the lifetime of the server.
// Switching accounts orphans any wallet-established session, so it is cleared;
// switching chains is only logged.
func (s *server) watchWallet() {
	for {
		select {
		case address, ok := <-s.opts.Wallet.AccountChanges():
			if !ok {
				return
			}
			if identity, authenticated := s.opts.Manager.Identity(); authenticated && identity.WalletAddress != "" && identity.WalletAddress != address {
				s.opts.Logger.Info(fmt.Sprintf("wallet account changed to %s, clearing session", address))
				s.opts.Manager.Invalidate()
			}
		case chainID, ok := <-s.opts.Wallet.ChainChanges():
			if !ok {
				return
			}
			s.opts.Logger.Info(fmt.Sprintf("wallet chain changed to %s", chainID))
		case <-s.done:
			return
		}
	}
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	close(s.done)
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
