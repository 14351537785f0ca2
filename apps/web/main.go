// Command web runs the Kramik client: a local web app owning one user session
// against the Kramik backend.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	webapp "github.com/kramik/kramik/apps/web/echo"
	"github.com/kramik/kramik/core"
	"github.com/kramik/kramik/core/session"
	backendsvc "github.com/kramik/kramik/services/backend"
	logsvc "github.com/kramik/kramik/services/logger"
	walletsvc "github.com/kramik/kramik/services/wallet"
	"github.com/kramik/kramik/storage/credential"
)

func main() {
	logger := newLogger()

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	// set up the session stack
	store := session.NewStore(credential.NewFileStorage(core.Conf.CredentialFile))
	backend := backendsvc.NewClient(core.Conf.APIBaseURL, store, store.Clear)
	manager := session.NewManager(store, backend, validate, logger)

	wallet, err := walletsvc.NewLocalSigner(core.Conf.WalletKeyHex, core.Conf.WalletChainID)
	errAndDie(err)

	// resolve any persisted credential before a single route renders
	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 15*time.Second)
	manager.Restore(restoreCtx)
	cancelRestore()

	app := webapp.NewServer(
		&webapp.Options{
			Address:    core.Conf.Web.Addr,
			Manager:    manager,
			Wallet:     wallet,
			Logger:     logger,
			Translator: translator,
		},
	)
	go app.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func newLogger() core.Logger {
	std := log.New(os.Stdout, "WEB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if core.Conf.Debug {
		return logsvc.NewStdLogger(std)
	}
	return logsvc.NewRollbarLogger(std, core.Conf)
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
