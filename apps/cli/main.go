// Command cli manages a Kramik session from the terminal: sign in, inspect
// the current identity, sign out. It shares the stored credential with the
// web app.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/kramik/kramik/core"
	"github.com/kramik/kramik/core/session"
	backendsvc "github.com/kramik/kramik/services/backend"
	logsvc "github.com/kramik/kramik/services/logger"
	"github.com/kramik/kramik/storage/credential"
)

var logger core.Logger

func main() {
	defer os.Exit(0)

	logger = logsvc.NewStdLogger(log.New(os.Stdout, "CLI : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile))

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	store := session.NewStore(credential.NewFileStorage(core.Conf.CredentialFile))
	backend := backendsvc.NewClient(core.Conf.APIBaseURL, store, store.Clear)
	manager := session.NewManager(store, backend, validate, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	manager.Restore(ctx)
	cancel()

	// start CLI
	cli := commandLine{manager: manager}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(err.Error(), err)
		}
		os.Exit(1)
	}
}
