// Command stub runs the development backend the Kramik client talks to when
// no real deployment is available. Accounts live in memory, tokens are
// short-lived JWTs and everything resets on restart.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	stubapi "github.com/kramik/kramik/apps/stub/echo"
	"github.com/kramik/kramik/core"
	emailsvc "github.com/kramik/kramik/services/email"
	logsvc "github.com/kramik/kramik/services/logger"
)

func main() {
	logger := newLogger()

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	store, err := newStore()
	errAndDie(err)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()
	go logLogoutEvents(pubSub, logger)

	// start API server
	app := stubapi.NewServer(
		&stubapi.Options{
			Address: core.Conf.StubAPI.Addr,
			Store:   store,
			Events:  stubapi.NewWatermillPublisher(pubSub),
			MailSvc: mailSvc,
			Logger:  logger,
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
	std := log.New(os.Stdout, "STUB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if core.Conf.Debug {
		return logsvc.NewStdLogger(std)
	}
	return logsvc.NewRollbarLogger(std, core.Conf)
}

func newStore() (stubapi.Store, error) {
	if url := core.Conf.StubAPI.RedisURL; url != "" {
		return stubapi.NewRedisStore(url)
	}
	return stubapi.NewMemoryStore(), nil
}

func logLogoutEvents(pubSub *gochannel.GoChannel, logger core.Logger) {
	messages, err := pubSub.Subscribe(context.Background(), stubapi.LogoutTopic)
	if err != nil {
		logger.Error("subscribing to logout events", err)
		return
	}
	for msg := range messages {
		logger.Info(fmt.Sprintf("logout event: %s", msg.Payload))
		msg.Ack()
	}
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
