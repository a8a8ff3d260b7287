package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-booklet-session/internal/config"
	"github.com/jrsteele09/go-booklet-session/internal/logging"
	"github.com/jrsteele09/go-booklet-session/internal/tracing"
	"github.com/rs/zerolog/log"
)

type flags struct {
	identity     string
	password     string
	otp          string
	sendOTP      bool
	logoutOnExit bool
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.identity, "login", os.Getenv("LOGIN_IDENTITY"), "email or phone number to sign in with")
	flag.StringVar(&f.password, "password", os.Getenv("LOGIN_PASSWORD"), "password for -login")
	flag.StringVar(&f.otp, "otp", "", "one time code for -login, used instead of a password")
	flag.BoolVar(&f.sendOTP, "send-otp", false, "ask the auth service to send a login code to -login and exit")
	flag.BoolVar(&f.logoutOnExit, "logout-on-exit", false, "clear the stored credential on shutdown")
	flag.Parse()
	return f
}

func main() {
	_ = godotenv.Load()
	f := parseFlags()
	if err := run(f); err != nil {
		log.Fatal().Err(err).Msg("Error running session client")
	}
	log.Info().Msg("Session client stopped")
}

func run(f flags) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logger := logging.Init(c.GetEnv(), c.GetLogLevel())
	displayAppname(c.GetAppName())

	ctx := context.Background()
	shutdownTracing, err := tracing.Setup(ctx, c.GetAppName(), c.GetTracingEndpoint())
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	a, err := newApp(c, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.manager.Restore(ctx); err != nil {
		logger.Warn().Err(err).Msg("Could not restore stored credential")
	}

	if f.sendOTP {
		return a.sendLoginOTP(ctx, f.identity)
	}
	if err := a.login(ctx, f); err != nil {
		return err
	}

	a.startMetrics(c.GetMetricsAddr())
	waitForStopSignal()
	return a.shutdown(f.logoutOnExit)
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
