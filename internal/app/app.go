package app

import (
	"context"
	"net/http"

	"github.com/djazairmed/mailer/internal/pkg/clock"
	"github.com/djazairmed/mailer/internal/pkg/config"
	"github.com/djazairmed/mailer/internal/pkg/goroutine"
	"github.com/djazairmed/mailer/internal/pkg/instrument"
	"github.com/djazairmed/mailer/internal/pkg/router"
	"github.com/djazairmed/mailer/internal/pkg/uid"
	"github.com/djazairmed/mailer/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uuid      uid.StringID

	// server
	router     *router.Router
	httpServer *http.Server

	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
