package app

import (
	"log/slog"
	"os"

	"github.com/djazairmed/mailer/internal/mailer"
)

func (a *App) initModules() {
	if _, err := mailer.New(mailer.Dependency{
		Ctx:        a.ctx,
		Config:     a.config,
		Instrument: a.ins,
		UUID:       a.uuid,
		Clock:      a.clock,
		Goroutine:  a.goroutine,
		Validator:  a.validator,
		Router:     a.router,
	}); err != nil {
		slog.Error("failed to init module mailer", "error", err)
		os.Exit(1)
	}
}
