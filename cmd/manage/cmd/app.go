package cmd

import (
	"github.com/kshaab/Coursework-5/internal/app"
	"github.com/kshaab/Coursework-5/internal/config"
	"github.com/kshaab/Coursework-5/internal/logger"
)

// withApp loads config, builds the app and closes it after fn returns.
func withApp(fn func(a *app.App) error) error {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)
	defer logger.Flush()

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return fn(a)
}
