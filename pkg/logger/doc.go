// Package logger builds the application's slog.Logger from environment
// configuration. Production runs JSON output for log aggregation; local
// development uses the text handler.
//
//	var cfg logger.Config
//	log := logger.New(cfg, logger.WithAttr(slog.String("app", "billing")))
//	slog.SetDefault(log)
package logger
