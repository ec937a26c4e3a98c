// Package logger builds *slog.Logger instances with functional options and
// provides attribute helpers so that every component names its fields the
// same way.
//
//	log := logger.New(logger.WithEnvironment(cfg.Env, "noteauth"))
//	log.InfoContext(ctx, "device registered",
//	    logger.Component("device"),
//	    logger.UserID(userID),
//	    logger.DeviceID(deviceID),
//	)
//
// Helpers such as Error and UserID return an empty slog.Attr for zero input,
// which slog ignores, so call sites need no nil checks.
//
// Secrets, one-time codes and key material must never be passed to a logger.
package logger
