// Package logger builds the application's slog.Logger: JSON for production,
// text for development, with static service attributes and optional
// context-driven attribute injection (tenant ID, request ID) on every
// record.
package logger
