// Package server holds the HTTP server configuration.
//
// The serve command owns the Fiber application; this package defines the
// settings it reads: listen port, API key, upload body limit and the graceful
// shutdown deadline.
//
// # Usage
//
//	app := fiber.New(fiber.Config{BodyLimit: cfg.Server.BodyLimit()})
//	err := app.Listen(cfg.Server.Address())
package server
