// Command taskmirror runs the background-task sync engine: it mirrors the
// remote job service's task list into an in-memory registry, polls for
// changes, and exposes the registry plus its controls over a local HTTP
// API for a presentation layer.
package main

import (
	"context"
	"log"
	"os"
)

func main() {
	app, err := newApplication()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if app.config.Poll.Enabled {
		// Prime the registry before the first tick so clients see a
		// snapshot immediately.
		app.monitor.LoadTasks(context.Background(), nil)
		app.monitor.StartPolling(app.config.Poll.Interval)
	}

	if err := app.startHTTPServer(context.Background(), app.setupRouter()); err != nil {
		app.logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
