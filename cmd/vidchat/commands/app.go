// ABOUTME: Builds the application for a single command invocation
// ABOUTME: Tests swap newApp for an offline wiring
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/joho/godotenv"

	"github.com/harper/vidchat/internal/app"
	"github.com/harper/vidchat/internal/config"
)

// newApp loads .env and the environment, then wires every component
var newApp = func(ctx context.Context) (*app.App, error) {
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}

func jsonOutput() bool {
	return outputFormat == "json"
}

func printJSON(w io.Writer, v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintf(w, "%s\n", jsonData)
	return nil
}
