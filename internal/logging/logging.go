// ABOUTME: Structured, leveled logging shared by every component
// ABOUTME: Wraps charmbracelet/log with a per-component prefix
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu   sync.Mutex
	root = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "vidchat",
	})
)

// Setup sets the global level from CLI flags; quiet wins over verbose
func Setup(verbose, quiet bool) {
	mu.Lock()
	defer mu.Unlock()

	switch {
	case quiet:
		root.SetLevel(log.ErrorLevel)
	case verbose:
		root.SetLevel(log.DebugLevel)
	default:
		root.SetLevel(log.InfoLevel)
	}
}

// SetOutput redirects all future loggers (used by tests and the MCP server, which owns stdout)
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	root.SetOutput(w)
}

// For returns a logger tagged with the component name.
// Call it at construction time, after Setup.
func For(component string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	return root.WithPrefix("vidchat/" + component)
}

// Level returns the current root level
func Level() log.Level {
	mu.Lock()
	defer mu.Unlock()
	return root.GetLevel()
}
