// ABOUTME: Entry point for the contactdesk CLI, terminal editor and MCP server
// ABOUTME: Cancels the command context on interrupt and exits with the command's status
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/contactdesk/cli"
)

const version = "0.2.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, version)
	stop()
	os.Exit(code)
}
