// Command portalctl drives placement portal sessions from a terminal.
//
// Every invocation is one view over shared session storage: a JSON file by
// default, or Redis with --storage redis. Run "portalctl watch" in one
// terminal and "portalctl login" or "portalctl logout" in another to see a
// change made by one view reach the other.
//
//	portalctl --dev-auth login --email admin@portal.local --password admin123
//	portalctl status
//	portalctl guard /dashboard/user-management
//	portalctl logout
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
