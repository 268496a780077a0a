// Command stepgen simulates liquid-handling protocols: it turns protocol
// steps into robot commands, reporting every validation error a step hits.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

var exitFunc = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	exitFunc(code)
}
