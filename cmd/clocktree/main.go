// Command clocktree draws and explores SoC clock distribution trees.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/matzehuels/clocktree/internal/cli"
)

func main() {
	os.Exit(run())
}

// run executes the command line and returns the exit status. Errors are
// printed once, here; an interrupt exits quietly with 130.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.New(os.Stderr, cli.LogInfo).RootCommand()
	err := root.ExecuteContext(ctx)
	code := cli.ExitCode(err)
	if code != cli.ExitOK && code != cli.ExitInterrupted {
		fmt.Fprintf(os.Stderr, "%s: %v\n", root.Name(), err)
	}
	return code
}
