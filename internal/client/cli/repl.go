package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs. App satisfies it;
// tests provide a lightweight stub.
type execIface interface {
	Open(ctx context.Context, args []string) error
	Close(ctx context.Context) error
	State(ctx context.Context) error
	HTML(ctx context.Context) error
	Metrics(ctx context.Context) error
}

// runREPL reads commands from in and dispatches them to a until EOF, "exit"
// or "quit". Handler errors are printed and the loop continues. Handlers that
// prompt must read from the same reader.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("gv (%s) > ", statusFn()))
		line, err := in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		err = nil
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn("Available commands: open <id> [type] [name] [download-url], state, html, metrics, close, exit")
		case "o", "open":
			err = a.Open(ctx, args)
		case "close":
			err = a.Close(ctx)
		case "s", "state":
			err = a.State(ctx)
		case "html":
			err = a.HTML(ctx)
		case "metrics":
			err = a.Metrics(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
