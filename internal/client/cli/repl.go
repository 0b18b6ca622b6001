package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Exec(ctx context.Context, cmd string, args []string) error
}

// runREPL reads commands line by line and dispatches them to a. The loop
// exits on EOF, on "exit" or "quit", or when ctx is cancelled.
//
// Errors returned by commands are ignored here; Exec has already reported
// them to the user.
func runREPL(ctx context.Context, a execIface, w io.Writer, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		status := ""
		if a.isLoggedIn() {
			status = "(logged in) "
		}
		fmt.Fprintf(w, "tk %s> ", status)
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: me, lists, addlist, tasks [list_id], addtask, done <id>, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: register, login, exit")
			}

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			_ = a.Exec(ctx, cmd, parts[1:])
		}
	}
}
