package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	Attend(ctx context.Context, path string) error
	History(ctx context.Context, limit string) error
}

// runREPL reads commands from scanner until EOF, "exit" or "quit".
//
//	Not logged in: help, register, login, ping, exit
//	Logged in:     help, attend <image-file>, history [limit], ping, logout, exit
//
// Handlers print their own errors; the loop ignores them.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("ak %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, arg := parts[0], ""
		if len(parts) > 1 {
			arg = parts[1]
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: attend <image-file>, history [limit], ping, logout, exit")
			} else {
				printlnFn("Available commands: register, login, ping, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "ping":
			_ = a.Ping(ctx)

		case "attend":
			if !a.isLoggedIn() {
				printlnFn("Please log in first")
				continue
			}
			_ = a.Attend(ctx, arg)

		case "history":
			if !a.isLoggedIn() {
				printlnFn("Please log in first")
				continue
			}
			_ = a.History(ctx, arg)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
