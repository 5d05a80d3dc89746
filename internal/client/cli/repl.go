package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	SignUp(ctx context.Context) error
	Verify(ctx context.Context) error
	SignIn(ctx context.Context) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) error
	Faculty(ctx context.Context, args []string) error
	Top(ctx context.Context) error
	Review(ctx context.Context, args []string) error
	Avatar(ctx context.Context, args []string) error
}

const (
	helpSignedOut = "Available commands: signup, verify, signin, top, help, exit"
	helpSignedIn  = "Available commands: faculty [-d dept] [name], top, review add|edit|delete, avatar <file>, me, logout, help, exit"
)

// dispatch runs one command. quit reports an exit request; known is false
// for an unrecognised command. Handler errors are reported by the handlers.
func dispatch(ctx context.Context, a execIface, cmd string, args []string) (quit, known bool) {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn(helpSignedIn)
		} else {
			printlnFn(helpSignedOut)
		}
	case "signup":
		_ = a.SignUp(ctx)
	case "verify":
		_ = a.Verify(ctx)
	case "signin", "login":
		_ = a.SignIn(ctx)
	case "logout":
		_ = a.Logout(ctx)
	case "me":
		_ = a.Me(ctx)
	case "faculty", "f":
		_ = a.Faculty(ctx, args)
	case "top":
		_ = a.Top(ctx)
	case "review":
		_ = a.Review(ctx, args)
	case "avatar":
		_ = a.Avatar(ctx, args)
	case "exit", "quit":
		printlnFn("Bye!")
		return true, true
	default:
		printlnFn("Unknown command:", cmd)
		return false, false
	}
	return false, true
}

// runREPL reads commands from reader until EOF or exit. Commands prompt on
// the same reader, so it must not be wrapped in a second buffer.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("fr%s> ", prefixSpace(statusFn())))
		line, err := reader.ReadString('\n')
		if parts := strings.Fields(line); len(parts) > 0 {
			if quit, _ := dispatch(ctx, a, parts[0], parts[1:]); quit {
				return
			}
		}
		if err != nil || ctx.Err() != nil {
			return
		}
	}
}

func prefixSpace(s string) string {
	if s == "" {
		return ""
	}
	return " " + s
}
