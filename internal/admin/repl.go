package admin

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
	Register(ctx context.Context) error
	Ping(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	View(ctx context.Context, args []string) error
}

// runREPL reads commands until EOF, "exit" or "quit".
//
//	help                   show available commands
//	register               create an account (prompts for email and password)
//	ping                   run a backend health check
//	list [email]           list public photos, or all photos of email
//	search <query> [email] filter public photos, or the photos of email
//	view <photo_id>        show a photo with its tags and EXIF
//	exit | quit            leave the program
//
// Handler errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, prompt string, scanner *bufio.Scanner) {
	for {
		printlnFn(prompt + "> ")
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn("Available commands: register, ping, (l)ist [email], search <query> [email], view <id>, exit")
		case "register":
			err = a.Register(ctx)
		case "ping":
			err = a.Ping(ctx)
		case "l", "list":
			err = a.List(ctx, args)
		case "search":
			err = a.Search(ctx, args)
		case "view":
			err = a.View(ctx, args)
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
