package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/google/shlex"

	"github.com/rtcsync/rtcsync/errcode"
)

const prompt = "rtc> "

// runShell reads commands from in until EOF or "exit". A failed command is
// reported and the shell carries on; the bus stays open throughout.
func runShell(ctx context.Context, s *session, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(s.out, prompt)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		args, err := shlex.Split(scanner.Text())
		if err != nil {
			fmt.Fprintln(s.out, "error:", err)
			fmt.Fprint(s.out, prompt)
			continue
		}
		if len(args) == 0 {
			fmt.Fprint(s.out, prompt)
			continue
		}
		switch name := args[0]; name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp(s.out)
		default:
			act, ok := actions[name]
			if !ok {
				fmt.Fprintf(s.out, "unknown command %q, try help\n", name)
				break
			}
			if err := act(ctx, s, args[1:]); err != nil {
				s.log.WithError(err).WithField("code", errcode.Of(err)).Debug("shell command failed")
				fmt.Fprintln(s.out, "error:", err)
			}
		}
		fmt.Fprint(s.out, prompt)
	}
	return scanner.Err()
}

func shellHelp(w io.Writer) {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "commands:")
	for _, name := range names {
		fmt.Fprintln(w, " ", name)
	}
	fmt.Fprintln(w, "  help")
	fmt.Fprintln(w, "  exit")
}
