package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/config"
)

// ANSI
const (
	Reset    = "\033[0m"
	Bold     = "\033[1m"
	Dim      = "\033[2m"
	White    = "\033[97m"
	Black    = "\033[30m"
	Green    = "\033[32m"
	Yellow   = "\033[33m"
	Red      = "\033[31m"
	Cyan     = "\033[36m"
	BgCyan   = "\033[46m"
	BgDkGray = "\033[100m"
)

// cli holds what the commands need. Output goes to out so commands can be
// exercised without a terminal.
type cli struct {
	cfg    *config.Config
	apiURL string
	out    io.Writer
}

func main() {
	cfg := config.Load()
	c := &cli{
		cfg:    cfg,
		apiURL: strings.TrimRight(envOr("API_URL", "http://localhost:"+cfg.APIPort), "/"),
		out:    os.Stdout,
	}

	// one-shot: cli publish part.created '{"id":1}'
	if len(os.Args) > 1 {
		if ok := c.dispatch(context.Background(), os.Args[1:]); !ok {
			os.Exit(1)
		}
		return
	}

	printBanner(c.out)
	c.shellLoop(os.Stdin)
}

func (c *cli) shellLoop(in io.Reader) {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprintf(c.out, "%s%s parts-cli %s %s>%s ", BgDkGray, White, Reset, Cyan, Reset)

		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if input == "exit" || input == "quit" || input == "q" {
			fmt.Fprintf(c.out, "\n%s%s  Bye %s\n\n", BgCyan, Black, Reset)
			return
		}

		c.dispatch(context.Background(), splitArgs(input))
		fmt.Fprintln(c.out)
	}
}

// dispatch runs one command and reports whether it succeeded.
func (c *cli) dispatch(ctx context.Context, args []string) bool {
	if len(args) == 0 {
		return true
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "help", "?":
		printHelp(c.out)
		return true

	case "health", "h":
		return c.printHealthChecks(ctx)

	case "users", "list-users":
		return c.listUsers(ctx)

	case "get-user":
		if len(rest) != 1 {
			return c.usage("get-user <id>")
		}
		return c.getUser(ctx, rest[0])

	case "create-user":
		if len(rest) != 3 {
			return c.usage("create-user <id> <name> <email>")
		}
		return c.createUser(ctx, rest[0], rest[1], rest[2])

	case "delete-user":
		if len(rest) != 1 {
			return c.usage("delete-user <id>")
		}
		return c.deleteUser(ctx, rest[0])

	case "user-part":
		if len(rest) != 2 {
			return c.usage("user-part <user-id> <part-id>")
		}
		return c.userPart(ctx, rest[0], rest[1])

	case "publish", "pub":
		if len(rest) < 1 || len(rest) > 2 {
			return c.usage("publish <routing-key> [json]")
		}
		body := "{}"
		if len(rest) == 2 {
			body = rest[1]
		}
		return c.publish(ctx, rest[0], body)

	case "match":
		if len(rest) != 2 {
			return c.usage("match <pattern> <routing-key>")
		}
		return c.match(rest[0], rest[1])

	case "queues", "rabbit":
		return c.printRabbitQueues()

	default:
		fmt.Fprintf(c.out, "  %sunknown command %q, try help%s\n", Red, cmd, Reset)
		return false
	}
}

func (c *cli) usage(u string) bool {
	fmt.Fprintf(c.out, "  %sUsage: %s%s\n", Red, u, Reset)
	return false
}

// splitArgs splits on whitespace but keeps a single-quoted section together
// so JSON bodies can be typed in the shell.
func splitArgs(input string) []string {
	var args []string
	for {
		input = strings.TrimLeft(input, " \t")
		if input == "" {
			return args
		}
		if input[0] == '\'' {
			end := strings.IndexByte(input[1:], '\'')
			if end < 0 {
				return append(args, input[1:])
			}
			args = append(args, input[1:end+1])
			input = input[end+2:]
			continue
		}
		end := strings.IndexAny(input, " \t")
		if end < 0 {
			return append(args, input)
		}
		args = append(args, input[:end])
		input = input[end:]
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printBanner(w io.Writer) {
	fmt.Fprintf(w, "\n%s%s  Car Parts CLI  %s\n", BgCyan, Black, Reset)
	fmt.Fprintf(w, "  %stype help for commands%s\n\n", Dim, Reset)
}

func printHelp(w io.Writer) {
	sections := []struct {
		title string
		cmds  [][2]string
	}{
		{"Users API", [][2]string{
			{"users", "list all users"},
			{"get-user <id>", "show one user"},
			{"create-user <id> <name> <email>", "create a user"},
			{"delete-user <id>", "delete a user"},
			{"user-part <user-id> <part-id>", "fetch a part on behalf of a user"},
		}},
		{"Events", [][2]string{
			{"publish <routing-key> [json]", "publish to events_topic"},
			{"match <pattern> <routing-key>", "test a topic binding pattern"},
			{"queues", "list RabbitMQ queues"},
		}},
		{"Other", [][2]string{
			{"health", "check the API and broker"},
			{"exit", "leave the shell"},
		}},
	}

	for _, s := range sections {
		fmt.Fprintf(w, "  %s%s%s%s\n", Bold, White, s.title, Reset)
		for _, cmd := range s.cmds {
			fmt.Fprintf(w, "    %s%-34s%s %s\n", Cyan, cmd[0], Reset, cmd[1])
		}
	}
}
