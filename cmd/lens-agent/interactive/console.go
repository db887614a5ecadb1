// Package interactive provides the interactive command-line interface
// for the Lens agent.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/lens-devtools/lens-go/pkg/client"
)

// Console handles interactive mode for lens-agent.
type Console struct {
	agent *client.Client
	rl    *readline.Instance
}

// New creates a console bound to the agent.
func New(agent *client.Client) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "lens> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Console{agent: agent, rl: rl}, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use it for log output to avoid clobbering the input line.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "status":
			c.cmdStatus()

		case "send":
			c.cmdSend(args)

		case "start":
			c.cmdStart()

		case "stop":
			c.agent.Stop()
			fmt.Fprintln(c.rl.Stdout(), "Agent stopped")

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	out := c.rl.Stdout()
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  status       - Show connection status")
	fmt.Fprintln(out, "  send <json>  - Send a fire-and-forget message to the desktop")
	fmt.Fprintln(out, "  start        - Start the agent")
	fmt.Fprintln(out, "  stop         - Stop the agent")
	fmt.Fprintln(out, "  quit         - Exit")
}

func (c *Console) cmdStatus() {
	out := c.rl.Stdout()
	fmt.Fprintf(out, "State:     %s\n", c.agent.State())
	fmt.Fprintf(out, "Connected: %t\n", c.agent.IsConnected())
}

func (c *Console) cmdSend(args []string) {
	out := c.rl.Stdout()
	if len(args) == 0 {
		fmt.Fprintln(out, "Usage: send <json>")
		return
	}

	payload := strings.Join(args, " ")
	if !c.agent.IsConnected() {
		fmt.Fprintln(out, "Not connected; message will be dropped")
	}
	c.agent.SendMessage([]byte(payload))
	fmt.Fprintln(out, "Sent")
}

func (c *Console) cmdStart() {
	out := c.rl.Stdout()
	if err := c.agent.Start(); err != nil {
		fmt.Fprintf(out, "Start failed: %v\n", err)
		return
	}
	fmt.Fprintln(out, "Agent started")
}
