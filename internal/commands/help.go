package commands

import (
	"context"
	"fmt"
	"io"
)

// HelpCmd implements the help command.
type HelpCmd struct {
	Registry *Registry // Needs access to the registry to list commands
}

func (c *HelpCmd) Name() string        { return "help" }
func (c *HelpCmd) Description() string { return "Shows available commands and descriptions." }
func (c *HelpCmd) Execute(ctx context.Context, args []string, output io.Writer) error {
	fmt.Fprintln(output, "Usage: vipmanager [command] [flags]")
	fmt.Fprintln(output, "Without a command the interactive member list opens.")
	fmt.Fprintln(output)
	for _, cmd := range c.Registry.GetAll() {
		fmt.Fprintf(output, "  %-8s %s\n", cmd.Name(), cmd.Description())
	}
	return nil
}
