package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// DeleteCmd removes one member.
type DeleteCmd struct {
	Store MemberStore
}

func (c *DeleteCmd) Name() string        { return "delete" }
func (c *DeleteCmd) Description() string { return "Deletes a member. Usage: delete <id>" }

func (c *DeleteCmd) Execute(ctx context.Context, args []string, output io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: delete <id>")
	}
	m, err := resolve(c.Store, args[0])
	if err != nil {
		return err
	}
	c.Store.Delete(m)
	fmt.Fprintf(output, "Deleted %s (%s)\n", m.StoreName, m.ShortID())
	return nil
}
