package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/rafabd1/vipmanager/internal/member"
)

// AddCmd creates a member from flags.
type AddCmd struct {
	Store MemberStore
}

func (c *AddCmd) Name() string { return "add" }
func (c *AddCmd) Description() string {
	return "Adds a member. Usage: add -name N -location L -phone P -balance B"
}

func (c *AddCmd) Execute(ctx context.Context, args []string, output io.Writer) error {
	fs := newFlagSet(c.Name(), output)
	var d member.Draft
	fs.StringVar(&d.StoreName, "name", "", "store name")
	fs.StringVar(&d.Location, "location", "", "store location")
	fs.StringVar(&d.PhoneNumber, "phone", "", "contact phone number")
	fs.StringVar(&d.Balance, "balance", "0", "stored-value balance")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return errors.Errorf("unexpected arguments: %v", fs.Args())
	}

	m, err := d.Build()
	if err != nil {
		return errors.Wrap(err, "invalid member")
	}
	c.Store.Add(m)
	fmt.Fprintf(output, "Added %s (%s)\n", m.StoreName, m.ID)
	return nil
}
