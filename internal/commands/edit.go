package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/rafabd1/vipmanager/internal/member"
)

// EditCmd changes the fields given as flags on one member.
type EditCmd struct {
	Store MemberStore
}

func (c *EditCmd) Name() string { return "edit" }
func (c *EditCmd) Description() string {
	return "Edits a member. Usage: edit <id> [-name N] [-location L] [-phone P] [-balance B]"
}

func (c *EditCmd) Execute(ctx context.Context, args []string, output io.Writer) error {
	fs := newFlagSet(c.Name(), output)
	name := fs.String("name", "", "store name")
	location := fs.String("location", "", "store location")
	phone := fs.String("phone", "", "contact phone number")
	balance := fs.String("balance", "", "stored-value balance")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	existing, err := resolve(c.Store, id)
	if err != nil {
		return err
	}

	d := member.DraftFrom(existing)
	changed := 0
	fs.Visit(func(f *flag.Flag) {
		changed++
		switch f.Name {
		case "name":
			d.StoreName = *name
		case "location":
			d.Location = *location
		case "phone":
			d.PhoneNumber = *phone
		case "balance":
			d.Balance = *balance
		}
	})
	if changed == 0 {
		return errors.New("nothing to change; pass at least one of -name, -location, -phone, -balance")
	}

	updated, err := d.Apply(existing)
	if err != nil {
		return errors.Wrap(err, "invalid member")
	}
	c.Store.Update(updated)
	fmt.Fprintf(output, "Updated %s (%s)\n", updated.StoreName, updated.ShortID())
	return nil
}
