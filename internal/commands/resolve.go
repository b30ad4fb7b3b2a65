package commands

import (
	"flag"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/rafabd1/vipmanager/internal/member"
)

// ErrNoMatch is returned when no member ID starts with the given prefix.
var ErrNoMatch = errors.New("no member matches")

// ErrAmbiguous is returned when more than one member ID starts with the given prefix.
var ErrAmbiguous = errors.New("id prefix matches more than one member")

// resolve finds the single member whose ID starts with prefix.
func resolve(store MemberStore, prefix string) (member.Member, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return member.Member{}, errors.New("member id is required")
	}
	var found []member.Member
	for _, m := range store.Members() {
		if strings.HasPrefix(m.ID.String(), prefix) {
			found = append(found, m)
		}
	}
	switch len(found) {
	case 0:
		return member.Member{}, errors.Wrapf(ErrNoMatch, "id %q", prefix)
	case 1:
		return found[0], nil
	default:
		return member.Member{}, errors.Wrapf(ErrAmbiguous, "id %q (%d matches)", prefix, len(found))
	}
}

func newFlagSet(name string, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	return fs
}

// parseWithID accepts the member id either before or after the flags.
func parseWithID(fs *flag.FlagSet, args []string) (string, error) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		if err := fs.Parse(args[1:]); err != nil {
			return "", err
		}
		if fs.NArg() > 0 {
			return "", errors.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
		}
		return args[0], nil
	}
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", errors.New("expected exactly one member id")
	}
	return fs.Arg(0), nil
}
