package commands

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/rafabd1/vipmanager/internal/member"
)

// Command defines the interface for the one-shot CLI commands.
type Command interface {
	Name() string        // Returns the command name (e.g., "list")
	Description() string // Returns a brief description with usage
	// Executes the command, writing output to the provided writer.
	Execute(ctx context.Context, args []string, output io.Writer) error
}

// MemberStore is the part of the member store the commands use.
type MemberStore interface {
	Members() []member.Member
	Get(id uuid.UUID) (member.Member, bool)
	Add(m member.Member)
	Update(m member.Member)
	Delete(m member.Member)
}
