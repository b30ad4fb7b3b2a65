package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/language"

	"github.com/rafabd1/vipmanager/internal/member"
)

// ListCmd prints the members as a table.
type ListCmd struct {
	Store       MemberStore
	DefaultSort member.SortKey // empty keeps store order
	Locale      language.Tag   // language.Und compares names byte-wise
}

func (c *ListCmd) Name() string { return "list" }
func (c *ListCmd) Description() string {
	return "Lists members. Usage: list [-sort name|balance|date] [query]"
}

func (c *ListCmd) Execute(ctx context.Context, args []string, output io.Writer) error {
	fs := newFlagSet(c.Name(), output)
	sortFlag := fs.String("sort", string(c.DefaultSort), "order by name, balance or date")
	if err := fs.Parse(args); err != nil {
		return err
	}

	members := member.Filter(c.Store.Members(), strings.Join(fs.Args(), " "))
	if *sortFlag != "" {
		key, err := member.ParseSortKey(*sortFlag)
		if err != nil {
			return err
		}
		if c.Locale == language.Und {
			members = member.Sort(members, key)
		} else {
			members = member.SortLocale(members, key, c.Locale)
		}
	}

	if len(members) == 0 {
		fmt.Fprintln(output, "No members found.")
		return nil
	}
	fmt.Fprintln(output, renderTable(members))
	fmt.Fprintf(output, "%d member(s)\n", len(members))
	return nil
}

func renderTable(members []member.Member) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	balanceStyle := cellStyle.Align(lipgloss.Right)

	rows := make([][]string, 0, len(members))
	for _, m := range members {
		rows = append(rows, []string{
			m.ShortID(),
			m.StoreName,
			m.Location,
			m.PhoneNumber,
			m.FormatBalance(),
			m.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STORE", "LOCATION", "PHONE", "BALANCE", "CREATED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 4:
				return balanceStyle
			default:
				return cellStyle
			}
		})
	return t.Render()
}
