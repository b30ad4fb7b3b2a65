package member

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the ordering used by Sort.
type SortKey string

const (
	SortByName    SortKey = "name"    // StoreName ascending
	SortByBalance SortKey = "balance" // Balance descending
	SortByDate    SortKey = "date"    // CreatedAt descending, newest first
)

// ParseSortKey maps a user supplied key to a SortKey.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortByName:
		return SortByName, nil
	case SortByBalance:
		return SortByBalance, nil
	case SortByDate:
		return SortByDate, nil
	default:
		return "", fmt.Errorf("unknown sort key %q (want name, balance or date)", s)
	}
}

// Sort returns a new slice ordered by key. The input slice is left untouched.
func Sort(members []Member, key SortKey) []Member {
	return sortWith(members, key, strings.Compare)
}

// SortLocale is Sort with store names compared in the collation order of tag.
func SortLocale(members []Member, key SortKey, tag language.Tag) []Member {
	c := collate.New(tag)
	return sortWith(members, key, c.CompareString)
}

func sortWith(members []Member, key SortKey, compareNames func(a, b string) int) []Member {
	out := slices.Clone(members)
	switch key {
	case SortByName:
		slices.SortStableFunc(out, func(a, b Member) int {
			return compareNames(a.StoreName, b.StoreName)
		})
	case SortByBalance:
		slices.SortStableFunc(out, func(a, b Member) int {
			return b.Balance.Cmp(a.Balance)
		})
	case SortByDate:
		slices.SortStableFunc(out, func(a, b Member) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
	return out
}

// Filter keeps members whose store name, location or phone number contains query,
// ignoring case. A blank query returns the input as is.
func Filter(members []Member, query string) []Member {
	query = strings.TrimSpace(query)
	if query == "" {
		return members
	}
	fold := cases.Fold()
	needle := fold.String(query)

	var out []Member
	for _, m := range members {
		if strings.Contains(fold.String(m.StoreName), needle) ||
			strings.Contains(fold.String(m.Location), needle) ||
			strings.Contains(fold.String(m.PhoneNumber), needle) {
			out = append(out, m)
		}
	}
	return out
}
