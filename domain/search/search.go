package search

import (
	"strconv"
	"strings"
)

const (
	DefaultLimit = 20
	DefaultCap   = 50
)

// Filter holds directory search parameters.
// The searched kind is never part of it: it is always the opposite of the requester's.
type Filter struct {
	State        string
	NameContains string
	Limit        int
}

// Normalize trims the filter and clamps the limit into [1, maxLimit].
func (f Filter) Normalize(maxLimit int) Filter {
	if maxLimit <= 0 {
		maxLimit = DefaultCap
	}
	f.State = strings.TrimSpace(f.State)
	f.NameContains = strings.TrimSpace(f.NameContains)
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	return f
}

// MatchesName is the case-insensitive substring rule for nameContains.
func (f Filter) MatchesName(name string) bool {
	if f.NameContains == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(f.NameContains))
}

// ParseFilter reads a command-line style search from the terminal client.
// Example: /search robotics --state SP --limit 5
func ParseFilter(input string) Filter {
	var filter Filter
	parts := strings.Fields(input)
	var terms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			val := parts[i+1]
			switch strings.TrimPrefix(part, "--") {
			case "state":
				filter.State = val
			case "limit":
				if n, err := strconv.Atoi(val); err == nil {
					filter.Limit = n
				}
			}
			i++
			continue
		}

		if !strings.HasPrefix(part, "/") {
			terms = append(terms, part)
		}
	}

	filter.NameContains = strings.Join(terms, " ")
	return filter
}
