package auth

import (
	"slices"
	"strings"
)

// Operators is the fixed set of identities allowed to use the console.
type Operators struct {
	emails map[string]struct{}
}

// NewOperators builds the set from configured emails. Blank entries are
// ignored; matching is exact after trimming surrounding space.
func NewOperators(emails []string) *Operators {
	o := &Operators{emails: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		o.emails[e] = struct{}{}
	}
	return o
}

// IsOperator reports whether email belongs to the set.
func (o *Operators) IsOperator(email string) bool {
	if email == "" {
		return false
	}
	_, ok := o.emails[email]
	return ok
}

// List returns the operators in sorted order.
func (o *Operators) List() []string {
	out := make([]string, 0, len(o.emails))
	for e := range o.emails {
		out = append(out, e)
	}
	slices.Sort(out)
	return out
}
