// Package users maps account emails to the display names shown in the
// operation history.
package users

import (
	"strings"
)

// Unknown is shown when an operation carries no actor.
const Unknown = "Nieznany"

// Directory resolves display names for account emails.
type Directory struct {
	names map[string]string
}

// Parse reads entries of the form "email=Name;email=Name". Blank and
// malformed entries are skipped.
func Parse(raw string) *Directory {
	d := &Directory{names: make(map[string]string)}
	for _, entry := range strings.Split(raw, ";") {
		email, name, ok := strings.Cut(entry, "=")
		email = strings.ToLower(strings.TrimSpace(email))
		name = strings.TrimSpace(name)
		if !ok || email == "" || name == "" {
			continue
		}
		d.names[email] = name
	}
	return d
}

// DisplayName returns the configured name, falling back to the part of the
// address before '@'.
func (d *Directory) DisplayName(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return Unknown
	}
	if d != nil {
		if name, ok := d.names[strings.ToLower(email)]; ok {
			return name
		}
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

// Len reports how many entries were configured.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.names)
}
