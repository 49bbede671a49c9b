//go:build unix

// Package privdrop enforces that the process runs under a required user or
// group identity, changing identity when possible. It is consumed by the
// launcher before the payload starts and has no coupling to pidfile or
// daemonization state.
package privdrop

import (
	"fmt"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"
)

// Process exit statuses for unattainable identities.
const (
	ExitUserRequired  = 253
	ExitGroupRequired = 254
)

// IdentityError reports a required identity that could not be attained.
type IdentityError struct {
	Kind string // "user" or "group"
	Name string
	Err  error
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("required %s %q unattainable: %v", e.Kind, e.Name, e.Err)
}

func (e *IdentityError) Unwrap() error { return e.Err }

// ExitCode returns the distinguished process exit status for this failure.
func (e *IdentityError) ExitCode() int {
	if e.Kind == "group" {
		return ExitGroupRequired
	}
	return ExitUserRequired
}

// RequireGroup ensures the process runs under the named group, calling
// setgid when the current group differs.
func RequireGroup(name string) error {
	grp, err := user.LookupGroup(name)
	if err != nil {
		return &IdentityError{Kind: "group", Name: name, Err: err}
	}
	gid, err := strconv.Atoi(grp.Gid)
	if err != nil {
		return &IdentityError{Kind: "group", Name: name, Err: fmt.Errorf("non-numeric gid %q", grp.Gid)}
	}
	if unix.Getgid() == gid {
		return nil
	}
	if err := unix.Setgid(gid); err != nil {
		return &IdentityError{Kind: "group", Name: name, Err: err}
	}
	return nil
}

// RequireUser ensures the process runs under the named user, calling setuid
// when the current user differs. Call RequireGroup first: setuid drops the
// privilege needed for a later setgid.
func RequireUser(name string) error {
	usr, err := user.Lookup(name)
	if err != nil {
		return &IdentityError{Kind: "user", Name: name, Err: err}
	}
	uid, err := strconv.Atoi(usr.Uid)
	if err != nil {
		return &IdentityError{Kind: "user", Name: name, Err: fmt.Errorf("non-numeric uid %q", usr.Uid)}
	}
	if unix.Getuid() == uid {
		return nil
	}
	if err := unix.Setuid(uid); err != nil {
		return &IdentityError{Kind: "user", Name: name, Err: err}
	}
	return nil
}
