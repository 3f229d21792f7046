package profile

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mvanek/displayctl/internal/cli"
)

const (
	profileChangeHook = "on-output-profile-change"
	primaryChangeHook = "on-primary-output-change"
)

// Hooks runs the optional change scripts from the configuration directory.
// A missing script simply means the transition has no hook.
type Hooks struct {
	Dir string
}

func (h Hooks) hookPath(name string) string {
	return filepath.Join(h.Dir, name)
}

func (h Hooks) hookExists(name string) bool {
	if h.Dir == "" {
		return false
	}
	_, err := os.Stat(h.hookPath(name))
	return err == nil
}

// HasProfileChange reports whether a profile change hook is installed. The
// settle poll only runs when there is a hook to hand the settled state to.
func (h Hooks) HasProfileChange() bool {
	return h.hookExists(profileChangeHook)
}

// ProfileChanged runs the profile change hook with the new profile name.
func (h Hooks) ProfileChanged(profileName string) error {
	if !h.hookExists(profileChangeHook) {
		return nil
	}
	slog.Info("running profile change hook", "profile", profileName)
	return cli.Tool{Binary: h.hookPath(profileChangeHook)}.InvokePassthrough(profileName)
}

// PrimaryChanged runs the primary output change hook with the new primary
// output name, but only when the name actually changed.
func (h Hooks) PrimaryChanged(oldName, newName string) error {
	if oldName == newName || !h.hookExists(primaryChangeHook) {
		return nil
	}
	slog.Info("running primary output change hook", "output", newName)
	return cli.Tool{Binary: h.hookPath(primaryChangeHook)}.InvokePassthrough(newName)
}
