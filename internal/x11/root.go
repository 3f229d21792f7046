package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgbutil/xprop"
)

// Properties whose values change when the window manager rebuilds its state
// after an output layout change. Their concatenation acts as a settle token.
var rootIdentifierAtoms = []string{"_XROOTPMAP_ID", "_NET_WORKAREA"}

// RootWindowID returns an opaque token identifying the current root window
// state. Callers compare tokens before and after a layout change to detect
// when the window system has caught up; the token has no other meaning.
func (c *Connection) RootWindowID() (string, error) {
	parts := make([]string, 0, len(rootIdentifierAtoms))
	for _, atom := range rootIdentifierAtoms {
		reply, err := xprop.GetProperty(c.XUtil, c.Root, atom)
		if err != nil {
			// The property may simply not be set yet.
			parts = append(parts, "")
			continue
		}
		parts = append(parts, fmt.Sprintf("%x", reply.Value))
	}
	return strings.Join(parts, "/"), nil
}
