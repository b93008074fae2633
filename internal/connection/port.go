package connection

import (
	"strings"

	"github.com/edvin/softsso/internal/softaculous"
)

// PortPolicy holds the panel default ports and the optional DirectAdmin
// override used when a server record has no port of its own.
type PortPolicy struct {
	CPanel      int
	DirectAdmin int
	// Custom applies to DirectAdmin only.
	Custom int
}

// DefaultPortPolicy matches the stock panel ports.
var DefaultPortPolicy = PortPolicy{CPanel: 2083, DirectAdmin: 2222}

// ClassifyModule maps a billing-panel module name to a backend kind. Unknown
// modules are treated as cPanel.
func ClassifyModule(module string) softaculous.BackendKind {
	m := strings.ToLower(module)
	switch {
	case strings.Contains(m, "cpanel"), strings.Contains(m, "whm"):
		return softaculous.BackendCPanel
	case strings.Contains(m, "directadmin"):
		return softaculous.BackendDirectAdmin
	}
	return softaculous.BackendCPanel
}

// SelectPort picks the panel port: an explicit positive server port wins,
// then the custom port (DirectAdmin only), then the panel default.
func SelectPort(kind softaculous.BackendKind, serverPort *int, ports PortPolicy) int {
	if serverPort != nil && *serverPort > 0 {
		return *serverPort
	}
	if kind == softaculous.BackendDirectAdmin {
		if ports.Custom > 0 {
			return ports.Custom
		}
		return ports.DirectAdmin
	}
	return ports.CPanel
}
