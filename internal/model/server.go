package model

// Server is a hosting control panel host as recorded by the billing panel.
type Server struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Module is the billing panel's provisioning module name, e.g. "cpanel",
	// "whm", "directadmin". It selects the backend kind.
	Module    string `json:"module"`
	Hostname  string `json:"hostname"`
	IPAddress string `json:"ip_address"`
	// Port is nil or non-positive when the server uses the panel default.
	Port        *int   `json:"port,omitempty"`
	Username    string `json:"username"`
	PasswordEnc string `json:"-"`
	Secure      bool   `json:"secure"`
}
