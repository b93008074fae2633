package model

// HostingService is one end-user hosting account on a Server.
type HostingService struct {
	ID          string `json:"id"`
	ServerID    string `json:"server_id"`
	Domain      string `json:"domain"`
	Username    string `json:"username"`
	PasswordEnc string `json:"-"`
}
