package softaculous

import "fmt"

// BackendKind identifies the hosting control panel family serving Softaculous.
type BackendKind string

const (
	BackendCPanel      BackendKind = "cpanel"
	BackendDirectAdmin BackendKind = "directadmin"
)

// Descriptor holds everything needed to reach one account's Softaculous
// instance. It is built per call and never persisted.
type Descriptor struct {
	Kind     BackendKind
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
}

func (d Descriptor) scheme() string {
	if d.UseTLS {
		return "https"
	}
	return "http"
}

func (d Descriptor) baseURL() string {
	return fmt.Sprintf("%s://%s:%d", d.scheme(), d.Host, d.Port)
}

// String omits the password so descriptors can be logged safely.
func (d Descriptor) String() string {
	return fmt.Sprintf("%s %s@%s:%d tls=%t", d.Kind, d.Username, d.Host, d.Port, d.UseTLS)
}
