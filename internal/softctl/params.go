package softctl

import (
	"fmt"
	"strings"

	"github.com/edvin/softsso/internal/softaculous"
)

// ParamFlag collects repeated key=value flags in the order given.
type ParamFlag struct {
	Params softaculous.Params
}

func (f *ParamFlag) String() string {
	return f.Params.Encode()
}

func (f *ParamFlag) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	f.Params.Add(key, value)
	return nil
}
