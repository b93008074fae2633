package softctl

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/edvin/softsso/internal/connection"
	"github.com/edvin/softsso/internal/crypto"
	"github.com/edvin/softsso/internal/model"
	"github.com/edvin/softsso/internal/softaculous"
)

// Lookuper resolves a hosting service. *connection.Resolver implements it.
type Lookuper interface {
	Lookup(ctx context.Context, serviceID string) (*connection.Details, error)
}

// Doer executes a raw action. *softaculous.Client implements it.
type Doer interface {
	Do(ctx context.Context, req *softaculous.ActionRequest) (any, error)
}

// KeyStore manages API keys. *core.APIKeyService implements it.
type KeyStore interface {
	Create(ctx context.Context, name string) (*model.APIKey, string, error)
	List(ctx context.Context) ([]model.APIKey, error)
	Revoke(ctx context.Context, id string) error
}

type resolved struct {
	ServiceID string `json:"service_id" yaml:"service_id"`
	Domain    string `json:"domain" yaml:"domain"`
	ServerID  string `json:"server_id" yaml:"server_id"`
	Module    string `json:"module" yaml:"module"`
	Backend   string `json:"backend" yaml:"backend"`
	Host      string `json:"host" yaml:"host"`
	Port      int    `json:"port" yaml:"port"`
	Username  string `json:"username" yaml:"username"`
	TLS       bool   `json:"tls" yaml:"tls"`
	// HasPassword tells operators whether decryption produced a password.
	HasPassword bool `json:"has_password" yaml:"has_password"`
}

// Resolve prints the connection parameters for a hosting service. Passwords
// are never printed.
func Resolve(ctx context.Context, l Lookuper, serviceID, format string, w io.Writer) error {
	d, err := l.Lookup(ctx, serviceID)
	if err != nil {
		return fmt.Errorf("resolve service %s: %w", serviceID, err)
	}
	return write(w, format, resolved{
		ServiceID:   d.Service.ID,
		Domain:      d.Service.Domain,
		ServerID:    d.Server.ID,
		Module:      d.Server.Module,
		Backend:     string(d.Descriptor.Kind),
		Host:        d.Descriptor.Host,
		Port:        d.Descriptor.Port,
		Username:    d.Descriptor.Username,
		TLS:         d.Descriptor.UseTLS,
		HasPassword: d.Descriptor.Password != "",
	})
}

// Call runs one raw Softaculous action and prints the decoded reply.
func Call(ctx context.Context, c Doer, req *softaculous.ActionRequest, format string, w io.Writer) error {
	reply, err := c.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call %s: %w", req.Action, err)
	}
	return write(w, format, reply)
}

// Encrypt prints plaintext encrypted with the credentials key, in the form
// stored in password_enc columns.
func Encrypt(key []byte, plaintext string, w io.Writer) error {
	enc, err := crypto.Encrypt([]byte(plaintext), key)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}
	_, err = fmt.Fprintln(w, enc)
	return err
}

// GenerateKey prints a fresh credentials key as 64 hex characters.
func GenerateKey(w io.Writer) error {
	key, err := crypto.GenerateKey()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, hex.EncodeToString(key))
	return err
}

func APIKeyCreate(ctx context.Context, keys KeyStore, name string, w io.Writer) error {
	key, rawKey, err := keys.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("create api key: %w", err)
	}
	fmt.Fprintf(w, "API key created successfully.\n\n")
	fmt.Fprintf(w, "  Name:   %s\n", key.Name)
	fmt.Fprintf(w, "  ID:     %s\n", key.ID)
	fmt.Fprintf(w, "  Key:    %s\n\n", rawKey)
	fmt.Fprintf(w, "Save this key, it will not be shown again.\n")
	return nil
}

func APIKeyList(ctx context.Context, keys KeyStore, w io.Writer) error {
	list, err := keys.List(ctx)
	if err != nil {
		return fmt.Errorf("list api keys: %w", err)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPREFIX\tCREATED\tREVOKED")
	for _, k := range list {
		revoked := "-"
		if k.RevokedAt != nil {
			revoked = k.RevokedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", k.ID, k.Name, k.KeyPrefix, k.CreatedAt.Format(time.RFC3339), revoked)
	}
	return tw.Flush()
}

func APIKeyRevoke(ctx context.Context, keys KeyStore, id string, w io.Writer) error {
	if err := keys.Revoke(ctx, id); err != nil {
		return fmt.Errorf("revoke api key %s: %w", id, err)
	}
	_, err := fmt.Fprintf(w, "API key %s revoked.\n", id)
	return err
}
