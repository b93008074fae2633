// Package connection turns a hosting service id into the connection
// descriptor the Softaculous client needs.
package connection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/edvin/softsso/internal/core"
	"github.com/edvin/softsso/internal/crypto"
	"github.com/edvin/softsso/internal/model"
	"github.com/edvin/softsso/internal/softaculous"
)

// Details is a resolved service: the descriptor plus the records it came from.
type Details struct {
	Descriptor     softaculous.Descriptor
	Service        model.HostingService
	Server         model.Server
	ServerPassword string
}

type Resolver struct {
	db     core.DB
	key    []byte
	ports  PortPolicy
	logger zerolog.Logger
}

func NewResolver(db core.DB, key []byte, ports PortPolicy, logger zerolog.Logger) *Resolver {
	return &Resolver{db: db, key: key, ports: ports, logger: logger}
}

// Resolve returns the descriptor for the account behind serviceID.
func (r *Resolver) Resolve(ctx context.Context, serviceID string) (softaculous.Descriptor, error) {
	d, err := r.Lookup(ctx, serviceID)
	if err != nil {
		return softaculous.Descriptor{}, err
	}
	return d.Descriptor, nil
}

// Lookup reads the hosting service and its server. Missing rows are
// NotFound errors. A password that fails to decrypt is replaced by an empty
// string so the backend reports the authentication failure.
func (r *Resolver) Lookup(ctx context.Context, serviceID string) (*Details, error) {
	if strings.TrimSpace(serviceID) == "" {
		return nil, &softaculous.Error{Kind: softaculous.KindValidation, Message: `missing required parameter "service_id"`}
	}

	svc, err := r.service(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	srv, err := r.server(ctx, svc.ServerID)
	if err != nil {
		return nil, err
	}

	logger := r.logger.With().Str("service_id", svc.ID).Str("server_id", srv.ID).Logger()
	password := r.decrypt(logger, "service", svc.PasswordEnc)
	serverPassword := ""
	if srv.PasswordEnc != "" {
		serverPassword = r.decrypt(logger, "server", srv.PasswordEnc)
	}

	kind := ClassifyModule(srv.Module)
	host := strings.TrimSpace(srv.Hostname)
	if host == "" {
		host = strings.TrimSpace(srv.IPAddress)
	}

	return &Details{
		Descriptor: softaculous.Descriptor{
			Kind:     kind,
			Host:     host,
			Port:     SelectPort(kind, srv.Port, r.ports),
			Username: svc.Username,
			Password: password,
			UseTLS:   srv.Secure,
		},
		Service:        *svc,
		Server:         *srv,
		ServerPassword: serverPassword,
	}, nil
}

func (r *Resolver) service(ctx context.Context, id string) (*model.HostingService, error) {
	var s model.HostingService
	err := r.db.QueryRow(ctx,
		`SELECT id, server_id, domain, username, password_enc FROM hosting_services WHERE id = $1`, id,
	).Scan(&s.ID, &s.ServerID, &s.Domain, &s.Username, &s.PasswordEnc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &softaculous.Error{Kind: softaculous.KindNotFound, Message: fmt.Sprintf("hosting service %s not found", id)}
	}
	if err != nil {
		return nil, fmt.Errorf("get hosting service %s: %w", id, err)
	}
	return &s, nil
}

func (r *Resolver) server(ctx context.Context, id string) (*model.Server, error) {
	var s model.Server
	err := r.db.QueryRow(ctx,
		`SELECT id, name, module, hostname, ip_address, port, username, password_enc, secure FROM servers WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Module, &s.Hostname, &s.IPAddress, &s.Port, &s.Username, &s.PasswordEnc, &s.Secure)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &softaculous.Error{Kind: softaculous.KindNotFound, Message: fmt.Sprintf("server %s not found", id)}
	}
	if err != nil {
		return nil, fmt.Errorf("get server %s: %w", id, err)
	}
	return &s, nil
}

func (r *Resolver) decrypt(logger zerolog.Logger, which, enc string) string {
	if enc == "" {
		return ""
	}
	plain, err := crypto.Decrypt(enc, r.key)
	if err != nil {
		logger.Warn().Err(err).Str("credential", which).Msg("could not decrypt password, using empty password")
		return ""
	}
	return string(plain)
}
