package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/edvin/softsso/internal/config"
	"github.com/edvin/softsso/internal/connection"
	"github.com/edvin/softsso/internal/core"
	"github.com/edvin/softsso/internal/crypto"
	"github.com/edvin/softsso/internal/db"
	"github.com/edvin/softsso/internal/logging"
	"github.com/edvin/softsso/internal/softaculous"
	"github.com/edvin/softsso/internal/softctl"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fail(fmt.Errorf("load config: %w", err))
	}

	switch os.Args[1] {
	case "migrate":
		requireDB(cfg)
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			fail(err)
		}
		fmt.Println("Migrations applied.")

	case "resolve":
		fs := flag.NewFlagSet("resolve", flag.ExitOnError)
		service := fs.String("service", "", "Hosting service ID (required)")
		output := fs.String("o", softctl.FormatJSON, "Output format: json or yaml")
		fs.Parse(os.Args[2:])
		if *service == "" {
			usageError(fs, "-service is required")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		resolver, pool := newResolver(ctx, cfg)
		defer pool.Close()

		if err := softctl.Resolve(ctx, resolver, *service, *output, os.Stdout); err != nil {
			fail(err)
		}

	case "call":
		fs := flag.NewFlagSet("call", flag.ExitOnError)
		service := fs.String("service", "", "Hosting service ID (required)")
		action := fs.String("action", "", "Softaculous act= value (required)")
		heavy := fs.Bool("heavy", false, "Use the long timeout (installs, clones, upgrades)")
		output := fs.String("o", softctl.FormatJSON, "Output format: json or yaml")
		var query, form softctl.ParamFlag
		fs.Var(&query, "q", "Query parameter key=value (repeatable)")
		fs.Var(&form, "f", "Form field key=value, sends a POST (repeatable)")
		fs.Parse(os.Args[2:])
		if *service == "" || *action == "" {
			usageError(fs, "-service and -action are required")
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.HeavyRequestTimeout+time.Minute)
		defer cancel()
		resolver, pool := newResolver(ctx, cfg)
		defer pool.Close()

		desc, err := resolver.Resolve(ctx, *service)
		if err != nil {
			fail(err)
		}
		timeouts := softaculous.DefaultTimeouts
		timeouts.Request = cfg.RequestTimeout
		timeouts.Heavy = cfg.HeavyRequestTimeout
		client := softaculous.NewClient(desc,
			softaculous.WithLogger(logging.NewLogger(cfg)),
			softaculous.WithTimeouts(timeouts),
		)
		req := &softaculous.ActionRequest{
			Action: *action,
			Query:  query.Params,
			Form:   form.Params,
			Heavy:  *heavy,
		}
		if err := softctl.Call(ctx, client, req, *output, os.Stdout); err != nil {
			fail(err)
		}

	case "encrypt":
		fs := flag.NewFlagSet("encrypt", flag.ExitOnError)
		value := fs.String("value", "", "Plaintext to encrypt (default: first line of stdin)")
		fs.Parse(os.Args[2:])

		key := credentialsKey(cfg)
		plaintext := *value
		if plaintext == "" {
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				fail(fmt.Errorf("read stdin: %w", err))
			}
			plaintext = strings.TrimRight(line, "\r\n")
		}
		if err := softctl.Encrypt(key, plaintext, os.Stdout); err != nil {
			fail(err)
		}

	case "genkey":
		if err := softctl.GenerateKey(os.Stdout); err != nil {
			fail(err)
		}

	case "apikey":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: softctl apikey create|list|revoke")
			os.Exit(1)
		}
		requireDB(cfg)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			fail(fmt.Errorf("connect to database: %w", err))
		}
		defer pool.Close()
		keys := core.NewAPIKeyService(pool)

		switch os.Args[2] {
		case "create":
			fs := flag.NewFlagSet("apikey create", flag.ExitOnError)
			name := fs.String("name", "", "Name for the API key (required)")
			fs.Parse(os.Args[3:])
			if *name == "" {
				usageError(fs, "-name is required")
			}
			err = softctl.APIKeyCreate(ctx, keys, *name, os.Stdout)
		case "list":
			err = softctl.APIKeyList(ctx, keys, os.Stdout)
		case "revoke":
			if len(os.Args) < 4 {
				fmt.Fprintln(os.Stderr, "Usage: softctl apikey revoke <id>")
				os.Exit(1)
			}
			err = softctl.APIKeyRevoke(ctx, keys, os.Args[3], os.Stdout)
		default:
			err = fmt.Errorf("unknown apikey command %q", os.Args[2])
		}
		if err != nil {
			fail(err)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func requireDB(cfg *config.Config) {
	if err := cfg.Validate("cli"); err != nil {
		fail(fmt.Errorf("invalid config: %w", err))
	}
}

func credentialsKey(cfg *config.Config) []byte {
	key, err := crypto.DeriveKey(cfg.CredentialsKey)
	if err != nil {
		fail(fmt.Errorf("CREDENTIALS_KEY: %w", err))
	}
	return key
}

func newResolver(ctx context.Context, cfg *config.Config) (*connection.Resolver, *pgxpool.Pool) {
	requireDB(cfg)
	key := credentialsKey(cfg)
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fail(fmt.Errorf("connect to database: %w", err))
	}
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	return connection.NewResolver(pool, key, connection.PortPolicy{
		CPanel:      cfg.DefaultPortCPanel,
		DirectAdmin: cfg.DefaultPortDirectAdmin,
		Custom:      cfg.CustomPort,
	}, logger), pool
}

func usageError(fs *flag.FlagSet, msg string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	fs.Usage()
	os.Exit(1)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  softctl migrate
  softctl resolve -service <id> [-o json|yaml]
  softctl call -service <id> -action <act> [-q k=v]... [-f k=v]... [-heavy] [-o json|yaml]
  softctl encrypt [-value <plaintext>]
  softctl genkey
  softctl apikey create -name <name>
  softctl apikey list
  softctl apikey revoke <id>

Commands:
  migrate    Apply the embedded database migrations
  resolve    Show the panel connection for a hosting service (no passwords)
  call       Run a raw Softaculous action for a hosting service and print the reply
  encrypt    Encrypt a panel password with CREDENTIALS_KEY for the password_enc columns
  genkey     Generate a new CREDENTIALS_KEY
  apikey     Manage API keys for the HTTP API`)
}
