// Command ttadmin creates and inspects time tracker workspaces.
//
//	ttadmin [-env FILE] [-workspace FORM] -login L -password P init|validate|users|stats|addresses|discover
//
// The workspace comes from -workspace (address external form) or from the
// TT_* environment; see package config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"timetracker/internal/address"
	"timetracker/internal/config"
	"timetracker/internal/workspace"
	"timetracker/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	exitFunc(cli(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	envFile   string
	workspace string
	login     string
	password  string
	realName  string
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ttadmin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.envFile, "env", ".env", "dotenv file applied before reading TT_* variables")
	fs.StringVar(&opts.workspace, "workspace", "", "workspace address external form (overrides TT_WORKSPACE)")
	fs.StringVar(&opts.login, "login", "", "account login")
	fs.StringVar(&opts.password, "password", "", "account password")
	fs.StringVar(&opts.realName, "name", "Administrator", "real name of the administrator created by init")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: ttadmin [flags] init|validate|users|stats|addresses|discover")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	if err := run(context.Background(), fs.Arg(0), opts, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "ttadmin: %v\n", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, command string, opts options, stdout, stderr io.Writer) error {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return err
	}
	if opts.workspace != "" {
		cfg.Workspace = opts.workspace
	}
	logger := cfg.Logger(stderr)
	ref, err := cfg.WorkspaceRef()
	if err != nil {
		return err
	}
	registry, err := workspace.DefaultRegistry(cfg, workspace.WithLogger(logger))
	if err != nil {
		return err
	}
	creds := domain.NewLoginCredentials(opts.login, opts.password)

	switch command {
	case "init":
		return initWorkspace(ctx, registry, ref, opts, stdout)
	case "addresses":
		return printAddresses(registry, ref, stdout)
	case "discover":
		return printDiscovered(ctx, registry, stdout)
	case "validate", "users", "stats":
	default:
		return fmt.Errorf("unknown command %q", command)
	}

	ws, err := registry.Open(ctx, ref)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := ws.Close(ctx); closeErr != nil {
			logger.Error().Err(closeErr).Msg("close workspace")
		}
	}()
	switch command {
	case "validate":
		if err := ws.Validate(creds); err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, "workspace is valid")
		return err
	case "users":
		return printUsers(ws, creds, stdout)
	default:
		return printStats(ws, creds, stdout, logger)
	}
}

func initWorkspace(ctx context.Context, registry *workspace.Registry, ref address.Ref, opts options, stdout io.Writer) error {
	if opts.login == "" {
		return errors.New("init needs -login and -password for the administrator account")
	}
	ws, err := registry.Create(ctx, ref, workspace.Administrator{
		RealName: opts.realName,
		Login:    opts.login,
		Password: opts.password,
	})
	if err != nil {
		return err
	}
	if err := ws.Close(ctx); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "created %s workspace at %s\n", ws.StoreType().DisplayName, ws.Address().Location)
	return err
}

func printAddresses(registry *workspace.Registry, ref address.Ref, stdout io.Writer) error {
	norm, err := registry.Normalize(ref)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "workspace: %q\n", address.Encode(norm))
	for _, st := range registry.StoreTypes() {
		fmt.Fprintf(stdout, "  %-10s %s\n", st.Mnemonic, st.DisplayName)
	}
	return nil
}

func printDiscovered(ctx context.Context, registry *workspace.Registry, stdout io.Writer) error {
	refs, err := registry.Discover(ctx)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		fmt.Fprintf(stdout, "%q\n", address.Encode(ref))
	}
	return nil
}

func printUsers(ws *workspace.Workspace, creds domain.Credentials, stdout io.Writer) error {
	users, err := workspace.List(ws, creds, workspace.Users)
	if err != nil {
		return err
	}
	for _, u := range users {
		name, err := workspace.Get(u, creds, workspace.UserRealName)
		if err != nil {
			return err
		}
		accounts, err := workspace.Related(u, creds, workspace.UserAccounts)
		if err != nil {
			return err
		}
		logins := make([]string, 0, len(accounts))
		for _, acc := range accounts {
			login, err := workspace.Get(acc, creds, workspace.AccountLogin)
			if err != nil {
				return err
			}
			caps, err := workspace.Get(acc, creds, workspace.AccountCapabilities)
			if err != nil {
				return err
			}
			logins = append(logins, fmt.Sprintf("%s%s", login, caps))
			_ = acc.Release()
		}
		fmt.Fprintf(stdout, "%s\t%s\t%s\n", u.Oid(), name, strings.Join(logins, " "))
		_ = u.Release()
	}
	return nil
}

func printStats(ws *workspace.Workspace, creds domain.Credentials, stdout io.Writer, logger zerolog.Logger) error {
	stats, err := ws.Stats(creds)
	if err != nil {
		return err
	}
	total := 0
	for _, kind := range domain.EntityKinds {
		fmt.Fprintf(stdout, "%-16s %d\n", kind, stats[kind])
		total += stats[kind]
	}
	logger.Debug().Int("objects", total).Msg("stats computed")
	return nil
}
