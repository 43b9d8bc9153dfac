package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/outpost-sh/outpost/internal/config"
	"github.com/outpost-sh/outpost/internal/destroy"
	"github.com/outpost-sh/outpost/internal/state"
	"github.com/outpost-sh/outpost/internal/ui"
)

// DestroyOptions carries the flags of the destroy command.
type DestroyOptions struct {
	ConfigPath     string
	StateDir       string
	Token          string
	DeleteSSHKey   bool
	NonInteractive bool
	OutputJSON     bool
}

// Destroy deletes every resource recorded in the state file after the
// confirmation token has been supplied.
func Destroy(ctx context.Context, opts DestroyOptions) error {
	cfg, err := loadConfigFile(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.StateDir != "" {
		cfg.StateDir = opts.StateDir
	}

	store := state.NewStore(cfg.StateDir)
	st, err := store.Load()
	if errors.Is(err, state.ErrNoState) {
		return fmt.Errorf("no state file in %s; nothing to destroy", cfg.StateDir)
	}
	if err != nil {
		return err
	}

	token := opts.Token
	if token == "" {
		if opts.NonInteractive || !isInteractive() {
			return fmt.Errorf("%w: pass --confirm-destroy %s", destroy.ErrNotConfirmed, destroy.ConfirmationToken)
		}
		token, err = promptDestroyToken(ctx)
		if err != nil {
			return err
		}
	}

	destroyer, err := buildDestroyer(ctx, cfg, store, st, opts)
	if err != nil {
		return err
	}

	report, destroyErr := destroyer.Destroy(ctx, st, token)
	if report != nil {
		if err := printDestroyReport(report, opts.OutputJSON); err != nil {
			return errors.Join(destroyErr, err)
		}
	}
	return destroyErr
}

func buildDestroyer(ctx context.Context, cfg *config.Config, store *state.Store, st *state.State, opts DestroyOptions) (*destroy.Destroyer, error) {
	computeToken, err := computeTokenFromEnv()
	if err != nil {
		return nil, err
	}
	client := newComputeClient(computeToken)

	destroyOpts := []destroy.Option{
		destroy.WithObserver(newRunObserver(opts.OutputJSON)),
	}
	if st.Inputs.DNSMode.Managed() {
		dnsToken, err := dnsTokenFromEnv(string(st.Inputs.DNSMode))
		if err != nil {
			return nil, err
		}
		provider, err := newDNSProvider(st.Inputs.DNSMode, dnsToken, st.Inputs.Domain)
		if err != nil {
			return nil, err
		}
		destroyOpts = append(destroyOpts, destroy.WithDNSProvider(provider))
	}
	if opts.DeleteSSHKey {
		destroyOpts = append(destroyOpts, destroy.WithSSHKeyDeletion())
	}
	if cfg.Archive.S3Bucket != "" {
		accessKey, secretKey := config.S3CredentialsFromEnv()
		mirror, err := newMirror(ctx, destroy.S3Options{
			Endpoint:  cfg.Archive.S3Endpoint,
			Region:    cfg.Archive.S3Region,
			Bucket:    cfg.Archive.S3Bucket,
			Prefix:    cfg.Archive.S3Prefix,
			AccessKey: accessKey,
			SecretKey: secretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring archive mirror: %w", err)
		}
		destroyOpts = append(destroyOpts, destroy.WithMirror(mirror))
	}

	return destroy.New(client, store, destroyOpts...), nil
}

func printDestroyReport(report *destroy.Report, outputJSON bool) error {
	if outputJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(data))
		return nil
	}
	fmt.Fprintln(stdout, ui.RenderDestroyReport(report))
	return nil
}
