// Package deploy triggers the application deployment and verifies the
// cluster is serving afterwards.
package deploy

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/outpost-sh/outpost/internal/engine"
	"github.com/outpost-sh/outpost/internal/state"
	"github.com/outpost-sh/outpost/internal/util/naming"
	"github.com/outpost-sh/outpost/internal/util/retry"
)

const defaultRequestTimeout = 10 * time.Second

// Deployer runs an operator-supplied deploy command and probes the app
// node over HTTP. An empty command turns Deploy into a transition
// without side effects.
type Deployer struct {
	command    []string
	dir        string
	httpClient *http.Client
	scheme     string
	observer   engine.Observer
	retryOpts  []retry.Option
	runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Option configures a Deployer.
type Option func(*Deployer)

// WithCommand sets the deploy command and its arguments.
func WithCommand(command ...string) Option {
	return func(d *Deployer) { d.command = command }
}

// WithDir sets the working directory for the deploy command.
func WithDir(dir string) Option {
	return func(d *Deployer) { d.dir = dir }
}

// WithHTTPClient overrides the probe client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Deployer) { d.httpClient = c }
}

// WithScheme sets the probe URL scheme, default https.
func WithScheme(scheme string) Option {
	return func(d *Deployer) { d.scheme = scheme }
}

// WithObserver sets the event sink.
func WithObserver(o engine.Observer) Option {
	return func(d *Deployer) { d.observer = o }
}

// WithRetryOptions overrides the probe backoff.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(d *Deployer) { d.retryOpts = opts }
}

// New builds a Deployer.
func New(opts ...Option) *Deployer {
	d := &Deployer{
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		scheme:     "https",
		observer:   engine.NopObserver{},
	}
	d.runCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Dir = d.dir
		return cmd.CombinedOutput()
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deploy implements engine.Deployer.
func (d *Deployer) Deploy(ctx context.Context, st *state.State) error {
	if len(d.command) == 0 {
		return nil
	}

	d.observer.Event(engine.Event{
		Type:    engine.EventProgress,
		Phase:   st.Phase,
		Message: fmt.Sprintf("running deploy command: %s", strings.Join(d.command, " ")),
	})

	output, err := d.runCommand(ctx, d.command[0], d.command[1:]...)
	if err != nil {
		return fmt.Errorf("deploy command failed: %w\n%s", err, tail(output, 2000))
	}
	return nil
}

// Verify implements engine.Deployer: the app hostname must answer an
// HTTP request without a server error.
func (d *Deployer) Verify(ctx context.Context, st *state.State) error {
	hostname := naming.FQDN(state.NodeApp, st.Inputs.HostSuffix)
	url := fmt.Sprintf("%s://%s/", d.scheme, hostname)

	opts := d.retryOpts
	if opts == nil {
		opts = []retry.Option{
			retry.WithMaxRetries(5),
			retry.WithInitialDelay(3 * time.Second),
			retry.WithMaxDelay(30 * time.Second),
		}
	}
	err := retry.WithExponentialBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return retry.Fatal(err)
		}
		resp, err := d.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("probing %s: %w", url, err)
		}
		resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%s answered %d", url, resp.StatusCode)
		}
		return nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("application not serving at %s: %w", url, err)
	}
	return nil
}

func tail(output []byte, max int) string {
	s := strings.TrimSpace(string(output))
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
