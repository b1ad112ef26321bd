package nodeinit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wormgate/wormgate/errors"
	"github.com/wormgate/wormgate/remote"
	"github.com/wormgate/wormgate/retry"
)

// NodeInitializer runs the post-creation hardening procedure for a node
type NodeInitializer interface {
	Init(ctx context.Context, role Role, address string) error
}

// Initializer retries the hardening command block against a fresh node.
// Fresh hosts routinely refuse the first connections while cloud-init is
// still running, so every attempt failure is retried on a fixed cadence.
type Initializer struct {
	runner       remote.Runner
	policy       retry.Config
	wormholeUser string
	connectPort  int
}

// Option configures an Initializer
type Option func(*Initializer)

// WithPolicy overrides the retry policy (tests use a faster cadence)
func WithPolicy(policy retry.Config) Option {
	return func(i *Initializer) {
		i.policy = policy
	}
}

// WithWormholeUser sets the unprivileged login used on the wormhole node
func WithWormholeUser(user string) Option {
	return func(i *Initializer) {
		i.wormholeUser = user
	}
}

// WithConnectPort sets the pre-hardening SSH port
func WithConnectPort(port int) Option {
	return func(i *Initializer) {
		i.connectPort = port
	}
}

// New creates an Initializer with the default 5-attempt, 5-second policy
func New(runner remote.Runner, opts ...Option) *Initializer {
	i := &Initializer{
		runner:       runner,
		policy:       retry.FixedConfig(5, 5*time.Second),
		wormholeUser: "debian",
		connectPort:  22,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// login returns the remote identity for a role: the stargate is reached as
// root, the wormhole as the unprivileged user that elevates with sudo.
func (i *Initializer) login(role Role) string {
	if role == RoleWormhole {
		return i.wormholeUser
	}
	return "root"
}

// Init implements NodeInitializer.Init
func (i *Initializer) Init(ctx context.Context, role Role, address string) error {
	cmds, err := NewInitCommands(role, HardenedPort)
	if err != nil {
		return err
	}

	user := i.login(role)
	policy := i.policy
	policy.OnRetry = func(attempt int, err error) {
		if attempt < policy.MaxAttempts {
			log.Printf("[INIT %s] attempt %d/%d on %s failed, retrying in %s: %v",
				role, attempt, policy.MaxAttempts, address, policy.Delay, err)
		}
	}

	op := func(ctx context.Context) error {
		return i.runner.Execute(ctx, user, address, i.connectPort, cmds.Script())
	}

	if err := retry.Do(ctx, op, policy); err != nil {
		return errors.Wrap(err, errors.ErrRetryExhausted,
			fmt.Sprintf("init of %s at %s failed after %d attempts", role, address, policy.MaxAttempts))
	}

	log.Printf("[INIT %s] node at %s hardened, sshd now on port %d", role, address, cmds.Port())
	return nil
}
