package nodeinit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wormerrors "github.com/wormgate/wormgate/errors"
	"github.com/wormgate/wormgate/retry"
)

// fakeRunner records executions and fails a scripted number of times
type fakeRunner struct {
	failures int
	calls    int

	users   []string
	hosts   []string
	ports   []int
	scripts []string
}

func (f *fakeRunner) Execute(ctx context.Context, user, host string, port int, script string) error {
	f.calls++
	f.users = append(f.users, user)
	f.hosts = append(f.hosts, host)
	f.ports = append(f.ports, port)
	f.scripts = append(f.scripts, script)
	if f.calls <= f.failures {
		return errors.New("connection refused")
	}
	return nil
}

func testPolicy() retry.Config {
	return retry.FixedConfig(5, time.Millisecond)
}

func TestInitSucceedsFirstAttempt(t *testing.T) {
	runner := &fakeRunner{}
	init := New(runner, WithPolicy(testPolicy()))

	err := init.Init(context.Background(), RoleStargate, "198.51.100.9")
	require.NoError(t, err)
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, "root", runner.users[0])
	assert.Equal(t, "198.51.100.9", runner.hosts[0])
	assert.Equal(t, 22, runner.ports[0], "init connects on the pre-hardening port")
	assert.Contains(t, runner.scripts[0], "Port 3022")
}

func TestInitRetriesUntilSuccess(t *testing.T) {
	for failures := 1; failures <= 4; failures++ {
		runner := &fakeRunner{failures: failures}
		init := New(runner, WithPolicy(testPolicy()))

		err := init.Init(context.Background(), RoleWormhole, "10.0.0.5")
		require.NoError(t, err, "failures=%d", failures)
		assert.Equal(t, failures+1, runner.calls, "failures=%d", failures)
	}
}

func TestInitExhaustsAttempts(t *testing.T) {
	runner := &fakeRunner{failures: 5}
	init := New(runner, WithPolicy(testPolicy()))

	err := init.Init(context.Background(), RoleWormhole, "10.0.0.5")
	require.Error(t, err)
	assert.Equal(t, 5, runner.calls, "exactly MaxAttempts executions")
	assert.True(t, wormerrors.IsRetryExhausted(err))
	assert.Contains(t, err.Error(), "10.0.0.5")
	assert.Contains(t, err.Error(), "5 attempts")
}

func TestInitUsesSameScriptEveryAttempt(t *testing.T) {
	runner := &fakeRunner{failures: 3}
	init := New(runner, WithPolicy(testPolicy()))

	require.NoError(t, init.Init(context.Background(), RoleStargate, "198.51.100.9"))
	for i := 1; i < len(runner.scripts); i++ {
		assert.Equal(t, runner.scripts[0], runner.scripts[i], "command set must not change between attempts")
	}
}

func TestInitWormholeLogin(t *testing.T) {
	runner := &fakeRunner{}
	init := New(runner, WithPolicy(testPolicy()), WithWormholeUser("admin"))

	require.NoError(t, init.Init(context.Background(), RoleWormhole, "10.0.0.5"))
	assert.Equal(t, "admin", runner.users[0])
}

func TestInitUnknownRoleFailsWithoutExecuting(t *testing.T) {
	runner := &fakeRunner{}
	init := New(runner, WithPolicy(testPolicy()))

	err := init.Init(context.Background(), Role("relay"), "10.0.0.5")
	require.Error(t, err)
	assert.True(t, wormerrors.IsConfiguration(err))
	assert.Zero(t, runner.calls)
}
