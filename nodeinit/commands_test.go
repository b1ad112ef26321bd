package nodeinit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wormgate/wormgate/errors"
)

func TestNewInitCommandsWormhole(t *testing.T) {
	cmds, err := NewInitCommands(RoleWormhole, HardenedPort)
	require.NoError(t, err)

	script := cmds.Script()
	assert.Contains(t, script, "Port 3022")
	assert.Contains(t, script, "sudo sed -i", "wormhole statements elevate with sudo")
	assert.Contains(t, script, "/root/.ssh/authorized_keys", "root key handoff present")
	assert.Contains(t, script, "systemctl restart sshd")
	assert.Equal(t, RoleWormhole, cmds.Role())
	assert.Equal(t, HardenedPort, cmds.Port())
}

func TestNewInitCommandsStargate(t *testing.T) {
	cmds, err := NewInitCommands(RoleStargate, HardenedPort)
	require.NoError(t, err)

	script := cmds.Script()
	assert.Contains(t, script, "Port 3022")
	assert.NotContains(t, script, "sudo", "stargate logs in privileged")
	assert.NotContains(t, script, "/root/.ssh", "no key handoff on the stargate")
}

func TestNewInitCommandsCustomPort(t *testing.T) {
	cmds, err := NewInitCommands(RoleStargate, 2222)
	require.NoError(t, err)
	assert.Contains(t, cmds.Script(), "Port 2222")
}

func TestNewInitCommandsRejectsUnknownRole(t *testing.T) {
	_, err := NewInitCommands(Role("gateway"), HardenedPort)
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestNewInitCommandsRejectsBadPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		_, err := NewInitCommands(RoleWormhole, port)
		require.Error(t, err, "port %d", port)
		assert.True(t, errors.IsConfiguration(err))
	}
}

func TestScriptStatementsAreOrdered(t *testing.T) {
	cmds, err := NewInitCommands(RoleWormhole, HardenedPort)
	require.NoError(t, err)

	script := cmds.Script()
	sedIdx := strings.Index(script, "sed -i")
	cpIdx := strings.Index(script, "cp \"$HOME")
	restartIdx := strings.Index(script, "restart sshd")
	assert.Less(t, sedIdx, cpIdx, "port change precedes key handoff")
	assert.Less(t, cpIdx, restartIdx, "restart is the final statement")
}
