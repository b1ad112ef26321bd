package inventory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wormgate/wormgate/errors"
)

const sampleInventory = `# managed hosts
[wormhole]
wh ansible_host=192.0.2.1 ansible_port=3022 ansible_user=root

[stargate]
sg ansible_host=192.0.2.2 ansible_port=3022 ansible_user=root

[all:vars]
ansible_ssh_common_args='-o StrictHostKeyChecking=no'
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts")
	require.NoError(t, os.WriteFile(path, []byte(sampleInventory), 0o644))
	return path
}

func TestSetHostRewritesAddress(t *testing.T) {
	path := writeSample(t)

	require.NoError(t, Update(path, "wormhole", "10.0.0.5"))

	f, err := Load(path)
	require.NoError(t, err)

	addr, err := f.HostFor("wormhole")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", addr)

	// Everything except the one address is untouched.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "wh ansible_host=10.0.0.5 ansible_port=3022 ansible_user=root")
	assert.Contains(t, string(data), "sg ansible_host=192.0.2.2 ansible_port=3022 ansible_user=root")
	assert.Contains(t, string(data), "# managed hosts")
	assert.Contains(t, string(data), "[all:vars]")
}

func TestSetHostIdempotent(t *testing.T) {
	path := writeSample(t)

	require.NoError(t, Update(path, "stargate", "198.51.100.9"))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, Update(path, "stargate", "198.51.100.9"))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestSetHostUnknownRoleFailsLoudly(t *testing.T) {
	path := writeSample(t)

	err := Update(path, "relay", "10.0.0.5")
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "[relay]")

	// File untouched on error.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleInventory, string(data))
}

func TestSetHostSectionWithoutHostEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts")
	require.NoError(t, os.WriteFile(path, []byte("[wormhole]\n\n[stargate]\nsg ansible_host=192.0.2.2\n"), 0o644))

	err := Update(path, "wormhole", "10.0.0.5")
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "no host entry")
}

func TestSetHostEntryWithoutHostField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts")
	require.NoError(t, os.WriteFile(path, []byte("[wormhole]\nwh ansible_user=root\n"), 0o644))

	err := Update(path, "wormhole", "10.0.0.5")
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestRoundTripPreservesContent(t *testing.T) {
	path := writeSample(t)

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sampleInventory, string(f.Bytes()))
}

func TestSetHostPreservesIndentation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts")
	require.NoError(t, os.WriteFile(path, []byte("[wormhole]\n  wh ansible_host=192.0.2.1\n"), 0o644))

	require.NoError(t, Update(path, "wormhole", "10.0.0.5"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[wormhole]\n  wh ansible_host=10.0.0.5\n", string(data))
}
