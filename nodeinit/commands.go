// Package nodeinit hardens freshly created nodes over SSH: it moves the SSH
// daemon to the hardened port and, on the wormhole, hands the unprivileged
// login's authorized keys to root. Every statement is safe to repeat because
// the whole block is rerun on retry.
package nodeinit

import (
	"fmt"
	"strings"

	"github.com/wormgate/wormgate/errors"
)

// Role identifies a node's place in the topology
type Role string

const (
	// RoleWormhole is the entry node created by the orchestration CLI
	RoleWormhole Role = "wormhole"

	// RoleStargate is the secondary node created by the declarative backend
	RoleStargate Role = "stargate"
)

// HardenedPort is the SSH port every node listens on after initialization
const HardenedPort = 3022

// InitCommands is the immutable hardening command block for one role,
// parameterized only by the target SSH port.
type InitCommands struct {
	role   Role
	port   int
	script string
}

// NewInitCommands builds and validates the command block for a role
func NewInitCommands(role Role, port int) (InitCommands, error) {
	if port < 1 || port > 65535 {
		return InitCommands{}, errors.New(errors.ErrConfiguration,
			fmt.Sprintf("invalid ssh port %d", port))
	}

	var statements []string
	switch role {
	case RoleWormhole:
		// Unprivileged login, sudo elevation. Root gets the login's keys so
		// the configuration layer can reach it directly afterwards.
		statements = []string{
			fmt.Sprintf(`sudo sed -i 's/^#\?Port .*/Port %d/' /etc/ssh/sshd_config`, port),
			"sudo mkdir -p /root/.ssh",
			`sudo cp "$HOME/.ssh/authorized_keys" /root/.ssh/authorized_keys`,
			"sudo chown -R root:root /root/.ssh",
			"sudo chmod 700 /root/.ssh",
			"sudo chmod 600 /root/.ssh/authorized_keys",
			"sudo systemctl restart sshd",
		}
	case RoleStargate:
		// Privileged login, no elevation needed.
		statements = []string{
			fmt.Sprintf(`sed -i 's/^#\?Port .*/Port %d/' /etc/ssh/sshd_config`, port),
			"systemctl restart sshd",
		}
	default:
		return InitCommands{}, errors.New(errors.ErrConfiguration,
			fmt.Sprintf("unknown node role %q", role))
	}

	return InitCommands{
		role:   role,
		port:   port,
		script: strings.Join(statements, "\n") + "\n",
	}, nil
}

// Role returns the role the block was built for
func (c InitCommands) Role() Role {
	return c.role
}

// Port returns the target SSH port baked into the block
func (c InitCommands) Port() int {
	return c.port
}

// Script returns the command block as a single shell script
func (c InitCommands) Script() string {
	return c.script
}
