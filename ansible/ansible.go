// Package ansible hands the provisioned topology off to the
// configuration-management layer: a connectivity precheck against every
// inventory host, then the VPN playbook.
package ansible

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/wormgate/wormgate/backend"
	"github.com/wormgate/wormgate/errors"
)

// Configurator runs the configuration-management handoff
type Configurator interface {
	// Ping checks SSH reachability of all inventory hosts
	Ping(ctx context.Context) error

	// RunPlaybook applies the VPN playbook
	RunPlaybook(ctx context.Context) error
}

// Ansible drives the ansible and ansible-playbook binaries
type Ansible struct {
	inventoryPath string
	playbookPath  string
	pingTimeout   int
	exec          backend.CommandExecutor
}

// New creates an Ansible runner. The ping timeout is deliberately short: at
// this point both nodes answered their init sessions already, so a slow host
// is a broken host.
func New(inventoryPath, playbookPath string, executor backend.CommandExecutor) *Ansible {
	return &Ansible{
		inventoryPath: inventoryPath,
		playbookPath:  playbookPath,
		pingTimeout:   5,
		exec:          executor,
	}
}

// Ping implements Configurator.Ping
func (a *Ansible) Ping(ctx context.Context) error {
	log.Printf("[ANSIBLE] pinging all hosts in %s", a.inventoryPath)
	output, err := a.exec.Execute(ctx, "ansible", "all",
		"-i", a.inventoryPath,
		"-m", "ping",
		"-T", strconv.Itoa(a.pingTimeout),
		"-o")
	if err != nil {
		return errors.Wrap(backend.NewCommandError("ansible", nil, string(output), err),
			errors.ErrBackend, "connectivity precheck failed")
	}
	return nil
}

// RunPlaybook implements Configurator.RunPlaybook
func (a *Ansible) RunPlaybook(ctx context.Context) error {
	log.Printf("[ANSIBLE] running playbook %s", a.playbookPath)
	output, err := a.exec.Execute(ctx, "ansible-playbook",
		"-i", a.inventoryPath,
		a.playbookPath)
	if err != nil {
		return errors.Wrap(backend.NewCommandError("ansible-playbook", nil, string(output), err),
			errors.ErrBackend, fmt.Sprintf("playbook %s failed", a.playbookPath))
	}
	return nil
}
