// Package workflow assembles the provisioning steps into the two top-level
// operations, up and down. Steps run strictly in order and the first failure
// aborts the run; nothing is rolled back automatically.
package workflow

import (
	"context"
	"os/exec"

	"github.com/davidroman0O/gostage"

	"github.com/wormgate/wormgate/ansible"
	"github.com/wormgate/wormgate/backend"
	"github.com/wormgate/wormgate/config"
	"github.com/wormgate/wormgate/dns"
	"github.com/wormgate/wormgate/nodeinit"
	"github.com/wormgate/wormgate/remote"
)

// Deps carries everything the workflow actions touch. Tests substitute fakes
// for the individual interfaces.
type Deps struct {
	Config       *config.Config
	Orchestrator backend.Orchestrator
	Infra        backend.Infra
	Initializer  nodeinit.NodeInitializer
	Registrar    dns.Registrar
	Keys         remote.KeyInstaller
	Configurator ansible.Configurator

	// LookPath resolves binary names during preflight; nil means exec.LookPath
	LookPath func(name string) (string, error)
}

func (d *Deps) lookPath(name string) (string, error) {
	if d.LookPath != nil {
		return d.LookPath(name)
	}
	return exec.LookPath(name)
}

// BuildUp assembles the bring-up workflow: wormhole first, then stargate,
// then the configuration-management handoff.
func BuildUp(deps *Deps) *gostage.Workflow {
	wf := gostage.NewWorkflow("wormgate-up", "Bring up", "Provisions the two-node VPN topology")

	preflight := gostage.NewStage("preflight", "Preflight", "Verifies the local environment")
	preflight.AddAction(newPreflightAction(deps))
	wf.AddStage(preflight)

	wormhole := gostage.NewStage("wormhole", "Wormhole", "Creates and initializes the wormhole node")
	wormhole.AddAction(newCreateWormholeAction(deps))
	wormhole.AddAction(newUpdateInventoryAction(deps, nodeinit.RoleWormhole, KeyWormholeAddress))
	wormhole.AddAction(newRegisterDNSAction(deps))
	wormhole.AddAction(newInstallKeyAction(deps))
	wormhole.AddAction(newInitNodeAction(deps, nodeinit.RoleWormhole, KeyWormholeAddress))
	wf.AddStage(wormhole)

	stargate := gostage.NewStage("stargate", "Stargate", "Creates and initializes the stargate node")
	stargate.AddAction(newCreateStargateAction(deps))
	stargate.AddAction(newUpdateInventoryAction(deps, nodeinit.RoleStargate, KeyStargateAddress))
	stargate.AddAction(newInitNodeAction(deps, nodeinit.RoleStargate, KeyStargateAddress))
	wf.AddStage(stargate)

	handoff := gostage.NewStage("handoff", "Handoff", "Hands the topology to configuration management")
	handoff.AddAction(newPingAction(deps))
	handoff.AddAction(newPlaybookAction(deps))
	wf.AddStage(handoff)

	return wf
}

// BuildDown assembles the teardown workflow. The wormhole goes first; a
// failure there leaves the stargate and the DNS record in place so the
// operator can see what remains.
func BuildDown(deps *Deps) *gostage.Workflow {
	wf := gostage.NewWorkflow("wormgate-down", "Tear down", "Destroys the two-node VPN topology")

	teardown := gostage.NewStage("teardown", "Teardown", "Destroys both nodes and the DNS record")
	teardown.AddAction(newDestroyWormholeAction(deps))
	teardown.AddAction(newDestroyStargateAction(deps))
	teardown.AddAction(newRemoveDNSAction(deps))
	wf.AddStage(teardown)

	return wf
}

// Controller runs the assembled workflows
type Controller struct {
	deps   *Deps
	runner *gostage.Runner
	logger gostage.Logger
}

// NewController creates a Controller around the given dependencies
func NewController(deps *Deps) *Controller {
	runner := gostage.NewRunner()
	runner.Use(func(next gostage.RunnerFunc) gostage.RunnerFunc {
		return func(ctx context.Context, w *gostage.Workflow, logger gostage.Logger) error {
			logger.Info("starting workflow: %s", w.Name)
			err := next(ctx, w, logger)
			if err != nil {
				logger.Error("workflow %s failed: %v", w.Name, err)
			} else {
				logger.Info("workflow %s finished", w.Name)
			}
			return err
		}
	})

	return &Controller{
		deps:   deps,
		runner: runner,
		logger: NewLogger(),
	}
}

// Up provisions the full topology
func (c *Controller) Up(ctx context.Context) error {
	return c.runner.Execute(ctx, BuildUp(c.deps), c.logger)
}

// Down destroys the full topology
func (c *Controller) Down(ctx context.Context) error {
	return c.runner.Execute(ctx, BuildDown(c.deps), c.logger)
}
