package workflow

import (
	"fmt"

	"github.com/davidroman0O/gostage"
	"github.com/davidroman0O/gostage/store"

	"github.com/wormgate/wormgate/errors"
	"github.com/wormgate/wormgate/inventory"
	"github.com/wormgate/wormgate/nodeinit"
)

// preflightAction verifies every external binary the run will shell out to
// before any node is created.
type preflightAction struct {
	gostage.BaseAction
	deps *Deps
}

func newPreflightAction(deps *Deps) *preflightAction {
	return &preflightAction{
		BaseAction: gostage.NewBaseAction("preflight", "Verifies required external binaries are installed"),
		deps:       deps,
	}
}

func (a *preflightAction) Execute(ctx *gostage.ActionContext) error {
	binaries := []string{
		a.deps.Config.OrchestratorBin,
		a.deps.Config.TerraformBin,
		"ansible",
		"ansible-playbook",
	}
	for _, bin := range binaries {
		if _, err := a.deps.lookPath(bin); err != nil {
			return errors.Wrap(err, errors.ErrConfiguration,
				fmt.Sprintf("required binary %q not found in PATH", bin))
		}
		ctx.Logger.Debug("found binary %s", bin)
	}
	return nil
}

// createWormholeAction creates the wormhole node and records its address
type createWormholeAction struct {
	gostage.BaseAction
	deps *Deps
}

func newCreateWormholeAction(deps *Deps) *createWormholeAction {
	return &createWormholeAction{
		BaseAction: gostage.NewBaseAction("create-wormhole", "Creates the wormhole node via the orchestration CLI"),
		deps:       deps,
	}
}

func (a *createWormholeAction) Execute(ctx *gostage.ActionContext) error {
	ctx.Logger.Info("creating wormhole node")
	if err := a.deps.Orchestrator.CreateNode(ctx.GoContext); err != nil {
		return err
	}

	address, err := a.deps.Orchestrator.QueryAddress(ctx.GoContext)
	if err != nil {
		return err
	}

	ctx.Logger.Info("wormhole node is up at %s", address)
	return ctx.Store().Put(KeyWormholeAddress, address)
}

// createStargateAction converges the declarative backend and records the
// stargate address from its named output.
type createStargateAction struct {
	gostage.BaseAction
	deps *Deps
}

func newCreateStargateAction(deps *Deps) *createStargateAction {
	return &createStargateAction{
		BaseAction: gostage.NewBaseAction("create-stargate", "Creates the stargate node via the declarative backend"),
		deps:       deps,
	}
}

func (a *createStargateAction) Execute(ctx *gostage.ActionContext) error {
	ctx.Logger.Info("creating stargate node")
	if err := a.deps.Infra.Apply(ctx.GoContext); err != nil {
		return err
	}

	address, err := a.deps.Infra.Output(ctx.GoContext, a.deps.Config.AddressOutput)
	if err != nil {
		return err
	}

	ctx.Logger.Info("stargate node is up at %s", address)
	return ctx.Store().Put(KeyStargateAddress, address)
}

// updateInventoryAction rewrites one role's inventory entry from the store
type updateInventoryAction struct {
	gostage.BaseAction
	deps     *Deps
	role     nodeinit.Role
	storeKey string
}

func newUpdateInventoryAction(deps *Deps, role nodeinit.Role, storeKey string) *updateInventoryAction {
	return &updateInventoryAction{
		BaseAction: gostage.NewBaseAction(
			fmt.Sprintf("update-inventory-%s", role),
			fmt.Sprintf("Points the %s inventory entry at the new node", role)),
		deps:     deps,
		role:     role,
		storeKey: storeKey,
	}
}

func (a *updateInventoryAction) Execute(ctx *gostage.ActionContext) error {
	address, err := store.Get[string](ctx.Store(), a.storeKey)
	if err != nil {
		return err
	}

	ctx.Logger.Info("pointing inventory entry [%s] at %s", a.role, address)
	return inventory.Update(a.deps.Config.InventoryPath, string(a.role), address)
}

// registerDNSAction points the domain's A record at the wormhole
type registerDNSAction struct {
	gostage.BaseAction
	deps *Deps
}

func newRegisterDNSAction(deps *Deps) *registerDNSAction {
	return &registerDNSAction{
		BaseAction: gostage.NewBaseAction("register-dns", "Registers the wormhole address in DNS"),
		deps:       deps,
	}
}

func (a *registerDNSAction) Execute(ctx *gostage.ActionContext) error {
	address, err := store.Get[string](ctx.Store(), KeyWormholeAddress)
	if err != nil {
		return err
	}
	return a.deps.Registrar.Ensure(ctx.GoContext, a.deps.Config.Domain, address)
}

// removeDNSAction deletes the domain's A record
type removeDNSAction struct {
	gostage.BaseAction
	deps *Deps
}

func newRemoveDNSAction(deps *Deps) *removeDNSAction {
	return &removeDNSAction{
		BaseAction: gostage.NewBaseAction("remove-dns", "Removes the wormhole address from DNS"),
		deps:       deps,
	}
}

func (a *removeDNSAction) Execute(ctx *gostage.ActionContext) error {
	return a.deps.Registrar.Remove(ctx.GoContext, a.deps.Config.Domain)
}

// installKeyAction pushes the local public key onto the wormhole's
// unprivileged account so the hardening step can hand it to root.
type installKeyAction struct {
	gostage.BaseAction
	deps *Deps
}

func newInstallKeyAction(deps *Deps) *installKeyAction {
	return &installKeyAction{
		BaseAction: gostage.NewBaseAction("install-key", "Authorizes the local public key on the wormhole"),
		deps:       deps,
	}
}

func (a *installKeyAction) Execute(ctx *gostage.ActionContext) error {
	pubKey := a.deps.Config.SSH.PublicKeyPath
	if pubKey == "" {
		ctx.Logger.Info("no public key configured, skipping key installation")
		return nil
	}

	address, err := store.Get[string](ctx.Store(), KeyWormholeAddress)
	if err != nil {
		return err
	}
	return a.deps.Keys.InstallAuthorizedKey(ctx.GoContext,
		a.deps.Config.SSH.WormholeUser, address, 22, pubKey)
}

// initNodeAction runs the hardening procedure against one node
type initNodeAction struct {
	gostage.BaseAction
	deps     *Deps
	role     nodeinit.Role
	storeKey string
}

func newInitNodeAction(deps *Deps, role nodeinit.Role, storeKey string) *initNodeAction {
	return &initNodeAction{
		BaseAction: gostage.NewBaseAction(
			fmt.Sprintf("init-%s", role),
			fmt.Sprintf("Hardens the %s node over SSH", role)),
		deps:     deps,
		role:     role,
		storeKey: storeKey,
	}
}

func (a *initNodeAction) Execute(ctx *gostage.ActionContext) error {
	address, err := store.Get[string](ctx.Store(), a.storeKey)
	if err != nil {
		return err
	}
	return a.deps.Initializer.Init(ctx.GoContext, a.role, address)
}

// pingAction checks reachability of every inventory host before the playbook
type pingAction struct {
	gostage.BaseAction
	deps *Deps
}

func newPingAction(deps *Deps) *pingAction {
	return &pingAction{
		BaseAction: gostage.NewBaseAction("ping", "Checks SSH reachability of all inventory hosts"),
		deps:       deps,
	}
}

func (a *pingAction) Execute(ctx *gostage.ActionContext) error {
	return a.deps.Configurator.Ping(ctx.GoContext)
}

// playbookAction hands the topology to the configuration layer
type playbookAction struct {
	gostage.BaseAction
	deps *Deps
}

func newPlaybookAction(deps *Deps) *playbookAction {
	return &playbookAction{
		BaseAction: gostage.NewBaseAction("playbook", "Runs the VPN playbook against the topology"),
		deps:       deps,
	}
}

func (a *playbookAction) Execute(ctx *gostage.ActionContext) error {
	return a.deps.Configurator.RunPlaybook(ctx.GoContext)
}

// destroyWormholeAction tears the wormhole node down
type destroyWormholeAction struct {
	gostage.BaseAction
	deps *Deps
}

func newDestroyWormholeAction(deps *Deps) *destroyWormholeAction {
	return &destroyWormholeAction{
		BaseAction: gostage.NewBaseAction("destroy-wormhole", "Destroys the wormhole node"),
		deps:       deps,
	}
}

func (a *destroyWormholeAction) Execute(ctx *gostage.ActionContext) error {
	ctx.Logger.Info("destroying wormhole node")
	return a.deps.Orchestrator.DestroyNode(ctx.GoContext)
}

// destroyStargateAction tears the stargate node down
type destroyStargateAction struct {
	gostage.BaseAction
	deps *Deps
}

func newDestroyStargateAction(deps *Deps) *destroyStargateAction {
	return &destroyStargateAction{
		BaseAction: gostage.NewBaseAction("destroy-stargate", "Destroys the stargate node"),
		deps:       deps,
	}
}

func (a *destroyStargateAction) Execute(ctx *gostage.ActionContext) error {
	ctx.Logger.Info("destroying stargate node")
	return a.deps.Infra.Destroy(ctx.GoContext)
}
