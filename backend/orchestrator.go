package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wormgate/wormgate/errors"
)

// Orchestrator is the adapter over the orchestration CLI that owns the
// wormhole node. Failures propagate immediately; retry belongs to callers.
type Orchestrator interface {
	// CreateNode brings the node up
	CreateNode(ctx context.Context) error

	// QueryAddress returns the address assigned to the node.
	// Only valid after CreateNode succeeded.
	QueryAddress(ctx context.Context) (string, error)

	// DestroyNode tears the node down
	DestroyNode(ctx context.Context) error
}

// stateEntry mirrors one entry of the CLI's state output
type stateEntry struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Status  string `json:"status"`
}

// OrchestratorCLI drives an external orchestration binary
type OrchestratorCLI struct {
	bin  string
	exec CommandExecutor
}

// NewOrchestratorCLI creates an adapter around the named binary
func NewOrchestratorCLI(bin string, executor CommandExecutor) *OrchestratorCLI {
	return &OrchestratorCLI{
		bin:  bin,
		exec: executor,
	}
}

// CreateNode implements Orchestrator.CreateNode via the apply subcommand
func (o *OrchestratorCLI) CreateNode(ctx context.Context) error {
	if _, err := runCommand(o.exec, ctx, o.bin, "apply"); err != nil {
		return errors.Wrap(err, errors.ErrBackend, "orchestrator apply failed")
	}
	return nil
}

// QueryAddress implements Orchestrator.QueryAddress via the state subcommand
func (o *OrchestratorCLI) QueryAddress(ctx context.Context) (string, error) {
	output, err := runCommand(o.exec, ctx, o.bin, "state", "--format", "json")
	if err != nil {
		return "", errors.Wrap(err, errors.ErrBackend, "orchestrator state query failed")
	}

	var entries []stateEntry
	if err := json.Unmarshal(output, &entries); err != nil {
		return "", errors.Wrap(err, errors.ErrBackend,
			fmt.Sprintf("failed to parse %s state output", o.bin))
	}
	if len(entries) == 0 {
		return "", errors.New(errors.ErrBackend,
			fmt.Sprintf("%s state holds no nodes", o.bin))
	}
	if entries[0].Address == "" {
		return "", errors.New(errors.ErrBackend,
			fmt.Sprintf("node %q has no address yet", entries[0].Name))
	}

	return entries[0].Address, nil
}

// DestroyNode implements Orchestrator.DestroyNode via the destroy subcommand
func (o *OrchestratorCLI) DestroyNode(ctx context.Context) error {
	if _, err := runCommand(o.exec, ctx, o.bin, "destroy"); err != nil {
		return errors.Wrap(err, errors.ErrBackend, "orchestrator destroy failed")
	}
	return nil
}
