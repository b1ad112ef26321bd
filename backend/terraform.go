package backend

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/wormgate/wormgate/errors"
)

// Infra is the adapter over the declarative infrastructure tool that owns the
// stargate node.
type Infra interface {
	// Apply converges the resource graph, creating the node
	Apply(ctx context.Context) error

	// Output reads a named output value from the applied state
	Output(ctx context.Context, name string) (string, error)

	// Destroy tears the resource graph down
	Destroy(ctx context.Context) error
}

// TerraformCLI drives the terraform binary in a fixed working directory
type TerraformCLI struct {
	bin  string
	dir  string
	exec CommandExecutor

	// TolerateInitFailure downgrades an init failure to a warning; the
	// subsequent apply is expected to self-recover the backend state.
	TolerateInitFailure bool
}

// NewTerraformCLI creates an adapter for a terraform working directory.
// Init failures are tolerated by default, matching the workflow's policy.
func NewTerraformCLI(bin, dir string, executor CommandExecutor) *TerraformCLI {
	return &TerraformCLI{
		bin:                 bin,
		dir:                 dir,
		exec:                executor,
		TolerateInitFailure: true,
	}
}

// Apply implements Infra.Apply as init-then-apply with auto-approve
func (t *TerraformCLI) Apply(ctx context.Context) error {
	if _, err := runCommandInDir(t.exec, ctx, t.dir, t.bin, "init", "-input=false"); err != nil {
		if !t.TolerateInitFailure {
			return errors.Wrap(err, errors.ErrBackend, "terraform init failed")
		}
		log.Printf("[STARGATE] warning: terraform init failed, continuing: %v", err)
	}

	if _, err := runCommandInDir(t.exec, ctx, t.dir, t.bin, "apply", "-auto-approve", "-input=false"); err != nil {
		return errors.Wrap(err, errors.ErrBackend, "terraform apply failed")
	}
	return nil
}

// Output implements Infra.Output via `output -raw`
func (t *TerraformCLI) Output(ctx context.Context, name string) (string, error) {
	output, err := runCommandInDir(t.exec, ctx, t.dir, t.bin, "output", "-raw", name)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrBackend,
			fmt.Sprintf("terraform output %s failed", name))
	}

	value := strings.TrimSpace(string(output))
	if value == "" {
		return "", errors.New(errors.ErrBackend,
			fmt.Sprintf("terraform output %s is empty", name))
	}
	return value, nil
}

// Destroy implements Infra.Destroy with auto-approve
func (t *TerraformCLI) Destroy(ctx context.Context) error {
	if _, err := runCommandInDir(t.exec, ctx, t.dir, t.bin, "destroy", "-auto-approve", "-input=false"); err != nil {
		return errors.Wrap(err, errors.ErrBackend, "terraform destroy failed")
	}
	return nil
}
