package registry

import (
	"context"
	"os/exec"

	"asset-registry/internal/asset"
	dErrors "asset-registry/pkg/domain-errors"
)

// execHook invokes the configured post-commit executable as
// hook(asset_id_hex, absolute_path) with the registry root as working
// directory. Exit status is the sole success signal.
func (r *Registry) execHook(ctx context.Context, id asset.ID, path string) error {
	if r.hookCmd == "" {
		return nil
	}

	r.logger.Debug("running hook", "cmd", r.hookCmd, "asset_id", id.String())

	cmd := exec.CommandContext(ctx, r.hookCmd, id.String(), path)
	cmd.Dir = r.dir

	output, err := cmd.CombinedOutput()
	if len(output) > 0 {
		r.logger.Debug("hook output", "output", string(output))
	}
	if err != nil {
		return dErrors.Wrap(dErrors.CodeHook, "hook exited with failure", err)
	}
	return nil
}
