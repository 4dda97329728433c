// Package registry provides verify-then-persist storage of asset records on
// a partitioned file tree, with a post-commit hook for downstream systems.
package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"asset-registry/internal/asset"
	"asset-registry/internal/entity"
	"asset-registry/internal/registry/metrics"
	dErrors "asset-registry/pkg/domain-errors"
)

// partitionLen is the number of leading hex characters of the asset id used
// for sub-directory partitioning, bounding per-directory fan-out.
const partitionLen = 2

const recordExt = ".json"

// Config wires a Registry's collaborators. Dir and Client are required;
// Chain and HookCmd are optional.
type Config struct {
	// Dir is the registry root directory.
	Dir string

	// Chain enables the on-chain issuance stage. Nil means offline
	// validation mode.
	Chain asset.ChainQuery

	// Client performs the domain-link challenge GET.
	Client entity.HTTPGetter

	// HookCmd is an executable invoked after each commit with the asset id
	// and the record's absolute path, cwd set to Dir.
	HookCmd string

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Registry owns the write lock and the directory handle. All writers go
// through one instance; there is no ambient global state.
type Registry struct {
	dir     string
	chain   asset.ChainQuery
	client  entity.HTTPGetter
	hookCmd string
	logger  *slog.Logger
	metrics *metrics.Metrics

	// mu serializes every write end to end, verification included.
	mu sync.Mutex
}

func New(cfg Config) (*Registry, error) {
	if cfg.Dir == "" {
		return nil, dErrors.New(dErrors.CodeInternal, "registry directory is required")
	}
	if cfg.Client == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "HTTP client is required")
	}
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeIO, "invalid registry directory", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		dir:     dir,
		chain:   cfg.Chain,
		client:  cfg.Client,
		hookCmd: cfg.HookCmd,
		logger:  logger,
		metrics: cfg.Metrics,
	}, nil
}

// recordPath computes the deterministic partitioned location of an id.
func (r *Registry) recordPath(id asset.ID) (subdir, path string) {
	name := id.String() + recordExt
	subdir = filepath.Join(r.dir, name[:partitionLen])
	return subdir, filepath.Join(subdir, name)
}

// Write verifies a candidate record and, only on full success, persists it
// and fires the post-commit hook. Writes are serialized; re-writing an
// existing id re-verifies and replaces the file. A hook failure is reported
// as an error even though the record is already durably persisted.
func (r *Registry) Write(ctx context.Context, a *asset.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := a.Verify(ctx, r.chain, r.client); err != nil {
		r.metrics.IncrementWriteFailures(string(dErrors.CodeOf(err)))
		return err
	}

	subdir, path := r.recordPath(a.AssetID)
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		r.metrics.IncrementWriteFailures(string(dErrors.CodeIO))
		return dErrors.Wrap(dErrors.CodeIO, "failed creating partition directory", err)
	}

	data, err := json.Marshal(a)
	if err != nil {
		r.metrics.IncrementWriteFailures(string(dErrors.CodeStructural))
		return dErrors.Wrap(dErrors.CodeStructural, "failed serializing record", err)
	}

	if err := writeFileAtomic(subdir, path, data); err != nil {
		r.metrics.IncrementWriteFailures(string(dErrors.CodeIO))
		return err
	}

	r.metrics.IncrementWrites()
	r.logger.Info("asset record persisted", "asset_id", a.AssetID.String(), "path", path)

	if err := r.execHook(ctx, a.AssetID, path); err != nil {
		r.metrics.IncrementHookFailures()
		return dErrors.Wrap(dErrors.CodeHook, "hook script failed", err)
	}
	return nil
}

// Load reads a record without taking the write lock. Absence is reported
// through the found flag, not an error; a file that exists but cannot be
// read or decoded is an error.
func (r *Registry) Load(_ context.Context, id asset.ID) (*asset.Asset, bool, error) {
	_, path := r.recordPath(id)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, dErrors.Wrap(dErrors.CodeIO, "failed reading record", err)
	}

	// A record that exists but cannot be decoded is storage corruption, not
	// bad client input; the transport must not answer 4xx for it.
	var a asset.Asset
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, false, dErrors.Wrap(dErrors.CodeIO, "failed decoding record", err)
	}

	r.metrics.IncrementLoads()
	return &a, true, nil
}

// Delete removes a persisted record after checking the issuer's detached
// signature over the fixed deletion message, then runs the hook so external
// indexes resync.
func (r *Registry) Delete(ctx context.Context, id asset.ID, signature []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, found, err := r.Load(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return dErrors.New(dErrors.CodeNotFound, "asset record not found")
	}

	if err := a.VerifyDeletion(signature); err != nil {
		return dErrors.Wrap(dErrors.CodeOf(err), "deletion not authorized", err)
	}

	_, path := r.recordPath(id)
	if err := os.Remove(path); err != nil {
		return dErrors.Wrap(dErrors.CodeIO, "failed removing record", err)
	}

	r.logger.Info("asset record removed", "asset_id", id.String())

	if err := r.execHook(ctx, id, path); err != nil {
		r.metrics.IncrementHookFailures()
		return dErrors.Wrap(dErrors.CodeHook, "hook script failed", err)
	}
	return nil
}

// writeFileAtomic lands the full serialization in one rename so no partial
// write is ever observable at the record path.
func writeFileAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".write-*")
	if err != nil {
		return dErrors.Wrap(dErrors.CodeIO, "failed creating temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return dErrors.Wrap(dErrors.CodeIO, "failed writing record", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return dErrors.Wrap(dErrors.CodeIO, "failed writing record", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return dErrors.Wrap(dErrors.CodeIO, "failed writing record", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return dErrors.Wrap(dErrors.CodeIO, "failed writing record", err)
	}
	return nil
}
