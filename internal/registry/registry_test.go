package registry_test

import (
	"context"
	"encoding/hex"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/suite"

	"asset-registry/internal/asset"
	"asset-registry/internal/asset/assettest"
	"asset-registry/internal/registry"
	dErrors "asset-registry/pkg/domain-errors"
)

type RegistrySuite struct {
	suite.Suite
	dir    string
	getter *assettest.StubGetter
	reg    *registry.Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.getter = &assettest.StubGetter{}

	var err error
	s.reg, err = registry.New(registry.Config{Dir: s.dir, Client: s.getter})
	s.Require().NoError(err)
}

func (s *RegistrySuite) TestNew() {
	s.Run("missing directory", func() {
		_, err := registry.New(registry.Config{Client: s.getter})
		s.Error(err)
	})

	s.Run("missing client", func() {
		_, err := registry.New(registry.Config{Dir: s.dir})
		s.Error(err)
	})
}

func (s *RegistrySuite) TestWriteThenLoad() {
	ctx := context.Background()
	record := assettest.NewRecord(assettest.DefaultParams())

	s.Require().NoError(s.reg.Write(ctx, record))

	// Partitioned layout: {root}/{first two hex chars}/{id}.json
	name := record.AssetID.String() + ".json"
	path := filepath.Join(s.dir, name[:2], name)
	_, err := os.Stat(path)
	s.Require().NoError(err)

	loaded, found, err := s.reg.Load(ctx, record.AssetID)
	s.Require().NoError(err)
	s.Require().True(found)
	s.Equal(record.AssetID, loaded.AssetID)
	s.True(record.Fields.Equal(loaded.Fields))
}

func (s *RegistrySuite) TestLoadNeverWritten() {
	id, err := asset.NewIDFromHex("ce091c998b83c78bb71a632313ba3760f1763d9cfcffae02258ffa9865a37bd2")
	s.Require().NoError(err)

	_, found, err := s.reg.Load(context.Background(), id)
	s.NoError(err)
	s.False(found)
}

func (s *RegistrySuite) TestLoadCorruptRecord() {
	ctx := context.Background()
	record := assettest.NewRecord(assettest.DefaultParams())
	s.Require().NoError(s.reg.Write(ctx, record))

	name := record.AssetID.String() + ".json"
	path := filepath.Join(s.dir, name[:2], name)
	s.Require().NoError(os.WriteFile(path, []byte("{not json"), 0o644))

	// A present-but-unreadable record is an io failure, not "not found" and
	// not a client-side structural error.
	_, found, err := s.reg.Load(ctx, record.AssetID)
	s.Error(err)
	s.False(found)
	s.Equal(dErrors.CodeIO, dErrors.CodeOf(err))
}

func (s *RegistrySuite) TestFailedVerificationPersistsNothing() {
	ctx := context.Background()
	record := assettest.NewRecord(assettest.DefaultParams())
	record.AssetID[0] ^= 0x01

	err := s.reg.Write(ctx, record)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeCommitment))

	entries, readErr := os.ReadDir(s.dir)
	s.Require().NoError(readErr)
	s.Empty(entries)
}

func (s *RegistrySuite) TestOverwriteReverifies() {
	ctx := context.Background()
	record := assettest.NewRecord(assettest.DefaultParams())
	s.Require().NoError(s.reg.Write(ctx, record))
	s.Require().NoError(s.reg.Write(ctx, record))
	s.Equal(2, s.getter.RequestCount())
}

func (s *RegistrySuite) writeHook(script string) string {
	path := filepath.Join(s.T().TempDir(), "hook.sh")
	s.Require().NoError(os.WriteFile(path, []byte(script), 0o755))
	return path
}

func (s *RegistrySuite) TestHook() {
	ctx := context.Background()

	s.Run("hook receives id and path, cwd is registry root", func() {
		outFile := filepath.Join(s.T().TempDir(), "hook.out")
		hook := s.writeHook("#!/bin/sh\necho \"$PWD $1 $2\" > " + outFile + "\n")

		reg, err := registry.New(registry.Config{Dir: s.dir, Client: s.getter, HookCmd: hook})
		s.Require().NoError(err)

		record := assettest.NewRecord(assettest.DefaultParams())
		s.Require().NoError(reg.Write(ctx, record))

		out, err := os.ReadFile(outFile)
		s.Require().NoError(err)
		s.Contains(string(out), s.dir)
		s.Contains(string(out), record.AssetID.String())
		s.Contains(string(out), record.AssetID.String()+".json")
	})

	s.Run("failing hook reports HookError but record stays persisted", func() {
		hook := s.writeHook("#!/bin/sh\nexit 1\n")

		reg, err := registry.New(registry.Config{Dir: s.dir, Client: s.getter, HookCmd: hook})
		s.Require().NoError(err)

		record := assettest.NewRecord(assettest.DefaultParams())
		writeErr := reg.Write(ctx, record)
		s.Require().Error(writeErr)
		s.True(dErrors.HasCode(writeErr, dErrors.CodeHook))

		_, found, err := reg.Load(ctx, record.AssetID)
		s.Require().NoError(err)
		s.True(found)
	})
}

func (s *RegistrySuite) TestDelete() {
	ctx := context.Background()

	priv, err := btcec.NewPrivateKey()
	s.Require().NoError(err)

	p := assettest.DefaultParams()
	p.PubKeyHex = hex.EncodeToString(priv.PubKey().SerializeCompressed())
	record := assettest.NewRecord(p)
	s.Require().NoError(s.reg.Write(ctx, record))

	s.Run("wrong signature is rejected", func() {
		other, err := btcec.NewPrivateKey()
		s.Require().NoError(err)
		err = s.reg.Delete(ctx, record.AssetID, assettest.SignDeletion(other, record))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCrypto))

		_, found, loadErr := s.reg.Load(ctx, record.AssetID)
		s.Require().NoError(loadErr)
		s.True(found)
	})

	s.Run("issuer signature removes the record", func() {
		s.Require().NoError(s.reg.Delete(ctx, record.AssetID, assettest.SignDeletion(priv, record)))
		_, found, err := s.reg.Load(ctx, record.AssetID)
		s.Require().NoError(err)
		s.False(found)
	})

	s.Run("deleting an absent record", func() {
		err := s.reg.Delete(ctx, record.AssetID, assettest.SignDeletion(priv, record))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// Two concurrent writes must run their pipelines without interleaving, even
// for different asset ids.
func (s *RegistrySuite) TestWriteMutualExclusion() {
	ctx := context.Background()

	var mu sync.Mutex
	var active, maxActive int
	getter := &trackingGetter{
		StubGetter: assettest.StubGetter{Delay: 20 * time.Millisecond},
		enter: func() {
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()
		},
		exit: func() {
			mu.Lock()
			active--
			mu.Unlock()
		},
	}

	reg, err := registry.New(registry.Config{Dir: s.dir, Client: getter})
	s.Require().NoError(err)

	p2 := assettest.DefaultParams()
	p2.Name = "Second Token"
	records := []*asset.Asset{
		assettest.NewRecord(assettest.DefaultParams()),
		assettest.NewRecord(p2),
	}

	var wg sync.WaitGroup
	for _, record := range records {
		record := record
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.NoError(reg.Write(ctx, record))
		}()
	}
	wg.Wait()

	s.Equal(1, maxActive, "write pipelines overlapped")
}

// trackingGetter observes pipeline entry and exit through the network stage.
type trackingGetter struct {
	assettest.StubGetter
	enter func()
	exit  func()
}

func (g *trackingGetter) Get(ctx context.Context, url string) (resp *http.Response, err error) {
	g.enter()
	defer g.exit()
	return g.StubGetter.Get(ctx, url)
}
