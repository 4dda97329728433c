// Package assettest provides builders and collaborator stubs for tests that
// need verifiable asset records without a chain or a web server.
package assettest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"asset-registry/internal/asset"
)

// PubKeyHex is a structurally valid compressed secp256k1 key (the curve
// generator point) for records whose deletion path is not under test.
const PubKeyHex = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"

// Params describes the record to build. Zero-value fields get defaults from
// DefaultParams.
type Params struct {
	PubKeyHex string
	Name      string
	Ticker    string
	Precision uint8
	Domain    string
	TxIn      asset.TxIn
	Prevout   asset.OutPoint
}

func DefaultParams() Params {
	issuanceTxid := MustTxid("11baee0a6b7f3b8e3e5e6ad3da442f1b20a369ed0c83a5e0a272fdcbf34a2baa")
	prevoutTxid := MustTxid("3b50eeb6b48b7c8957e8b497d1238dbe68cd4a2bbec176a7faeb5f5e7f1f49e6")
	return Params{
		PubKeyHex: PubKeyHex,
		Name:      "Foo Token",
		Ticker:    "FOO",
		Domain:    "test.dev",
		TxIn:      asset.TxIn{Txid: issuanceTxid, Vin: 0},
		Prevout:   asset.OutPoint{Txid: prevoutTxid, Vout: 1},
	}
}

// MustTxid parses a display-hex txid or panics.
func MustTxid(s string) asset.Txid {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		panic(err)
	}
	return asset.Txid(*h)
}

// ContractJSON builds a version-0 contract document for the params.
func ContractJSON(p Params) json.RawMessage {
	doc := map[string]any{
		"version":       0,
		"issuer_pubkey": p.PubKeyHex,
		"name":          p.Name,
		"precision":     p.Precision,
		"entity":        map[string]string{"domain": p.Domain},
	}
	if p.Ticker != "" {
		doc["ticker"] = p.Ticker
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return raw
}

// NewRecord builds a record whose asset id genuinely commits to its contract
// and prevout, so the commitment stage passes.
func NewRecord(p Params) *asset.Asset {
	contract := ContractJSON(p)

	fields, err := asset.FieldsFromContract(contract)
	if err != nil {
		panic(err)
	}
	contractHash, err := asset.ContractHash(contract)
	if err != nil {
		panic(err)
	}

	return &asset.Asset{
		AssetID:         asset.DeriveAssetID(asset.DeriveEntropy(p.Prevout, contractHash)),
		Contract:        contract,
		IssuanceTxIn:    p.TxIn,
		IssuancePrevout: p.Prevout,
		Fields:          fields,
	}
}

// NewRecordWithContractPatch builds a record from a contract with extra or
// overridden keys, re-deriving the id so the commitment stage still passes
// and later stages can be exercised in isolation.
func NewRecordWithContractPatch(p Params, patch map[string]any) *asset.Asset {
	var doc map[string]any
	if err := json.Unmarshal(ContractJSON(p), &doc); err != nil {
		panic(err)
	}
	for k, v := range patch {
		doc[k] = v
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}

	fields, err := asset.FieldsFromContract(raw)
	if err != nil {
		panic(err)
	}
	contractHash, err := asset.ContractHash(raw)
	if err != nil {
		panic(err)
	}

	return &asset.Asset{
		AssetID:         asset.DeriveAssetID(asset.DeriveEntropy(p.Prevout, contractHash)),
		Contract:        raw,
		IssuanceTxIn:    p.TxIn,
		IssuancePrevout: p.Prevout,
		Fields:          fields,
	}
}

// SignDeletion produces a compact deletion signature by the given key.
func SignDeletion(priv *btcec.PrivateKey, a *asset.Asset) []byte {
	return ecdsa.SignCompact(priv, asset.SignedMessageHash(a.DeletionMessage()), true)
}

// StubGetter plays the proof page server for any requested asset id and
// domain, like a wildcard-hosted well-known directory. Overrides turn it
// into the various failure modes.
type StubGetter struct {
	// Body overrides the served proof body when non-nil.
	Body *string
	// Status overrides the 200 response code when nonzero.
	Status int
	// Err fails the request at the transport level.
	Err error
	// Delay simulates network latency inside the pipeline.
	Delay time.Duration

	mu       sync.Mutex
	Requests []string
}

func (s *StubGetter) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	s.mu.Lock()
	s.Requests = append(s.Requests, rawURL)
	s.mu.Unlock()

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.Err != nil {
		return nil, s.Err
	}

	status := s.Status
	if status == 0 {
		status = http.StatusOK
	}

	var body string
	if s.Body != nil {
		body = *s.Body
	} else {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, err
		}
		id := strings.TrimPrefix(u.Path, "/.well-known/liquid-asset-proof-")
		body = fmt.Sprintf("Authorize linking the domain name %s to the Liquid asset %s", u.Host, id)
	}

	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}, nil
}

// RequestCount returns how many GETs the stub served.
func (s *StubGetter) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}

// StubChain is an in-memory asset.ChainQuery.
type StubChain struct {
	Assets      map[asset.ID]asset.IssuanceInfo
	Unconfirmed bool
	Err         error
}

func (c *StubChain) GetAsset(_ context.Context, id asset.ID) (*asset.IssuanceInfo, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	info, ok := c.Assets[id]
	if !ok {
		return nil, asset.ErrAssetNotFound
	}
	return &info, nil
}

func (c *StubChain) ConfirmIssuance(_ context.Context, _ asset.TxIn, _ asset.OutPoint, _ asset.ID) (bool, error) {
	if c.Err != nil {
		return false, c.Err
	}
	return !c.Unconfirmed, nil
}
