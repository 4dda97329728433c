// Package chain implements the read-only chain query backend on top of an
// esplora-style HTTP API.
package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"asset-registry/internal/asset"
	dErrors "asset-registry/pkg/domain-errors"
)

// EsploraClient talks to an esplora index. It satisfies asset.ChainQuery.
type EsploraClient struct {
	base   string
	client *http.Client
	logger *slog.Logger
}

// NewEsplora builds a client for the API rooted at base. The timeout bounds
// each request; the verification pipeline holds the write lock for its full
// duration, so keep it short.
func NewEsplora(base string, timeout time.Duration, logger *slog.Logger) *EsploraClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &EsploraClient{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// assetResponse is the subset of the esplora asset endpoint the verifier
// needs.
type assetResponse struct {
	IssuanceTxIn    asset.TxIn     `json:"issuance_txin"`
	IssuancePrevout asset.OutPoint `json:"issuance_prevout"`
}

type txStatusResponse struct {
	Confirmed bool `json:"confirmed"`
}

// GetAsset fetches issuance metadata for an asset id.
func (c *EsploraClient) GetAsset(ctx context.Context, id asset.ID) (*asset.IssuanceInfo, error) {
	var resp assetResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/asset/%s", id), &resp); err != nil {
		return nil, err
	}
	return &asset.IssuanceInfo{
		IssuanceTxIn:    resp.IssuanceTxIn,
		IssuancePrevout: resp.IssuancePrevout,
	}, nil
}

// ConfirmIssuance reports whether the issuance transaction is confirmed.
func (c *EsploraClient) ConfirmIssuance(ctx context.Context, txin asset.TxIn, _ asset.OutPoint, _ asset.ID) (bool, error) {
	var status txStatusResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/tx/%s/status", txin.Txid), &status); err != nil {
		return false, err
	}
	return status.Confirmed, nil
}

func (c *EsploraClient) getJSON(ctx context.Context, path string, out any) error {
	url := c.base + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed building chain request", err)
	}

	c.logger.Debug("chain query", "url", url)

	resp, err := c.client.Do(req)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeChainVerification, fmt.Sprintf("failed fetching %s", url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return asset.ErrAssetNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return dErrors.Newf(dErrors.CodeChainVerification, "chain backend returned status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeChainVerification, "failed reading chain response", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return dErrors.Wrap(dErrors.CodeChainVerification, "invalid chain response", err)
	}
	return nil
}
