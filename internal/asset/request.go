package asset

import (
	"context"
	"encoding/json"

	dErrors "asset-registry/pkg/domain-errors"
)

// Request is an issuer submission: the claimed id plus the contract the id
// is supposed to commit to. Issuance references are resolved from the chain,
// never taken from the issuer.
type Request struct {
	AssetID  ID              `json:"asset_id"`
	Contract json.RawMessage `json:"contract"`
}

// FromRequest builds a candidate record from a submission, resolving the
// issuance input and prevout through the chain query backend. The result is
// unverified; callers hand it to the registry to run the pipeline.
func FromRequest(ctx context.Context, req Request, chain ChainQuery) (*Asset, error) {
	info, err := chain.GetAsset(ctx, req.AssetID)
	if err != nil {
		return nil, err
	}

	fields, err := FieldsFromContract(req.Contract)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeOf(err), "invalid contract fields", err)
	}

	return &Asset{
		AssetID:         req.AssetID,
		Contract:        req.Contract,
		IssuanceTxIn:    info.IssuanceTxIn,
		IssuancePrevout: info.IssuancePrevout,
		Fields:          fields,
	}, nil
}
