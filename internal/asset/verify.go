package asset

import (
	"context"
	"regexp"

	"github.com/btcsuite/btcd/btcec/v2"

	"asset-registry/internal/entity"
	dErrors "asset-registry/pkg/domain-errors"
)

const (
	// contractVersionSupported is the only schema version the validator
	// understands.
	contractVersionSupported = 0

	// maxPrecision bounds the number of decimal places an asset may declare.
	maxPrecision = 8
)

var (
	reName   = regexp.MustCompile(`^[[:ascii:]]{1,255}$`)
	reTicker = regexp.MustCompile(`^[a-zA-Z.\-]{3,5}$`)
)

// ErrAssetNotFound is returned by ChainQuery implementations when the chain
// has no issuance for the requested id.
var ErrAssetNotFound = dErrors.New(dErrors.CodeNotFound, "asset id not found")

// IssuanceInfo is the chain's record of how an asset came to exist.
type IssuanceInfo struct {
	IssuanceTxIn    TxIn     `json:"issuance_txin"`
	IssuancePrevout OutPoint `json:"issuance_prevout"`
}

// ChainQuery is the read-only chain lookup capability. It is optional: a nil
// ChainQuery puts the pipeline in offline validation mode and the on-chain
// stage is skipped.
type ChainQuery interface {
	// GetAsset fetches issuance metadata for an asset id, or
	// ErrAssetNotFound.
	GetAsset(ctx context.Context, id ID) (*IssuanceInfo, error)

	// ConfirmIssuance reports whether the referenced issuance transaction
	// is confirmed on-chain.
	ConfirmIssuance(ctx context.Context, txin TxIn, prevout OutPoint, id ID) (bool, error)
}

// Verify runs the full verification pipeline in fixed order: commitment,
// fields, on-chain issuance (when a chain backend is present), then the
// entity link challenge. The first failure short-circuits the rest.
func (a *Asset) Verify(ctx context.Context, chain ChainQuery, client entity.HTTPGetter) error {
	if err := a.verifyCommitment(); err != nil {
		return dErrors.Wrap(dErrors.CodeOf(err), "failed verifying issuance commitment", err)
	}
	if err := a.verifyFields(); err != nil {
		return dErrors.Wrap(dErrors.CodeOf(err), "failed verifying asset fields", err)
	}
	if chain != nil {
		if err := a.verifyChainIssuance(ctx, chain); err != nil {
			return dErrors.Wrap(dErrors.CodeOf(err), "failed verifying on-chain issuance", err)
		}
	}
	if err := a.Fields.Entity.VerifyLink(ctx, client, a.AssetID.String()); err != nil {
		return dErrors.Wrap(dErrors.CodeOf(err), "failed verifying linked entity", err)
	}
	return nil
}

// verifyCommitment recomputes the asset id from the issuance prevout and the
// contract hash and requires equality with the declared id.
func (a *Asset) verifyCommitment() error {
	contractHash, err := ContractHash(a.Contract)
	if err != nil {
		return err
	}
	derived := DeriveAssetID(DeriveEntropy(a.IssuancePrevout, contractHash))
	if derived != a.AssetID {
		return dErrors.Newf(dErrors.CodeCommitment,
			"invalid asset commitment: derived %s, declared %s", derived, a.AssetID)
	}
	return nil
}

// verifyFields checks the structural validity of the issuer-supplied fields
// and their consistency with the committed contract.
func (a *Asset) verifyFields() error {
	// Signed field updates are permanently unsupported; the rejection is
	// policy, not a missing feature.
	if a.Signature != "" {
		return dErrors.New(dErrors.CodePolicy, "updates are disabled")
	}

	version, err := a.contractVersion()
	if err != nil {
		return err
	}
	if version != contractVersionSupported {
		return dErrors.Newf(dErrors.CodeStructural, "unknown contract version %d", version)
	}

	committed, err := FieldsFromContract(a.Contract)
	if err != nil {
		return err
	}
	if !a.Fields.Equal(committed) {
		return dErrors.New(dErrors.CodeFieldMismatch, "fields mismatch commitment")
	}

	if a.Fields.Precision > maxPrecision {
		return dErrors.Newf(dErrors.CodeValidation, "precision %d out of range", a.Fields.Precision)
	}
	if !reName.MatchString(a.Fields.Name) {
		return dErrors.New(dErrors.CodeValidation, "invalid name")
	}
	if a.Fields.Ticker != nil && !reTicker.MatchString(*a.Fields.Ticker) {
		return dErrors.Newf(dErrors.CodeValidation, "invalid ticker %q", *a.Fields.Ticker)
	}

	pubkey, err := a.IssuerPubKey()
	if err != nil {
		return err
	}
	if _, err := btcec.ParsePubKey(pubkey); err != nil {
		return dErrors.Wrap(dErrors.CodeCrypto, "invalid issuer public key", err)
	}

	return a.Fields.Entity.Validate()
}

// verifyChainIssuance confirms the claimed issuance against the chain query
// backend.
func (a *Asset) verifyChainIssuance(ctx context.Context, chain ChainQuery) error {
	info, err := chain.GetAsset(ctx, a.AssetID)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeChainVerification, "chain lookup failed", err)
	}
	if info.IssuanceTxIn != a.IssuanceTxIn {
		return dErrors.New(dErrors.CodeChainVerification, "issuance txin mismatch")
	}
	if info.IssuancePrevout != a.IssuancePrevout {
		return dErrors.New(dErrors.CodeChainVerification, "issuance prevout mismatch")
	}

	confirmed, err := chain.ConfirmIssuance(ctx, a.IssuanceTxIn, a.IssuancePrevout, a.AssetID)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeChainVerification, "issuance confirmation failed", err)
	}
	if !confirmed {
		return dErrors.New(dErrors.CodeChainVerification, "issuance transaction not confirmed")
	}
	return nil
}
