// Package asset holds the immutable asset record model and the verification
// pipeline that decides whether a candidate record may be trusted.
package asset

import (
	"encoding/hex"
	"encoding/json"

	"asset-registry/internal/entity"
	dErrors "asset-registry/pkg/domain-errors"
)

// Asset is a candidate or persisted asset record. Records are constructed
// once, from a submission request or from storage, and never mutated.
type Asset struct {
	AssetID  ID
	Contract json.RawMessage

	IssuanceTxIn    TxIn
	IssuancePrevout OutPoint

	Fields Fields

	// Signature is reserved for a signed field-update mechanism that is
	// deliberately unsupported; validation rejects any record carrying one.
	Signature string
}

// Fields is the structured view of the issuer-supplied metadata. The contract
// document remains the source of truth; validation requires both to agree.
type Fields struct {
	Name      string
	Ticker    *string
	Precision uint8
	Entity    entity.Entity
}

// Equal reports field-for-field equality.
func (f Fields) Equal(other Fields) bool {
	if f.Name != other.Name || f.Precision != other.Precision {
		return false
	}
	if (f.Ticker == nil) != (other.Ticker == nil) {
		return false
	}
	if f.Ticker != nil && *f.Ticker != *other.Ticker {
		return false
	}
	return f.Entity == other.Entity
}

// fieldsJSON is the wire shape shared by the flattened record form and the
// contract document.
type fieldsJSON struct {
	Name      string          `json:"name"`
	Ticker    *string         `json:"ticker,omitempty"`
	Precision *uint8          `json:"precision,omitempty"`
	Entity    json.RawMessage `json:"entity"`
}

func (j fieldsJSON) toFields() (Fields, error) {
	ent, err := entity.Unmarshal(j.Entity)
	if err != nil {
		return Fields{}, err
	}
	f := Fields{Name: j.Name, Ticker: j.Ticker, Entity: ent}
	if j.Precision != nil {
		f.Precision = *j.Precision
	}
	return f, nil
}

func (f Fields) toJSON() (fieldsJSON, error) {
	rawEntity, err := entity.Marshal(f.Entity)
	if err != nil {
		return fieldsJSON{}, err
	}
	precision := f.Precision
	return fieldsJSON{
		Name:      f.Name,
		Ticker:    f.Ticker,
		Precision: &precision,
		Entity:    rawEntity,
	}, nil
}

// FieldsFromContract independently parses the issuer fields out of the raw
// contract document.
func FieldsFromContract(contract json.RawMessage) (Fields, error) {
	var j fieldsJSON
	if err := json.Unmarshal(contract, &j); err != nil {
		return Fields{}, dErrors.Wrap(dErrors.CodeStructural, "invalid contract fields", err)
	}
	return j.toFields()
}

// assetJSON is the persisted record format: the fields are flattened next to
// the identifiers.
type assetJSON struct {
	AssetID         ID              `json:"asset_id"`
	Contract        json.RawMessage `json:"contract"`
	IssuanceTxIn    TxIn            `json:"issuance_txin"`
	IssuancePrevout OutPoint        `json:"issuance_prevout"`
	Name            string          `json:"name"`
	Ticker          *string         `json:"ticker,omitempty"`
	Precision       uint8           `json:"precision"`
	Entity          json.RawMessage `json:"entity"`
	Signature       string          `json:"signature,omitempty"`
}

func (a *Asset) MarshalJSON() ([]byte, error) {
	rawEntity, err := entity.Marshal(a.Fields.Entity)
	if err != nil {
		return nil, err
	}
	return json.Marshal(assetJSON{
		AssetID:         a.AssetID,
		Contract:        a.Contract,
		IssuanceTxIn:    a.IssuanceTxIn,
		IssuancePrevout: a.IssuancePrevout,
		Name:            a.Fields.Name,
		Ticker:          a.Fields.Ticker,
		Precision:       a.Fields.Precision,
		Entity:          rawEntity,
		Signature:       a.Signature,
	})
}

func (a *Asset) UnmarshalJSON(data []byte) error {
	var j assetJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return dErrors.Wrap(dErrors.CodeStructural, "invalid asset record", err)
	}
	ent, err := entity.Unmarshal(j.Entity)
	if err != nil {
		return err
	}
	*a = Asset{
		AssetID:         j.AssetID,
		Contract:        j.Contract,
		IssuanceTxIn:    j.IssuanceTxIn,
		IssuancePrevout: j.IssuancePrevout,
		Fields: Fields{
			Name:      j.Name,
			Ticker:    j.Ticker,
			Precision: j.Precision,
			Entity:    ent,
		},
		Signature: j.Signature,
	}
	return nil
}

// IssuerPubKey extracts and hex-decodes the issuer public key carried inside
// the contract.
func (a *Asset) IssuerPubKey() ([]byte, error) {
	var c struct {
		IssuerPubKey *string `json:"issuer_pubkey"`
	}
	if err := json.Unmarshal(a.Contract, &c); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeStructural, "invalid contract JSON", err)
	}
	if c.IssuerPubKey == nil {
		return nil, dErrors.New(dErrors.CodeStructural, "missing issuer_pubkey")
	}
	pubkey, err := hex.DecodeString(*c.IssuerPubKey)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeCrypto, "invalid issuer_pubkey hex", err)
	}
	return pubkey, nil
}

// contractVersion reads the schema version marker from the contract.
func (a *Asset) contractVersion() (int64, error) {
	var c struct {
		Version *int64 `json:"version"`
	}
	if err := json.Unmarshal(a.Contract, &c); err != nil {
		return 0, dErrors.Wrap(dErrors.CodeStructural, "invalid contract JSON", err)
	}
	if c.Version == nil {
		return 0, dErrors.New(dErrors.CodeStructural, "missing contract version")
	}
	return *c.Version, nil
}
