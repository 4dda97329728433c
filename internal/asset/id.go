package asset

import (
	"encoding/json"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	dErrors "asset-registry/pkg/domain-errors"
)

// ID is a 32-byte asset identifier. Like txids it is displayed as reversed
// hex, the convention of the host chain.
type ID chainhash.Hash

// NewIDFromHex parses an asset id from its reversed-hex display form.
func NewIDFromHex(s string) (ID, error) {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return ID{}, dErrors.Wrap(dErrors.CodeStructural, "invalid asset id", err)
	}
	return ID(*h), nil
}

func (id ID) String() string {
	h := chainhash.Hash(id)
	return h.String()
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := NewIDFromHex(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Txid is a transaction id, also displayed as reversed hex.
type Txid chainhash.Hash

func (t Txid) String() string {
	h := chainhash.Hash(t)
	return h.String()
}

func (t Txid) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Txid) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeStructural, "invalid txid", err)
	}
	*t = Txid(*h)
	return nil
}

// TxIn references the transaction input that performed the issuance.
type TxIn struct {
	Txid Txid   `json:"txid"`
	Vin  uint32 `json:"vin"`
}

// OutPoint references the output spent by the issuance input. It is the
// prevout the asset id commits to.
type OutPoint struct {
	Txid Txid   `json:"txid"`
	Vout uint32 `json:"vout"`
}
