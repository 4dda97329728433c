package asset_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-registry/internal/asset"
	"asset-registry/internal/asset/assettest"
	"asset-registry/internal/entity"
)

func TestPersistedRecordFormat(t *testing.T) {
	record := assettest.NewRecord(assettest.DefaultParams())

	data, err := json.Marshal(record)
	require.NoError(t, err)

	// Fields are flattened next to the identifiers.
	var flat map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &flat))
	for _, key := range []string{"asset_id", "contract", "issuance_txin", "issuance_prevout", "name", "ticker", "precision", "entity"} {
		assert.Contains(t, flat, key)
	}
	// No update mechanism, no signature field.
	assert.NotContains(t, flat, "signature")

	var decoded asset.Asset
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, record.AssetID, decoded.AssetID)
	assert.True(t, record.Fields.Equal(decoded.Fields))
	assert.Equal(t, record.IssuanceTxIn, decoded.IssuanceTxIn)
	assert.Equal(t, record.IssuancePrevout, decoded.IssuancePrevout)
}

func TestFieldsFromContractDefaultPrecision(t *testing.T) {
	fields, err := asset.FieldsFromContract(json.RawMessage(
		`{"name":"Foo","entity":{"domain":"foo.example"}}`))
	require.NoError(t, err)
	assert.Equal(t, uint8(0), fields.Precision)
	assert.Nil(t, fields.Ticker)
	assert.Equal(t, entity.DomainName("foo.example"), fields.Entity)
}

func TestFieldsFromContractMissingEntity(t *testing.T) {
	_, err := asset.FieldsFromContract(json.RawMessage(`{"name":"Foo"}`))
	assert.Error(t, err)
}

func TestIssuerPubKeyMissing(t *testing.T) {
	a := &asset.Asset{Contract: json.RawMessage(`{"version":0}`)}
	_, err := a.IssuerPubKey()
	assert.Error(t, err)
}
