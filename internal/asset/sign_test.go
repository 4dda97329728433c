package asset

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedTestAsset(t *testing.T, priv *btcec.PrivateKey) *Asset {
	t.Helper()
	pubHex := hex.EncodeToString(priv.PubKey().SerializeCompressed())
	contract, err := json.Marshal(map[string]any{
		"version":       0,
		"issuer_pubkey": pubHex,
		"name":          "Bar Token",
		"precision":     0,
		"entity":        map[string]string{"domain": "bar.example"},
	})
	require.NoError(t, err)

	id, err := NewIDFromHex("ce091c998b83c78bb71a632313ba3760f1763d9cfcffae02258ffa9865a37bd2")
	require.NoError(t, err)
	return &Asset{AssetID: id, Contract: contract}
}

func TestVerifyDeletion(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	a := signedTestAsset(t, priv)

	sig := ecdsa.SignCompact(priv, SignedMessageHash(a.DeletionMessage()), true)
	assert.NoError(t, a.VerifyDeletion(sig))
}

func TestVerifyDeletionWrongMessage(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	a := signedTestAsset(t, priv)

	sig := ecdsa.SignCompact(priv, SignedMessageHash("remove something else from registry"), true)
	assert.Error(t, a.VerifyDeletion(sig))
}

func TestVerifyDeletionWrongKey(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	other, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	a := signedTestAsset(t, priv)

	sig := ecdsa.SignCompact(other, SignedMessageHash(a.DeletionMessage()), true)
	assert.Error(t, a.VerifyDeletion(sig))
}

func TestVerifyDeletionMalformedSignature(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	a := signedTestAsset(t, priv)

	assert.Error(t, a.VerifyDeletion([]byte("not a signature")))
}

func TestDeletionMessage(t *testing.T) {
	id, err := NewIDFromHex("ce091c998b83c78bb71a632313ba3760f1763d9cfcffae02258ffa9865a37bd2")
	require.NoError(t, err)
	a := &Asset{AssetID: id}
	assert.Equal(t,
		"remove ce091c998b83c78bb71a632313ba3760f1763d9cfcffae02258ffa9865a37bd2 from registry",
		a.DeletionMessage())
}
