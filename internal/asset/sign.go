package asset

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	dErrors "asset-registry/pkg/domain-errors"
)

const signedMsgMagic = "Bitcoin Signed Message:\n"

// DeletionMessage is the fixed text an issuer must sign to authorize removing
// the record from the registry.
func (a *Asset) DeletionMessage() string {
	return fmt.Sprintf("remove %s from registry", a.AssetID)
}

// VerifyDeletion checks a compact message signature by the issuer key over
// the deletion message.
func (a *Asset) VerifyDeletion(signature []byte) error {
	pubkey, err := a.IssuerPubKey()
	if err != nil {
		return err
	}
	return verifySignedMessage(pubkey, signature, a.DeletionMessage())
}

// verifySignedMessage validates a recoverable compact signature over msg in
// the chain's signed-message format.
func verifySignedMessage(pubkey, signature []byte, msg string) error {
	expected, err := btcec.ParsePubKey(pubkey)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeCrypto, "invalid issuer public key", err)
	}

	recovered, _, err := ecdsa.RecoverCompact(signature, SignedMessageHash(msg))
	if err != nil {
		return dErrors.Wrap(dErrors.CodeCrypto, "invalid message signature", err)
	}
	if !recovered.IsEqual(expected) {
		return dErrors.New(dErrors.CodeCrypto, "signature does not match issuer key")
	}
	return nil
}

// SignedMessageHash computes sha256d over the magic-prefixed message
// serialization. Exported so clients can produce signatures over registry
// messages.
func SignedMessageHash(msg string) []byte {
	var buf bytes.Buffer
	writeVarString(&buf, signedMsgMagic)
	writeVarString(&buf, msg)
	return chainhash.DoubleHashB(buf.Bytes())
}

func writeVarString(buf *bytes.Buffer, s string) {
	writeVarInt(buf, uint64(len(s)))
	buf.WriteString(s)
}

func writeVarInt(buf *bytes.Buffer, v uint64) {
	switch {
	case v < 0xfd:
		buf.WriteByte(byte(v))
	case v <= 0xffff:
		buf.WriteByte(0xfd)
		_ = binary.Write(buf, binary.LittleEndian, uint16(v))
	case v <= 0xffffffff:
		buf.WriteByte(0xfe)
		_ = binary.Write(buf, binary.LittleEndian, uint32(v))
	default:
		buf.WriteByte(0xff)
		_ = binary.Write(buf, binary.LittleEndian, v)
	}
}
