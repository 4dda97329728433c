package asset

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	dErrors "asset-registry/pkg/domain-errors"
)

// The asset id commits to the issuance prevout and the contract document:
//
//	entropy  = fastMerkleRoot(sha256d(serialize(prevout)), contractHash)
//	asset_id = fastMerkleRoot(entropy, zero32)
//
// Both steps must match the host chain's reference algorithm bit for bit.

// ContractHash canonicalizes the contract JSON and hashes it with a single
// SHA-256. The canonical form sorts object keys lexicographically and uses
// compact separators, so semantically identical documents hash identically
// regardless of their original key order.
func ContractHash(contract json.RawMessage) (chainhash.Hash, error) {
	canonical, err := CanonicalJSON(contract)
	if err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.Hash(sha256.Sum256(canonical)), nil
}

// CanonicalJSON re-encodes a JSON document into its canonical byte string.
// Numbers keep their original textual form and HTML characters are not
// escaped, matching the serialization the contract hash is defined over.
func CanonicalJSON(raw json.RawMessage) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeStructural, "invalid contract JSON", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeStructural, "failed canonicalizing contract", err)
	}
	// Encoder appends a newline that is not part of the canonical form.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DeriveEntropy combines the issuance prevout with the contract hash.
func DeriveEntropy(prevout OutPoint, contractHash chainhash.Hash) chainhash.Hash {
	var ser [36]byte
	copy(ser[:32], prevout.Txid[:])
	binary.LittleEndian.PutUint32(ser[32:], prevout.Vout)

	var prevoutHash chainhash.Hash
	copy(prevoutHash[:], chainhash.DoubleHashB(ser[:]))

	return fastMerkleRoot(prevoutHash, contractHash)
}

// DeriveAssetID derives the final identifier from issuance entropy.
func DeriveAssetID(entropy chainhash.Hash) ID {
	return ID(fastMerkleRoot(entropy, chainhash.Hash{}))
}

// fastMerkleRoot combines two nodes with a single application of the SHA-256
// compression function, without length padding. This is the chain's "fast
// merkle" combiner; crypto/sha256 does not expose the midstate, so the
// compression rounds are implemented here.
func fastMerkleRoot(left, right chainhash.Hash) chainhash.Hash {
	state := [8]uint32{
		0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
		0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
	}

	var block [64]byte
	copy(block[:32], left[:])
	copy(block[32:], right[:])
	sha256Compress(&state, block[:])

	var out chainhash.Hash
	for i, word := range state {
		binary.BigEndian.PutUint32(out[i*4:], word)
	}
	return out
}

var sha256K = [64]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5, 0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3, 0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc, 0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7, 0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13, 0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3, 0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5, 0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208, 0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

// sha256Compress applies the SHA-256 compression function to one 64-byte
// block, updating state in place.
func sha256Compress(state *[8]uint32, block []byte) {
	var w [64]uint32
	for i := 0; i < 16; i++ {
		w[i] = binary.BigEndian.Uint32(block[i*4:])
	}
	for i := 16; i < 64; i++ {
		v1 := w[i-2]
		t1 := (v1>>17 | v1<<15) ^ (v1>>19 | v1<<13) ^ (v1 >> 10)
		v2 := w[i-15]
		t2 := (v2>>7 | v2<<25) ^ (v2>>18 | v2<<14) ^ (v2 >> 3)
		w[i] = t1 + w[i-7] + t2 + w[i-16]
	}

	a, b, c, d, e, f, g, h := state[0], state[1], state[2], state[3], state[4], state[5], state[6], state[7]
	for i := 0; i < 64; i++ {
		t1 := h + ((e>>6 | e<<26) ^ (e>>11 | e<<21) ^ (e>>25 | e<<7)) + ((e & f) ^ (^e & g)) + sha256K[i] + w[i]
		t2 := ((a>>2 | a<<30) ^ (a>>13 | a<<19) ^ (a>>22 | a<<10)) + ((a & b) ^ (a & c) ^ (b & c))
		h, g, f, e, d, c, b, a = g, f, e, d+t1, c, b, a, t1+t2
	}

	state[0] += a
	state[1] += b
	state[2] += c
	state[3] += d
	state[4] += e
	state[5] += f
	state[6] += g
	state[7] += h
}
