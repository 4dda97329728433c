package entity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-registry/internal/asset/assettest"
	"asset-registry/internal/entity"
	dErrors "asset-registry/pkg/domain-errors"
)

const testAssetID = "1c2116d94a17dbc75140fe89f0dcb7e8e0eaed61020164cf2825f4dc0046bb79"

func TestDomainNameValidate(t *testing.T) {
	valid := []string{"example.com", "sub.test.dev", "xn--bcher-kva.ch", "abcdefghij2gw4iyyhbqwuj5jbnwtl4liovdeeplyxx54phpkhxv3q.onion"}
	for _, domain := range valid {
		assert.NoError(t, entity.DomainName(domain).Validate(), domain)
	}

	invalid := []string{"", "ex ample.com", "exa_mple!.com", "-leadingdash.com"}
	for _, domain := range invalid {
		err := entity.DomainName(domain).Validate()
		assert.Error(t, err, domain)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDomainLink), domain)
	}
}

func TestChallengeURLScheme(t *testing.T) {
	assert.Equal(t,
		"https://test.dev/.well-known/liquid-asset-proof-"+testAssetID,
		entity.DomainName("test.dev").ChallengeURL(testAssetID))

	// Hidden services cannot present certificates; plaintext is expected.
	assert.Equal(t,
		"http://registry.onion/.well-known/liquid-asset-proof-"+testAssetID,
		entity.DomainName("registry.onion").ChallengeURL(testAssetID))
}

// The log form ("domain:...") must never leak into the challenge URL or the
// proof sentence; both carry the bare domain.
func TestExpectedProofText(t *testing.T) {
	assert.Equal(t,
		"Authorize linking the domain name test.dev to the Liquid asset "+testAssetID,
		entity.DomainName("test.dev").ExpectedProof(testAssetID))
}

func TestVerifyLink(t *testing.T) {
	ctx := context.Background()

	t.Run("exact proof body", func(t *testing.T) {
		getter := &assettest.StubGetter{}
		require.NoError(t, entity.DomainName("test.dev").VerifyLink(ctx, getter, testAssetID))
		require.Equal(t, 1, getter.RequestCount())
		assert.Equal(t,
			"https://test.dev/.well-known/liquid-asset-proof-"+testAssetID,
			getter.Requests[0])
	})

	t.Run("wrong domain in body", func(t *testing.T) {
		body := "Authorize linking the domain name other.dev to the Liquid asset " + testAssetID
		getter := &assettest.StubGetter{Body: &body}
		err := entity.DomainName("test.dev").VerifyLink(ctx, getter, testAssetID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDomainLink))
	})

	t.Run("wrong asset id in body", func(t *testing.T) {
		body := "Authorize linking the domain name test.dev to the Liquid asset deadbeef"
		getter := &assettest.StubGetter{Body: &body}
		err := entity.DomainName("test.dev").VerifyLink(ctx, getter, testAssetID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDomainLink))
	})

	t.Run("invalid syntax fails before any request", func(t *testing.T) {
		getter := &assettest.StubGetter{}
		err := entity.DomainName("bad domain").VerifyLink(ctx, getter, testAssetID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDomainLink))
		assert.Equal(t, 0, getter.RequestCount())
	})

	t.Run("server error status", func(t *testing.T) {
		getter := &assettest.StubGetter{Status: 500}
		err := entity.DomainName("test.dev").VerifyLink(ctx, getter, testAssetID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDomainLink))
	})
}

func TestEntityJSONRoundTrip(t *testing.T) {
	ent, err := entity.Unmarshal([]byte(`{"domain":"test.dev"}`))
	require.NoError(t, err)
	assert.Equal(t, entity.DomainName("test.dev"), ent)
	assert.Equal(t, "domain:test.dev", ent.String())

	raw, err := entity.Marshal(ent)
	require.NoError(t, err)
	assert.JSONEq(t, `{"domain":"test.dev"}`, string(raw))
}

func TestEntityUnmarshalRejectsUnknownVariant(t *testing.T) {
	_, err := entity.Unmarshal([]byte(`{"twitter":"@someone"}`))
	assert.Error(t, err)

	_, err = entity.Unmarshal([]byte(`{}`))
	assert.Error(t, err)

	_, err = entity.Unmarshal([]byte(`{"domain":"a.example","extra":true}`))
	assert.Error(t, err)
}
