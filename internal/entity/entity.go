// Package entity models the real-world ownership proofs an issuer may attach
// to an asset. Each variant carries its own syntax rules and its own
// challenge-response protocol for proving control.
package entity

import (
	"context"
	"encoding/json"
	"fmt"

	dErrors "asset-registry/pkg/domain-errors"
)

// Entity is one ownership-proof variant. Implementations must be comparable
// so issuer-supplied fields can be checked against the committed contract.
type Entity interface {
	// Validate checks the descriptor's syntax only. It never touches the
	// network.
	Validate() error

	// VerifyLink runs the variant's challenge-response protocol for the
	// given asset id (reversed-hex form).
	VerifyLink(ctx context.Context, client HTTPGetter, assetID string) error

	fmt.Stringer
}

// Unmarshal decodes the tagged JSON form of an entity, e.g.
// {"domain": "example.com"}.
func Unmarshal(data []byte) (Entity, error) {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeStructural, "invalid entity", err)
	}
	if len(tagged) != 1 {
		return nil, dErrors.New(dErrors.CodeStructural, "entity must have exactly one variant")
	}
	if raw, ok := tagged["domain"]; ok {
		var domain string
		if err := json.Unmarshal(raw, &domain); err != nil {
			return nil, dErrors.Wrap(dErrors.CodeStructural, "invalid domain entity", err)
		}
		return DomainName(domain), nil
	}
	return nil, dErrors.New(dErrors.CodeStructural, "unknown entity variant")
}

// Marshal encodes an entity back into its tagged JSON form.
func Marshal(e Entity) ([]byte, error) {
	switch v := e.(type) {
	case DomainName:
		return json.Marshal(struct {
			Domain string `json:"domain"`
		}{string(v)})
	default:
		return nil, dErrors.Newf(dErrors.CodeInternal, "unmarshalable entity variant %T", e)
	}
}
