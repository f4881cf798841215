package sharing

import "github.com/nats-io/nuid"

// TokenProvider issues opaque share tokens. Tokens must not be sequential
// so share URLs cannot be enumerated.
type TokenProvider interface {
	NewToken() (string, error)
}

type nuidProvider struct{}

// NewNUIDProvider constructs a TokenProvider backed by NUID, which yields
// 22-character crypto-seeded identifiers.
func NewNUIDProvider() TokenProvider {
	return &nuidProvider{}
}

func (p *nuidProvider) NewToken() (string, error) {
	return nuid.Next(), nil
}
