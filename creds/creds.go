// Package creds resolves opaque credential references into AWS credential
// providers. Encrypted credential storage lives outside this service; the
// scan path only ever sees a reference and the resolved provider.
package creds

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// ErrUnknownCredential is returned when a reference cannot be resolved.
var ErrUnknownCredential = errors.New("unknown credential reference")

// KeyPair is one resolved access key pair.
type KeyPair struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Resolver turns a credential reference into an AWS credentials provider.
// A nil provider with nil error means "use the ambient default chain".
type Resolver interface {
	Resolve(ctx context.Context, ref string) (aws.CredentialsProvider, error)
}

// StaticResolver serves a fixed set of key pairs keyed by reference.
type StaticResolver struct {
	pairs map[string]KeyPair
}

// NewStaticResolver creates a resolver over the given key pairs.
func NewStaticResolver(pairs map[string]KeyPair) *StaticResolver {
	return &StaticResolver{pairs: pairs}
}

// Resolve returns a static credentials provider for the reference.
func (r *StaticResolver) Resolve(ctx context.Context, ref string) (aws.CredentialsProvider, error) {
	pair, ok := r.pairs[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCredential, ref)
	}
	return credentials.NewStaticCredentialsProvider(
		pair.AccessKeyID, pair.SecretAccessKey, pair.SessionToken), nil
}

// DefaultChainResolver resolves every reference to the ambient default
// credential chain. Used by the one-shot CLI, where the operator's own
// credentials scan the account.
type DefaultChainResolver struct{}

// Resolve always succeeds with a nil provider (default chain).
func (DefaultChainResolver) Resolve(ctx context.Context, ref string) (aws.CredentialsProvider, error) {
	return nil, nil
}
