// Package resolver maps a user-supplied recipient string (address literal,
// username, or email) to a verified on-chain address plus a display identity.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/veltapay/wallet-core/internal/keys"
	"github.com/veltapay/wallet-core/internal/model"
)

var (
	// ErrRecipientNotFound is returned when the string is neither a valid
	// address nor a known identity.
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrSelfTransfer is returned when the resolved address equals the
	// sender's own address, regardless of how the match was found.
	ErrSelfTransfer = errors.New("self transfer rejected")
)

// SourceKind records how the recipient string matched.
type SourceKind string

const (
	SourceAddress  SourceKind = "address"
	SourceUsername SourceKind = "username"
	SourceEmail    SourceKind = "email"
)

// RecipientIdentity is the fully resolved output: a verified on-chain
// address plus display identity. Transient - computed per transfer attempt,
// only the address ends up on the ledger entry.
type RecipientIdentity struct {
	ResolvedAddress string
	DisplayName     string
	SourceKind      SourceKind
}

// Directory looks up identity records by identifier (username, email, or
// address). Implementations return (nil, nil) when no record exists.
type Directory interface {
	Lookup(ctx context.Context, identifier string) (*model.Profile, error)
}

// Resolver resolves free-text recipient identifiers against address syntax
// and the identity directory.
type Resolver struct {
	directory Directory
}

// New creates a Resolver backed by the given directory.
func New(directory Directory) *Resolver {
	return &Resolver{directory: directory}
}

// Resolve maps raw to a RecipientIdentity for the target chain family.
// Precedence, first match wins:
//  1. syntactically valid address for the chain;
//  2. exact username or email match in the directory (email compared
//     case-insensitively);
//
// An address that also matches an identity record keeps the record's
// display name. The result is always fully resolved or one of the two
// named failures - never partial.
func (r *Resolver) Resolve(ctx context.Context, senderAddress, raw string, chain keys.ChainFamily) (*RecipientIdentity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrRecipientNotFound
	}

	if keys.ValidAddress(chain, raw) {
		return r.resolveAddress(ctx, senderAddress, raw)
	}
	return r.resolveIdentifier(ctx, senderAddress, raw, chain)
}

func (r *Resolver) resolveAddress(ctx context.Context, senderAddress, addr string) (*RecipientIdentity, error) {
	if sameAddress(addr, senderAddress) {
		return nil, ErrSelfTransfer
	}

	identity := &RecipientIdentity{
		ResolvedAddress: addr,
		SourceKind:      SourceAddress,
	}

	// A known identity record wins for display purposes; resolution still
	// targets the on-chain address either way.
	profile, err := r.directory.Lookup(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("resolve recipient: %w", err)
	}
	if profile != nil && sameAddress(profile.Address, addr) {
		identity.DisplayName = profile.DisplayName
	}
	return identity, nil
}

func (r *Resolver) resolveIdentifier(ctx context.Context, senderAddress, raw string, chain keys.ChainFamily) (*RecipientIdentity, error) {
	kind := SourceUsername
	lookup := raw
	if strings.Contains(raw, "@") {
		kind = SourceEmail
		lookup = strings.ToLower(raw)
	}

	profile, err := r.directory.Lookup(ctx, lookup)
	if err != nil {
		return nil, fmt.Errorf("resolve recipient: %w", err)
	}
	if profile == nil || profile.Address == "" {
		return nil, ErrRecipientNotFound
	}

	// The directory must hand back an address of the target family; a
	// mismatch means the identity cannot receive on this chain.
	if !keys.ValidAddress(chain, profile.Address) {
		return nil, ErrRecipientNotFound
	}
	if sameAddress(profile.Address, senderAddress) {
		return nil, ErrSelfTransfer
	}

	return &RecipientIdentity{
		ResolvedAddress: profile.Address,
		DisplayName:     profile.DisplayName,
		SourceKind:      kind,
	}, nil
}

// sameAddress compares addresses; EVM hex compares case-insensitively so a
// checksummed and a lowercase rendering of one address still match.
func sameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
