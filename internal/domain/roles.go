package domain

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Typed value objects for the administrative ledger calls. The registry's
// ABI takes bare integers for all of these; parsing them up front keeps a
// mistyped operator id from ever reaching the wire.

// Identity is a ledger account address (0x-prefixed, 40 hex chars).
type Identity string

// ParseIdentity validates an address string.
func ParseIdentity(s string) (Identity, error) {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentity, s)
	}
	for _, c := range s[2:] {
		if !isHex(c) {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentity, s)
		}
	}
	return Identity(s), nil
}

func isHex(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// RoleID identifies a permission tier on the registry.
// Role 0 is the ledger's "no creator" sentinel; it parses fine here —
// only the batch filter treats it specially.
type RoleID uint64

// ParseRoleID parses a decimal role id.
func ParseRoleID(s string) (RoleID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRoleID, s)
	}
	return RoleID(v), nil
}

// InterfaceID is an ERC-165 interface selector (0x-prefixed, 8 hex chars).
type InterfaceID string

// ParseInterfaceID validates an interface selector string.
func ParseInterfaceID(s string) (InterfaceID, error) {
	if len(s) != 10 || !strings.HasPrefix(s, "0x") {
		return "", fmt.Errorf("%w: %q", ErrInvalidInterfaceID, s)
	}
	for _, c := range s[2:] {
		if !isHex(c) {
			return "", fmt.Errorf("%w: %q", ErrInvalidInterfaceID, s)
		}
	}
	return InterfaceID(s), nil
}

// QuorumAmount is the minimum approval count for registry governance.
type QuorumAmount uint64

// ParseQuorum parses a decimal quorum; zero is rejected (a zero quorum
// would let any single caller pass governance).
func ParseQuorum(s string) (QuorumAmount, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuorum, s)
	}
	return QuorumAmount(v), nil
}

// Amount is a token amount as decimal text. Validated through big.Int so
// full ledger magnitudes survive without float involvement.
type Amount string

// ParseAmount validates a positive decimal amount of arbitrary magnitude.
func ParseAmount(s string) (Amount, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() <= 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Amount(v.String()), nil
}

// Capabilities holds the two independent permission predicates the
// registry grants an identity.
type Capabilities struct {
	IsMember bool `json:"isMember"`
	IsLeader bool `json:"isLeader"`
}

// CanAdvance reports whether the holder may trigger the linear
// status-chain actions.
func (c Capabilities) CanAdvance() bool { return c.IsMember || c.IsLeader }

// CanCancel reports whether the holder may cancel a non-terminal task.
func (c Capabilities) CanCancel() bool { return c.IsLeader }
