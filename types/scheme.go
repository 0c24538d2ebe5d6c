package types

// NetworkFamily identifies the chain family a Network belongs to. Every
// Network maps to exactly one family, and no address or payload belonging to
// another family may be used against it.
type NetworkFamily string

const (
	FamilyEvm    NetworkFamily = "evm"
	FamilySolana NetworkFamily = "solana"
)

// Scheme is the payment mechanism tag. Only "exact" is defined: pay exactly
// this amount to this receiver.
type Scheme string

const (
	SchemeExact Scheme = "exact"
)

// Signer signs a digest and returns the raw signature bytes. Implementations
// may back this with a local private key or a remote signing service (KMS,
// HSM); the facilitator never inspects key material directly.
type Signer func(digest []byte) (signature []byte, err error)
