package types

import "encoding/json"

// PaymentRequirements is the declarative contract supplied by the receiver
// describing what payment it will accept.
type PaymentRequirements struct {
	Scheme            Scheme          `json:"scheme"`
	Network           Network         `json:"network"`
	Asset             string          `json:"asset"`
	PayTo             string          `json:"payTo"`
	MaxAmountRequired string          `json:"maxAmountRequired"`
	MaxTimeoutSeconds int64           `json:"maxTimeoutSeconds"`
	Extra             *ExtraInfo      `json:"extra,omitempty"`
	Extensions        json.RawMessage `json:"extensions,omitempty"`

	// Resource, Description, MimeType and OutputSchema are HTTP-surface
	// metadata carried alongside the requirements but never consulted by
	// verify/settle.
	Resource     string           `json:"resource,omitempty"`
	Description  string           `json:"description,omitempty"`
	MimeType     string           `json:"mimeType,omitempty"`
	OutputSchema *json.RawMessage `json:"outputSchema,omitempty"`
}

// ExtraInfo overrides the EIP-712 domain name/version for a single request
// without touching the network registry's defaults.
type ExtraInfo struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// EvmAuthorization is the signed EIP-3009 TransferWithAuthorization tuple.
// All integer fields are decimal strings on the wire.
type EvmAuthorization struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidAfter  string `json:"validAfter"`
	ValidBefore string `json:"validBefore"`
	Nonce       string `json:"nonce"`
}

// ExactEvmPayload is the family-specific payload for an EVM "exact" payment.
type ExactEvmPayload struct {
	Authorization EvmAuthorization `json:"authorization"`
	Signature     string           `json:"signature"`
}

// ExactSolanaPayload is the family-specific payload for a Solana "exact"
// payment: a fully formed, payer-signed SPL transfer transaction.
type ExactSolanaPayload struct {
	Transaction string `json:"transaction"` // base64-encoded signed transaction
}

// PaymentPayload is the envelope carrying a family-specific payload tagged
// by scheme and network.
type PaymentPayload struct {
	X402Version int             `json:"x402Version"`
	Scheme      Scheme          `json:"scheme"`
	Network     Network         `json:"network"`
	Payload     json.RawMessage `json:"payload"`
}

// DecodeEvmPayload decodes Payload as an ExactEvmPayload. Callers must first
// confirm the network's family is Evm.
func (p PaymentPayload) DecodeEvmPayload() (ExactEvmPayload, error) {
	var out ExactEvmPayload
	if err := json.Unmarshal(p.Payload, &out); err != nil {
		return ExactEvmPayload{}, err
	}
	return out, nil
}

// DecodeSolanaPayload decodes Payload as an ExactSolanaPayload. Callers must
// first confirm the network's family is Solana.
func (p PaymentPayload) DecodeSolanaPayload() (ExactSolanaPayload, error) {
	var out ExactSolanaPayload
	if err := json.Unmarshal(p.Payload, &out); err != nil {
		return ExactSolanaPayload{}, err
	}
	return out, nil
}
