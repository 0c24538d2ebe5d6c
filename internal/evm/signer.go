package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/x402-labs/facilitator-core/types"
)

// Signer wraps a JSON-RPC client plus a signing callback, providing the
// facilitator-side transaction primitives the EVM provider needs: reading
// contract state, broadcasting a signed call, and waiting for a receipt.
// Adapted from the teacher's facilitator/evm/signer package, generalized
// from a single hardcoded facilitator contract to an arbitrary asset
// address per request.
type Signer struct {
	client  *ethclient.Client
	address common.Address
	chainID *big.Int
	sign    types.Signer
}

// SignerConfig configures a Signer for one network.
type SignerConfig struct {
	RPCURL     string
	ChainID    int64
	PrivateKey string // hex, optionally "0x"-prefixed
	Sign       types.Signer
}

// NewSigner dials the RPC endpoint, confirms the chain ID matches
// configuration, and derives a signing callback from either a private key
// or an injected callback (e.g. a remote KMS).
func NewSigner(cfg SignerConfig) (*Signer, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc URL is required")
	}

	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	chainID, err := client.NetworkID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get network id: %w", err)
	}
	if cfg.ChainID != 0 && chainID.Int64() != cfg.ChainID {
		return nil, fmt.Errorf("chain id mismatch: configured %d, rpc reports %d", cfg.ChainID, chainID.Int64())
	}

	s := &Signer{client: client, chainID: chainID}

	switch {
	case cfg.Sign != nil:
		s.sign = cfg.Sign
	case cfg.PrivateKey != "":
		pk, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		s.sign = signWithPrivateKey(pk)
		pub, ok := pk.Public().(*ecdsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("derive public key")
		}
		s.address = crypto.PubkeyToAddress(*pub)
	default:
		return nil, fmt.Errorf("either a private key or a signing callback is required")
	}

	return s, nil
}

func signWithPrivateKey(pk *ecdsa.PrivateKey) types.Signer {
	return func(digest []byte) ([]byte, error) {
		return crypto.Sign(digest, pk)
	}
}

// Address returns the facilitator's own signing address on this network.
func (s *Signer) Address() common.Address { return s.address }

// ChainID returns the chain ID of the connected network.
func (s *Signer) ChainID() *big.Int { return s.chainID }

// ReadContract calls a read-only (view) contract function.
func (s *Signer) ReadContract(ctx context.Context, address string, abiJSON string, method string, args ...interface{}) ([]interface{}, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack call %s: %w", method, err)
	}

	to := common.HexToAddress(address)
	result, err := s.client.CallContract(ctx, goethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	return parsed.Methods[method].Outputs.Unpack(result)
}

// WriteContract packs and broadcasts a state-mutating contract call signed
// by this Signer, returning the transaction hash.
func (s *Signer) WriteContract(ctx context.Context, address string, abiJSON string, method string, args ...interface{}) (string, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return "", fmt.Errorf("parse abi: %w", err)
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return "", fmt.Errorf("pack call %s: %w", method, err)
	}

	to := common.HexToAddress(address)

	nonce, err := s.client.PendingNonceAt(ctx, s.address)
	if err != nil {
		return "", fmt.Errorf("get nonce: %w", err)
	}
	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest gas price: %w", err)
	}
	gasLimit, err := s.client.EstimateGas(ctx, goethereum.CallMsg{From: s.address, To: &to, Data: data})
	if err != nil {
		return "", fmt.Errorf("estimate gas: %w", err)
	}

	tx := ethtypes.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, data)
	signer := ethtypes.LatestSignerForChainID(s.chainID)
	digest := signer.Hash(tx).Bytes()

	sig, err := s.sign(digest)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}
	signedTx, err := tx.WithSignature(signer, sig)
	if err != nil {
		return "", fmt.Errorf("apply signature: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}
	return signedTx.Hash().Hex(), nil
}

// WaitForReceipt blocks until the transaction is mined (or ctx is done) and
// returns its receipt.
func (s *Signer) WaitForReceipt(ctx context.Context, txHash string) (*ethtypes.Receipt, error) {
	hash := common.HexToHash(txHash)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		receipt, err := s.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for receipt: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Balance returns the ERC-20 balanceOf result for the given token and
// holder, via a direct raw-selector call, matching the teacher's approach
// for avoiding a full ERC-20 ABI dependency.
func (s *Signer) Balance(ctx context.Context, tokenAddress, holder string) (*big.Int, error) {
	token := common.HexToAddress(tokenAddress)
	data := append(common.Hex2Bytes("70a08231"), common.LeftPadBytes(common.HexToAddress(holder).Bytes(), 32)...)

	result, err := s.client.CallContract(ctx, goethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call balanceOf: %w", err)
	}
	if len(result) < 32 {
		return nil, fmt.Errorf("invalid balanceOf response")
	}
	return new(big.Int).SetBytes(result), nil
}

// RevertReason best-effort replays a failed transaction via eth_call at the
// block it was mined in, and attempts to decode a Solidity revert string out
// of the call error. Used by Settle to classify a reverted receipt beyond
// the generic SettlementFailed tag (§4.4).
func (s *Signer) RevertReason(ctx context.Context, txHash string, blockNumber *big.Int) (string, error) {
	tx, pending, err := s.client.TransactionByHash(ctx, common.HexToHash(txHash))
	if err != nil {
		return "", fmt.Errorf("fetch transaction: %w", err)
	}
	if pending {
		return "", fmt.Errorf("transaction still pending")
	}

	to := tx.To()
	_, callErr := s.client.CallContract(ctx, goethereum.CallMsg{
		From:  s.address,
		To:    to,
		Data:  tx.Data(),
		Value: tx.Value(),
		Gas:   tx.Gas(),
	}, blockNumber)
	if callErr == nil {
		return "", fmt.Errorf("replayed call succeeded, no revert reason available")
	}

	reason, ok := decodeRevertReason(callErr)
	if !ok {
		return "", fmt.Errorf("replay call: %w", callErr)
	}
	return reason, nil
}

// decodeRevertReason extracts a Solidity Error(string) revert reason from an
// RPC error that carries revert data, per go-ethereum's rpc.DataError
// convention.
func decodeRevertReason(err error) (string, bool) {
	var dataErr interface{ ErrorData() interface{} }
	if !errors.As(err, &dataErr) {
		return "", false
	}
	raw, ok := dataErr.ErrorData().(string)
	if !ok || raw == "" {
		return "", false
	}
	reason, unpackErr := abi.UnpackRevert(common.FromHex(raw))
	if unpackErr != nil {
		return "", false
	}
	return reason, true
}

// Close releases the underlying RPC connection.
func (s *Signer) Close() { s.client.Close() }
