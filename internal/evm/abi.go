package evm

// ABI fragments for the subset of ERC-20 + EIP-3009 functions the provider
// calls. Kept minimal and hand-declared rather than pulling a full ERC-20
// ABI, mirroring the teacher's signer package.
const (
	transferWithAuthorizationABI = `[{
		"inputs": [
			{"internalType":"address","name":"from","type":"address"},
			{"internalType":"address","name":"to","type":"address"},
			{"internalType":"uint256","name":"value","type":"uint256"},
			{"internalType":"uint256","name":"validAfter","type":"uint256"},
			{"internalType":"uint256","name":"validBefore","type":"uint256"},
			{"internalType":"bytes32","name":"nonce","type":"bytes32"},
			{"internalType":"uint8","name":"v","type":"uint8"},
			{"internalType":"bytes32","name":"r","type":"bytes32"},
			{"internalType":"bytes32","name":"s","type":"bytes32"}
		],
		"name": "transferWithAuthorization",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}]`

	authorizationStateABI = `[{
		"inputs": [
			{"internalType":"address","name":"authorizer","type":"address"},
			{"internalType":"bytes32","name":"nonce","type":"bytes32"}
		],
		"name": "authorizationState",
		"outputs": [{"internalType":"bool","name":"","type":"bool"}],
		"stateMutability": "view",
		"type": "function"
	}]`

	balanceOfABI = `[{
		"inputs": [{"internalType":"address","name":"account","type":"address"}],
		"name": "balanceOf",
		"outputs": [{"internalType":"uint256","name":"","type":"uint256"}],
		"stateMutability": "view",
		"type": "function"
	}]`

	// executeDepositABI is the escrow proxy's deposit entrypoint (§4.7 step
	// 3): it takes the asset being pulled plus the same EIP-3009
	// authorization tuple transferWithAuthorization takes, so the proxy can
	// call the asset itself and record a deposit in one transaction.
	executeDepositABI = `[{
		"inputs": [
			{"internalType":"address","name":"asset","type":"address"},
			{"internalType":"address","name":"from","type":"address"},
			{"internalType":"address","name":"to","type":"address"},
			{"internalType":"uint256","name":"value","type":"uint256"},
			{"internalType":"uint256","name":"validAfter","type":"uint256"},
			{"internalType":"uint256","name":"validBefore","type":"uint256"},
			{"internalType":"bytes32","name":"nonce","type":"bytes32"},
			{"internalType":"uint8","name":"v","type":"uint8"},
			{"internalType":"bytes32","name":"r","type":"bytes32"},
			{"internalType":"bytes32","name":"s","type":"bytes32"}
		],
		"name": "executeDeposit",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}]`
)
