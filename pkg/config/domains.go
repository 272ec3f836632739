package config

import (
	"fmt"
	"math/big"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/eip712"
	"github.com/ethereum/go-ethereum/common"
)

// SigningDomainKind selects one of the two EIP-712 domains the venue verifies against.
// They are never interchangeable: a signature under the wrong domain is well formed
// and silently rejected.
type SigningDomainKind string

const (
	// SigningDomainAgent signs the Agent{source, connectionId} struct of L1 actions
	SigningDomainAgent SigningDomainKind = "agent"
	// SigningDomainUserTransaction signs the human-readable user actions
	SigningDomainUserTransaction SigningDomainKind = "userTransaction"
)

const (
	AgentDomainName    = "Exchange"
	AgentDomainChainId = 1337

	UserTransactionDomainName = "HyperliquidSignTransaction"

	DomainVersion = "1"
)

// AgentDomain is the fixed L1 domain. It uses a synthetic chain id on every network;
// the network is carried by the Agent source field instead.
func AgentDomain() eip712.Domain {
	return eip712.Domain{
		Name:              AgentDomainName,
		Version:           DomainVersion,
		ChainId:           big.NewInt(AgentDomainChainId),
		VerifyingContract: common.Address{},
	}
}

// UserTransactionDomain is the domain of user-signed actions on network.
func UserTransactionDomain(network Network) eip712.Domain {
	return eip712.Domain{
		Name:              UserTransactionDomainName,
		Version:           DomainVersion,
		ChainId:           network.SignatureChainId(),
		VerifyingContract: common.Address{},
	}
}

// GetSigningDomain returns a fresh copy of the domain for kind on network.
func GetSigningDomain(kind SigningDomainKind, network Network) (eip712.Domain, error) {
	if _, err := ParseNetwork(string(network)); err != nil {
		return eip712.Domain{}, err
	}

	switch kind {
	case SigningDomainAgent:
		return AgentDomain(), nil
	case SigningDomainUserTransaction:
		return UserTransactionDomain(network), nil
	default:
		return eip712.Domain{}, fmt.Errorf("unsupported signing domain kind: %s", kind)
	}
}
