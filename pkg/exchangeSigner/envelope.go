package exchangeSigner

import (
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/action"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/signature"
)

// Envelope is the JSON body POSTed to the /exchange endpoint
type Envelope struct {
	Action       action.Map           `json:"action"`
	Nonce        uint64               `json:"nonce"`
	Signature    *signature.Signature `json:"signature"`
	VaultAddress *string              `json:"vaultAddress,omitempty"`
	ExpiresAfter *uint64              `json:"expiresAfter,omitempty"`
}
