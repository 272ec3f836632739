package action

import (
	"encoding/json"
	"testing"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/eip712"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_UserActionTypes(t *testing.T) {
	tests := []struct {
		action      UserAction
		primaryType string
		fields      []eip712.Type
	}{
		{
			action:      &UsdSend{},
			primaryType: "HyperliquidTransaction:UsdSend",
			fields: []eip712.Type{
				{Name: "hyperliquidChain", Type: "string"},
				{Name: "destination", Type: "string"},
				{Name: "amount", Type: "string"},
				{Name: "time", Type: "uint64"},
			},
		},
		{
			action:      &SpotSend{},
			primaryType: "HyperliquidTransaction:SpotSend",
			fields: []eip712.Type{
				{Name: "hyperliquidChain", Type: "string"},
				{Name: "destination", Type: "string"},
				{Name: "token", Type: "string"},
				{Name: "amount", Type: "string"},
				{Name: "time", Type: "uint64"},
			},
		},
		{
			action:      &Withdraw{},
			primaryType: "HyperliquidTransaction:Withdraw",
			fields: []eip712.Type{
				{Name: "hyperliquidChain", Type: "string"},
				{Name: "destination", Type: "string"},
				{Name: "amount", Type: "string"},
				{Name: "time", Type: "uint64"},
			},
		},
		{
			action:      &UsdClassTransfer{},
			primaryType: "HyperliquidTransaction:UsdClassTransfer",
			fields: []eip712.Type{
				{Name: "hyperliquidChain", Type: "string"},
				{Name: "amount", Type: "string"},
				{Name: "toPerp", Type: "bool"},
				{Name: "nonce", Type: "uint64"},
			},
		},
		{
			action:      &ApproveAgent{},
			primaryType: "HyperliquidTransaction:ApproveAgent",
			fields: []eip712.Type{
				{Name: "hyperliquidChain", Type: "string"},
				{Name: "agentAddress", Type: "address"},
				{Name: "agentName", Type: "string"},
				{Name: "nonce", Type: "uint64"},
			},
		},
		{
			action:      &ApproveBuilderFee{},
			primaryType: "HyperliquidTransaction:ApproveBuilderFee",
			fields: []eip712.Type{
				{Name: "hyperliquidChain", Type: "string"},
				{Name: "maxFeeRate", Type: "string"},
				{Name: "builder", Type: "address"},
				{Name: "nonce", Type: "uint64"},
			},
		},
		{
			action:      &TokenDelegate{},
			primaryType: "HyperliquidTransaction:TokenDelegate",
			fields: []eip712.Type{
				{Name: "hyperliquidChain", Type: "string"},
				{Name: "validator", Type: "address"},
				{Name: "wei", Type: "uint64"},
				{Name: "isUndelegate", Type: "bool"},
				{Name: "nonce", Type: "uint64"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.primaryType, func(t *testing.T) {
			assert.Equal(t, tt.primaryType, tt.action.PrimaryType())
			assert.Equal(t, tt.fields, UserActionTypes(tt.action))

			msg := UserActionMessage(tt.action, "Mainnet")
			assert.Len(t, msg, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, msg, f.Name)
			}
		})
	}
}

func Test_UserAction_WithNonce(t *testing.T) {
	orig := &ApproveAgent{AgentAddress: testVault, AgentName: "bot"}
	stamped := orig.WithNonce(42)

	assert.Equal(t, uint64(0), orig.Nonce)
	assert.Equal(t, uint64(42), stamped.(*ApproveAgent).Nonce)

	send := (&UsdSend{Destination: testVault, Amount: "1"}).WithNonce(7)
	assert.Equal(t, uint64(7), send.(*UsdSend).Time)
}

func Test_UserActionWire(t *testing.T) {
	u := &UsdSend{Destination: "0x5e9ee1089755c3435139848e47e6635505d5a13a", Amount: "1", Time: 1687816341423}
	b, err := json.Marshal(UserActionWire(u, "Testnet", "0x66eee"))
	require.NoError(t, err)
	assert.Equal(t, `{"type":"usdSend","signatureChainId":"0x66eee","hyperliquidChain":"Testnet","destination":"0x5e9ee1089755c3435139848e47e6635505d5a13a","amount":"1","time":1687816341423}`, string(b))

	d := &TokenDelegate{Validator: testVault, Wei: 100, IsUndelegate: true, Nonce: 3}
	b, err = json.Marshal(UserActionWire(d, "Mainnet", "0xa4b1"))
	require.NoError(t, err)
	assert.Equal(t, `{"type":"tokenDelegate","signatureChainId":"0xa4b1","hyperliquidChain":"Mainnet","validator":"`+testVault+`","wei":100,"isUndelegate":true,"nonce":3}`, string(b))
}
