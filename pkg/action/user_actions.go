package action

import (
	"fmt"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/eip712"
)

// UserAction is an action signed directly by the account owner in the
// HyperliquidSignTransaction domain, as readable EIP-712 fields.
type UserAction interface {
	Type() string
	// PrimaryType is the EIP-712 struct name, e.g. HyperliquidTransaction:UsdSend
	PrimaryType() string
	// WithNonce returns a copy whose time or nonce field is nonce
	WithNonce(nonce uint64) UserAction
	Validate() error

	userFields() []userField
}

const (
	TypeUsdSend           = "usdSend"
	TypeSpotSend          = "spotSend"
	TypeWithdraw          = "withdraw3"
	TypeUsdClassTransfer  = "usdClassTransfer"
	TypeApproveAgent      = "approveAgent"
	TypeApproveBuilderFee = "approveBuilderFee"
	TypeTokenDelegate     = "tokenDelegate"
)

const userPrimaryTypePrefix = "HyperliquidTransaction:"

const hyperliquidChainField = "hyperliquidChain"

type userField struct {
	name  string
	typ   string
	value interface{}
}

// UserActionTypes returns the declared EIP-712 fields of u, hyperliquidChain first.
func UserActionTypes(u UserAction) []eip712.Type {
	fields := u.userFields()
	types := make([]eip712.Type, 0, len(fields)+1)
	types = append(types, eip712.Type{Name: hyperliquidChainField, Type: "string"})
	for _, f := range fields {
		types = append(types, eip712.Type{Name: f.name, Type: f.typ})
	}
	return types
}

// UserActionMessage returns the EIP-712 message of u on hyperliquidChain.
func UserActionMessage(u UserAction, hyperliquidChain string) map[string]interface{} {
	fields := u.userFields()
	msg := make(map[string]interface{}, len(fields)+1)
	msg[hyperliquidChainField] = hyperliquidChain
	for _, f := range fields {
		msg[f.name] = f.value
	}
	return msg
}

// UserActionWire returns the JSON action posted alongside the signature.
func UserActionWire(u UserAction, hyperliquidChain, signatureChainId string) Map {
	m := NewMap(
		E("type", String(u.Type())),
		E("signatureChainId", String(signatureChainId)),
		E(hyperliquidChainField, String(hyperliquidChain)),
	)
	for _, f := range u.userFields() {
		switch v := f.value.(type) {
		case string:
			m = append(m, E(f.name, String(v)))
		case uint64:
			m = append(m, E(f.name, Uint(v)))
		case bool:
			m = append(m, E(f.name, Bool(v)))
		}
	}
	return m
}

func userPrimaryType(name string) string {
	return userPrimaryTypePrefix + name
}

// UsdSend transfers perp USDC to another account. Amount is a decimal string.
type UsdSend struct {
	Destination string
	Amount      string
	Time        uint64
}

func (u *UsdSend) Type() string        { return TypeUsdSend }
func (u *UsdSend) PrimaryType() string { return userPrimaryType("UsdSend") }

func (u *UsdSend) WithNonce(nonce uint64) UserAction {
	c := *u
	c.Time = nonce
	return &c
}

func (u *UsdSend) Validate() error {
	if err := validateAddress("destination", u.Destination); err != nil {
		return err
	}
	return validateDecimal("amount", u.Amount)
}

func (u *UsdSend) userFields() []userField {
	return []userField{
		{"destination", "string", u.Destination},
		{"amount", "string", u.Amount},
		{"time", "uint64", u.Time},
	}
}

// SpotSend transfers a spot token, named as "NAME:0x<token id>".
type SpotSend struct {
	Destination string
	Token       string
	Amount      string
	Time        uint64
}

func (u *SpotSend) Type() string        { return TypeSpotSend }
func (u *SpotSend) PrimaryType() string { return userPrimaryType("SpotSend") }

func (u *SpotSend) WithNonce(nonce uint64) UserAction {
	c := *u
	c.Time = nonce
	return &c
}

func (u *SpotSend) Validate() error {
	if err := validateAddress("destination", u.Destination); err != nil {
		return err
	}
	if u.Token == "" {
		return malformed("token is required")
	}
	return validateDecimal("amount", u.Amount)
}

func (u *SpotSend) userFields() []userField {
	return []userField{
		{"destination", "string", u.Destination},
		{"token", "string", u.Token},
		{"amount", "string", u.Amount},
		{"time", "uint64", u.Time},
	}
}

// Withdraw moves USDC to the bridge for withdrawal to Destination.
type Withdraw struct {
	Destination string
	Amount      string
	Time        uint64
}

func (u *Withdraw) Type() string        { return TypeWithdraw }
func (u *Withdraw) PrimaryType() string { return userPrimaryType("Withdraw") }

func (u *Withdraw) WithNonce(nonce uint64) UserAction {
	c := *u
	c.Time = nonce
	return &c
}

func (u *Withdraw) Validate() error {
	if err := validateAddress("destination", u.Destination); err != nil {
		return err
	}
	return validateDecimal("amount", u.Amount)
}

func (u *Withdraw) userFields() []userField {
	return []userField{
		{"destination", "string", u.Destination},
		{"amount", "string", u.Amount},
		{"time", "uint64", u.Time},
	}
}

// UsdClassTransfer moves USDC between the spot and perp balances.
type UsdClassTransfer struct {
	Amount string
	ToPerp bool
	Nonce  uint64
	// Optional; appended to the amount as " subaccount:<address>"
	SubAccount string
}

func (u *UsdClassTransfer) Type() string        { return TypeUsdClassTransfer }
func (u *UsdClassTransfer) PrimaryType() string { return userPrimaryType("UsdClassTransfer") }

func (u *UsdClassTransfer) WithNonce(nonce uint64) UserAction {
	c := *u
	c.Nonce = nonce
	return &c
}

func (u *UsdClassTransfer) Validate() error {
	if u.SubAccount != "" {
		if err := validateAddress("subAccount", u.SubAccount); err != nil {
			return err
		}
	}
	return validateDecimal("amount", u.Amount)
}

func (u *UsdClassTransfer) amount() string {
	if u.SubAccount != "" {
		return fmt.Sprintf("%s subaccount:%s", u.Amount, u.SubAccount)
	}
	return u.Amount
}

func (u *UsdClassTransfer) userFields() []userField {
	return []userField{
		{"amount", "string", u.amount()},
		{"toPerp", "bool", u.ToPerp},
		{"nonce", "uint64", u.Nonce},
	}
}

// ApproveAgent authorises AgentAddress to sign L1 actions for the account.
type ApproveAgent struct {
	AgentAddress string
	AgentName    string
	Nonce        uint64
}

func (u *ApproveAgent) Type() string        { return TypeApproveAgent }
func (u *ApproveAgent) PrimaryType() string { return userPrimaryType("ApproveAgent") }

func (u *ApproveAgent) WithNonce(nonce uint64) UserAction {
	c := *u
	c.Nonce = nonce
	return &c
}

func (u *ApproveAgent) Validate() error {
	return validateAddress("agentAddress", u.AgentAddress)
}

func (u *ApproveAgent) userFields() []userField {
	return []userField{
		{"agentAddress", "address", u.AgentAddress},
		{"agentName", "string", u.AgentName},
		{"nonce", "uint64", u.Nonce},
	}
}

// ApproveBuilderFee caps the fee Builder may charge, as a percent string like "0.001%".
type ApproveBuilderFee struct {
	MaxFeeRate string
	Builder    string
	Nonce      uint64
}

func (u *ApproveBuilderFee) Type() string        { return TypeApproveBuilderFee }
func (u *ApproveBuilderFee) PrimaryType() string { return userPrimaryType("ApproveBuilderFee") }

func (u *ApproveBuilderFee) WithNonce(nonce uint64) UserAction {
	c := *u
	c.Nonce = nonce
	return &c
}

func (u *ApproveBuilderFee) Validate() error {
	if u.MaxFeeRate == "" {
		return malformed("maxFeeRate is required")
	}
	return validateAddress("builder", u.Builder)
}

func (u *ApproveBuilderFee) userFields() []userField {
	return []userField{
		{"maxFeeRate", "string", u.MaxFeeRate},
		{"builder", "address", u.Builder},
		{"nonce", "uint64", u.Nonce},
	}
}

// TokenDelegate stakes or unstakes Wei of the native token with Validator.
type TokenDelegate struct {
	Validator    string
	Wei          uint64
	IsUndelegate bool
	Nonce        uint64
}

func (u *TokenDelegate) Type() string        { return TypeTokenDelegate }
func (u *TokenDelegate) PrimaryType() string { return userPrimaryType("TokenDelegate") }

func (u *TokenDelegate) WithNonce(nonce uint64) UserAction {
	c := *u
	c.Nonce = nonce
	return &c
}

func (u *TokenDelegate) Validate() error {
	if u.Wei == 0 {
		return malformed("wei must be positive")
	}
	return validateAddress("validator", u.Validator)
}

func (u *TokenDelegate) userFields() []userField {
	return []userField{
		{"validator", "address", u.Validator},
		{"wei", "uint64", u.Wei},
		{"isUndelegate", "bool", u.IsUndelegate},
		{"nonce", "uint64", u.Nonce},
	}
}
