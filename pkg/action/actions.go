package action

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Action is an L1 action signed through the Agent domain.
type Action interface {
	// Type is the wire "type" tag
	Type() string
	// Map returns the wire form with its protocol field order
	Map() Map
	Validate() error
}

const (
	TypeOrder                = "order"
	TypeCancel               = "cancel"
	TypeCancelByCloid        = "cancelByCloid"
	TypeModify               = "modify"
	TypeBatchModify          = "batchModify"
	TypeScheduleCancel       = "scheduleCancel"
	TypeUpdateLeverage       = "updateLeverage"
	TypeUpdateIsolatedMargin = "updateIsolatedMargin"
	TypeVaultTransfer        = "vaultTransfer"
	TypeSubAccountTransfer   = "subAccountTransfer"
	TypeSetReferrer          = "setReferrer"
	TypeCreateSubAccount     = "createSubAccount"
	TypeNoop                 = "noop"
)

var (
	cloidPattern   = regexp.MustCompile(`^0x[0-9a-fA-F]{32}$`)
	decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
)

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...))
}

func validateCloid(cloid string) error {
	if !cloidPattern.MatchString(cloid) {
		return malformed("cloid %q must be 0x followed by 32 hex characters", cloid)
	}
	return nil
}

func validateAddress(name, addr string) error {
	if addr == "" {
		return malformed("%s is required", name)
	}
	if !strings.HasPrefix(addr, "0x") || !common.IsHexAddress(addr) {
		return malformed("%s %q is not a 0x-prefixed 20-byte address", name, addr)
	}
	return nil
}

func validateDecimal(name, s string) error {
	if s == "" {
		return malformed("%s is required", name)
	}
	if !decimalPattern.MatchString(s) {
		return malformed("%s %q is not a decimal wire string", name, s)
	}
	return nil
}

type Tif string

const (
	TifAlo Tif = "Alo"
	TifIoc Tif = "Ioc"
	TifGtc Tif = "Gtc"
)

type Tpsl string

const (
	TpslTakeProfit Tpsl = "tp"
	TpslStopLoss   Tpsl = "sl"
)

type Grouping string

const (
	GroupingNA           Grouping = "na"
	GroupingNormalTpsl   Grouping = "normalTpsl"
	GroupingPositionTpsl Grouping = "positionTpsl"
)

type LimitOrderType struct {
	Tif Tif
}

type TriggerOrderType struct {
	IsMarket  bool
	TriggerPx string
	Tpsl      Tpsl
}

// OrderType holds exactly one of Limit or Trigger.
type OrderType struct {
	Limit   *LimitOrderType
	Trigger *TriggerOrderType
}

func (t OrderType) Validate() error {
	switch {
	case t.Limit != nil && t.Trigger != nil:
		return malformed("order type cannot be both limit and trigger")
	case t.Limit != nil:
		switch t.Limit.Tif {
		case TifAlo, TifIoc, TifGtc:
			return nil
		default:
			return malformed("unknown time in force %q", t.Limit.Tif)
		}
	case t.Trigger != nil:
		if t.Trigger.Tpsl != TpslTakeProfit && t.Trigger.Tpsl != TpslStopLoss {
			return malformed("unknown tpsl %q", t.Trigger.Tpsl)
		}
		return validateDecimal("triggerPx", t.Trigger.TriggerPx)
	default:
		return malformed("order type is required")
	}
}

func (t OrderType) Map() Map {
	if t.Trigger != nil {
		return NewMap(E("trigger", Object(NewMap(
			E("isMarket", Bool(t.Trigger.IsMarket)),
			E("triggerPx", String(t.Trigger.TriggerPx)),
			E("tpsl", String(string(t.Trigger.Tpsl))),
		))))
	}
	return NewMap(E("limit", Object(NewMap(E("tif", String(string(t.Limit.Tif)))))))
}

// OrderWire is one order. Prices and sizes are decimal wire strings, see FloatToWire.
type OrderWire struct {
	Asset      uint32
	IsBuy      bool
	LimitPx    string
	Size       string
	ReduceOnly bool
	OrderType  OrderType
	// Optional client order id
	Cloid string
}

func (o OrderWire) Validate() error {
	if err := validateDecimal("limitPx", o.LimitPx); err != nil {
		return err
	}
	if err := validateDecimal("size", o.Size); err != nil {
		return err
	}
	if err := o.OrderType.Validate(); err != nil {
		return err
	}
	if o.Cloid != "" {
		return validateCloid(o.Cloid)
	}
	return nil
}

func (o OrderWire) Map() Map {
	m := NewMap(
		E("a", Uint(uint64(o.Asset))),
		E("b", Bool(o.IsBuy)),
		E("p", String(o.LimitPx)),
		E("s", String(o.Size)),
		E("r", Bool(o.ReduceOnly)),
		E("t", Object(o.OrderType.Map())),
	)
	if o.Cloid != "" {
		m = append(m, E("c", String(o.Cloid)))
	}
	return m
}

// BuilderInfo routes a fee, in tenths of a basis point, to a builder address.
type BuilderInfo struct {
	Address string
	Fee     uint64
}

type Order struct {
	Orders   []OrderWire
	Grouping Grouping
	Builder  *BuilderInfo
}

func (a *Order) Type() string { return TypeOrder }

func (a *Order) Validate() error {
	if len(a.Orders) == 0 {
		return malformed("order action needs at least one order")
	}
	for i, o := range a.Orders {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("orders[%d]: %w", i, err)
		}
	}
	switch a.Grouping {
	case GroupingNA, GroupingNormalTpsl, GroupingPositionTpsl:
	default:
		return malformed("unknown grouping %q", a.Grouping)
	}
	if a.Builder != nil {
		return validateAddress("builder", a.Builder.Address)
	}
	return nil
}

func (a *Order) Map() Map {
	orders := make([]Value, 0, len(a.Orders))
	for _, o := range a.Orders {
		orders = append(orders, Object(o.Map()))
	}
	m := NewMap(
		E("type", String(TypeOrder)),
		E("orders", List(orders...)),
		E("grouping", String(string(a.Grouping))),
	)
	if a.Builder != nil {
		m = append(m, E("builder", Object(NewMap(
			E("b", String(strings.ToLower(a.Builder.Address))),
			E("f", Uint(a.Builder.Fee)),
		))))
	}
	return m
}

type CancelRequest struct {
	Asset uint32
	Oid   uint64
}

type Cancel struct {
	Cancels []CancelRequest
}

func (a *Cancel) Type() string { return TypeCancel }

func (a *Cancel) Validate() error {
	if len(a.Cancels) == 0 {
		return malformed("cancel action needs at least one cancel")
	}
	return nil
}

func (a *Cancel) Map() Map {
	cancels := make([]Value, 0, len(a.Cancels))
	for _, c := range a.Cancels {
		cancels = append(cancels, Object(NewMap(
			E("a", Uint(uint64(c.Asset))),
			E("o", Uint(c.Oid)),
		)))
	}
	return NewMap(
		E("type", String(TypeCancel)),
		E("cancels", List(cancels...)),
	)
}

type CancelByCloidRequest struct {
	Asset uint32
	Cloid string
}

type CancelByCloid struct {
	Cancels []CancelByCloidRequest
}

func (a *CancelByCloid) Type() string { return TypeCancelByCloid }

func (a *CancelByCloid) Validate() error {
	if len(a.Cancels) == 0 {
		return malformed("cancelByCloid action needs at least one cancel")
	}
	for i, c := range a.Cancels {
		if err := validateCloid(c.Cloid); err != nil {
			return fmt.Errorf("cancels[%d]: %w", i, err)
		}
	}
	return nil
}

func (a *CancelByCloid) Map() Map {
	cancels := make([]Value, 0, len(a.Cancels))
	for _, c := range a.Cancels {
		cancels = append(cancels, Object(NewMap(
			E("asset", Uint(uint64(c.Asset))),
			E("cloid", String(c.Cloid)),
		)))
	}
	return NewMap(
		E("type", String(TypeCancelByCloid)),
		E("cancels", List(cancels...)),
	)
}

// OrderRef points at a resting order by exchange id or, when Cloid is set, by client id.
type OrderRef struct {
	Oid   uint64
	Cloid string
}

func (r OrderRef) Validate() error {
	if r.Cloid != "" {
		return validateCloid(r.Cloid)
	}
	return nil
}

func (r OrderRef) Value() Value {
	if r.Cloid != "" {
		return String(r.Cloid)
	}
	return Uint(r.Oid)
}

type ModifyRequest struct {
	Oid   OrderRef
	Order OrderWire
}

func (r ModifyRequest) Validate() error {
	if err := r.Oid.Validate(); err != nil {
		return err
	}
	return r.Order.Validate()
}

func (r ModifyRequest) Map() Map {
	return NewMap(
		E("oid", r.Oid.Value()),
		E("order", Object(r.Order.Map())),
	)
}

type Modify struct {
	Oid   OrderRef
	Order OrderWire
}

func (a *Modify) Type() string { return TypeModify }

func (a *Modify) Validate() error {
	return ModifyRequest{Oid: a.Oid, Order: a.Order}.Validate()
}

func (a *Modify) Map() Map {
	return append(NewMap(E("type", String(TypeModify))), ModifyRequest{Oid: a.Oid, Order: a.Order}.Map()...)
}

type BatchModify struct {
	Modifies []ModifyRequest
}

func (a *BatchModify) Type() string { return TypeBatchModify }

func (a *BatchModify) Validate() error {
	if len(a.Modifies) == 0 {
		return malformed("batchModify action needs at least one modify")
	}
	for i, m := range a.Modifies {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("modifies[%d]: %w", i, err)
		}
	}
	return nil
}

func (a *BatchModify) Map() Map {
	modifies := make([]Value, 0, len(a.Modifies))
	for _, m := range a.Modifies {
		modifies = append(modifies, Object(m.Map()))
	}
	return NewMap(
		E("type", String(TypeBatchModify)),
		E("modifies", List(modifies...)),
	)
}

// ScheduleCancel arms the dead man's switch at Time (ms), or clears it when Time is nil.
type ScheduleCancel struct {
	Time *uint64
}

func (a *ScheduleCancel) Type() string    { return TypeScheduleCancel }
func (a *ScheduleCancel) Validate() error { return nil }

func (a *ScheduleCancel) Map() Map {
	m := NewMap(E("type", String(TypeScheduleCancel)))
	if a.Time != nil {
		m = append(m, E("time", Uint(*a.Time)))
	}
	return m
}

type UpdateLeverage struct {
	Asset    uint32
	IsCross  bool
	Leverage uint32
}

func (a *UpdateLeverage) Type() string { return TypeUpdateLeverage }

func (a *UpdateLeverage) Validate() error {
	if a.Leverage == 0 {
		return malformed("leverage must be positive")
	}
	return nil
}

func (a *UpdateLeverage) Map() Map {
	return NewMap(
		E("type", String(TypeUpdateLeverage)),
		E("asset", Uint(uint64(a.Asset))),
		E("isCross", Bool(a.IsCross)),
		E("leverage", Uint(uint64(a.Leverage))),
	)
}

// UpdateIsolatedMargin moves Ntli micro-USD in (positive) or out (negative) of a position.
type UpdateIsolatedMargin struct {
	Asset uint32
	IsBuy bool
	Ntli  int64
}

func (a *UpdateIsolatedMargin) Type() string    { return TypeUpdateIsolatedMargin }
func (a *UpdateIsolatedMargin) Validate() error { return nil }

func (a *UpdateIsolatedMargin) Map() Map {
	return NewMap(
		E("type", String(TypeUpdateIsolatedMargin)),
		E("asset", Uint(uint64(a.Asset))),
		E("isBuy", Bool(a.IsBuy)),
		E("ntli", Int(a.Ntli)),
	)
}

type VaultTransfer struct {
	VaultAddress string
	IsDeposit    bool
	// micro-USD
	Usd uint64
}

func (a *VaultTransfer) Type() string { return TypeVaultTransfer }

func (a *VaultTransfer) Validate() error {
	return validateAddress("vaultAddress", a.VaultAddress)
}

func (a *VaultTransfer) Map() Map {
	return NewMap(
		E("type", String(TypeVaultTransfer)),
		E("vaultAddress", String(a.VaultAddress)),
		E("isDeposit", Bool(a.IsDeposit)),
		E("usd", Uint(a.Usd)),
	)
}

type SubAccountTransfer struct {
	SubAccountUser string
	IsDeposit      bool
	// micro-USD
	Usd uint64
}

func (a *SubAccountTransfer) Type() string { return TypeSubAccountTransfer }

func (a *SubAccountTransfer) Validate() error {
	return validateAddress("subAccountUser", a.SubAccountUser)
}

func (a *SubAccountTransfer) Map() Map {
	return NewMap(
		E("type", String(TypeSubAccountTransfer)),
		E("subAccountUser", String(a.SubAccountUser)),
		E("isDeposit", Bool(a.IsDeposit)),
		E("usd", Uint(a.Usd)),
	)
}

type SetReferrer struct {
	Code string
}

func (a *SetReferrer) Type() string { return TypeSetReferrer }

func (a *SetReferrer) Validate() error {
	if a.Code == "" {
		return malformed("referral code is required")
	}
	return nil
}

func (a *SetReferrer) Map() Map {
	return NewMap(
		E("type", String(TypeSetReferrer)),
		E("code", String(a.Code)),
	)
}

type CreateSubAccount struct {
	Name string
}

func (a *CreateSubAccount) Type() string { return TypeCreateSubAccount }

func (a *CreateSubAccount) Validate() error {
	if a.Name == "" {
		return malformed("sub-account name is required")
	}
	return nil
}

func (a *CreateSubAccount) Map() Map {
	return NewMap(
		E("type", String(TypeCreateSubAccount)),
		E("name", String(a.Name)),
	)
}

// Noop consumes a nonce without doing anything.
type Noop struct{}

func (a *Noop) Type() string    { return TypeNoop }
func (a *Noop) Validate() error { return nil }
func (a *Noop) Map() Map        { return NewMap(E("type", String(TypeNoop))) }

// Raw is an action given directly as an ordered map, for kinds without a typed variant.
type Raw struct {
	Fields Map
}

func (a *Raw) Type() string {
	if v, ok := a.Fields.Get("type"); ok && v.Kind() == KindString {
		return v.Str()
	}
	return ""
}

func (a *Raw) Validate() error {
	if len(a.Fields) == 0 {
		return malformed("raw action is empty")
	}
	if a.Type() == "" {
		return malformed("raw action needs a string \"type\" field")
	}
	return nil
}

func (a *Raw) Map() Map { return a.Fields }
