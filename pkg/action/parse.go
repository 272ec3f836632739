package action

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type typeHeader struct {
	Type string `json:"type"`
}

// presence records whether a required key appeared in the input. Scalars without a
// natural empty value (numbers, bools) decode into pointers so a missing key is
// distinguishable from zero or false.
type presence struct {
	name string
	ok   bool
}

func has(name string, present bool) presence {
	return presence{name: name, ok: present}
}

func requireFields(fields ...presence) error {
	for _, f := range fields {
		if !f.ok {
			return malformed("missing required field %q", f.name)
		}
	}
	return nil
}

func decodeStrict(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return nil
}

type orderTypeJSON struct {
	Limit *struct {
		Tif Tif `json:"tif"`
	} `json:"limit,omitempty"`
	Trigger *struct {
		IsMarket  *bool  `json:"isMarket"`
		TriggerPx string `json:"triggerPx"`
		Tpsl      Tpsl   `json:"tpsl"`
	} `json:"trigger,omitempty"`
}

type orderWireJSON struct {
	A *uint32       `json:"a"`
	B *bool         `json:"b"`
	P string        `json:"p"`
	S string        `json:"s"`
	R *bool         `json:"r"`
	T orderTypeJSON `json:"t"`
	C string        `json:"c,omitempty"`
}

func (o orderWireJSON) toOrderWire() (OrderWire, error) {
	if err := requireFields(has("a", o.A != nil), has("b", o.B != nil), has("r", o.R != nil)); err != nil {
		return OrderWire{}, err
	}
	w := OrderWire{
		Asset:      *o.A,
		IsBuy:      *o.B,
		LimitPx:    o.P,
		Size:       o.S,
		ReduceOnly: *o.R,
		Cloid:      o.C,
	}
	if o.T.Limit != nil {
		w.OrderType.Limit = &LimitOrderType{Tif: o.T.Limit.Tif}
	}
	if o.T.Trigger != nil {
		if err := requireFields(has("isMarket", o.T.Trigger.IsMarket != nil)); err != nil {
			return OrderWire{}, err
		}
		w.OrderType.Trigger = &TriggerOrderType{
			IsMarket:  *o.T.Trigger.IsMarket,
			TriggerPx: o.T.Trigger.TriggerPx,
			Tpsl:      o.T.Trigger.Tpsl,
		}
	}
	return w, nil
}

func parseOrderRef(raw json.RawMessage) (OrderRef, error) {
	var cloid string
	if err := json.Unmarshal(raw, &cloid); err == nil {
		return OrderRef{Cloid: cloid}, nil
	}
	var oid uint64
	if err := json.Unmarshal(raw, &oid); err != nil {
		return OrderRef{}, malformed("oid must be an integer or a cloid string")
	}
	return OrderRef{Oid: oid}, nil
}

type modifyJSON struct {
	Oid   json.RawMessage `json:"oid"`
	Order orderWireJSON   `json:"order"`
}

func (m modifyJSON) toModifyRequest() (ModifyRequest, error) {
	ref, err := parseOrderRef(m.Oid)
	if err != nil {
		return ModifyRequest{}, err
	}
	order, err := m.Order.toOrderWire()
	if err != nil {
		return ModifyRequest{}, err
	}
	return ModifyRequest{Oid: ref, Order: order}, nil
}

// ParseJSON decodes an /exchange L1 action into its typed variant. Unknown types
// come back as Raw with their key order preserved.
func ParseJSON(data []byte) (Action, error) {
	var header typeHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	var a Action
	switch header.Type {
	case "":
		return nil, malformed("action has no type")
	case TypeOrder:
		var v struct {
			Type     string          `json:"type"`
			Orders   []orderWireJSON `json:"orders"`
			Grouping Grouping        `json:"grouping"`
			Builder  *struct {
				B string  `json:"b"`
				F *uint64 `json:"f"`
			} `json:"builder,omitempty"`
		}
		if err := decodeStrict(data, &v); err != nil {
			return nil, err
		}
		order := &Order{Grouping: v.Grouping}
		for i, o := range v.Orders {
			w, err := o.toOrderWire()
			if err != nil {
				return nil, fmt.Errorf("orders[%d]: %w", i, err)
			}
			order.Orders = append(order.Orders, w)
		}
		if v.Builder != nil {
			if err := requireFields(has("builder.f", v.Builder.F != nil)); err != nil {
				return nil, err
			}
			order.Builder = &BuilderInfo{Address: v.Builder.B, Fee: *v.Builder.F}
		}
		a = order
	case TypeCancel:
		var v struct {
			Type    string `json:"type"`
			Cancels []struct {
				A *uint32 `json:"a"`
				O *uint64 `json:"o"`
			} `json:"cancels"`
		}
		if err := decodeStrict(data, &v); err != nil {
			return nil, err
		}
		c := &Cancel{}
		for i, r := range v.Cancels {
			if err := requireFields(has("a", r.A != nil), has("o", r.O != nil)); err != nil {
				return nil, fmt.Errorf("cancels[%d]: %w", i, err)
			}
			c.Cancels = append(c.Cancels, CancelRequest{Asset: *r.A, Oid: *r.O})
		}
		a = c
	case TypeCancelByCloid:
		var v struct {
			Type    string `json:"type"`
			Cancels []struct {
				Asset *uint32 `json:"asset"`
				Cloid string  `json:"cloid"`
			} `json:"cancels"`
		}
		if err := decodeStrict(data, &v); err != nil {
			return nil, err
		}
		c := &CancelByCloid{}
		for i, r := range v.Cancels {
			if err := requireFields(has("asset", r.Asset != nil)); err != nil {
				return nil, fmt.Errorf("cancels[%d]: %w", i, err)
			}
			c.Cancels = append(c.Cancels, CancelByCloidRequest{Asset: *r.Asset, Cloid: r.Cloid})
		}
		a = c
	case TypeModify:
		var v struct {
			Type string `json:"type"`
			modifyJSON
		}
		if err := decodeStrict(data, &v); err != nil {
			return nil, err
		}
		req, err := v.toModifyRequest()
		if err != nil {
			return nil, err
		}
		a = &Modify{Oid: req.Oid, Order: req.Order}
	case TypeBatchModify:
		var v struct {
			Type     string       `json:"type"`
			Modifies []modifyJSON `json:"modifies"`
		}
		if err := decodeStrict(data, &v); err != nil {
			return nil, err
		}
		bm := &BatchModify{}
		for i, m := range v.Modifies {
			req, err := m.toModifyRequest()
			if err != nil {
				return nil, fmt.Errorf("modifies[%d]: %w", i, err)
			}
			bm.Modifies = append(bm.Modifies, req)
		}
		a = bm
	case TypeScheduleCancel:
		var v struct {
			Type string  `json:"type"`
			Time *uint64 `json:"time,omitempty"`
		}
		if err := decodeStrict(data, &v); err != nil {
			return nil, err
		}
		a = &ScheduleCancel{Time: v.Time}
	case TypeUpdateLeverage:
		var v struct {
			Type     string  `json:"type"`
			Asset    *uint32 `json:"asset"`
			IsCross  *bool   `json:"isCross"`
			Leverage *uint32 `json:"leverage"`
		}
		if err := decodeStrict(data, &v); err != nil {
			return nil, err
		}
		if err := requireFields(has("asset", v.Asset != nil), has("isCross", v.IsCross != nil), has("leverage", v.Leverage != nil)); err != nil {
			return nil, err
		}
		a = &UpdateLeverage{Asset: *v.Asset, IsCross: *v.IsCross, Leverage: *v.Leverage}
	case TypeUpdateIsolatedMargin:
		var v struct {
			Type  string  `json:"type"`
			Asset *uint32 `json:"asset"`
			IsBuy *bool   `json:"isBuy"`
			Ntli  *int64  `json:"ntli"`
		}
		if err := decodeStrict(data, &v); err != nil {
			return nil, err
		}
		if err := requireFields(has("asset", v.Asset != nil), has("isBuy", v.IsBuy != nil), has("ntli", v.Ntli != nil)); err != nil {
			return nil, err
		}
		a = &UpdateIsolatedMargin{Asset: *v.Asset, IsBuy: *v.IsBuy, Ntli: *v.Ntli}
	case TypeVaultTransfer:
		var v struct {
			Type         string  `json:"type"`
			VaultAddress string  `json:"vaultAddress"`
			IsDeposit    *bool   `json:"isDeposit"`
			Usd          *uint64 `json:"usd"`
		}
		if err := decodeStrict(data, &v); err != nil {
			return nil, err
		}
		if err := requireFields(has("isDeposit", v.IsDeposit != nil), has("usd", v.Usd != nil)); err != nil {
			return nil, err
		}
		a = &VaultTransfer{VaultAddress: v.VaultAddress, IsDeposit: *v.IsDeposit, Usd: *v.Usd}
	case TypeSubAccountTransfer:
		var v struct {
			Type           string  `json:"type"`
			SubAccountUser string  `json:"subAccountUser"`
			IsDeposit      *bool   `json:"isDeposit"`
			Usd            *uint64 `json:"usd"`
		}
		if err := decodeStrict(data, &v); err != nil {
			return nil, err
		}
		if err := requireFields(has("isDeposit", v.IsDeposit != nil), has("usd", v.Usd != nil)); err != nil {
			return nil, err
		}
		a = &SubAccountTransfer{SubAccountUser: v.SubAccountUser, IsDeposit: *v.IsDeposit, Usd: *v.Usd}
	case TypeSetReferrer:
		var v struct {
			Type string `json:"type"`
			Code string `json:"code"`
		}
		if err := decodeStrict(data, &v); err != nil {
			return nil, err
		}
		a = &SetReferrer{Code: v.Code}
	case TypeCreateSubAccount:
		var v struct {
			Type string `json:"type"`
			Name string `json:"name"`
		}
		if err := decodeStrict(data, &v); err != nil {
			return nil, err
		}
		a = &CreateSubAccount{Name: v.Name}
	case TypeNoop:
		var v typeHeader
		if err := decodeStrict(data, &v); err != nil {
			return nil, err
		}
		a = &Noop{}
	default:
		var m Map
		if err := m.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		a = &Raw{Fields: m}
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

type userActionJSON struct {
	Type             string `json:"type"`
	SignatureChainId string `json:"signatureChainId,omitempty"`
	HyperliquidChain string `json:"hyperliquidChain,omitempty"`

	Destination  string  `json:"destination,omitempty"`
	Token        string  `json:"token,omitempty"`
	Amount       string  `json:"amount,omitempty"`
	Time         uint64  `json:"time,omitempty"`
	ToPerp       *bool   `json:"toPerp,omitempty"`
	Nonce        uint64  `json:"nonce,omitempty"`
	AgentAddress string  `json:"agentAddress,omitempty"`
	AgentName    string  `json:"agentName,omitempty"`
	MaxFeeRate   string  `json:"maxFeeRate,omitempty"`
	Builder      string  `json:"builder,omitempty"`
	Validator    string  `json:"validator,omitempty"`
	Wei          *uint64 `json:"wei,omitempty"`
	IsUndelegate *bool   `json:"isUndelegate,omitempty"`
}

// ParseUserJSON decodes a user-signed action. Chain fields in the input are ignored;
// the signer stamps its own, as it does time and nonce, so those may be omitted.
func ParseUserJSON(data []byte) (UserAction, error) {
	var v userActionJSON
	if err := decodeStrict(data, &v); err != nil {
		return nil, err
	}

	var u UserAction
	switch v.Type {
	case TypeUsdSend:
		u = &UsdSend{Destination: v.Destination, Amount: v.Amount, Time: v.Time}
	case TypeSpotSend:
		u = &SpotSend{Destination: v.Destination, Token: v.Token, Amount: v.Amount, Time: v.Time}
	case TypeWithdraw:
		u = &Withdraw{Destination: v.Destination, Amount: v.Amount, Time: v.Time}
	case TypeUsdClassTransfer:
		if err := requireFields(has("toPerp", v.ToPerp != nil)); err != nil {
			return nil, err
		}
		amount, sub, _ := strings.Cut(v.Amount, " subaccount:")
		u = &UsdClassTransfer{Amount: amount, ToPerp: *v.ToPerp, Nonce: v.Nonce, SubAccount: sub}
	case TypeApproveAgent:
		u = &ApproveAgent{AgentAddress: v.AgentAddress, AgentName: v.AgentName, Nonce: v.Nonce}
	case TypeApproveBuilderFee:
		u = &ApproveBuilderFee{MaxFeeRate: v.MaxFeeRate, Builder: v.Builder, Nonce: v.Nonce}
	case TypeTokenDelegate:
		if err := requireFields(has("wei", v.Wei != nil), has("isUndelegate", v.IsUndelegate != nil)); err != nil {
			return nil, err
		}
		u = &TokenDelegate{Validator: v.Validator, Wei: *v.Wei, IsUndelegate: *v.IsUndelegate, Nonce: v.Nonce}
	default:
		return nil, malformed("unknown user action type %q", v.Type)
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}
