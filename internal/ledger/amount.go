package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is a ledger currency code: either a 3 character standard code or a
// 40 character hex identifier.
type Currency string

// XRP is the native currency.
const XRP Currency = "XRP"

const (
	// DropsPerXRP is the number of drops in one XRP.
	DropsPerXRP = 1_000_000
	// DropPrecision is the number of decimal places representable in drops.
	DropPrecision = 6
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNegativeAmount    = errors.New("amount cannot be negative")
	ErrSubDropPrecision  = errors.New("XRP amount rounds to zero drops")
	ErrMissingIssuer     = errors.New("issued amount requires an issuer")
	ErrUnsupportedAmount = errors.New("unsupported amount encoding")
)

var dropsPerXRP = decimal.NewFromInt(DropsPerXRP)

// Amount is either an XRP quantity or an issued-currency quantity. Values are
// always in whole units (XRP, not drops).
type Amount struct {
	Currency Currency        `json:"currency"`
	Issuer   string          `json:"issuer,omitempty"`
	Value    decimal.Decimal `json:"value"`
}

// NewXRP returns an XRP amount.
func NewXRP(value decimal.Decimal) Amount {
	return Amount{Currency: XRP, Value: value}
}

// NewXRPFromDrops returns an XRP amount from a drop count.
func NewXRPFromDrops(drops int64) Amount {
	return Amount{Currency: XRP, Value: decimal.New(drops, -DropPrecision)}
}

// NewIssued returns an issued-currency amount.
func NewIssued(currency Currency, issuer string, value decimal.Decimal) Amount {
	return Amount{Currency: currency, Issuer: issuer, Value: value}
}

// IsNative reports whether the amount is XRP.
func (a Amount) IsNative() bool {
	return a.Currency == XRP || a.Currency == ""
}

// Drops returns the amount in drops, truncated to drop precision.
func (a Amount) Drops() int64 {
	return a.Value.Mul(dropsPerXRP).Truncate(0).IntPart()
}

// TruncateToDrops drops any precision an XRP amount cannot carry.
func TruncateToDrops(v decimal.Decimal) decimal.Decimal {
	return v.Truncate(DropPrecision)
}

// Wire returns the JSON form used in transactions: a drop string for XRP and a
// {currency, issuer, value} object for issued currencies.
func (a Amount) Wire() (interface{}, error) {
	if a.Value.IsNegative() {
		return nil, ErrNegativeAmount
	}
	if a.IsNative() {
		drops := a.Drops()
		if drops == 0 && !a.Value.IsZero() {
			return nil, ErrSubDropPrecision
		}
		return strconv.FormatInt(drops, 10), nil
	}
	if a.Issuer == "" {
		return nil, ErrMissingIssuer
	}
	return map[string]interface{}{
		"currency": string(a.Currency),
		"issuer":   a.Issuer,
		"value":    a.Value.String(),
	}, nil
}

// String renders the amount for logs.
func (a Amount) String() string {
	if a.IsNative() {
		return a.Value.String() + " XRP"
	}
	return fmt.Sprintf("%s %s/%s", a.Value.String(), a.Currency, a.Issuer)
}

// ParseAmount decodes an amount in any of the forms the node returns: a drop
// string, or an object with currency, issuer and value.
func ParseAmount(raw interface{}) (Amount, error) {
	switch v := raw.(type) {
	case string:
		drops, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return Amount{}, fmt.Errorf("%w: drops %q", ErrInvalidAmount, v)
		}
		return NewXRPFromDrops(drops), nil
	case map[string]interface{}:
		currency, _ := v["currency"].(string)
		issuer, _ := v["issuer"].(string)
		valueStr, _ := v["value"].(string)
		if currency == "" {
			return Amount{}, fmt.Errorf("%w: missing currency", ErrInvalidAmount)
		}
		value, err := decimal.NewFromString(valueStr)
		if err != nil {
			return Amount{}, fmt.Errorf("%w: value %q", ErrInvalidAmount, valueStr)
		}
		if Currency(currency) == XRP {
			return NewXRP(value), nil
		}
		return NewIssued(Currency(currency), issuer, value), nil
	case json.RawMessage:
		var decoded interface{}
		if err := json.Unmarshal(v, &decoded); err != nil {
			return Amount{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		return ParseAmount(decoded)
	case nil:
		return Amount{}, fmt.Errorf("%w: empty", ErrInvalidAmount)
	default:
		return Amount{}, fmt.Errorf("%w: %T", ErrUnsupportedAmount, raw)
	}
}

// UnmarshalJSON accepts both wire encodings as well as the struct form.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
