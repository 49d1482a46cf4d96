package amount

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidAmount is returned when a value cannot be parsed as a non-negative decimal.
var ErrInvalidAmount = errors.New("invalid amount")

// Zero is the canonical positive zero Decimal128 (0E+0) used for template defaults.
var Zero = primitive.NewDecimal128(0x3040000000000000, 0)

// Parse converts a numeric value or its textual form to a decimal.
func Parse(val any) (decimal.Decimal, error) {
	var (
		d   decimal.Decimal
		err error
	)

	switch v := val.(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("%w: missing value", ErrInvalidAmount)
	case string:
		d, err = decimal.NewFromString(v)
	case json.Number:
		d, err = decimal.NewFromString(v.String())
	case decimal.Decimal:
		d = v
	case primitive.Decimal128:
		d, err = decimal.NewFromString(v.String())
	case int:
		d = decimal.NewFromInt(int64(v))
	case int64:
		d = decimal.NewFromInt(v)
	case int32:
		d = decimal.NewFromInt32(v)
	case int16:
		d = decimal.NewFromInt(int64(v))
	case int8:
		d = decimal.NewFromInt(int64(v))
	case uint:
		d = decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(v)), 0)
	case uint64:
		d = decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
	case uint32:
		d = decimal.NewFromInt(int64(v))
	case uint16:
		d = decimal.NewFromInt(int64(v))
	case uint8:
		d = decimal.NewFromInt(int64(v))
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, v)
		}
		d = decimal.NewFromFloat(v)
	case float32:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, v)
		}
		d = decimal.NewFromFloat32(v)
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, val)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, fmt.Sprint(val))
	}

	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, d.String())
	}

	return d, nil
}

// Normalize parses val and returns its exact Decimal128 representation.
func Normalize(val any) (primitive.Decimal128, error) {
	d, err := Parse(val)
	if err != nil {
		return primitive.Decimal128{}, err
	}
	return ToDecimal128(d)
}

// ToDecimal128 converts a decimal without loss of precision.
func ToDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	dec, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("%w: %s exceeds decimal128 precision", ErrInvalidAmount, d.String())
	}
	return dec, nil
}

// Text validates val and returns its textual form.
// Strings and JSON numbers are returned exactly as received.
func Text(val any) (string, error) {
	d, err := Parse(val)
	if err != nil {
		return "", err
	}

	switch v := val.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	default:
		return d.String(), nil
	}
}

// Equal reports whether two stored amounts denote the same value.
func Equal(a, b any) bool {
	da, err := Parse(a)
	if err != nil {
		return false
	}
	db, err := Parse(b)
	if err != nil {
		return false
	}
	return da.Equal(db)
}
