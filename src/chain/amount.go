package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// amountPrecision is the number of fractional digits of the native coin.
const amountPrecision = 18

// Amount is an exact decimal coin amount as exchanged with the node. The node
// reports amounts either as JSON strings or as JSON numbers; both decode into
// the same normalized decimal string.
type Amount string

// NewAmount returns the normalized Amount of an integer.
func NewAmount(i int64) Amount {
	return Amount(big.NewInt(i).String())
}

// ParseAmount validates and normalizes a decimal string.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return "", fmt.Errorf("invalid amount %q", s)
	}
	return fromRat(r), nil
}

// Rat returns the amount as a rational number. Empty or malformed amounts are
// zero.
func (a Amount) Rat() *big.Rat {
	r, ok := new(big.Rat).SetString(string(a))
	if !ok {
		return new(big.Rat)
	}
	return r
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return fromRat(new(big.Rat).Add(a.Rat(), b.Rat()))
}

// IsZero reports whether the amount is empty or equal to zero.
func (a Amount) IsZero() bool {
	return a.Rat().Sign() == 0
}

// String implements fmt.Stringer.
func (a Amount) String() string {
	if a == "" {
		return "0"
	}
	return string(a)
}

// MarshalJSON encodes the amount as a JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a JSON string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}

	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}

	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MaxFee returns the fee cap for a deployment estimated at gasCost + txFee,
// ie. ceil((gasCost + txFee) * 1.1), computed exactly.
func MaxFee(gasCost, txFee Amount) Amount {
	total := new(big.Rat).Add(gasCost.Rat(), txFee.Rat())
	total.Mul(total, big.NewRat(11, 10))
	return fromRat(ceil(total))
}

func ceil(r *big.Rat) *big.Rat {
	q, m := new(big.Int).DivMod(r.Num(), r.Denom(), new(big.Int))
	if m.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return new(big.Rat).SetInt(q)
}

func fromRat(r *big.Rat) Amount {
	if r.IsInt() {
		return Amount(r.Num().String())
	}
	s := r.FloatString(amountPrecision)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return Amount(s)
}
