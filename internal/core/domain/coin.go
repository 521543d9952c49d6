package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/holiman/uint256"
)

// Amount is an unsigned 256-bit token amount. It serializes to JSON as a decimal string.
type Amount struct {
	value uint256.Int
}

func NewAmount(v uint64) Amount {
	var a Amount
	a.value.SetUint64(v)
	return a
}

// ParseAmount parses a base-10 amount. Negative, fractional and out of range values are rejected.
func ParseAmount(s string) (Amount, error) {
	var a Amount
	s = strings.TrimSpace(s)
	if len(s) <= 0 {
		return a, fmt.Errorf("empty amount")
	}
	if err := a.value.SetFromDecimal(s); err != nil {
		return a, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return a, nil
}

func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

func (a Amount) Cmp(other Amount) int {
	return a.value.Cmp(&other.value)
}

// Add returns a+other or ErrAmountOverflow.
func (a Amount) Add(other Amount) (Amount, error) {
	var sum Amount
	if _, overflow := sum.value.AddOverflow(&a.value, &other.value); overflow {
		return Amount{}, ErrAmountOverflow
	}
	return sum, nil
}

func (a Amount) String() string {
	return a.value.Dec()
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(buf []byte) error {
	buf = bytes.TrimSpace(buf)
	var str string
	if len(buf) > 0 && buf[0] == '"' {
		if err := json.Unmarshal(buf, &str); err != nil {
			return err
		}
	} else {
		str = string(buf)
	}
	parsed, err := ParseAmount(str)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

type Coin struct {
	Denom  string `json:"denom"`
	Amount Amount `json:"amount"`
}

func NewCoin(amount uint64, denom string) Coin {
	return Coin{Denom: denom, Amount: NewAmount(amount)}
}

func (c Coin) String() string {
	return fmt.Sprintf("%s%s", c.Amount, c.Denom)
}

// Coins is a denom-unique list of non-zero coins sorted by denom.
type Coins []Coin

// Add merges the coin into the list: a zero amount is a no-op, an existing denom is summed in place
// and a new denom is inserted at its sorted position. The receiver is never mutated.
func (c Coins) Add(coin Coin) (Coins, error) {
	if coin.Amount.IsZero() {
		return c, nil
	}

	i := sort.Search(len(c), func(i int) bool { return c[i].Denom >= coin.Denom })

	merged := make(Coins, 0, len(c)+1)
	merged = append(merged, c[:i]...)
	if i < len(c) && c[i].Denom == coin.Denom {
		sum, err := c[i].Amount.Add(coin.Amount)
		if err != nil {
			return nil, err
		}
		merged = append(merged, Coin{Denom: coin.Denom, Amount: sum})
		return append(merged, c[i+1:]...), nil
	}
	merged = append(merged, coin)
	return append(merged, c[i:]...), nil
}

// Sorted returns a copy of the list ordered by denom bytes. Stores that do not preserve the
// order must sort what they load before calling Add.
func (c Coins) Sorted() Coins {
	sorted := slices.Clone(c)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Denom < sorted[j].Denom })
	return sorted
}

// AmountOf returns the amount held for the given denom, zero if absent.
func (c Coins) AmountOf(denom string) Amount {
	i := sort.Search(len(c), func(i int) bool { return c[i].Denom >= denom })
	if i < len(c) && c[i].Denom == denom {
		return c[i].Amount
	}
	return Amount{}
}

func (c Coins) IsEmpty() bool {
	return len(c) <= 0
}

func (c Coins) String() string {
	strs := make([]string, 0, len(c))
	for _, coin := range c {
		strs = append(strs, coin.String())
	}
	return strings.Join(strs, ",")
}

// PendingPayments is the escrow account of a handle that has not completed its receive
// registration yet. It only exists while it holds a non-empty balance.
type PendingPayments struct {
	Handle   string
	Balances Coins
}

func (p *PendingPayments) AddPayment(coin Coin) error {
	balances, err := p.Balances.Add(coin)
	if err != nil {
		return err
	}
	p.Balances = balances
	return nil
}
