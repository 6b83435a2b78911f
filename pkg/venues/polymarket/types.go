package polymarket

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// StringList handles the double-encoded JSON arrays the Gamma API
// returns for fields like outcomes and clobTokenIds: the value is a
// JSON string whose contents are themselves a JSON array.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*l = nil
		return nil
	}
	return json.Unmarshal([]byte(s), (*[]string)(l))
}

func (l StringList) MarshalJSON() ([]byte, error) {
	inner, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(inner))
}

// DecimalList is a double-encoded array of decimal strings, used for
// outcome prices.
type DecimalList []decimal.Decimal

func (l *DecimalList) UnmarshalJSON(data []byte) error {
	var raw StringList
	if err := raw.UnmarshalJSON(data); err != nil {
		return err
	}
	out := make([]decimal.Decimal, 0, len(raw))
	for _, s := range raw {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		out = append(out, d)
	}
	*l = out
	return nil
}

// Market statuses derived from the active/closed flags
const (
	StatusOpen     = "open"
	StatusClosed   = "closed"
	StatusInactive = "inactive"
)

// Market is one Gamma API market. Monetary string fields decode into
// decimals; the *Num fields arrive as plain JSON numbers.
type Market struct {
	ID            string      `json:"id"`
	Question      string      `json:"question"`
	Slug          string      `json:"slug"`
	Category      string      `json:"category"`
	ConditionID   string      `json:"conditionId"`
	Outcomes      StringList  `json:"outcomes"`
	OutcomePrices DecimalList `json:"outcomePrices"`
	ClobTokenIDs  StringList  `json:"clobTokenIds"`

	Volume    decimal.Decimal `json:"volume"`
	Liquidity decimal.Decimal `json:"liquidity"`

	VolumeNum    float64 `json:"volumeNum"`
	Volume24hr   float64 `json:"volume24hr"`
	Volume1wk    float64 `json:"volume1wk"`
	Volume1mo    float64 `json:"volume1mo"`
	LiquidityNum float64 `json:"liquidityNum"`

	LastTradePrice float64 `json:"lastTradePrice"`
	BestBid        float64 `json:"bestBid"`
	BestAsk        float64 `json:"bestAsk"`
	Spread         float64 `json:"spread"`

	OneHourPriceChange float64 `json:"oneHourPriceChange"`
	OneDayPriceChange  float64 `json:"oneDayPriceChange"`
	OneWeekPriceChange float64 `json:"oneWeekPriceChange"`

	Active bool `json:"active"`
	Closed bool `json:"closed"`

	CreatedAt time.Time `json:"createdAt"`
	EndDate   time.Time `json:"endDate"`
}

// Status derives a single lifecycle state from the active/closed flags.
// Closed wins over active; a market that is neither is inactive.
func (m *Market) Status() string {
	switch {
	case m.Closed:
		return StatusClosed
	case m.Active:
		return StatusOpen
	default:
		return StatusInactive
	}
}

// OutcomePriceMap pairs outcome labels with their prices. Mismatched
// lengths yield an empty map.
func (m *Market) OutcomePriceMap() map[string]decimal.Decimal {
	if len(m.Outcomes) != len(m.OutcomePrices) {
		return map[string]decimal.Decimal{}
	}
	prices := make(map[string]decimal.Decimal, len(m.Outcomes))
	for i, outcome := range m.Outcomes {
		prices[outcome] = m.OutcomePrices[i]
	}
	return prices
}
