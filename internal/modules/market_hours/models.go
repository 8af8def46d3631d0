package market_hours

// MarketStatus represents the current status of a market
type MarketStatus struct {
	Open       bool   `json:"open" msgpack:"open"`
	Exchange   string `json:"exchange" msgpack:"exchange"`
	Name       string `json:"name" msgpack:"name"`
	Timezone   string `json:"timezone" msgpack:"timezone"`
	ClosesAt   string `json:"closes_at,omitempty" msgpack:"closes_at,omitempty"`     // Local close time (if open)
	EarlyClose bool   `json:"early_close,omitempty" msgpack:"early_close,omitempty"` // Today's close is a special close
	OpensAt    string `json:"opens_at,omitempty" msgpack:"opens_at,omitempty"`       // Local open time of the next session (if closed)
	OpensDate  string `json:"opens_date,omitempty" msgpack:"opens_date,omitempty"`   // Date of the next session, when not today
}

// ExchangeInfo describes a configured exchange
type ExchangeInfo struct {
	Code        string   `json:"code" msgpack:"code"`
	Name        string   `json:"name" msgpack:"name"`
	Aliases     []string `json:"aliases" msgpack:"aliases"`
	Timezone    string   `json:"timezone" msgpack:"timezone"`
	Open        string   `json:"open" msgpack:"open"`
	Close       string   `json:"close" msgpack:"close"`
	TradingDays string   `json:"trading_days" msgpack:"trading_days"`
	StrictHours bool     `json:"strict_hours" msgpack:"strict_hours"`
}
