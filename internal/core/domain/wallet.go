package domain

import "strings"

// SupportedCurrencies is the list of currency codes the backend accepts for
// creator wallets.
var SupportedCurrencies = []string{
	// Layer 1
	"BTC", "ETH", "BNB", "ADA", "SOL", "DOT", "AVAX", "MATIC", "ATOM", "LTC", "XRP", "TRX",
	// Stablecoins
	"USDT", "USDC", "BUSD", "DAI",
	// DeFi
	"UNI", "LINK", "AAVE", "COMP",
	// Layer 2
	"ARB", "OP",
	// Meme
	"DOGE", "SHIB",
}

// DefaultRequiredCurrencies is the subset a creator needs for full coverage.
var DefaultRequiredCurrencies = []string{"ETH", "BTC", "USDT"}

// IsSupportedCurrency reports whether code is accepted by the backend.
func IsSupportedCurrency(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range SupportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

// Wallet is a creator payout address for one currency.
type Wallet struct {
	CurrencyType string `json:"currency_type"`
	Address      string `json:"wallet_address"`
	IsDefault    bool   `json:"is_default"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// Wallets is the ordered wallet list as last returned by the backend.
type Wallets []Wallet

// ByCurrency indexes wallets by currency. Duplicates are not expected; if
// present, the later entry wins.
func (ws Wallets) ByCurrency() map[string]Wallet {
	out := make(map[string]Wallet, len(ws))
	for _, w := range ws {
		out[w.CurrencyType] = w
	}
	return out
}

// Default returns the explicitly flagged default wallet, falling back to the
// first entry. The fallback is for display only and is never persisted.
func (ws Wallets) Default() (Wallet, bool) {
	for _, w := range ws {
		if w.IsDefault {
			return w, true
		}
	}
	if len(ws) == 0 {
		return Wallet{}, false
	}
	return ws[0], true
}

// Covers reports whether every currency in required has a wallet, in any order.
func (ws Wallets) Covers(required []string) bool {
	have := ws.ByCurrency()
	for _, code := range required {
		if _, ok := have[code]; !ok {
			return false
		}
	}
	return true
}

// Currencies lists the currency codes in wallet order.
func (ws Wallets) Currencies() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.CurrencyType)
	}
	return out
}

func (ws Wallets) Clone() Wallets {
	if ws == nil {
		return nil
	}
	out := make(Wallets, len(ws))
	copy(out, ws)
	return out
}
