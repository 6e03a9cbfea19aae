// Package currency names the in-game currencies tracked per player.
package currency

import (
	"fmt"
	"strings"
)

// Currency is a named in-game currency. Each currency is persisted and
// transacted independently.
type Currency string

const (
	AdventureCoins Currency = "adventure_coins"
	Tokens         Currency = "tokens"
	Balance        Currency = "balance"
)

// All returns every currency in display order.
func All() []Currency {
	return []Currency{AdventureCoins, Tokens, Balance}
}

// Parse resolves a currency from user input. Short aliases are accepted.
func Parse(s string) (Currency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "adventure_coins", "adventurecoins", "coins", "ac":
		return AdventureCoins, nil
	case "tokens", "token":
		return Tokens, nil
	case "balance", "money", "bal":
		return Balance, nil
	}
	return "", fmt.Errorf("unknown currency %q", s)
}

// DisplayName returns the name shown to players.
func (c Currency) DisplayName() string {
	switch c {
	case AdventureCoins:
		return "Adventure Coins"
	case Tokens:
		return "Tokens"
	case Balance:
		return "Balance"
	}
	return string(c)
}

// Colour returns the text.Colourf colour tag used when rendering amounts.
func (c Currency) Colour() string {
	switch c {
	case AdventureCoins:
		return "gold"
	case Tokens:
		return "aqua"
	}
	return "green"
}

// Valid reports if c is one of the known currencies.
func (c Currency) Valid() bool {
	switch c {
	case AdventureCoins, Tokens, Balance:
		return true
	}
	return false
}
