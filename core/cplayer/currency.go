package cplayer

import (
	"context"
	"errors"
	"time"

	"github.com/dm-vev/netcore/core/currency"
	"github.com/dm-vev/netcore/core/economy"
	"github.com/sandertv/gophertunnel/minecraft/text"
)

const storeTimeout = 3 * time.Second

// Currency returns the balance of the player in c. It blocks on the store and
// returns 0 if the balance could not be loaded.
func (p *CorePlayer) Currency(c currency.Currency) int {
	if _, ok := p.active(); !ok || p.m.economy == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	bal, err := p.m.economy.Balance(ctx, p.id, c)
	if err != nil {
		p.m.log.Error("Failed to load balance.", "player", p.Name(), "currency", c, "err", err)
		return 0
	}
	return bal
}

// GiveCurrency credits amount of c in the background and tells the player.
func (p *CorePlayer) GiveCurrency(amount int, reason string, c currency.Currency) {
	h, ok := p.active()
	if !ok || amount <= 0 || p.m.economy == nil {
		return
	}
	if _, err := p.m.economy.Change(context.Background(), p.id, amount, reason, c, true); err != nil {
		p.m.log.Error("Failed to give currency.", "player", p.Name(), "currency", c, "amount", amount, "err", err)
		return
	}
	h.Message(currencyMessage(amount, reason, c))
}

// TakeCurrency debits amount of c. It reports false without changing the
// balance if the player cannot afford it. The first debit grants
// AchievementFirstPurchase.
func (p *CorePlayer) TakeCurrency(amount int, reason string, c currency.Currency) bool {
	if _, ok := p.active(); !ok || amount <= 0 || p.m.economy == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if _, err := p.m.economy.Change(ctx, p.id, -amount, reason, c, false); err != nil {
		if !errors.Is(err, economy.ErrInsufficientFunds) {
			p.m.log.Error("Failed to take currency.", "player", p.Name(), "currency", c, "amount", amount, "err", err)
		}
		return false
	}
	p.GiveAchievement(AchievementFirstPurchase)
	return true
}

// HasCurrency reports if the player holds at least amount of c.
func (p *CorePlayer) HasCurrency(amount int, c currency.Currency) bool {
	if _, ok := p.active(); !ok {
		return false
	}
	return p.Currency(c) >= amount
}

// Coins returns the Adventure Coins balance.
//
// Deprecated: use Currency(currency.AdventureCoins).
func (p *CorePlayer) Coins() int {
	return p.Currency(currency.AdventureCoins)
}

// AddCoins gives Adventure Coins.
//
// Deprecated: use GiveCurrency with currency.AdventureCoins.
func (p *CorePlayer) AddCoins(amount int, reason string) {
	p.GiveCurrency(amount, reason, currency.AdventureCoins)
}

// Tokens returns the token balance.
//
// Deprecated: use Currency(currency.Tokens).
func (p *CorePlayer) Tokens() int {
	return p.Currency(currency.Tokens)
}

// AddTokens gives tokens.
//
// Deprecated: use GiveCurrency with currency.Tokens.
func (p *CorePlayer) AddTokens(amount int, reason string) {
	p.GiveCurrency(amount, reason, currency.Tokens)
}

func currencyMessage(amount int, reason string, c currency.Currency) string {
	col := c.Colour()
	msg := text.Colourf("<"+col+">+%d %s</"+col+">", amount, c.DisplayName())
	if reason != "" {
		msg += text.Colourf(" <grey>(%s)</grey>", reason)
	}
	return msg
}
