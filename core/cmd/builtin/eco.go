package builtin

import (
	"context"
	"errors"
	"strings"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/currency"
	"github.com/dm-vev/netcore/core/economy"
	"github.com/dm-vev/netcore/core/rank"
	"github.com/google/uuid"
	"github.com/sandertv/gophertunnel/minecraft/text"
)

const defaultHistoryLimit = 10

type ecoGiveCommand struct {
	s        Services
	Give     cmd.SubCommand            `cmd:"give"`
	Player   string                    `cmd:"player"`
	Amount   int                       `cmd:"amount"`
	Currency currencyName              `cmd:"currency"`
	Reason   cmd.Optional[cmd.Varargs] `cmd:"reason"`
}

type ecoTakeCommand struct {
	s        Services
	Take     cmd.SubCommand            `cmd:"take"`
	Player   string                    `cmd:"player"`
	Amount   int                       `cmd:"amount"`
	Currency currencyName              `cmd:"currency"`
	Reason   cmd.Optional[cmd.Varargs] `cmd:"reason"`
}

type ecoBalanceCommand struct {
	s       Services
	Balance cmd.SubCommand `cmd:"balance"`
	Player  string         `cmd:"player"`
}

type ecoHistoryCommand struct {
	s       Services
	History cmd.SubCommand    `cmd:"history"`
	Player  string            `cmd:"player"`
	Limit   cmd.Optional[int] `cmd:"limit"`
}

func newEcoCommand(s Services) cmd.Command {
	return cmd.New("eco", "Manages the balances of players.", []string{"economy"},
		ecoGiveCommand{s: s},
		ecoTakeCommand{s: s},
		ecoBalanceCommand{s: s},
		ecoHistoryCommand{s: s},
	)
}

func (c ecoGiveCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	if !positive(o, c.Amount) {
		return
	}
	c.s.change(src, o, c.Player, c.Amount, string(c.Currency), reasonOr(c.Reason, "Given by "+sourceName(src)))
}

func (c ecoGiveCommand) Allow(src cmd.Source) bool {
	return c.s.allow(src, rank.Manager)
}

func (c ecoTakeCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	if !positive(o, c.Amount) {
		return
	}
	c.s.change(src, o, c.Player, -c.Amount, string(c.Currency), reasonOr(c.Reason, "Taken by "+sourceName(src)))
}

func (c ecoTakeCommand) Allow(src cmd.Source) bool {
	return c.s.allow(src, rank.Manager)
}

func (c ecoBalanceCommand) Run(src cmd.Source, _ *cmd.Output, _ *world.Tx) {
	c.s.async(src, func(ctx context.Context, out *reply) {
		t, err := c.s.lookup(ctx, c.Player)
		if err != nil {
			out.Errorf("%v", err)
			return
		}
		c.s.printBalances(ctx, out, t.id, t.name)
	})
}

func (c ecoBalanceCommand) Allow(src cmd.Source) bool {
	return c.s.allow(src, rank.Helper)
}

func (c ecoHistoryCommand) Run(src cmd.Source, _ *cmd.Output, _ *world.Tx) {
	limit := defaultHistoryLimit
	if l, ok := c.Limit.Load(); ok && l > 0 {
		limit = l
	}
	c.s.async(src, func(ctx context.Context, out *reply) {
		t, err := c.s.lookup(ctx, c.Player)
		if err != nil {
			out.Errorf("%v", err)
			return
		}
		txs, err := c.s.Economy.History(ctx, t.id, limit)
		if err != nil {
			out.Errorf("Failed to load the history of %s: %v", t.name, err)
			return
		}
		if len(txs) == 0 {
			out.Printf("%s has no transactions.", t.name)
			return
		}
		out.Printf("Latest transactions of %s:", t.name)
		for _, tx := range txs {
			out.Printf("%s %s %+d = %d (%s)", tx.Time.Format("2006-01-02 15:04"), tx.Ledger, tx.Delta, tx.Balance, tx.Reason)
		}
	})
}

func (c ecoHistoryCommand) Allow(src cmd.Source) bool {
	return c.s.allow(src, rank.Moderator)
}

// positive reports if amount is above zero and explains the error otherwise.
func positive(o *cmd.Output, amount int) bool {
	if amount <= 0 {
		o.Errorf("The amount must be positive, got %d.", amount)
		return false
	}
	return true
}

// change adds delta to a balance of the player named name. The sign of delta
// selects between giving and taking.
func (s Services) change(src cmd.Source, o *cmd.Output, name string, delta int, cur, reason string) {
	c, err := currency.Parse(cur)
	if err != nil {
		o.Errorf("Unknown currency %s.", cur)
		return
	}
	issuer := sourceName(src)
	s.async(src, func(ctx context.Context, out *reply) {
		t, err := s.lookup(ctx, name)
		if err != nil {
			out.Errorf("%v", err)
			return
		}
		bal, err := s.Economy.Change(ctx, t.id, delta, reason, c, false)
		if errors.Is(err, economy.ErrInsufficientFunds) {
			out.Errorf("%s only has %d %s.", t.name, bal, c.DisplayName())
			return
		}
		if err != nil {
			out.Errorf("Failed to change the balance of %s: %v", t.name, err)
			return
		}
		s.Log.Info("Balance changed.", "player", t.name, "currency", c, "delta", delta, "issuer", issuer)
		out.Printf("%s now has %d %s.", t.name, bal, c.DisplayName())
		if t.online == nil {
			return
		}
		balances, err := s.Economy.Balances(ctx, t.id)
		t.online.Sync(func(p *cplayer.CorePlayer) {
			if err == nil {
				p.Scoreboard().SetBalances(balances)
				p.Scoreboard().Update()
			}
			p.Message(text.Colourf("<%s>%+d %s</%s> <grey>(%s)</grey>", c.Colour(), delta, c.DisplayName(), c.Colour(), reason))
		})
	})
}

func (s Services) printBalances(ctx context.Context, out *reply, id uuid.UUID, name string) {
	balances, err := s.Economy.Balances(ctx, id)
	if err != nil {
		out.Errorf("Failed to load the balances of %s: %v", name, err)
		return
	}
	out.Printf("Balances of %s:", name)
	for _, c := range currency.All() {
		out.Printf("%s: %d", c.DisplayName(), balances[c])
	}
}

// balanceCommand shows the balances of the player running it.
type balanceCommand struct {
	s Services
}

func newBalanceCommand(s Services) cmd.Command {
	return cmd.New("balance", "Shows your balances.", []string{"bal", "money"}, balanceCommand{s: s})
}

func (c balanceCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	p, ok := src.(*player.Player)
	if !ok {
		o.Error("This command can only be run by players.")
		return
	}
	id, name := p.UUID(), p.Name()
	c.s.async(src, func(ctx context.Context, out *reply) {
		c.s.printBalances(ctx, out, id, name)
	})
}

func reasonOr(r cmd.Optional[cmd.Varargs], def string) string {
	if v, ok := r.Load(); ok {
		if t := strings.TrimSpace(string(v)); t != "" {
			return t
		}
	}
	return def
}
