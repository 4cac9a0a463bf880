// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger keeps fungible token balances in a kv store. It backs the
// token contracts in solo mode and in tests.
package ledger

import (
	"context"
	"sync"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/fluxprotocol/oracle/flux"
	"github.com/fluxprotocol/oracle/kv"
	"github.com/fluxprotocol/oracle/log"
)

var (
	logger = log.WithContext("pkg", "ledger")

	// ErrInsufficientBalance is returned when the payer can not cover a transfer.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrUnusedExceedsAmount is returned when a receiver reports more unused than it was sent.
	ErrUnusedExceedsAmount = errors.New("unused exceeds transferred amount")
)

const bucket = kv.Bucket("ledger.")

// Receiver handles the message attached to a transfer call. It returns the part
// of amount that it did not use, which is refunded to the sender.
type Receiver interface {
	OnTransfer(ctx context.Context, token, sender flux.AccountID, amount *uint256.Int, msg string) (*uint256.Int, error)
}

// Ledger holds balances keyed by (token, account).
type Ledger struct {
	mu    sync.Mutex
	store kv.Store
}

func New(store kv.Store) *Ledger {
	return &Ledger{store: bucket.NewStore(store)}
}

func tokenPrefix(token flux.AccountID) []byte {
	return append([]byte(token), 0)
}

func balanceKey(token, account flux.AccountID) []byte {
	return append(tokenPrefix(token), account...)
}

func (l *Ledger) balance(token, account flux.AccountID) (*uint256.Int, error) {
	raw, err := l.store.Get(balanceKey(token, account))
	if err != nil {
		if l.store.IsNotFound(err) {
			return new(uint256.Int), nil
		}
		return nil, errors.Wrap(err, "get balance")
	}
	return new(uint256.Int).SetBytes(raw), nil
}

func putBalance(p kv.Putter, token, account flux.AccountID, v *uint256.Int) error {
	if v.IsZero() {
		return p.Delete(balanceKey(token, account))
	}
	return p.Put(balanceKey(token, account), v.Bytes())
}

// BalanceOf returns the balance of account in token.
func (l *Ledger) BalanceOf(token, account flux.AccountID) (*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance(token, account)
}

// Total sums every balance of token.
func (l *Ledger) Total(token flux.AccountID) (*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	prefix := tokenPrefix(token)
	limit := append([]byte(token), 1)
	it := l.store.Iterate(kv.Range{Start: prefix, Limit: limit})
	defer it.Release()

	total := new(uint256.Int)
	for it.Next() {
		v := new(uint256.Int).SetBytes(it.Value())
		if _, overflow := total.AddOverflow(total, v); overflow {
			return nil, errors.New("total supply overflow")
		}
	}
	return total, errors.Wrap(it.Error(), "iterate balances")
}

// Mint credits amount of token to an account out of thin air.
func (l *Ledger) Mint(token, to flux.AccountID, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	bal, err := l.balance(token, to)
	if err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow {
		return errors.New("balance overflow")
	}
	if err := putBalance(l.store, token, to, next); err != nil {
		return errors.Wrap(err, "put balance")
	}
	logger.Debug("minted", "token", token, "to", to, "amount", amount)
	return nil
}

func (l *Ledger) move(token, from, to flux.AccountID, amount *uint256.Int) error {
	fromBal, err := l.balance(token, from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return errors.Wrapf(ErrInsufficientBalance, "%s has %s %s, needs %s", from, fromBal.Dec(), token, amount.Dec())
	}
	if from == to || amount.IsZero() {
		return nil
	}
	toBal, err := l.balance(token, to)
	if err != nil {
		return err
	}
	nextTo, overflow := new(uint256.Int).AddOverflow(toBal, amount)
	if overflow {
		return errors.New("balance overflow")
	}

	batch := l.store.NewBatch()
	if err := putBalance(batch, token, from, new(uint256.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	if err := putBalance(batch, token, to, nextTo); err != nil {
		return err
	}
	return errors.Wrap(batch.Write(), "write balances")
}

// Transfer moves amount of token between two accounts.
func (l *Ledger) Transfer(_ context.Context, token, from, to flux.AccountID, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.move(token, from, to, amount); err != nil {
		return err
	}
	logger.Debug("transferred", "token", token, "from", from, "to", to, "amount", amount)
	return nil
}

// TransferCall moves amount from sender to receiver and hands msg to r. What r
// reports unused is sent back; the whole amount is sent back if r fails or
// reports more unused than amount. It returns the used amount.
func (l *Ledger) TransferCall(ctx context.Context, token, from, to flux.AccountID, amount *uint256.Int, msg string, r Receiver) (*uint256.Int, error) {
	if err := l.Transfer(ctx, token, from, to, amount); err != nil {
		return nil, err
	}

	unused, callErr := r.OnTransfer(ctx, token, from, amount, msg)
	if callErr == nil && unused != nil && unused.Gt(amount) {
		callErr = errors.Wrapf(ErrUnusedExceedsAmount, "%s unused of %s", unused.Dec(), amount.Dec())
	}
	switch {
	case callErr != nil:
		unused = amount
	case unused == nil:
		unused = new(uint256.Int)
	}
	if !unused.IsZero() {
		if err := l.Transfer(ctx, token, to, from, unused); err != nil {
			return nil, errors.Wrap(err, "refund")
		}
	}
	if callErr != nil {
		return nil, callErr
	}
	return new(uint256.Int).Sub(amount, unused), nil
}
