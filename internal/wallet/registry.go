// Package wallet binds the logical ISSUER and TREASURY roles to ledger
// accounts, creating and funding them on first use.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
	"github.com/LeJamon/goXRPLrwa/internal/store"
	"github.com/LeJamon/goXRPLrwa/internal/workflow"
)

const opEnsure = "wallet.ensure"

// Options tune a Registry.
type Options struct {
	KeyType   ledger.KeyType
	CacheSize int
	Logger    *log.Logger
}

// Registry resolves roles to accounts. A role is bound at most once; the
// binding is stored before it is returned and never reassigned.
type Registry struct {
	store   store.RoleStore
	client  ledger.Client
	funder  Funder
	keyType ledger.KeyType
	logger  *log.Logger

	cache *lru.Cache[store.Role, ledger.Account]
	group singleflight.Group

	// generate is replaced in tests.
	generate func(ledger.KeyType) (ledger.Account, error)
}

// NewRegistry creates a registry over rs. Accounts are funded through client
// with funder.
func NewRegistry(rs store.RoleStore, client ledger.Client, funder Funder, opts Options) (*Registry, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = 64
	}
	cache, err := lru.New[store.Role, ledger.Account](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create role cache: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		store:    rs,
		client:   client,
		funder:   funder,
		keyType:  opts.KeyType,
		logger:   logger,
		cache:    cache,
		generate: ledger.GenerateAccount,
	}, nil
}

// Lookup returns the bound account without creating one.
func (r *Registry) Lookup(ctx context.Context, role store.Role) (ledger.Account, bool, error) {
	if acct, ok := r.cache.Get(role); ok {
		return acct, true, nil
	}
	b, err := r.store.GetRoleBinding(ctx, role)
	if errors.Is(err, store.ErrNotFound) {
		return ledger.Account{}, false, nil
	}
	if err != nil {
		return ledger.Account{}, false, err
	}
	acct := b.Account()
	r.cache.Add(role, acct)
	return acct, true, nil
}

// Ensure returns the account bound to role, creating, funding and binding a
// new one if the role is unbound. Concurrent callers, in this process or
// another, all receive the same account.
func (r *Registry) Ensure(ctx context.Context, role store.Role) (ledger.Account, error) {
	if !role.Valid() {
		return ledger.Account{}, workflow.Precondition(opEnsure, "unknown role %q", role)
	}
	if acct, ok := r.cache.Get(role); ok {
		return acct, nil
	}

	v, err, _ := r.group.Do(string(role), func() (interface{}, error) {
		acct, found, err := r.Lookup(ctx, role)
		if err != nil {
			return nil, err
		}
		if found {
			return acct, nil
		}
		return r.create(ctx, role)
	})
	if err != nil {
		return ledger.Account{}, workflow.Wrap(opEnsure, err)
	}
	return v.(ledger.Account), nil
}

func (r *Registry) create(ctx context.Context, role store.Role) (ledger.Account, error) {
	acct, err := r.generate(r.keyType)
	if err != nil {
		return ledger.Account{}, err
	}
	r.logger.Printf("wallet: role=%s generated address=%s, funding", role, acct.Address)

	err = ledger.WithSession(ctx, r.client, func(sess ledger.Session) error {
		return r.funder.Fund(ctx, sess, acct.Address)
	})
	if err != nil {
		return ledger.Account{}, fmt.Errorf("fund %s account: %w", role, err)
	}

	stored, created, err := r.store.SaveRoleBinding(ctx, store.RoleBinding{
		Role:    role,
		Address: acct.Address,
		Seed:    acct.Seed,
	})
	if err != nil {
		return ledger.Account{}, err
	}
	if !created {
		r.logger.Printf("wallet: role=%s already bound to %s, abandoning funded address=%s", role, stored.Address, acct.Address)
	} else {
		r.logger.Printf("wallet: role=%s bound to address=%s", role, stored.Address)
	}
	bound := stored.Account()
	r.cache.Add(role, bound)
	return bound, nil
}
