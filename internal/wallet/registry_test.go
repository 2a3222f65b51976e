package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
	"github.com/LeJamon/goXRPLrwa/internal/ledger/ledgertest"
	"github.com/LeJamon/goXRPLrwa/internal/store"
	"github.com/LeJamon/goXRPLrwa/internal/store/sqlstore"
	"github.com/LeJamon/goXRPLrwa/internal/workflow"
)

var quiet = log.New(io.Discard, "", 0)

// sequentialAccounts yields rGen1/sGen1, rGen2/sGen2, ...
func sequentialAccounts() func(ledger.KeyType) (ledger.Account, error) {
	var n int64
	return func(ledger.KeyType) (ledger.Account, error) {
		i := atomic.AddInt64(&n, 1)
		return ledger.Account{Address: fmt.Sprintf("rGen%d", i), Seed: fmt.Sprintf("sGen%d", i)}, nil
	}
}

func openStore(t *testing.T) store.Store {
	t.Helper()
	db, err := sqlstore.Open(context.Background(), sqlstore.SQLiteConfig(filepath.Join(t.TempDir(), "roles.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newRegistry(t *testing.T, rs store.RoleStore, env *ledgertest.Env, funder Funder) *Registry {
	t.Helper()
	r, err := NewRegistry(rs, env, funder, Options{CacheSize: 4, Logger: quiet})
	require.NoError(t, err)
	r.generate = sequentialAccounts()
	return r
}

func TestEnsureCreatesFundsAndBinds(t *testing.T) {
	ctx := context.Background()
	env := ledgertest.NewEnv()
	funder := env.Account("Funder", 10000)
	rs := openStore(t)
	reg := newRegistry(t, rs, env, &PaymentFunder{Source: funder, Amount: decimal.NewFromInt(100)})

	acct, err := reg.Ensure(ctx, store.RoleIssuer)
	require.NoError(t, err)
	assert.Equal(t, "rGen1", acct.Address)
	assert.Equal(t, "sGen1", acct.Seed)
	assert.True(t, env.XRPBalance("rGen1").Equal(decimal.NewFromInt(100)))

	b, err := rs.GetRoleBinding(ctx, store.RoleIssuer)
	require.NoError(t, err)
	assert.Equal(t, "rGen1", b.Address)

	t.Run("second call reuses the binding", func(t *testing.T) {
		again, err := reg.Ensure(ctx, store.RoleIssuer)
		require.NoError(t, err)
		assert.Equal(t, acct, again)
		assert.Len(t, env.SubmissionsOf("Payment"), 1)
	})

	t.Run("roles get distinct accounts", func(t *testing.T) {
		treasury, err := reg.Ensure(ctx, store.RoleTreasury)
		require.NoError(t, err)
		assert.NotEqual(t, acct.Address, treasury.Address)
	})

	t.Run("binding survives a new registry", func(t *testing.T) {
		fresh := newRegistry(t, rs, env, &PaymentFunder{Source: funder, Amount: decimal.NewFromInt(100)})
		got, found, err := fresh.Lookup(ctx, store.RoleIssuer)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, acct, got)
	})
}

func TestEnsureUnknownRole(t *testing.T) {
	env := ledgertest.NewEnv()
	reg := newRegistry(t, openStore(t), env, &PaymentFunder{})

	_, err := reg.Ensure(context.Background(), store.Role("AUDITOR"))
	require.Error(t, err)
	assert.True(t, workflow.IsKind(err, workflow.KindPrecondition))
	assert.Empty(t, env.Submissions())
	assert.Equal(t, 0, env.MaxConcurrentSessions())
}

func TestEnsureFundingFailure(t *testing.T) {
	ctx := context.Background()
	env := ledgertest.NewEnv()
	funder := env.Account("Funder", 10000)
	rs := openStore(t)
	reg := newRegistry(t, rs, env, &PaymentFunder{Source: funder, Amount: decimal.NewFromInt(100)})

	env.RejectNext(funder.Address, "Payment", ledger.ResultUnfunded)
	_, err := reg.Ensure(ctx, store.RoleTreasury)
	require.Error(t, err)
	assert.True(t, workflow.IsKind(err, workflow.KindLedgerRejected))

	_, err = rs.GetRoleBinding(ctx, store.RoleTreasury)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 0, env.OpenSessions())

	// The next attempt binds a fresh account.
	acct, err := reg.Ensure(ctx, store.RoleTreasury)
	require.NoError(t, err)
	assert.Equal(t, "rGen2", acct.Address)
}

func TestEnsureConcurrentRegistries(t *testing.T) {
	ctx := context.Background()
	env := ledgertest.NewEnv()
	funder := env.Account("Funder", 100000)
	rs := openStore(t)

	const callers = 6
	var wg sync.WaitGroup
	got := make([]ledger.Account, callers)
	errs := make([]error, callers)
	shared := newRegistry(t, rs, env, &PaymentFunder{Source: funder, Amount: decimal.NewFromInt(50)})
	for i := 0; i < callers; i++ {
		// Half the callers share a registry, the rest behave like separate processes.
		reg := shared
		if i%2 == 1 {
			reg = newRegistry(t, rs, env, &PaymentFunder{Source: funder, Amount: decimal.NewFromInt(50)})
		}
		wg.Add(1)
		go func(i int, reg *Registry) {
			defer wg.Done()
			got[i], errs[i] = reg.Ensure(ctx, store.RoleIssuer)
		}(i, reg)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, got[0].Address, got[i].Address)
	}
	b, err := rs.GetRoleBinding(ctx, store.RoleIssuer)
	require.NoError(t, err)
	assert.Equal(t, got[0].Address, b.Address)
}

func TestFaucetFunder(t *testing.T) {
	env := ledgertest.NewEnv()

	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		var body struct {
			Destination string `json:"destination"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if body.Destination == "rBroken" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		// Funding lands after a short delay, like a real faucet.
		go func() {
			time.Sleep(20 * time.Millisecond)
			env.Fund(body.Destination, decimal.NewFromInt(1000))
		}()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := &FaucetFunder{URL: srv.URL, PollInterval: 5 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := ledger.WithSession(ctx, env, func(sess ledger.Session) error {
		return f.Fund(ctx, sess, "rNew")
	})
	require.NoError(t, err)
	assert.True(t, env.XRPBalance("rNew").Equal(decimal.NewFromInt(1000)))

	err = ledger.WithSession(ctx, env, func(sess ledger.Session) error {
		return f.Fund(ctx, sess, "rBroken")
	})
	require.Error(t, err)
	assert.True(t, ledger.IsTransport(err))
	var se *StatusError
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.EqualValues(t, 2, atomic.LoadInt32(&requests))
}

func TestFaucetFunderGivesUp(t *testing.T) {
	env := ledgertest.NewEnv()
	// The faucet accepts the request but never funds the account.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := &FaucetFunder{URL: srv.URL, PollInterval: 5 * time.Millisecond, Timeout: 50 * time.Millisecond}
	start := time.Now()
	err := ledger.WithSession(context.Background(), env, func(sess ledger.Session) error {
		return f.Fund(context.Background(), sess, "rNeverFunded")
	})
	require.Error(t, err)
	assert.True(t, ledger.IsTransport(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}
