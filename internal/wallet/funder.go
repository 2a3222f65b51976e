package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
	"github.com/LeJamon/goXRPLrwa/internal/ledger/txbuild"
)

// Funder makes a freshly generated address exist on the ledger.
type Funder interface {
	Fund(ctx context.Context, sess ledger.Session, address string) error
}

// PaymentFunder funds new accounts with an XRP payment from a configured
// funding account.
type PaymentFunder struct {
	Source ledger.Account
	Amount decimal.Decimal
}

// Fund pays Amount XRP from Source to address.
func (f *PaymentFunder) Fund(ctx context.Context, sess ledger.Session, address string) error {
	if f.Source.IsZero() {
		return errors.New("funder account is not configured")
	}
	tx, err := txbuild.Pay(f.Source.Address, address, ledger.NewXRP(f.Amount)).
		Memo("rwa account funding").
		Build()
	if err != nil {
		return err
	}
	if _, err := ledger.SubmitTx(ctx, sess, tx, f.Source); err != nil {
		return fmt.Errorf("fund %s: %w", address, err)
	}
	return nil
}

// StatusError is a non-2xx faucet response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s responded with %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

const defaultFaucetTimeout = 2 * time.Minute

// FaucetFunder asks a test network faucet to fund the address, then waits
// until the account is visible on the validated ledger.
type FaucetFunder struct {
	URL          string
	HTTPClient   *http.Client
	PollInterval time.Duration
	// Timeout bounds the wait for the account to appear. Zero means two
	// minutes.
	Timeout time.Duration
}

// Fund posts the address to the faucet and polls account_info.
func (f *FaucetFunder) Fund(ctx context.Context, sess ledger.Session, address string) error {
	if err := f.request(ctx, address); err != nil {
		return ledger.NewTransportError("faucet", err)
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = defaultFaucetTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	interval := f.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		_, err := sess.AccountInfo(waitCtx, address)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ledger.ErrAccountNotFound) {
			return err
		}
		select {
		case <-waitCtx.Done():
			return ledger.NewTransportError("faucet", fmt.Errorf("waiting for %s: %w", address, waitCtx.Err()))
		case <-ticker.C:
		}
	}
}

func (f *FaucetFunder) request(ctx context.Context, address string) error {
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(map[string]string{"destination": address}); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.URL, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{URL: f.URL, StatusCode: resp.StatusCode}
	}
	return nil
}
