package ledgertest

import (
	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
)

// apply runs tx against the ledger state. The caller holds e.mu.
func (e *Env) apply(tx ledger.Tx) ledger.SubmitResult {
	hash := e.nextHash()
	e.ledgerIndex++
	result := func(code string) ledger.SubmitResult {
		return ledger.SubmitResult{
			Accepted:    ledger.IsSuccess(code),
			ResultCode:  code,
			TxHash:      hash,
			LedgerIndex: e.ledgerIndex,
		}
	}

	account := tx.Account()
	root, ok := e.accounts[account]
	if !ok {
		return result(ledger.ResultNoAccount)
	}

	if seq, ok := uint32Field(tx, "Sequence"); ok && seq != root.seq {
		if seq < root.seq {
			return result(ledger.ResultPastSeq)
		}
		return result(ledger.ResultPreSeq)
	}

	code := e.injected(account, tx.Type())
	if code == "" {
		code = e.validate(tx)
	}
	if code == "" {
		code = e.transact(tx, root)
	}

	// tes and tec results consume a fee and a sequence number.
	if ledger.IsSuccess(code) || ledger.IsClaimed(code) {
		root.balance = root.balance.Sub(BaseFee)
		root.seq++
	}
	return result(code)
}

func (e *Env) injected(account, txType string) string {
	for i, r := range e.rejects {
		if r.account == account && (r.txType == "" || r.txType == txType) {
			e.rejects = append(e.rejects[:i], e.rejects[i+1:]...)
			return r.code
		}
	}
	return ""
}

// validate performs the static checks that lead to tem results.
func (e *Env) validate(tx ledger.Tx) string {
	switch tx.Type() {
	case "AccountSet":
		if f, ok := uint32Field(tx, "SetFlag"); ok {
			if _, known := ledger.LedgerFlagFor(f); !known {
				return ledger.ResultInvalidFlag
			}
		}
	case "Payment":
		amt, err := ledger.ParseAmount(tx["Amount"])
		if err != nil || !amt.Value.IsPositive() {
			return ledger.ResultBadAmount
		}
		if dst, _ := tx["Destination"].(string); dst == tx.Account() {
			return ledger.ResultDstIsSrc
		}
	case "TrustSet":
		limit, err := ledger.ParseAmount(tx["LimitAmount"])
		if err != nil || limit.IsNative() || limit.Value.IsNegative() {
			return ledger.ResultBadAmount
		}
		if limit.Issuer == tx.Account() {
			return ledger.ResultDstIsSrc
		}
	case "OfferCreate":
		pays, err1 := ledger.ParseAmount(tx["TakerPays"])
		gets, err2 := ledger.ParseAmount(tx["TakerGets"])
		if err1 != nil || err2 != nil || !pays.Value.IsPositive() || !gets.Value.IsPositive() {
			return ledger.ResultBadAmount
		}
	case "OfferCancel":
		if _, ok := uint32Field(tx, "OfferSequence"); !ok {
			return ledger.ResultMalformed
		}
	case "Clawback":
		amt, err := ledger.ParseAmount(tx["Amount"])
		if err != nil || amt.IsNative() || !amt.Value.IsPositive() {
			return ledger.ResultBadAmount
		}
		if amt.Issuer == tx.Account() {
			return ledger.ResultBadAmount
		}
	default:
		return ledger.ResultMalformed
	}
	return ""
}

func (e *Env) transact(tx ledger.Tx, root *accountRoot) string {
	account := tx.Account()
	switch tx.Type() {
	case "AccountSet":
		f, ok := uint32Field(tx, "SetFlag")
		if !ok {
			return ledger.ResultSuccess
		}
		lsf, _ := ledger.LedgerFlagFor(f)
		if lsf == ledger.LsfAllowTrustLineClawback && root.flags&lsf == 0 && e.ownsLines(account) {
			return ledger.ResultOwners
		}
		root.flags |= lsf
		return ledger.ResultSuccess

	case "TrustSet":
		limit, _ := ledger.ParseAmount(tx["LimitAmount"])
		if _, ok := e.accounts[limit.Issuer]; !ok {
			return ledger.ResultNoDst
		}
		key := lineKey{holder: account, issuer: limit.Issuer, currency: limit.Currency}
		l, ok := e.lines[key]
		if !ok {
			if limit.Value.IsZero() {
				return ledger.ResultNoLineRedund
			}
			e.lines[key] = &line{limit: limit.Value}
			return ledger.ResultSuccess
		}
		l.limit = limit.Value
		if l.limit.IsZero() && l.balance.IsZero() {
			delete(e.lines, key)
		}
		return ledger.ResultSuccess

	case "Payment":
		dst, _ := tx["Destination"].(string)
		amt, _ := ledger.ParseAmount(tx["Amount"])
		if amt.IsNative() {
			return e.payXRP(root, dst, amt.Value)
		}
		return e.payIssued(account, dst, amt)

	case "OfferCreate":
		pays, _ := ledger.ParseAmount(tx["TakerPays"])
		gets, _ := ledger.ParseAmount(tx["TakerGets"])
		if !e.funded(account, root, gets) {
			return ledger.ResultUnfundedOffer
		}
		flags, _ := uint32Field(tx, "Flags")
		e.offers[account] = append(e.offers[account], ledger.Offer{
			Account:   account,
			Sequence:  root.seq,
			TakerGets: gets,
			TakerPays: pays,
			Flags:     flags,
		})
		return ledger.ResultSuccess

	case "OfferCancel":
		seq, _ := uint32Field(tx, "OfferSequence")
		offers := e.offers[account]
		for i, o := range offers {
			if o.Sequence == seq {
				e.offers[account] = append(offers[:i:i], offers[i+1:]...)
				break
			}
		}
		return ledger.ResultSuccess

	case "Clawback":
		amt, _ := ledger.ParseAmount(tx["Amount"])
		if root.flags&ledger.LsfAllowTrustLineClawback == 0 {
			return ledger.ResultNoPermission
		}
		l, ok := e.lines[lineKey{holder: amt.Issuer, issuer: account, currency: amt.Currency}]
		if !ok {
			return ledger.ResultNoLine
		}
		if !l.balance.IsPositive() {
			return "tecINSUFFICIENT_FUNDS"
		}
		l.balance = l.balance.Sub(decimal.Min(amt.Value, l.balance))
		return ledger.ResultSuccess
	}
	return ledger.ResultMalformed
}

func (e *Env) payXRP(root *accountRoot, dst string, value decimal.Decimal) string {
	if root.balance.Sub(BaseFee).LessThan(value) {
		return ledger.ResultUnfunded
	}
	to, ok := e.accounts[dst]
	if !ok {
		if value.LessThan(BaseReserve) {
			return ledger.ResultNoDst
		}
		to = &accountRoot{seq: 1}
		e.accounts[dst] = to
	}
	root.balance = root.balance.Sub(value)
	to.balance = to.balance.Add(value)
	return ledger.ResultSuccess
}

func (e *Env) payIssued(src, dst string, amt ledger.Amount) string {
	if _, ok := e.accounts[dst]; !ok {
		return ledger.ResultNoDst
	}
	switch {
	case src == amt.Issuer:
		l, ok := e.lines[lineKey{holder: dst, issuer: src, currency: amt.Currency}]
		if !ok {
			return ledger.ResultPathDry
		}
		if l.balance.Add(amt.Value).GreaterThan(l.limit) {
			return ledger.ResultPathDry
		}
		l.balance = l.balance.Add(amt.Value)
	case dst == amt.Issuer:
		l, ok := e.lines[lineKey{holder: src, issuer: dst, currency: amt.Currency}]
		if !ok || l.balance.LessThan(amt.Value) {
			return ledger.ResultPathDry
		}
		l.balance = l.balance.Sub(amt.Value)
	default:
		from, ok := e.lines[lineKey{holder: src, issuer: amt.Issuer, currency: amt.Currency}]
		if !ok || from.balance.LessThan(amt.Value) {
			return ledger.ResultPathDry
		}
		to, ok := e.lines[lineKey{holder: dst, issuer: amt.Issuer, currency: amt.Currency}]
		if !ok || to.balance.Add(amt.Value).GreaterThan(to.limit) {
			return ledger.ResultPathDry
		}
		from.balance = from.balance.Sub(amt.Value)
		to.balance = to.balance.Add(amt.Value)
	}
	return ledger.ResultSuccess
}

func (e *Env) funded(account string, root *accountRoot, gets ledger.Amount) bool {
	if gets.IsNative() {
		return root.balance.GreaterThan(BaseFee)
	}
	if gets.Issuer == account {
		return true
	}
	l, ok := e.lines[lineKey{holder: account, issuer: gets.Issuer, currency: gets.Currency}]
	return ok && l.balance.IsPositive()
}

func (e *Env) ownsLines(account string) bool {
	for k := range e.lines {
		if k.holder == account || k.issuer == account {
			return true
		}
	}
	return false
}

func uint32Field(tx ledger.Tx, key string) (uint32, bool) {
	switch v := tx[key].(type) {
	case uint32:
		return v, true
	case int:
		return uint32(v), true
	case int64:
		return uint32(v), true
	case float64:
		return uint32(v), true
	}
	return 0, false
}
