package ledger

// AccountSet SetFlag values.
const (
	AsfRequireAuth            uint32 = 2
	AsfDefaultRipple          uint32 = 8
	AsfAllowTrustLineClawback uint32 = 16
)

// AccountRoot ledger flags.
const (
	LsfRequireAuth            uint32 = 0x00040000
	LsfDefaultRipple          uint32 = 0x00800000
	LsfAllowTrustLineClawback uint32 = 0x80000000
)

// LedgerFlagFor maps an AccountSet flag to the AccountRoot flag it sets.
func LedgerFlagFor(asf uint32) (uint32, bool) {
	switch asf {
	case AsfRequireAuth:
		return LsfRequireAuth, true
	case AsfDefaultRipple:
		return LsfDefaultRipple, true
	case AsfAllowTrustLineClawback:
		return LsfAllowTrustLineClawback, true
	}
	return 0, false
}

// TrustSet flags.
const (
	TfSetNoRipple   uint32 = 0x00020000
	TfClearNoRipple uint32 = 0x00040000
)

// OfferCreate flags.
const (
	TfPassive           uint32 = 0x00010000
	TfImmediateOrCancel uint32 = 0x00020000
	TfFillOrKill        uint32 = 0x00040000
	TfSell              uint32 = 0x00080000
)
