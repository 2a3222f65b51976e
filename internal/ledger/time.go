package ledger

import "time"

// rippleEpoch is 2000-01-01T00:00:00Z, the origin of ledger timestamps.
const rippleEpoch = 946684800

// RippleTime converts t to seconds since the ledger epoch. Times before the
// epoch map to zero.
func RippleTime(t time.Time) uint32 {
	s := t.Unix() - rippleEpoch
	if s < 0 {
		return 0
	}
	return uint32(s)
}

// FromRippleTime converts ledger seconds back to wall time.
func FromRippleTime(s uint32) time.Time {
	return time.Unix(int64(s)+rippleEpoch, 0).UTC()
}
