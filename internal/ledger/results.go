package ledger

import "strings"

// Transaction result codes referenced by the workflows.
const (
	ResultSuccess        = "tesSUCCESS"
	ResultQueued         = "terQUEUED"
	ResultNoPermission   = "tecNO_PERMISSION"
	ResultNoLine         = "tecNO_LINE"
	ResultNoLineRedund   = "tecNO_LINE_REDUNDANT"
	ResultUnfunded       = "tecUNFUNDED_PAYMENT"
	ResultUnfundedOffer  = "tecUNFUNDED_OFFER"
	ResultPathDry        = "tecPATH_DRY"
	ResultInsufReserve   = "tecINSUF_RESERVE_LINE"
	ResultOwners         = "tecOWNERS"
	ResultNoDst          = "tecNO_DST_INSUF_XRP"
	ResultNoEntry        = "tecNO_ENTRY"
	ResultBadAmount      = "temBAD_AMOUNT"
	ResultBadCurrency    = "temBAD_CURRENCY"
	ResultMalformed      = "temMALFORMED"
	ResultInvalidFlag    = "temINVALID_FLAG"
	ResultDstIsSrc       = "temDST_IS_SRC"
	ResultPastSeq        = "tefPAST_SEQ"
	ResultMaxLedger      = "tefMAX_LEDGER"
	ResultInsufFee       = "telINSUF_FEE_P"
	ResultNoAccount      = "terNO_ACCOUNT"
	ResultPreSeq         = "terPRE_SEQ"
	ResultNoAuth         = "tecNO_AUTH"
	ResultKilled         = "tecKILLED"
	ResultUnfundedAmount = "tecUNFUNDED"
)

// IsSuccess reports whether code means the transaction applied.
func IsSuccess(code string) bool {
	return code == ResultSuccess
}

// IsFinalPreliminary reports whether a preliminary result from submit is final
// and the transaction can never be included in a ledger.
func IsFinalPreliminary(code string) bool {
	return strings.HasPrefix(code, "tem") ||
		strings.HasPrefix(code, "tef") ||
		strings.HasPrefix(code, "tel")
}

// IsClaimed reports whether code means the transaction consumed a fee and a
// sequence number without achieving its intent.
func IsClaimed(code string) bool {
	return strings.HasPrefix(code, "tec")
}
