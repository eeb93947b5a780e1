package entities

// Verdict is the outcome of public verification.
// The string values are part of the public wire contract.
type Verdict string

const (
	VerdictVerified Verdict = "verified"
	VerdictTampered Verdict = "tampered"
	VerdictExpired  Verdict = "expired"
	VerdictInvalid  Verdict = "invalid"
)

// Reasons refine a verdict in logs and CLI output. They never reach the wire.
const (
	ReasonEmptyToken     = "empty_token"
	ReasonUnknownToken   = "unknown_token"
	ReasonWrongKind      = "wrong_kind"
	ReasonRevoked        = "revoked"
	ReasonPastExpiry     = "past_expiry"
	ReasonViewsExhausted = "views_exhausted"
	ReasonNoRecord       = "no_record"
	ReasonIncomplete     = "incomplete"
	ReasonDigestMismatch = "digest_mismatch"
	ReasonFileMismatch   = "file_mismatch"
)
