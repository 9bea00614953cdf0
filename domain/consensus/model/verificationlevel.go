package model

// VerificationLevel selects how thorough transaction checks are.
type VerificationLevel uint8

// Verification levels.
const (
	// VerificationLevelFull runs every check including script and
	// signature evaluation.
	VerificationLevelFull VerificationLevel = iota

	// VerificationLevelNoScripts skips script evaluation. It is used to
	// re-check transactions whose scripts were already verified.
	VerificationLevelNoScripts
)

func (level VerificationLevel) String() string {
	switch level {
	case VerificationLevelFull:
		return "full"
	case VerificationLevelNoScripts:
		return "noscripts"
	}
	return "unknown"
}
