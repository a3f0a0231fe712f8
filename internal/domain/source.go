package domain

// Source represents where a token event was first sighted.
type Source string

const (
	SourceJupiter          Source = "jupiter"
	SourceDexScreener      Source = "dexscreener"
	SourcePumpFunGraduated Source = "pumpfun_graduated"
	SourceHeliusWebhook    Source = "helius_webhook"
)

// String returns the string representation of Source.
func (s Source) String() string {
	return string(s)
}

// IsValid checks if the source is a valid value.
func (s Source) IsValid() bool {
	switch s {
	case SourceJupiter, SourceDexScreener, SourcePumpFunGraduated, SourceHeliusWebhook:
		return true
	}
	return false
}
