package models

import "fmt"

// Tier is the rank derived from the external token-holding snapshot.
// It is resolved fresh on every call and never stored on entitlement rows.
type Tier int

const (
	TierBase Tier = iota + 1
	TierBronze
	TierSilver
	TierGold
	TierDiamond
)

// DailyFlips returns the number of flip units the tier grants per UTC day.
func (t Tier) DailyFlips() int {
	switch t {
	case TierBase:
		return 1
	case TierBronze:
		return 2
	case TierSilver:
		return 3
	case TierGold:
		return 4
	case TierDiamond:
		return 5
	}
	return 0
}

func (t Tier) Valid() bool {
	return t >= TierBase && t <= TierDiamond
}

func (t Tier) String() string {
	switch t {
	case TierBase:
		return "base"
	case TierBronze:
		return "bronze"
	case TierSilver:
		return "silver"
	case TierGold:
		return "gold"
	case TierDiamond:
		return "diamond"
	}
	return "unknown"
}

func ParseTier(s string) (Tier, error) {
	switch s {
	case "base":
		return TierBase, nil
	case "bronze":
		return TierBronze, nil
	case "silver":
		return TierSilver, nil
	case "gold":
		return TierGold, nil
	case "diamond":
		return TierDiamond, nil
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}
