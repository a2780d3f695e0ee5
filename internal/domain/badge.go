package domain

import "fmt"

// BadgeKind identifies an achievement. The set is closed; BadgeNone means a scenario awards nothing.
type BadgeKind int

const (
	BadgeNone BadgeKind = iota
	BadgePhishingExpert
	BadgeScamBuster
	BadgeDigitalDefender
	BadgeFinancialGuard
)

// Icon names the glyph the front-end renders for a badge.
type Icon string

const (
	IconMail        Icon = "mail"
	IconShieldCheck Icon = "shield-check"
	IconAward       Icon = "award"
	IconCreditCard  Icon = "credit-card"
)

// AllBadgeKinds returns all badges in display order.
func AllBadgeKinds() []BadgeKind {
	return []BadgeKind{BadgePhishingExpert, BadgeScamBuster, BadgeDigitalDefender, BadgeFinancialGuard}
}

// ParseBadgeKind converts a stored badge ID back into a kind.
func ParseBadgeKind(id int) (BadgeKind, error) {
	k := BadgeKind(id)
	if !k.Valid() {
		return BadgeNone, fmt.Errorf("unknown badge id %d", id)
	}
	return k, nil
}

// Valid reports whether k is one of the defined badges.
func (k BadgeKind) Valid() bool {
	return k >= BadgePhishingExpert && k <= BadgeFinancialGuard
}

func (k BadgeKind) Name() string {
	switch k {
	case BadgePhishingExpert:
		return "Phishing Expert"
	case BadgeScamBuster:
		return "Scam Buster"
	case BadgeDigitalDefender:
		return "Digital Defender"
	case BadgeFinancialGuard:
		return "Financial Guard"
	default:
		return "None"
	}
}

func (k BadgeKind) Description() string {
	switch k {
	case BadgePhishingExpert:
		return "Successfully completed all phishing challenges"
	case BadgeScamBuster:
		return "Reported 5 or more scams"
	case BadgeDigitalDefender:
		return "Reached level 5"
	case BadgeFinancialGuard:
		return "Completed all financial scam challenges"
	default:
		return ""
	}
}

func (k BadgeKind) Icon() Icon {
	switch k {
	case BadgePhishingExpert:
		return IconMail
	case BadgeScamBuster:
		return IconShieldCheck
	case BadgeDigitalDefender:
		return IconAward
	case BadgeFinancialGuard:
		return IconCreditCard
	default:
		return ""
	}
}

// BadgeInfo is the display form of a badge.
type BadgeInfo struct {
	ID          BadgeKind `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        Icon      `json:"icon"`
}

// Info returns the display form of k.
func (k BadgeKind) Info() BadgeInfo {
	return BadgeInfo{ID: k, Name: k.Name(), Description: k.Description(), Icon: k.Icon()}
}
