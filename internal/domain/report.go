package domain

import "time"

// ScamType categorises an anonymous report.
type ScamType string

const (
	ScamPhishing  ScamType = "phishing"
	ScamJob       ScamType = "job"
	ScamFinancial ScamType = "financial"
	ScamShopping  ScamType = "shopping"
	ScamSocial    ScamType = "social"
	ScamRomance   ScamType = "romance"
	ScamTech      ScamType = "tech"
	ScamOther     ScamType = "other"
)

func (t ScamType) Valid() bool {
	switch t {
	case ScamPhishing, ScamJob, ScamFinancial, ScamShopping, ScamSocial, ScamRomance, ScamTech, ScamOther:
		return true
	}
	return false
}

// InfoShared describes what the reporter handed over to the scammer.
type InfoShared string

const (
	InfoLogin     InfoShared = "login"
	InfoFinancial InfoShared = "financial"
	InfoPersonal  InfoShared = "personal"
	InfoPayment   InfoShared = "payment"
	InfoNone      InfoShared = "none"
	InfoOther     InfoShared = "other"
)

func (i InfoShared) Valid() bool {
	switch i {
	case InfoLogin, InfoFinancial, InfoPersonal, InfoPayment, InfoNone, InfoOther:
		return true
	}
	return false
}

// ContactMethod is how the scammer reached the reporter.
type ContactMethod string

const (
	ContactEmail   ContactMethod = "email"
	ContactSMS     ContactMethod = "sms"
	ContactPhone   ContactMethod = "phone"
	ContactSocial  ContactMethod = "social"
	ContactWebsite ContactMethod = "website"
	ContactApp     ContactMethod = "app"
	ContactOther   ContactMethod = "other"
)

func (c ContactMethod) Valid() bool {
	switch c {
	case ContactEmail, ContactSMS, ContactPhone, ContactSocial, ContactWebsite, ContactApp, ContactOther:
		return true
	}
	return false
}

// ReportStatus tracks a stored report through moderation.
type ReportStatus string

const (
	ReportSubmitted ReportStatus = "submitted"
	ReportReviewing ReportStatus = "reviewing"
	ReportVerified  ReportStatus = "verified"
)

// ReportDraft is what the reporter fills in. No user identity is attached.
type ReportDraft struct {
	ScamType      ScamType      `json:"scamType"`
	Description   string        `json:"description"`
	InfoShared    InfoShared    `json:"infoShared"`
	ContactMethod ContactMethod `json:"contactMethod"`
	EvidenceName  string        `json:"evidenceName,omitempty"`
}

// Report is a stored anonymous report.
type Report struct {
	ID            string        `json:"id"`
	TrackingCode  string        `json:"trackingCode"`
	ScamType      ScamType      `json:"scamType"`
	Description   string        `json:"description"`
	InfoShared    InfoShared    `json:"infoShared"`
	ContactMethod ContactMethod `json:"contactMethod"`
	EvidenceName  string        `json:"evidenceName,omitempty"`
	Status        ReportStatus  `json:"status"`
	SubmittedAt   time.Time     `json:"submittedAt"`
}
