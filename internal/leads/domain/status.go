// Package domain holds the lead pipeline vocabulary shared by the
// repository, service, and automation layers.
package domain

// Pipeline stages. Statuses before StatusLost form the ordered sales
// pipeline; StatusLost and StatusReEngaged are terminal/side stages.
const (
	StatusNew        = "new"
	StatusContacted  = "contacted"
	StatusQualified  = "qualified"
	StatusQuoted     = "quoted"
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusLost       = "lost"
	StatusReEngaged  = "re_engaged"
)

var knownStatuses = map[string]struct{}{
	StatusNew:        {},
	StatusContacted:  {},
	StatusQualified:  {},
	StatusQuoted:     {},
	StatusScheduled:  {},
	StatusInProgress: {},
	StatusCompleted:  {},
	StatusLost:       {},
	StatusReEngaged:  {},
}

// IsKnownStatus reports whether status is part of the pipeline vocabulary.
func IsKnownStatus(status string) bool {
	_, ok := knownStatuses[status]
	return ok
}

// Service categories offered by the business.
const (
	ServiceDeck           = "deck"
	ServicePergola        = "pergola"
	ServicePatio          = "patio"
	ServiceFence          = "fence"
	ServiceOutdoorKitchen = "outdoor_kitchen"
	ServiceLandscaping    = "landscaping"
	ServiceOther          = "other"
)

var knownServices = map[string]struct{}{
	ServiceDeck:           {},
	ServicePergola:        {},
	ServicePatio:          {},
	ServiceFence:          {},
	ServiceOutdoorKitchen: {},
	ServiceLandscaping:    {},
	ServiceOther:          {},
}

// IsKnownService reports whether service is a recognized category.
func IsKnownService(service string) bool {
	_, ok := knownServices[service]
	return ok
}

// Acquisition channels.
const (
	SourceWebsite     = "website"
	SourceChatbot     = "chatbot"
	SourceGoogleAds   = "google_ads"
	SourceFacebookAds = "facebook_ads"
	SourceLandingPage = "landing_page"
	SourceReferral    = "referral"
	SourceOther       = "other"
)

// Communication channel types for the audit trail.
const (
	CommunicationCall  = "call"
	CommunicationEmail = "email"
	CommunicationSMS   = "sms"
)
