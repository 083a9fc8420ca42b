package model

import "strings"

// BuyerType categorizes acquirers by behavioral profile.
type BuyerType string

const (
	BuyerTypeFinancialSponsor  BuyerType = "financial_sponsor"
	BuyerTypeOperatingPlatform BuyerType = "operating_platform"
	BuyerTypeStrategicAcquirer BuyerType = "strategic_acquirer"
	BuyerTypeFamilyOffice      BuyerType = "family_office"
	BuyerTypeIndividual        BuyerType = "individual"
)

// Buyer is a prospective acquirer record. All size criteria are pointers so
// an absent bound is distinguishable from zero.
type Buyer struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Type                BuyerType `json:"type"`
	RevenueMin          *float64  `json:"revenue_min,omitempty"`
	RevenueMax          *float64  `json:"revenue_max,omitempty"`
	RevenueSweet        *float64  `json:"revenue_sweet_spot,omitempty"`
	EBITDAMin           *float64  `json:"ebitda_min,omitempty"`
	EBITDAMax           *float64  `json:"ebitda_max,omitempty"`
	EBITDASweet         *float64  `json:"ebitda_sweet_spot,omitempty"`
	TargetGeographies   []string  `json:"target_geographies,omitempty"`
	OperatingStates     []string  `json:"operating_states,omitempty"`
	HQState             string    `json:"hq_state,omitempty"`
	ExcludedStates      []string  `json:"excluded_states,omitempty"`
	TargetServices      []string  `json:"target_services,omitempty"`
	ServicesOffered     string    `json:"services_offered,omitempty"`
	TargetIndustries    []string  `json:"target_industries,omitempty"`
	SpecializedFocus    string    `json:"specialized_focus,omitempty"`
	ExcludedServices    []string  `json:"excluded_services,omitempty"`
	Thesis              string    `json:"thesis,omitempty"`
	DealPreferences     string    `json:"deal_preferences,omitempty"`
	DealBreakers        []string  `json:"deal_breakers,omitempty"`
	StrategicPriorities []string  `json:"strategic_priorities,omitempty"`
	KeyQuotes           []string  `json:"key_quotes,omitempty"`
	TrackerID           *string   `json:"tracker_id,omitempty"`
}

// HasSizeCriteria reports whether the buyer has stated any revenue or EBITDA
// bound or sweet spot.
func (b *Buyer) HasSizeCriteria() bool {
	return b.RevenueMin != nil || b.RevenueMax != nil || b.RevenueSweet != nil ||
		b.EBITDAMin != nil || b.EBITDAMax != nil || b.EBITDASweet != nil
}

// GeographyStates returns the buyer's geographic signal in priority order:
// explicit target geographies, then operating footprint, then HQ state.
func (b *Buyer) GeographyStates() []string {
	if len(b.TargetGeographies) > 0 {
		return b.TargetGeographies
	}
	if len(b.OperatingStates) > 0 {
		return b.OperatingStates
	}
	if b.HQState != "" {
		return []string{b.HQState}
	}
	return nil
}

// HasGeographySignal reports whether any geographic preference exists.
func (b *Buyer) HasGeographySignal() bool {
	return len(b.GeographyStates()) > 0
}

// HasServiceSignal reports whether the buyer has stated any service,
// industry, or focus preference.
func (b *Buyer) HasServiceSignal() bool {
	return len(b.TargetServices) > 0 || b.ServicesOffered != "" ||
		len(b.TargetIndustries) > 0 || b.SpecializedFocus != ""
}

// ServiceText returns the buyer's combined service signals as one lowercase
// blob for keyword matching.
func (b *Buyer) ServiceText() string {
	parts := make([]string, 0, 4)
	if len(b.TargetServices) > 0 {
		parts = append(parts, strings.Join(b.TargetServices, " "))
	}
	if b.ServicesOffered != "" {
		parts = append(parts, b.ServicesOffered)
	}
	if len(b.TargetIndustries) > 0 {
		parts = append(parts, strings.Join(b.TargetIndustries, " "))
	}
	if b.SpecializedFocus != "" {
		parts = append(parts, b.SpecializedFocus)
	}
	return strings.ToLower(strings.Join(parts, " "))
}
