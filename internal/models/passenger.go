package models

import "math"

// BenefitType represents a fare concession a passenger is entitled to
type BenefitType string

const (
	BenefitNone      BenefitType = "NONE"
	BenefitStudent   BenefitType = "STUDENT"
	BenefitPensioner BenefitType = "PENSIONER"
	BenefitChild     BenefitType = "CHILD"
	BenefitDisabled  BenefitType = "DISABLED"
)

var benefitLabels = map[BenefitType]string{
	BenefitNone:      "No benefit",
	BenefitStudent:   "Student",
	BenefitPensioner: "Pensioner",
	BenefitChild:     "Child",
	BenefitDisabled:  "Disabled",
}

// discount is the share of the base fare waived for a benefit
var benefitDiscounts = map[BenefitType]float64{
	BenefitNone:      0,
	BenefitStudent:   0.5,
	BenefitPensioner: 0.5,
	BenefitChild:     0.3,
	BenefitDisabled:  1,
}

// ParseBenefitType converts a persisted token into a BenefitType.
// Empty and unknown tokens yield BenefitNone; ok is false for unknown tokens.
func ParseBenefitType(token string) (BenefitType, bool) {
	if token == "" {
		return BenefitNone, true
	}
	benefit := BenefitType(token)
	if _, known := benefitLabels[benefit]; !known {
		return BenefitNone, false
	}
	return benefit, true
}

// Label returns the human readable name of the benefit
func (b BenefitType) Label() string {
	if label, ok := benefitLabels[b]; ok {
		return label
	}
	return string(b)
}

// ApplyTo returns the fare after the benefit discount, rounded to cents
func (b BenefitType) ApplyTo(fare float64) float64 {
	discounted := fare * (1 - benefitDiscounts[b])
	return math.Round(discounted*100) / 100
}

// Passenger represents a traveller identified by an official document
type Passenger struct {
	ID             int64       `json:"id" db:"id"`
	FullName       string      `json:"full_name" db:"full_name"`
	DocumentType   string      `json:"document_type" db:"document_type"`
	DocumentNumber string      `json:"document_number" db:"document_number"`
	PhoneNumber    *string     `json:"phone_number,omitempty" db:"phone_number"`
	Email          *string     `json:"email,omitempty" db:"email"`
	BenefitType    BenefitType `json:"benefit_type" db:"benefit_type"`
}

// SameDocument checks whether both passengers carry the same identity document
func (p *Passenger) SameDocument(other *Passenger) bool {
	return p.DocumentType == other.DocumentType && p.DocumentNumber == other.DocumentNumber
}

// EffectiveBenefit returns the benefit, treating an unset value as BenefitNone
func (p *Passenger) EffectiveBenefit() BenefitType {
	if p.BenefitType == "" {
		return BenefitNone
	}
	return p.BenefitType
}
