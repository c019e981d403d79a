package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidLength indicates the national part is not 9 digits
	ErrInvalidLength = errors.New("phone number must have 9 digits after the 0 or +380 prefix")

	// ErrInvalidPrefix indicates the operator code is not a Ukrainian mobile code
	ErrInvalidPrefix = errors.New("phone number has an unknown mobile operator code")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits")

	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")
)

// operatorCodes maps Ukrainian mobile operator codes to the network name
var operatorCodes = map[string]string{
	"050": "Vodafone",
	"066": "Vodafone",
	"095": "Vodafone",
	"099": "Vodafone",
	"067": "Kyivstar",
	"068": "Kyivstar",
	"096": "Kyivstar",
	"097": "Kyivstar",
	"098": "Kyivstar",
	"063": "lifecell",
	"073": "lifecell",
	"093": "lifecell",
	"091": "3Mob",
	"092": "PEOPLEnet",
	"094": "Intertelecom",
}

var phoneRegex = regexp.MustCompile(`^\d+$`)

// PhoneValidator handles passenger phone number validation
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate validates a Ukrainian mobile number.
// Accepts 0501234567, 050 123 45 67, 380501234567 or +380 (50) 123-45-67
// and returns the number in E.164 form (+380501234567).
func (v *PhoneValidator) Validate(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", ErrEmptyPhone
	}

	national := v.Sanitize(phone)
	if !phoneRegex.MatchString(national) {
		return "", ErrInvalidFormat
	}
	if len(national) != 10 {
		return "", ErrInvalidLength
	}
	if !v.IsValidPrefix(national) {
		return "", ErrInvalidPrefix
	}

	return "+38" + national, nil
}

// Sanitize strips separators and the country code, leaving the national 0XXXXXXXXX form
func (v *PhoneValidator) Sanitize(phone string) string {
	phone = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '+', '.':
			return -1
		}
		return r
	}, phone)

	if strings.HasPrefix(phone, "380") && len(phone) == 12 {
		phone = phone[2:]
	}
	return phone
}

// IsValidPrefix checks the national number starts with a known operator code
func (v *PhoneValidator) IsValidPrefix(national string) bool {
	if len(national) < 3 {
		return false
	}
	_, ok := operatorCodes[national[:3]]
	return ok
}

// Format formats a phone number for display: +380 50 123 45 67
func (v *PhoneValidator) Format(phone string) (string, error) {
	e164, err := v.Validate(phone)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s %s %s", e164[0:4], e164[4:6], e164[6:9], e164[9:11], e164[11:13]), nil
}

// GetOperator returns the mobile network name based on the operator code
func (v *PhoneValidator) GetOperator(phone string) (string, error) {
	e164, err := v.Validate(phone)
	if err != nil {
		return "", err
	}
	return operatorCodes["0"+e164[4:6]], nil
}

// IsValid is a convenience method that returns true if phone is valid
func (v *PhoneValidator) IsValid(phone string) bool {
	_, err := v.Validate(phone)
	return err == nil
}
