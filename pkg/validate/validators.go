package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/loanflow/pkg/abn"
	"github.com/aretw0/loanflow/pkg/domain"
)

// User-facing validation messages.
const (
	MsgNotAnAmount     = "Please enter an amount, for example 45,000 or 45k."
	MsgNotPositive     = "The amount needs to be more than zero."
	MsgBelowMinimum    = "We finance from $5,000. Please enter a higher amount."
	MsgAboveMaximum    = "We can finance up to $500,000 online. Please enter a lower amount."
	MsgNegative        = "That can't be a negative amount."
	MsgExceedsPrice    = "That covers the whole price. Enter an amount below the asset price."
	MsgLeavesTooLittle = "That leaves less than $5,000 to finance. Try a smaller amount."
	MsgPercentage      = "Please enter a percentage between 0 and 100."
	MsgEmail           = "That email address doesn't look right."
	MsgPhone           = "Please enter an Australian mobile or landline number."
	MsgDate            = "Please enter the date as DD/MM/YYYY."
	MsgUnderage        = "Directors must be at least 18 years old."
	MsgImplausibleAge  = "Please check the year of birth."
	MsgBusinessID      = "That ABN doesn't look right. It should be 11 digits."
)

// Money checks an asset price or loan amount.
func Money(raw string, _ *domain.Application) string {
	v, err := ParseAmount(raw)
	switch {
	case err != nil:
		return MsgNotAnAmount
	case v <= 0:
		return MsgNotPositive
	case v < domain.MinPrincipal:
		return MsgBelowMinimum
	case v > domain.MaxPrincipal:
		return MsgAboveMaximum
	}
	return ""
}

// Deposit checks a deposit against the asset price and any trade-in.
func Deposit(raw string, app *domain.Application) string {
	return contribution(raw, app.Asset.PriceIncTax-app.Loan.TradeIn)
}

// TradeIn checks a trade-in value against the asset price and deposit.
func TradeIn(raw string, app *domain.Application) string {
	return contribution(raw, app.Asset.PriceIncTax-app.Loan.Deposit)
}

func contribution(raw string, available float64) string {
	v, err := ParseAmount(raw)
	switch {
	case err != nil:
		return MsgNotAnAmount
	case v < 0:
		return MsgNegative
	case v >= available:
		return MsgExceedsPrice
	case available-v < domain.MinPrincipal:
		return MsgLeavesTooLittle
	}
	return ""
}

// Percentage accepts 0 to 100 with an optional trailing %.
func Percentage(raw string, _ *domain.Application) string {
	if _, err := ParsePercentage(raw); err != nil {
		return MsgPercentage
	}
	return ""
}

// BusinessUse is the business-use share of the asset.
var BusinessUse domain.Validator = Percentage

// ParsePercentage reads "80", "80%" or "80.5 %".
func ParsePercentage(raw string) (float64, error) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("percentage %q: %w", raw, err)
	}
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("percentage %v out of range", v)
	}
	return v, nil
}

// Email requires a single address with a dotted domain.
func Email(raw string, _ *domain.Application) string {
	s := strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return MsgEmail
	}
	at := strings.LastIndexByte(s, '@')
	if at < 1 || !strings.Contains(s[at+1:], ".") {
		return MsgEmail
	}
	return ""
}

var phonePattern = regexp.MustCompile(`^(?:\+?61|0)([2378]\d{8}|4\d{8})$`)

// Phone accepts Australian mobiles and landlines, with or without +61.
func Phone(raw string, _ *domain.Application) string {
	if !phonePattern.MatchString(NormalizePhone(raw)) {
		return MsgPhone
	}
	return ""
}

// NormalizePhone drops spaces, dashes, dots and brackets.
func NormalizePhone(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
}

var dateLayouts = []string{"02/01/2006", "2/1/2006", domain.DateLayout, "02-01-2006"}

// ParseDate reads DD/MM/YYYY (or ISO) as a UTC date.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q: unrecognised format", raw)
}

// DateOfBirth requires an adult aged under 120 today.
func DateOfBirth(raw string, _ *domain.Application) string {
	return dateOfBirth(raw, time.Now())
}

// DateOfBirthAt is DateOfBirth with a fixed clock.
func DateOfBirthAt(now time.Time) domain.Validator {
	return func(raw string, _ *domain.Application) string {
		return dateOfBirth(raw, now)
	}
}

func dateOfBirth(raw string, now time.Time) string {
	dob, err := ParseDate(raw)
	if err != nil {
		return MsgDate
	}
	switch {
	case dob.After(now.AddDate(-18, 0, 0)):
		return MsgUnderage
	case dob.Before(now.AddDate(-120, 0, 0)):
		return MsgImplausibleAge
	}
	return ""
}

// BusinessID checks the ABN checksum.
func BusinessID(raw string, _ *domain.Application) string {
	if !abn.IsValid(raw) {
		return MsgBusinessID
	}
	return ""
}

// NonEmpty requires at least min non-space characters.
func NonEmpty(min int) domain.Validator {
	return func(raw string, _ *domain.Application) string {
		if len([]rune(strings.TrimSpace(raw))) < min {
			if min <= 1 {
				return "Please enter a value."
			}
			return fmt.Sprintf("Please enter at least %d characters.", min)
		}
		return ""
	}
}
