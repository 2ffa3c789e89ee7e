package domain

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/loanflow/pkg/quote"
)

var (
	// ErrUnknownField is returned for a path that names no field of the record.
	ErrUnknownField = errors.New("unknown field path")
	// ErrReadOnlyField is returned when writing a derived field.
	ErrReadOnlyField = errors.New("field is derived and cannot be assigned")
	// ErrInvalidValue is returned when a value cannot be converted to the field's type.
	ErrInvalidValue = errors.New("invalid value for field")
)

// DateLayout is the canonical date format used in paths and snapshots.
const DateLayout = "2006-01-02"

// Set writes value at a dot path such as "asset.category" or "directors.1.email".
// A numeric segment after "directors" grows the director list as needed.
func (a *Application) Set(path string, value any) error {
	segs := strings.Split(path, ".")
	var err error
	switch segs[0] {
	case "business":
		err = a.setBusiness(tail(segs), value)
	case "asset":
		err = a.setAsset(tail(segs), value)
	case "loan":
		err = a.setLoan(tail(segs), value)
	case "directors":
		if len(segs) != 3 {
			return fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		index, convErr := strconv.Atoi(segs[1])
		if convErr != nil {
			return fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		err = a.SetDirectorField(index, segs[2], value)
	case "primaryContactIndex":
		if len(segs) != 1 {
			return fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		var i int
		if i, err = toInt(value); err == nil {
			err = a.SetPrimaryContact(i)
		}
	case "lead":
		err = a.setLead(tail(segs), value)
	default:
		err = ErrUnknownField
	}
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

// Get reads the value at a dot path.
func (a *Application) Get(path string) (any, error) {
	segs := strings.Split(path, ".")
	field := ""
	if len(segs) == 2 {
		field = segs[1]
	}

	switch {
	case segs[0] == "business" && len(segs) == 2:
		b := a.Business
		if v, ok := map[string]any{
			"abn": b.ABN, "searchName": b.SearchName, "legalName": b.LegalName,
			"tradingName": b.TradingName, "entityClass": b.EntityClass,
			"gstRegistered": b.GSTRegistered, "street": b.Street, "suburb": b.Suburb,
			"state": b.State, "postcode": b.Postcode,
		}[field]; ok {
			return v, nil
		}
	case segs[0] == "asset" && len(segs) == 2:
		s := a.Asset
		if v, ok := map[string]any{
			"category": s.Category, "condition": s.Condition, "priceExTax": s.PriceExTax,
			"priceIncTax": s.PriceIncTax, "description": s.Description,
			"supplierName": s.SupplierName, "supplierEmail": s.SupplierEmail,
		}[field]; ok {
			return v, nil
		}
	case segs[0] == "loan" && len(segs) == 2:
		l := a.Loan
		values := map[string]any{
			"principal": l.Principal, "deposit": l.Deposit, "tradeIn": l.TradeIn,
			"termMonths": l.TermMonths, "balloonPercentage": l.BalloonPercentage,
			"businessUsePercentage": nil,
		}
		if l.BusinessUsePercentage != nil {
			values["businessUsePercentage"] = *l.BusinessUsePercentage
		}
		if v, ok := values[field]; ok {
			return v, nil
		}
	case segs[0] == "directors" && len(segs) == 3:
		i, err := strconv.Atoi(segs[1])
		if err != nil || i < 0 || i >= len(a.Directors) {
			return nil, fmt.Errorf("get %s: %w", path, ErrDirectorIndex)
		}
		d := a.Directors[i]
		if v, ok := map[string]any{
			"firstName": d.FirstName, "lastName": d.LastName, "dateOfBirth": d.DateOfBirth,
			"email": d.Email, "phone": d.Phone, "address": d.Address, "licence": d.Licence,
		}[segs[2]]; ok {
			return v, nil
		}
	case segs[0] == "primaryContactIndex" && len(segs) == 1:
		return a.PrimaryContactIndex, nil
	case segs[0] == "lead" && len(segs) == 2:
		if a.Lead == nil {
			return nil, nil
		}
		l := a.Lead
		if v, ok := map[string]any{
			"name": l.Name, "email": l.Email, "phone": l.Phone, "reason": l.Reason,
		}[field]; ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("get %s: %w", path, ErrUnknownField)
}

// SetDirectorField writes one field of the director at index, creating empty
// directors up to index if the list is shorter.
func (a *Application) SetDirectorField(index int, field string, value any) error {
	if err := a.EnsureDirector(index); err != nil {
		return err
	}
	d := &a.Directors[index]

	var err error
	switch field {
	case "firstName":
		d.FirstName, err = toString(value)
	case "lastName":
		d.LastName, err = toString(value)
	case "dateOfBirth":
		d.DateOfBirth, err = toTime(value)
	case "email":
		d.Email, err = toString(value)
	case "phone":
		d.Phone, err = toString(value)
	case "address":
		d.Address, err = toString(value)
	case "licence":
		d.Licence, err = toString(value)
	default:
		return ErrUnknownField
	}
	return err
}

func (a *Application) setBusiness(segs []string, value any) error {
	if len(segs) != 1 {
		return ErrUnknownField
	}
	b := &a.Business
	var err error
	switch segs[0] {
	case "abn":
		var s string
		if s, err = toString(value); err == nil {
			if s != b.ABN {
				a.RegistryLookup = nil
				a.Eligibility = nil
			}
			b.ABN = s
		}
	case "searchName":
		b.SearchName, err = toString(value)
	case "legalName":
		b.LegalName, err = toString(value)
	case "tradingName":
		b.TradingName, err = toString(value)
	case "entityClass":
		var s string
		s, err = toString(value)
		b.EntityClass = EntityClass(s)
	case "gstRegistered":
		b.GSTRegistered, err = toBool(value)
	case "street":
		b.Street, err = toString(value)
	case "suburb":
		b.Suburb, err = toString(value)
	case "state":
		b.State, err = toString(value)
	case "postcode":
		b.Postcode, err = toString(value)
	default:
		return ErrUnknownField
	}
	return err
}

func (a *Application) setAsset(segs []string, value any) error {
	if len(segs) != 1 {
		return ErrUnknownField
	}
	s := &a.Asset
	var err error
	switch segs[0] {
	case "category":
		var v string
		if v, err = toString(value); err == nil {
			if quote.AssetType(v) != s.Category {
				a.Quote = nil
			}
			s.Category = quote.AssetType(v)
		}
	case "condition":
		var v string
		if v, err = toString(value); err == nil {
			if quote.Condition(v) != s.Condition {
				a.Quote = nil
			}
			s.Condition = quote.Condition(v)
		}
	case "priceIncTax":
		var v float64
		if v, err = toFloat(value); err == nil {
			a.SetAssetPrice(v)
		}
	case "priceExTax":
		return ErrReadOnlyField
	case "description":
		s.Description, err = toString(value)
	case "supplierName":
		s.SupplierName, err = toString(value)
	case "supplierEmail":
		s.SupplierEmail, err = toString(value)
	default:
		return ErrUnknownField
	}
	return err
}

func (a *Application) setLoan(segs []string, value any) error {
	if len(segs) != 1 {
		return ErrUnknownField
	}
	switch segs[0] {
	case "principal":
		return ErrReadOnlyField
	case "deposit", "tradeIn":
		v, err := toFloat(value)
		if err != nil {
			return err
		}
		if v < 0 {
			return ErrInvalidValue
		}
		if segs[0] == "deposit" {
			a.SetDeposit(v)
		} else {
			a.SetTradeIn(v)
		}
	case "termMonths":
		v, err := toInt(value)
		if err != nil {
			return err
		}
		if !slices.Contains(TermOptions, v) {
			return ErrInvalidValue
		}
		a.SetTerm(v)
	case "balloonPercentage":
		v, err := toFloat(value)
		if err != nil {
			return err
		}
		if v < 0 || v > quote.MaxBalloonPercentage {
			return ErrInvalidValue
		}
		a.SetBalloon(v)
	case "businessUsePercentage":
		v, err := toFloat(value)
		if err != nil {
			return err
		}
		if v < 0 || v > 100 {
			return ErrInvalidValue
		}
		a.SetBusinessUse(v)
	default:
		return ErrUnknownField
	}
	return nil
}

func (a *Application) setLead(segs []string, value any) error {
	if len(segs) != 1 {
		return ErrUnknownField
	}
	if a.Lead == nil {
		a.Lead = &Lead{}
	}
	var err error
	switch segs[0] {
	case "name":
		a.Lead.Name, err = toString(value)
	case "email":
		a.Lead.Email, err = toString(value)
	case "phone":
		a.Lead.Phone, err = toString(value)
	case "reason":
		a.Lead.Reason, err = toString(value)
	default:
		return ErrUnknownField
	}
	return err
}

func tail(segs []string) []string {
	if len(segs) < 2 {
		return nil
	}
	return segs[1:]
}

func toString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case fmt.Stringer:
		return t.String(), nil
	}
	return "", fmt.Errorf("%w: want string, got %T", ErrInvalidValue, v)
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidValue, t)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: want number, got %T", ErrInvalidValue, v)
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		if t != float64(int(t)) {
			return 0, fmt.Errorf("%w: %v is not whole", ErrInvalidValue, t)
		}
		return int(t), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidValue, t)
		}
		return i, nil
	}
	return 0, fmt.Errorf("%w: want integer, got %T", ErrInvalidValue, v)
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return false, fmt.Errorf("%w: %q", ErrInvalidValue, t)
		}
		return b, nil
	}
	return false, fmt.Errorf("%w: want bool, got %T", ErrInvalidValue, v)
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(DateLayout, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidValue, t)
		}
		return parsed, nil
	}
	return time.Time{}, fmt.Errorf("%w: want date, got %T", ErrInvalidValue, v)
}
