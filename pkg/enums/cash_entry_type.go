package enums

import "fmt"

// CashEntryType classifies a driver cash ledger entry. Balances fold as
// collect − remit + adjustment.
type CashEntryType string

const (
	CashEntryTypeCollect    CashEntryType = "collect"
	CashEntryTypeRemit      CashEntryType = "remit"
	CashEntryTypeAdjustment CashEntryType = "adjustment"
)

var validCashEntryTypes = []CashEntryType{
	CashEntryTypeCollect,
	CashEntryTypeRemit,
	CashEntryTypeAdjustment,
}

// String implements fmt.Stringer.
func (t CashEntryType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known CashEntryType.
func (t CashEntryType) IsValid() bool {
	for _, candidate := range validCashEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseCashEntryType converts raw input into a CashEntryType.
func ParseCashEntryType(value string) (CashEntryType, error) {
	for _, candidate := range validCashEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cash entry type %q", value)
}
