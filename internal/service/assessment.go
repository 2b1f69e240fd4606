package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/enlistment-api/internal/models"
)

// FeeSchedule holds the term's tuition rates.
type FeeSchedule struct {
	UnitFee decimal.Decimal
	LabFee  decimal.Decimal
	MiscFee decimal.Decimal
	VATRate decimal.Decimal
}

// DefaultFeeSchedule returns the fixed term rates.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		UnitFee: decimal.RequireFromString("2345.67"),
		LabFee:  decimal.RequireFromString("1234.56"),
		MiscFee: decimal.RequireFromString("3456.78"),
		VATRate: decimal.RequireFromString("0.12"),
	}
}

// ParseFeeSchedule builds a FeeSchedule from decimal strings. Rates must be
// non-negative.
func ParseFeeSchedule(unitFee, labFee, miscFee, vatRate string) (FeeSchedule, error) {
	raw := []struct {
		name  string
		value string
	}{
		{"unit fee", unitFee},
		{"lab fee", labFee},
		{"miscellaneous fee", miscFee},
		{"vat rate", vatRate},
	}
	parsed := make([]decimal.Decimal, len(raw))
	for i, field := range raw {
		d, err := decimal.NewFromString(field.value)
		if err != nil {
			return FeeSchedule{}, fmt.Errorf("parse %s %q: %w", field.name, field.value, err)
		}
		if d.IsNegative() {
			return FeeSchedule{}, fmt.Errorf("%s must not be negative", field.name)
		}
		parsed[i] = d
	}
	return FeeSchedule{UnitFee: parsed[0], LabFee: parsed[1], MiscFee: parsed[2], VATRate: parsed[3]}, nil
}

const moneyPlaces = 2

// RoundingPolicy selects how VAT is rounded before it is added.
type RoundingPolicy int

const (
	// RoundVATThenTotal rounds VAT to cents, adds it to the exact subtotal and
	// rounds the sum. This is the canonical policy.
	RoundVATThenTotal RoundingPolicy = iota
	// RoundTotalOnly keeps VAT exact and rounds only the final total.
	RoundTotalOnly
)

// CalculateAssessment computes tuition for the given enrolled subjects using
// the canonical rounding policy. The result depends only on the multiset of
// subjects, never on their order.
func CalculateAssessment(fees FeeSchedule, subjects []models.Subject) models.Assessment {
	return CalculateAssessmentWithPolicy(fees, subjects, RoundVATThenTotal)
}

// CalculateAssessmentWithPolicy is CalculateAssessment with an explicit
// rounding policy. Rounding is half-up; amounts are never negative so the
// library's half-away-from-zero rounding is equivalent.
func CalculateAssessmentWithPolicy(fees FeeSchedule, subjects []models.Subject, policy RoundingPolicy) models.Assessment {
	totalUnits := 0
	labCount := 0
	for _, subject := range subjects {
		totalUnits += subject.Units
		if subject.Laboratory {
			labCount++
		}
	}

	unitAmount := fees.UnitFee.Mul(decimal.NewFromInt(int64(totalUnits)))
	labAmount := fees.LabFee.Mul(decimal.NewFromInt(int64(labCount)))
	subtotal := unitAmount.Add(labAmount).Add(fees.MiscFee)

	vat := subtotal.Mul(fees.VATRate)
	if policy == RoundVATThenTotal {
		vat = vat.Round(moneyPlaces)
	}
	total := subtotal.Add(vat).Round(moneyPlaces)

	return models.Assessment{
		TotalUnits: totalUnits,
		LabCount:   labCount,
		Lines: []models.AssessmentLine{
			{Label: "Tuition (per unit)", Quantity: totalUnits, Rate: fees.UnitFee, Amount: unitAmount},
			{Label: "Laboratory fee", Quantity: labCount, Rate: fees.LabFee, Amount: labAmount},
			{Label: "Miscellaneous fee", Quantity: 1, Rate: fees.MiscFee, Amount: fees.MiscFee},
		},
		Subtotal: subtotal,
		VAT:      vat.Round(moneyPlaces),
		Total:    total,
	}
}
