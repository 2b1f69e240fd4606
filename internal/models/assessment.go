package models

import "github.com/shopspring/decimal"

// AssessmentLine is one fee component of an assessment.
type AssessmentLine struct {
	Label    string          `json:"label"`
	Quantity int             `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
}

// Assessment is the tuition owed for a student's current enrollment set.
// Monetary fields are fixed-point with two decimal places except Subtotal,
// which keeps the exact sum before VAT.
type Assessment struct {
	StudentNumber int              `json:"student_number"`
	Sections      []string         `json:"sections"`
	TotalUnits    int              `json:"total_units"`
	LabCount      int              `json:"lab_count"`
	Lines         []AssessmentLine `json:"lines"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	VAT           decimal.Decimal  `json:"vat"`
	Total         decimal.Decimal  `json:"total"`
}
