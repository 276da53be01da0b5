package models

import "math"

// PricingLine is one role in a pricing pack.
type PricingLine struct {
	Role       string  `json:"role"`
	Days       float64 `json:"days"`
	RatePerDay float64 `json:"rate_per_day"`
	Subtotal   float64 `json:"subtotal"`
}

// ExpectedSubtotal is days * rate_per_day.
func (l PricingLine) ExpectedSubtotal() float64 {
	return l.Days * l.RatePerDay
}

// PricingPack is the structured pricing estimate produced by the model.
type PricingPack struct {
	Currency            string        `json:"currency"`
	Lines               []PricingLine `json:"lines"`
	OverheadPct         float64       `json:"overhead_pct"`
	RiskBufferPct       float64       `json:"risk_buffer_pct"`
	DiscountPct         float64       `json:"discount_pct"`
	TotalBeforeDiscount float64       `json:"total_before_discount"`
	TotalAfterDiscount  float64       `json:"total_after_discount"`
	ApprovalsNeeded     bool          `json:"approvals_needed"`
	ApprovalReasons     []string      `json:"approval_reasons"`
	Notes               []string      `json:"notes"`
}

const PricingPackSchemaName = "PricingPack"

// ExpectedTotals recomputes the totals from the lines and percentages.
// Overhead and risk buffer are applied to the line sum, then the discount.
func (p PricingPack) ExpectedTotals() (beforeDiscount, afterDiscount float64) {
	var sum float64
	for _, line := range p.Lines {
		sum += line.Subtotal
	}
	beforeDiscount = sum * (1 + p.OverheadPct/100 + p.RiskBufferPct/100)
	afterDiscount = beforeDiscount * (1 - p.DiscountPct/100)
	return beforeDiscount, afterDiscount
}

// Inconsistencies lists the arithmetic mismatches in p beyond tolerance.
func (p PricingPack) Inconsistencies(tolerance float64) []string {
	var issues []string
	for _, line := range p.Lines {
		if math.Abs(line.ExpectedSubtotal()-line.Subtotal) > tolerance {
			issues = append(issues, "subtotal mismatch for role "+line.Role)
		}
	}
	before, after := p.ExpectedTotals()
	if math.Abs(before-p.TotalBeforeDiscount) > tolerance {
		issues = append(issues, "total_before_discount mismatch")
	}
	if math.Abs(after-p.TotalAfterDiscount) > tolerance {
		issues = append(issues, "total_after_discount mismatch")
	}
	return issues
}

// PricingPackSchema returns the JSON Schema for PricingPack.
func PricingPackSchema() map[string]interface{} {
	number := map[string]interface{}{"type": "number"}
	nonNegative := map[string]interface{}{"type": "number", "minimum": 0}

	line := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"role":         map[string]interface{}{"type": "string"},
			"days":         nonNegative,
			"rate_per_day": nonNegative,
			"subtotal":     number,
		},
		"required": []interface{}{"role", "days", "rate_per_day", "subtotal"},
	}

	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"currency":              map[string]interface{}{"type": "string"},
			"lines":                 map[string]interface{}{"type": "array", "items": line},
			"overhead_pct":          number,
			"risk_buffer_pct":       number,
			"discount_pct":          number,
			"total_before_discount": number,
			"total_after_discount":  number,
			"approvals_needed":      map[string]interface{}{"type": "boolean"},
			"approval_reasons":      stringListSchema(),
			"notes":                 stringListSchema(),
		},
		"required": []interface{}{
			"currency", "lines", "overhead_pct", "risk_buffer_pct", "discount_pct",
			"total_before_discount", "total_after_discount", "approvals_needed",
			"approval_reasons", "notes",
		},
	}
}
