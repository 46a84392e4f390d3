package resolver

import (
	"fmt"
	"math"
	"strings"

	"billnorm/internal/domain"
)

// amountTolerance is the allowed absolute difference when checking
// total = subtotal + tax.
const amountTolerance = 0.02

// checkOutcome is the result of evaluating one cross-field check against the
// resolved fields.
type checkOutcome struct {
	passed  bool
	message string
	penalty int
	// fields implicated by the check; on failure, present ones are penalized.
	fields []string
	// splitPenalty divides the penalty evenly across the implicated fields
	// (the total/subtotal/tax triple).
	splitPenalty bool
}

// crossFieldCheck is one arithmetic/plausibility rule spanning resolved fields.
type crossFieldCheck struct {
	validationType domain.ValidationType
	evaluate       func(fields map[string]*domain.FieldValue) checkOutcome
}

// crossFieldChecks returns all cross-field checks. Every check is computed on
// every resolution run, independent of which fields resolved.
func crossFieldChecks() []crossFieldCheck {
	return []crossFieldCheck{
		{
			validationType: domain.ValidationTotalEqualsSubtotalPlusTax,
			evaluate: func(fields map[string]*domain.FieldValue) checkOutcome {
				triple := []string{"total", "subtotal", "tax"}
				values := make(map[string]float64, 3)
				var missing []string
				for _, name := range triple {
					fv, ok := fields[name]
					if !ok {
						missing = append(missing, name)
						continue
					}
					v, ok := numericValue(fv.Normalized, fv.Value)
					if !ok {
						missing = append(missing, name)
						continue
					}
					values[name] = v
				}
				if len(missing) > 0 {
					return checkOutcome{
						passed:       false,
						message:      fmt.Sprintf("total arithmetic not checkable: %s missing or unparseable", strings.Join(missing, ", ")),
						penalty:      10,
						fields:       triple,
						splitPenalty: true,
					}
				}
				diff := math.Abs(values["total"] - (values["subtotal"] + values["tax"]))
				if diff > amountTolerance {
					return checkOutcome{
						passed:       false,
						message:      fmt.Sprintf("total %.2f != subtotal %.2f + tax %.2f (off by %.2f)", values["total"], values["subtotal"], values["tax"], diff),
						penalty:      20,
						fields:       triple,
						splitPenalty: true,
					}
				}
				return checkOutcome{
					passed:  true,
					message: fmt.Sprintf("total %.2f = subtotal %.2f + tax %.2f", values["total"], values["subtotal"], values["tax"]),
					fields:  triple,
				}
			},
		},
		{
			validationType: domain.ValidationDateNotInFuture,
			evaluate: func(fields map[string]*domain.FieldValue) checkOutcome {
				fv, ok := fields["invoice_date"]
				if !ok {
					return checkOutcome{passed: true, message: "invoice_date not resolved, skipping", fields: []string{"invoice_date"}}
				}
				if _, ok := parseDate(fv.Normalized); !ok {
					return checkOutcome{passed: true, message: "invoice_date not in YYYY-MM-DD form, skipping", fields: []string{"invoice_date"}}
				}
				if isFutureDate(fv.Normalized) {
					return checkOutcome{
						passed:  false,
						message: fmt.Sprintf("invoice_date %s is in the future", fv.Normalized),
						penalty: 30,
						fields:  []string{"invoice_date"},
					}
				}
				return checkOutcome{passed: true, message: fmt.Sprintf("invoice_date %s is not in the future", fv.Normalized), fields: []string{"invoice_date"}}
			},
		},
		{
			validationType: domain.ValidationInvoiceNumberFormat,
			evaluate: func(fields map[string]*domain.FieldValue) checkOutcome {
				fv, ok := fields["invoice_number"]
				if !ok {
					return checkOutcome{
						passed:  false,
						message: "invoice_number missing",
						penalty: 25,
						fields:  []string{"invoice_number"},
					}
				}
				if !plausibleInvoiceNumber(fv.Value) {
					return checkOutcome{
						passed:  false,
						message: fmt.Sprintf("invoice_number %q has implausible format", fv.Value),
						penalty: 15,
						fields:  []string{"invoice_number"},
					}
				}
				return checkOutcome{passed: true, message: fmt.Sprintf("invoice_number %q format is plausible", fv.Value), fields: []string{"invoice_number"}}
			},
		},
		{
			validationType: domain.ValidationVendorNamePresent,
			evaluate: func(fields map[string]*domain.FieldValue) checkOutcome {
				fv, ok := fields["vendor_name"]
				if !ok {
					return checkOutcome{
						passed:  false,
						message: "vendor_name missing",
						penalty: 20,
						fields:  []string{"vendor_name"},
					}
				}
				if len(strings.TrimSpace(fv.Value)) < 2 {
					return checkOutcome{
						passed:  false,
						message: fmt.Sprintf("vendor_name %q too short", fv.Value),
						penalty: 20,
						fields:  []string{"vendor_name"},
					}
				}
				return checkOutcome{passed: true, message: fmt.Sprintf("vendor_name %q present", fv.Value), fields: []string{"vendor_name"}}
			},
		},
	}
}

// plausibleInvoiceNumber accepts values of length 3-50 containing at least
// one alphanumeric character.
func plausibleInvoiceNumber(v string) bool {
	if len(v) < 3 || len(v) > 50 {
		return false
	}
	for _, r := range v {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
