package quote

import (
	"context"
	"time"
)

type WizardStep string

const (
	StepCustomerInfo     WizardStep = "customer-info"
	StepProductSelection WizardStep = "product-selection"
	StepLineItems        WizardStep = "line-items"
	StepTermsNotes       WizardStep = "terms-notes"
	StepReviewSend       WizardStep = "review-send"
)

// wizardSteps fixes the linear order of the quote-creation flow.
var wizardSteps = []WizardStep{
	StepCustomerInfo,
	StepProductSelection,
	StepLineItems,
	StepTermsNotes,
	StepReviewSend,
}

// QuoteForm is the data accumulated across wizard steps and handed to the
// completion callback on submit.
type QuoteForm struct {
	Customer      Customer   `json:"customer"`
	LineItems     []LineItem `json:"line_items"`
	DiscountTotal float64    `json:"discount_total"`
	TaxRate       float64    `json:"tax_rate"`
	ShippingTotal float64    `json:"shipping_total"`
	Currency      string     `json:"currency"`
	ValidUntil    *time.Time `json:"valid_until,omitempty"`
	Terms         string     `json:"terms,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// Wizard drives the five-step quote-creation flow. It is owned by a single
// editing session; no cross-session sharing is supported.
type Wizard struct {
	form      QuoteForm
	current   int
	completed map[WizardStep]bool
	submitted bool
}

func NewWizard() *Wizard {
	return &Wizard{
		completed: make(map[WizardStep]bool),
	}
}

func (w *Wizard) Step() WizardStep {
	return wizardSteps[w.current]
}

// Form exposes the accumulated form data for mutation between transitions.
func (w *Wizard) Form() *QuoteForm {
	return &w.form
}

func (w *Wizard) Completed(step WizardStep) bool {
	return w.completed[step]
}

func (w *Wizard) Submitted() bool {
	return w.submitted
}

func (w *Wizard) validateStep(step WizardStep) FieldErrors {
	switch step {
	case StepCustomerInfo:
		return ValidateCustomer(w.form.Customer)
	case StepLineItems:
		return ValidateLineItems(w.form.LineItems)
	case StepReviewSend:
		return ValidateQuoteForm(w.form)
	default:
		// product-selection and terms-notes carry no gating validation.
		return FieldErrors{}
	}
}

// Next validates the current step and, on success, marks it completed and
// advances. At the last step it only marks completion. A non-empty return
// means the wizard did not move.
func (w *Wizard) Next() FieldErrors {
	step := w.Step()
	if errs := w.validateStep(step); len(errs) > 0 {
		return errs
	}
	w.completed[step] = true
	if w.current < len(wizardSteps)-1 {
		w.current++
	}
	return nil
}

// Previous steps back without re-validating. No-op at the first step.
func (w *Wizard) Previous() {
	if w.current > 0 {
		w.current--
	}
}

// GoTo jumps to target when it lies at or before the current step, or has
// already been completed. It reports whether the wizard moved.
func (w *Wizard) GoTo(target WizardStep) bool {
	idx := stepIndex(target)
	if idx < 0 {
		return false
	}
	if idx > w.current && !w.completed[target] {
		return false
	}
	w.current = idx
	return true
}

// Submit re-validates the current step and hands the accumulated form to the
// completion callback. A callback failure is surfaced and leaves wizard state
// untouched; field errors are reported without invoking the callback at all.
func (w *Wizard) Submit(ctx context.Context, complete func(context.Context, QuoteForm) error) (FieldErrors, error) {
	if errs := w.validateStep(w.Step()); len(errs) > 0 {
		return errs, nil
	}
	if err := complete(ctx, w.form); err != nil {
		return nil, err
	}
	for _, step := range wizardSteps {
		w.completed[step] = true
	}
	w.submitted = true
	return nil, nil
}

func stepIndex(step WizardStep) int {
	for i, s := range wizardSteps {
		if s == step {
			return i
		}
	}
	return -1
}
