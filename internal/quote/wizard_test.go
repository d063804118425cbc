package quote_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotegen/quote-service/internal/quote"
)

func validCustomer() quote.Customer {
	return quote.Customer{Name: "Acme Corp", Email: "buyer@acme.example"}
}

func validItems() []quote.LineItem {
	return []quote.LineItem{{Name: "Widget", Quantity: 2, UnitPrice: 100}}
}

// advance a fresh wizard through the given number of steps with valid data.
func advancedWizard(t *testing.T, steps int) *quote.Wizard {
	t.Helper()
	w := quote.NewWizard()
	w.Form().Customer = validCustomer()
	w.Form().LineItems = validItems()
	for i := 0; i < steps; i++ {
		require.Empty(t, w.Next())
	}
	return w
}

func TestWizard_StartsAtCustomerInfo(t *testing.T) {
	w := quote.NewWizard()
	assert.Equal(t, quote.StepCustomerInfo, w.Step())
	assert.False(t, w.Submitted())
}

func TestWizard_NextBlockedByValidation(t *testing.T) {
	w := quote.NewWizard()

	errs := w.Next()
	assert.NotEmpty(t, errs)
	assert.Equal(t, quote.StepCustomerInfo, w.Step())
	assert.False(t, w.Completed(quote.StepCustomerInfo))

	w.Form().Customer = validCustomer()
	assert.Empty(t, w.Next())
	assert.Equal(t, quote.StepProductSelection, w.Step())
	assert.True(t, w.Completed(quote.StepCustomerInfo))
}

func TestWizard_LineItemsStepValidates(t *testing.T) {
	w := quote.NewWizard()
	w.Form().Customer = validCustomer()
	require.Empty(t, w.Next()) // customer-info
	require.Empty(t, w.Next()) // product-selection

	assert.Equal(t, quote.StepLineItems, w.Step())
	assert.NotEmpty(t, w.Next(), "line-items step should not advance without items")

	w.Form().LineItems = validItems()
	assert.Empty(t, w.Next())
	assert.Equal(t, quote.StepTermsNotes, w.Step())
}

func TestWizard_NextIsNoOpAtLastStep(t *testing.T) {
	w := advancedWizard(t, 4)
	require.Equal(t, quote.StepReviewSend, w.Step())

	assert.Empty(t, w.Next())
	assert.Equal(t, quote.StepReviewSend, w.Step())
	assert.True(t, w.Completed(quote.StepReviewSend))
}

func TestWizard_Previous(t *testing.T) {
	w := advancedWizard(t, 2)
	require.Equal(t, quote.StepLineItems, w.Step())

	w.Previous()
	assert.Equal(t, quote.StepProductSelection, w.Step())

	w.Previous()
	w.Previous() // already at the first step
	assert.Equal(t, quote.StepCustomerInfo, w.Step())
}

func TestWizard_GoTo(t *testing.T) {
	t.Run("forward_jump_blocked_without_completion", func(t *testing.T) {
		w := quote.NewWizard()
		assert.False(t, w.GoTo(quote.StepReviewSend))
		assert.Equal(t, quote.StepCustomerInfo, w.Step())
	})

	t.Run("backward_jump_always_allowed", func(t *testing.T) {
		w := advancedWizard(t, 3)
		assert.True(t, w.GoTo(quote.StepCustomerInfo))
		assert.Equal(t, quote.StepCustomerInfo, w.Step())
	})

	t.Run("forward_jump_to_completed_step_allowed", func(t *testing.T) {
		w := advancedWizard(t, 3)
		require.True(t, w.GoTo(quote.StepCustomerInfo))

		assert.True(t, w.GoTo(quote.StepLineItems))
		assert.Equal(t, quote.StepLineItems, w.Step())
	})

	t.Run("unknown_step_rejected", func(t *testing.T) {
		w := quote.NewWizard()
		assert.False(t, w.GoTo("checkout"))
	})
}

func TestWizard_Submit(t *testing.T) {
	t.Run("success_marks_all_completed", func(t *testing.T) {
		w := advancedWizard(t, 4)

		var got quote.QuoteForm
		fieldErrs, err := w.Submit(context.Background(), func(ctx context.Context, form quote.QuoteForm) error {
			got = form
			return nil
		})
		assert.Empty(t, fieldErrs)
		assert.NoError(t, err)
		assert.True(t, w.Submitted())
		assert.Equal(t, validCustomer(), got.Customer)
		for _, step := range []quote.WizardStep{
			quote.StepCustomerInfo,
			quote.StepProductSelection,
			quote.StepLineItems,
			quote.StepTermsNotes,
			quote.StepReviewSend,
		} {
			assert.True(t, w.Completed(step), "step %s", step)
		}
	})

	t.Run("validation_failure_skips_callback", func(t *testing.T) {
		w := quote.NewWizard()
		called := false
		fieldErrs, err := w.Submit(context.Background(), func(ctx context.Context, form quote.QuoteForm) error {
			called = true
			return nil
		})
		assert.NotEmpty(t, fieldErrs)
		assert.NoError(t, err)
		assert.False(t, called)
		assert.False(t, w.Submitted())
	})

	t.Run("callback_failure_leaves_state_unchanged", func(t *testing.T) {
		w := advancedWizard(t, 4)
		wantErr := errors.New("storage down")

		fieldErrs, err := w.Submit(context.Background(), func(ctx context.Context, form quote.QuoteForm) error {
			return wantErr
		})
		assert.Empty(t, fieldErrs)
		assert.ErrorIs(t, err, wantErr)
		assert.False(t, w.Submitted())
		assert.Equal(t, quote.StepReviewSend, w.Step())
	})
}
