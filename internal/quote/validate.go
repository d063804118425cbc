package quote

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// phonePattern permits digits, spaces and the symbols +-().
var phonePattern = regexp.MustCompile(`^[0-9+\-(). ]+$`)

// FieldErrors maps a field path such as "line_items[2].quantity" to the
// messages for that field. An empty map signals a valid input.
type FieldErrors map[string][]string

func (fe FieldErrors) add(field, message string) {
	fe[field] = append(fe[field], message)
}

// ValidationError carries field-level messages for an invalid quote input.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("quote validation failed (%d fields)", len(e.Fields))
}

// ValidateCustomer checks the customer block of a quote form.
func ValidateCustomer(c Customer) FieldErrors {
	errs := FieldErrors{}

	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, ve := range verrs {
				switch ve.Field() {
				case "Name":
					errs.add("customer.name", "name is required and must be at least 2 characters")
				case "Email":
					errs.add("customer.email", "a valid email address is required")
				}
			}
		} else {
			errs.add("customer", err.Error())
		}
	}

	if c.Phone != "" && !phonePattern.MatchString(c.Phone) {
		errs.add("customer.phone", "phone may contain only digits, spaces and + - ( ) .")
	}

	return errs
}

// ValidateLineItems checks that a quote has at least one well-formed line item.
func ValidateLineItems(items []LineItem) FieldErrors {
	errs := FieldErrors{}

	if len(items) == 0 {
		errs.add("line_items", "at least one line item is required")
		return errs
	}

	for i, item := range items {
		if item.Name == "" {
			errs.add(fmt.Sprintf("line_items[%d].name", i), "name is required")
		}
		if item.Quantity <= 0 {
			errs.add(fmt.Sprintf("line_items[%d].quantity", i), "quantity must be greater than zero")
		}
		if item.UnitPrice < 0 {
			errs.add(fmt.Sprintf("line_items[%d].unit_price", i), "unit price cannot be negative")
		}
	}

	return errs
}

// ValidateQuoteForm runs full pre-persistence validation: customer and line
// items together.
func ValidateQuoteForm(form QuoteForm) FieldErrors {
	errs := ValidateCustomer(form.Customer)
	for field, messages := range ValidateLineItems(form.LineItems) {
		errs[field] = append(errs[field], messages...)
	}
	return errs
}
