package store

import "errors"

// Sentinel errors for invariant violations. All are recoverable and
// caller-visible; the API layer matches them with errors.Is to render
// a specific message and status code.
var (
	// ErrNotFound is returned by mutating operations whose target row
	// does not exist (getters return nil instead).
	ErrNotFound = errors.New("not found")

	// ErrExpeditionCompleted rejects enrollment and allocation against
	// a completed expedition. Consumption and settlement stay open.
	ErrExpeditionCompleted = errors.New("expedition is completed")

	// ErrDuplicatePirateName rejects a pseudonym already used in the
	// expedition.
	ErrDuplicatePirateName = errors.New("pirate name already taken in this expedition")

	// ErrDuplicateIdentity rejects enrolling the same real identity
	// twice in one expedition.
	ErrDuplicateIdentity = errors.New("identity already enrolled in this expedition")

	// ErrDuplicateItemCode rejects an item code already used in the
	// expedition.
	ErrDuplicateItemCode = errors.New("item code already taken in this expedition")

	// ErrNameGenerationExhausted is returned when random pseudonym
	// generation keeps colliding with existing names.
	ErrNameGenerationExhausted = errors.New("could not generate a unique name")

	// ErrNegativeQuantity rejects a negative required quantity.
	ErrNegativeQuantity = errors.New("quantity must not be negative")

	// ErrNonPositiveQuantity rejects a zero or negative quantity for
	// allocation and consumption.
	ErrNonPositiveQuantity = errors.New("quantity must be positive")

	// ErrOverAllocation rejects an allocation that would push the sum
	// of assigned quantities past the item's required quantity.
	ErrOverAllocation = errors.New("not enough remaining quantity")

	// ErrOverConsumption rejects consumption past the assigned quantity.
	ErrOverConsumption = errors.New("consumption exceeds assigned quantity")

	// ErrCannotCancelConsumed rejects cancelling an assignment that has
	// already recorded consumption.
	ErrCannotCancelConsumed = errors.New("cannot cancel an assignment with recorded consumption")

	// ErrCannotCancelPaid rejects cancelling an assignment that has
	// completed payments against it.
	ErrCannotCancelPaid = errors.New("cannot cancel an assignment with payments")

	// ErrNonPositiveAmount rejects a zero or negative payment amount.
	ErrNonPositiveAmount = errors.New("payment amount must be positive")

	// ErrPaymentExceedsDebt rejects a payment larger than the remaining
	// debt on the assignment.
	ErrPaymentExceedsDebt = errors.New("payment exceeds remaining debt")

	// ErrPirateHasObligations rejects removing a pirate who still has
	// unconsumed allocation or unpaid debt.
	ErrPirateHasObligations = errors.New("pirate still has open assignments or debt")

	// ErrExpeditionNotEmpty rejects importing into an expedition that
	// already contains pirates or items.
	ErrExpeditionNotEmpty = errors.New("target expedition is not empty")

	// ErrInvalidExport rejects an import blob that does not decode or
	// references records inconsistently.
	ErrInvalidExport = errors.New("invalid export blob")
)
