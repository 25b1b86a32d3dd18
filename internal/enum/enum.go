package enum

// ── State machines (CHECK constrained in DB) ──

const (
	ReconciliationStatusPending    = "PENDING"
	ReconciliationStatusReconciled = "RECONCILED"
)

// ── Ledger classifiers (CHECK constrained in DB) ──

const (
	LoadTypeInitial = "INITIAL"
	LoadTypeReload  = "RELOAD"
)

const (
	PaymentTypeCash   = "CASH"
	PaymentTypeDebit  = "DEBIT"
	PaymentTypeCredit = "CREDIT"
)

// Only SALE items carry monetary value. GIVEAWAY and INTERNAL_USE are
// zero-value but still consume loaded inventory in reconciliation.
const (
	TransactionTypeSale        = "SALE"
	TransactionTypeGiveaway    = "GIVEAWAY"
	TransactionTypeInternalUse = "INTERNAL_USE"
)

// ── Roles ──

const (
	UserRoleAdmin       = "ADMIN"
	UserRoleAreaManager = "AREA_MANAGER"
	UserRoleDriver      = "DRIVER"
)
