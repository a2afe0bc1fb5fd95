package payment

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/domain"
)

const (
	transactionIDChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	transactionIDLength = 12
	defaultCurrency     = "INR"
)

// Status is the settlement state of a payment.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// IsValid returns true if the status is recognized.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed:
		return true
	}
	return false
}

// ParseStatus converts a string to a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", domain.NewValidationError(fmt.Sprintf("invalid payment status: %s", s))
	}
	return status, nil
}

var (
	ErrPaymentNotFound  = domain.NewCodedError(domain.KindNotFound, "PAYMENT_NOT_FOUND", "payment not found")
	ErrDuplicatePayment = domain.NewCodedError(domain.KindBusinessRule, "DUPLICATE_PAYMENT", "a payment already exists for this booking")
	ErrPaymentSettled   = domain.NewCodedError(domain.KindBusinessRule, "PAYMENT_SETTLED", "a successful payment cannot change status")
)

// NotFoundError returns ErrPaymentNotFound annotated with the id.
func NotFoundError(id int64) error {
	return ErrPaymentNotFound.WithDetail(fmt.Sprintf("id %d", id))
}

// Payment records the outcome of paying for one booking.
type Payment struct {
	ID        int64
	BookingID int64
	Amount    int64
	Currency  string
	Method    string
	// MethodRef is a method-specific handle, e.g. a UPI id.
	MethodRef     string
	Status        Status
	TransactionID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewPayment creates a pending payment for bookingID.
func NewPayment(bookingID, amount int64, currency, method, methodRef string) (*Payment, error) {
	if amount <= 0 {
		return nil, domain.NewValidationError("amount must be positive")
	}
	if method == "" {
		return nil, domain.NewValidationError("payment method is required")
	}
	if currency == "" {
		currency = defaultCurrency
	}

	now := time.Now().UTC()
	return &Payment{
		BookingID: bookingID,
		Amount:    amount,
		Currency:  strings.ToUpper(currency),
		Method:    method,
		MethodRef: methodRef,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Identity returns the payment id.
func (p *Payment) Identity() int64 { return p.ID }

// AssignIdentity sets the payment id.
func (p *Payment) AssignIdentity(id int64) { p.ID = id }

// Clone returns a copy that does not share the transaction id pointer.
func (p *Payment) Clone() *Payment {
	c := *p
	if p.TransactionID != nil {
		txn := *p.TransactionID
		c.TransactionID = &txn
	}
	return &c
}

// IsSettled reports whether the payment succeeded.
func (p *Payment) IsSettled() bool {
	return p.Status == StatusSuccess
}

// Settle marks the payment successful, assigning a transaction id if it has none.
func (p *Payment) Settle() error {
	if p.TransactionID == nil {
		txn, err := GenerateTransactionID()
		if err != nil {
			return err
		}
		p.TransactionID = &txn
	}
	p.Status = StatusSuccess
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// GenerateTransactionID creates an id in the format "TXN-XXXXXXXXXXXX".
func GenerateTransactionID() (string, error) {
	result := make([]byte, transactionIDLength)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(transactionIDChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate transaction id: %w", err)
		}
		result[i] = transactionIDChars[n.Int64()]
	}
	return "TXN-" + string(result), nil
}

// Patch is a partial update of a payment. Only the status and transaction id move.
type Patch struct {
	Status        *Status
	TransactionID *string
}

// Validate checks the patch values.
func (p Patch) Validate() error {
	if p.Status != nil && !p.Status.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid payment status: %s", *p.Status))
	}
	if p.TransactionID != nil && *p.TransactionID == "" {
		return domain.NewValidationError("transaction id cannot be empty")
	}
	return nil
}

// CheckTransition rejects moving a successful payment to any other status.
// The booking it settled is already paid.
func (p Patch) CheckTransition(prev Status) error {
	if p.Status != nil && prev == StatusSuccess && *p.Status != StatusSuccess {
		return ErrPaymentSettled.WithDetail(fmt.Sprintf("cannot move from %s to %s", prev, *p.Status))
	}
	return nil
}

// Settles reports whether applying the patch moves a payment in status prev to success.
func (p Patch) Settles(prev Status) bool {
	return p.Status != nil && *p.Status == StatusSuccess && prev != StatusSuccess
}

// Apply merges the patch into pay.
func (p Patch) Apply(pay *Payment) {
	if p.TransactionID != nil {
		txn := *p.TransactionID
		pay.TransactionID = &txn
	}
	if p.Status != nil {
		pay.Status = *p.Status
	}
	pay.UpdatedAt = time.Now().UTC()
}
