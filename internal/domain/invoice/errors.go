package invoice

import "errors"

var (
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrDuplicateInvoice = errors.New("the appointment already has an invoice")
)
