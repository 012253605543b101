package services

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fulfillment/internal/identity"
	"fulfillment/internal/ledger"
	"fulfillment/internal/models"
	"fulfillment/internal/repository"
)

type PaymentService interface {
	// ConfirmPayment appends a successful attempt to the ledger and sets the
	// order (and every sub-order) to paid, atomically. The two must never
	// diverge.
	ConfirmPayment(orderID uint, input ConfirmPaymentInput, actor identity.Actor) error
	ViewPayments(orderID uint, actor identity.Actor) ([]ledger.Entry, error)
}

// ConfirmPaymentInput is a manual (offline) payment confirmation. Required
// fields depend on the mode: Bank Transfer needs a transaction reference and
// sender bank, Cash a collector name, Cheque a cheque number and issuing bank.
type ConfirmPaymentInput struct {
	PaymentMode   string
	TransactionID string
	SessionID     string
	Amount        *decimal.Decimal
	Currency      string
	Notes         string

	SenderBank    string
	CollectorName string
	ChequeNumber  string
	ChequeBank    string
}

func (in ConfirmPaymentInput) validate() error {
	switch in.PaymentMode {
	case ledger.ModeBankTransfer:
		if in.TransactionID == "" {
			return validationError("transaction_id", "required for a bank transfer")
		}
		if in.SenderBank == "" {
			return validationError("sender_bank", "required for a bank transfer")
		}
	case ledger.ModeCash:
		if in.CollectorName == "" {
			return validationError("collector_name", "required for a cash payment")
		}
	case ledger.ModeCheque:
		if in.ChequeNumber == "" {
			return validationError("cheque_number", "required for a cheque payment")
		}
		if in.ChequeBank == "" {
			return validationError("cheque_bank", "required for a cheque payment")
		}
	case "":
		return validationError("payment_mode", "required")
	default:
		return validationError("payment_mode", "unknown payment mode")
	}
	return nil
}

func (in ConfirmPaymentInput) entry(now time.Time) ledger.Entry {
	return ledger.Entry{
		ID:            uuid.NewString(),
		PaymentMode:   in.PaymentMode,
		TransactionID: in.TransactionID,
		SessionID:     in.SessionID,
		ManualEntry:   true,
		Timestamp:     &now,
		PaymentStatus: ledger.StatusPaid,
		AmountTotal:   in.Amount,
		Currency:      in.Currency,
		Notes:         in.Notes,
		OfflineDetails: &ledger.OfflineDetails{
			SenderBank:    in.SenderBank,
			CollectorName: in.CollectorName,
			ChequeNumber:  in.ChequeNumber,
			ChequeBank:    in.ChequeBank,
		},
	}
}

type paymentService struct {
	repo  repository.OrderRepository
	cache ViewCache
}

func NewPaymentService(repo repository.OrderRepository, cache ViewCache) PaymentService {
	return &paymentService{repo: repo, cache: cache}
}

func (s *paymentService) ConfirmPayment(orderID uint, input ConfirmPaymentInput, actor identity.Actor) error {
	if actor.IsVendor() {
		return guardViolation("vendors cannot confirm payments")
	}
	if !actor.Can(identity.CapOrderManage) {
		return guardViolation("missing %q capability", identity.CapOrderManage)
	}
	if err := input.validate(); err != nil {
		return err
	}

	err := s.repo.Transaction(func(tx repository.OrderRepository) error {
		order, err := tx.LockByID(orderID)
		if err != nil {
			return err
		}

		updated, err := ledger.Append(order.TransactionDetails, input.entry(time.Now().UTC()))
		if err != nil {
			return err
		}
		order.TransactionDetails = updated
		order.Fulfillment.PaymentStatus = models.PaymentPaid
		if err := tx.Save(order); err != nil {
			return err
		}
		if !order.Grouped() {
			return tx.AppendHistory(unit{order: order}.historyEntry(input.Notes, actor.UserID))
		}
		// Payment is collected once for the whole order; the paid status fans
		// out identically to every sub-order.
		for i := range order.GroupedOrders {
			sub := &order.GroupedOrders[i]
			sub.Fulfillment.PaymentStatus = models.PaymentPaid
			if err := tx.SaveSubOrder(sub); err != nil {
				return err
			}
			if err := tx.AppendHistory(unit{order: order, sub: sub}.historyEntry(input.Notes, actor.UserID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateOrder(orderID); err != nil {
			log.Printf("cache: invalidate order %d: %v", orderID, err)
		}
		// Invoice generation is asynchronous in the billing system; leave a
		// short-lived hint so the dashboard re-fetches once it settles.
		if err := s.cache.ScheduleInvoiceRefresh(orderID); err != nil {
			log.Printf("cache: schedule invoice refresh for order %d: %v", orderID, err)
		}
	}
	return nil
}

func (s *paymentService) ViewPayments(orderID uint, actor identity.Actor) ([]ledger.Entry, error) {
	order, err := s.repo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	return ledger.View(order.TransactionDetails, actor.Role), nil
}
