package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/maua/florist-api/internal/entity"
	"github.com/maua/florist-api/internal/logging"
)

type DepositOutcome string

const (
	OutcomeProcessed   DepositOutcome = "processed"
	OutcomeUnmatched   DepositOutcome = "unmatched"
	OutcomeAlreadyPaid DepositOutcome = "already_paid"
)

type DepositResult struct {
	DepositID string
	OrderID   string
	Outcome   DepositOutcome
	Status    domain.Status
}

// maxCASAttempts bounds how often a webhook re-reads an order that was written
// concurrently before giving up with ErrConcurrentUpdate.
const maxCASAttempts = 3

type ReconcileDeposits struct {
	repo  OrderRepo
	cache OrderCache     // optional
	pub   EventPublisher // optional

	now func() time.Time
}

func NewReconcileDeposits(repo OrderRepo, cache OrderCache, pub EventPublisher) *ReconcileDeposits {
	return &ReconcileDeposits{repo: repo, cache: cache, pub: pub, now: time.Now}
}

// Execute applies every callback independently. Events that cannot be matched to
// an order are acknowledged without any write. The returned error joins the
// failures of individual events; results are still reported for the others.
func (uc *ReconcileDeposits) Execute(ctx context.Context, events []domain.DepositEvent) ([]DepositResult, error) {
	results := make([]DepositResult, 0, len(events))
	var errs []error
	for _, ev := range events {
		res, err := uc.apply(ctx, ev)
		if err != nil {
			errs = append(errs, fmt.Errorf("deposit %s: %w", ev.DepositID, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (uc *ReconcileDeposits) apply(ctx context.Context, ev domain.DepositEvent) (DepositResult, error) {
	log := logging.FromCtx(ctx).With("deposit_id", ev.DepositID, "pawapay_status", ev.Status)
	res := DepositResult{DepositID: ev.DepositID}

	if ev.DepositID == "" {
		log.Warn("webhook without deposit id")
		res.Outcome = OutcomeUnmatched
		return res, nil
	}

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		o, err := uc.repo.FindByDepositID(ctx, ev.DepositID)
		if errors.Is(err, ErrNotFound) {
			log.Warn("order not found for deposit")
			res.Outcome = OutcomeUnmatched
			return res, nil
		}
		if err != nil {
			return res, err
		}
		res.OrderID = o.ID

		tr := o.ApplyDepositEvent(ev, uc.now())
		res.Status = tr.To
		if tr.NoOp {
			log.Info("order already paid", "order_id", o.ID, "status", o.Status)
			res.Outcome = OutcomeAlreadyPaid
			return res, nil
		}

		ok, err := uc.repo.UpdatePaymentIf(ctx, o.ID, o.Version, tr.To, tr.Payment)
		if err != nil {
			return res, err
		}
		if !ok {
			log.Info("order changed during webhook, retrying", "order_id", o.ID, "attempt", attempt+1)
			continue
		}

		log.Info("order updated", "order_id", o.ID, "from", tr.From, "to", tr.To)
		uc.afterUpdate(ctx, o, tr)
		res.Outcome = OutcomeProcessed
		return res, nil
	}
	return res, ErrConcurrentUpdate
}

// afterUpdate is best-effort: the order row is the source of truth.
func (uc *ReconcileDeposits) afterUpdate(ctx context.Context, o *domain.Order, tr domain.Transition) {
	if uc.cache != nil {
		_ = uc.cache.SetStatus(ctx, o.ID, string(tr.To))
	}
	if uc.pub == nil || tr.From == tr.To {
		return
	}
	err := uc.pub.PublishPaymentStatus(ctx, PaymentStatusChangedMsg{
		OrderID:       o.ID,
		DepositID:     tr.Payment.DepositID,
		From:          string(tr.From),
		To:            string(tr.To),
		PawapayStatus: tr.Payment.PawapayStatus,
		FailCode:      tr.Payment.FailCode,
		PriceMatches:  o.PriceMatches(),
		At:            tr.Payment.LastWebhookDate,
	})
	if err != nil {
		logging.FromCtx(ctx).Error("publish payment status", "order_id", o.ID, "err", err)
	}
}
