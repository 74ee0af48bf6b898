package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"carrental/internal/entities"
	"carrental/internal/logger"
	"carrental/internal/metrics"
	"carrental/internal/repository"
)

const (
	flowDirect   = "direct"
	flowPayFirst = "pay_first"
	flowConfirm  = "payment_confirmed"

	unknownReservationID = "unknown"
	defaultCurrency      = "eur"
)

var (
	ErrReservationNotRecorded = errors.New("could not record reservation")
	ErrPaymentUnavailable     = errors.New("could not create payment")
)

// ReservationService ties the store, the contract generator, the payment
// gateway and the notification channels together.
type ReservationService struct {
	repo       repository.ReservationRepository
	validator  *ReservationValidator
	contracts  *ContractService
	dispatcher *NotificationDispatcher
	payments   PaymentGateway
	log        *logger.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	newID      func() string
}

func NewReservationService(
	repo repository.ReservationRepository,
	validator *ReservationValidator,
	contracts *ContractService,
	dispatcher *NotificationDispatcher,
	payments PaymentGateway,
	log *logger.Logger,
	m *metrics.Metrics,
) *ReservationService {
	return &ReservationService{
		repo:       repo,
		validator:  validator,
		contracts:  contracts,
		dispatcher: dispatcher,
		payments:   payments,
		log:        log,
		metrics:    m,
		tracer:     otel.Tracer("carrental/service"),
		newID:      uuid.NewString,
	}
}

// Submit records the reservation, renders its contract and notifies every
// channel. Notification failures are logged and do not fail the call. A
// reservation whose contract cannot be rendered is not kept.
func (s *ReservationService) Submit(ctx context.Context, req entities.SubmitRequest) (string, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "reservation.submit")
	defer span.End()

	if err := s.validator.Validate(req.Reservation); err != nil {
		s.metrics.Reservations.WithLabelValues(flowDirect, "rejected").Inc()
		return "", err
	}

	id := s.newID()
	span.SetAttributes(attribute.String("reservation.id", id))

	stored := &entities.StoredReservation{
		ID:           id,
		Status:       entities.StatusSubmitted,
		Reservation:  req.Reservation,
		LicenseFront: req.LicenseFront,
		LicenseBack:  req.LicenseBack,
	}
	if err := s.repo.Put(ctx, stored); err != nil {
		return "", s.fail(span, flowDirect, id, start, "store reservation", err)
	}
	s.refreshStoreGauge(ctx)
	s.log.Info("Reservation stored", "reservation_id", id, "has_license_images", !req.LicenseFront.Empty() && !req.LicenseBack.Empty())

	contract, err := s.contracts.Render(req.Reservation, id)
	if err != nil {
		if delErr := s.repo.Delete(ctx, id); delErr != nil {
			s.log.Warn("Could not remove reservation after contract failure", "reservation_id", id, "error", delErr)
		}
		s.refreshStoreGauge(ctx)
		return "", s.fail(span, flowDirect, id, start, "render contract", err)
	}
	s.log.Info("Contract rendered", "reservation_id", id, "file_name", contract.FileName)

	report := s.dispatcher.Dispatch(ctx, Notification{
		ReservationID: id,
		Reservation:   req.Reservation,
		Contract:      contract,
		LicenseFront:  req.LicenseFront,
		LicenseBack:   req.LicenseBack,
	})

	s.metrics.Reservations.WithLabelValues(flowDirect, metrics.OutcomeSuccess).Inc()
	s.log.Info("Reservation submitted",
		"reservation_id", id,
		"notifications_delivered", report.Delivered(),
		"notifications_failed", report.Failed(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return id, nil
}

// StartPayment records the reservation as awaiting payment and creates the
// payment authorization the browser completes. The entry keeps the
// authorization id and is removed again when it cannot be created.
func (s *ReservationService) StartPayment(ctx context.Context, req entities.SubmitRequest) (*entities.PaymentHandle, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "reservation.start_payment")
	defer span.End()

	if err := s.validator.Validate(req.Reservation); err != nil {
		s.metrics.Reservations.WithLabelValues(flowPayFirst, "rejected").Inc()
		return nil, err
	}
	if err := CheckAmountBounds(req.Reservation); err != nil {
		s.metrics.Reservations.WithLabelValues(flowPayFirst, "rejected").Inc()
		return nil, err
	}

	id := s.newID()
	span.SetAttributes(attribute.String("reservation.id", id))

	stored := &entities.StoredReservation{
		ID:           id,
		Status:       entities.StatusAwaitingPayment,
		Reservation:  req.Reservation,
		LicenseFront: req.LicenseFront,
		LicenseBack:  req.LicenseBack,
	}
	if err := s.repo.Put(ctx, stored); err != nil {
		return nil, s.fail(span, flowPayFirst, id, start, "store reservation", err)
	}

	res := req.Reservation
	handle, err := s.payments.CreatePaymentIntent(ctx, entities.PaymentIntentRequest{
		ReservationID: id,
		Amount:        res.Amount,
		Currency:      res.Currency,
		CustomerEmail: res.Email,
		CustomerName:  res.FullName(),
		Description:   fmt.Sprintf("Car rental %s to %s", res.StartDate, res.EndDate),
	})
	if err != nil {
		if delErr := s.repo.Delete(ctx, id); delErr != nil {
			s.log.Warn("Could not remove reservation after payment failure", "reservation_id", id, "error", delErr)
		}
		s.metrics.UpstreamFailures.WithLabelValues("payment").Inc()
		s.metrics.Reservations.WithLabelValues(flowPayFirst, metrics.OutcomeFailure).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "create payment intent")
		s.log.Error("Payment intent creation failed",
			"reservation_id", id,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
	}
	stored.PaymentIntentID = handle.PaymentIntentID
	if err := s.repo.Put(ctx, stored); err != nil {
		s.log.Warn("Could not record payment intent on reservation", "reservation_id", id, "error", err)
	}
	s.refreshStoreGauge(ctx)

	s.metrics.Reservations.WithLabelValues(flowPayFirst, metrics.OutcomeSuccess).Inc()
	s.log.Info("Payment started",
		"reservation_id", id,
		"payment_intent_id", handle.PaymentIntentID,
		"amount", res.Amount,
		"currency", res.Currency,
	)
	return handle, nil
}

// ConfirmPayment finishes the pay-first flow for a verified processor event.
// It never fails: the processor must always get an acknowledgement.
func (s *ReservationService) ConfirmPayment(ctx context.Context, event entities.PaymentEvent) DispatchReport {
	if event.Type != entities.EventPaymentSucceeded {
		s.log.Debug("Ignoring payment event", "event_id", event.EventID, "type", event.Type)
		return DispatchReport{}
	}

	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "reservation.confirm_payment")
	defer span.End()

	id := event.ReservationID
	if id == "" {
		id = unknownReservationID
	}
	span.SetAttributes(attribute.String("reservation.id", id))

	n := Notification{ReservationID: id}
	stored, err := s.repo.Get(ctx, id)
	switch {
	case err == nil:
		n.Reservation = stored.Reservation
		n.LicenseFront = stored.LicenseFront
		n.LicenseBack = stored.LicenseBack
	case errors.Is(err, repository.ErrReservationNotFound):
		s.log.Warn("Stored reservation missing, rebuilding from payment metadata", "reservation_id", id)
		n.Reservation = reservationFromEvent(event)
	default:
		s.log.Error("Could not load stored reservation", "reservation_id", id, "error", err)
		n.Reservation = reservationFromEvent(event)
	}

	contract, err := s.contracts.Render(n.Reservation, id)
	if err != nil {
		span.RecordError(err)
		s.log.Error("Contract rendering failed", "reservation_id", id, "error", err)
	} else {
		n.Contract = contract
	}

	report := s.dispatcher.Dispatch(ctx, n)

	if stored != nil {
		if err := s.repo.Delete(ctx, id); err != nil {
			s.log.Warn("Could not evict reservation", "reservation_id", id, "error", err)
		}
		s.refreshStoreGauge(ctx)
	}

	s.metrics.Reservations.WithLabelValues(flowConfirm, metrics.OutcomeSuccess).Inc()
	s.log.Info("Payment confirmed",
		"reservation_id", id,
		"payment_intent_id", event.PaymentIntentID,
		"from_store", stored != nil,
		"notifications_delivered", report.Delivered(),
		"notifications_failed", report.Failed(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report
}

func (s *ReservationService) Get(ctx context.Context, id string) (*entities.StoredReservation, error) {
	return s.repo.Get(ctx, id)
}

func (s *ReservationService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.refreshStoreGauge(ctx)
	return nil
}

func (s *ReservationService) fail(span trace.Span, flow, id string, start time.Time, step string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, step)
	s.metrics.Reservations.WithLabelValues(flow, metrics.OutcomeFailure).Inc()
	s.log.Error("Reservation failed",
		"reservation_id", id,
		"step", step,
		"error", err,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return fmt.Errorf("%w: %s: %v", ErrReservationNotRecorded, step, err)
}

func (s *ReservationService) refreshStoreGauge(ctx context.Context) {
	if n, err := s.repo.Len(ctx); err == nil {
		s.metrics.StoreEntries.Set(float64(n))
	}
}

// reservationFromEvent rebuilds the little the payment metadata knows about
// the renter.
func reservationFromEvent(event entities.PaymentEvent) entities.Reservation {
	first, last := splitName(event.CustomerName)
	currency := event.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	return entities.Reservation{
		FirstName: first,
		LastName:  last,
		Email:     event.CustomerEmail,
		Amount:    event.Amount,
		Currency:  currency,
	}
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
