package application

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	cadence "survey-cadence/internal/cadence/domain"
	evaluation "survey-cadence/internal/evaluation/domain"
	"survey-cadence/internal/eventing"
	"survey-cadence/internal/observability/metrics"
	observations "survey-cadence/internal/observations/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Service evaluates cadence metrics over stored observation batches.
type Service struct {
	visits   observations.VisitRepository
	results  evaluation.ResultRepository
	registry *evaluation.Registry
	seasons  cadence.SeasonStacker
	bus      eventing.EventBus
	clock    Clock
	tenantID string
	logger   *log.Logger
}

// ServiceOption customizes the evaluation service.
type ServiceOption func(*Service)

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithEventBus assigns an event bus for completion events.
func WithEventBus(bus eventing.EventBus) ServiceOption {
	return func(s *Service) {
		s.bus = bus
	}
}

// NewService constructs an evaluation service.
func NewService(visits observations.VisitRepository, results evaluation.ResultRepository, registry *evaluation.Registry, seasons cadence.SeasonStacker, tenantID string, logger *log.Logger, opts ...ServiceOption) (*Service, error) {
	if visits == nil {
		return nil, errors.New("evaluation: nil visit repository")
	}
	if results == nil {
		return nil, errors.New("evaluation: nil result repository")
	}
	if registry == nil {
		return nil, errors.New("evaluation: nil registry")
	}
	if tenantID == "" {
		return nil, errors.New("evaluation: empty tenant id")
	}
	if logger == nil {
		logger = log.Default()
	}
	service := &Service{
		visits:   visits,
		results:  results,
		registry: registry,
		seasons:  seasons,
		clock:    systemClock{},
		tenantID: tenantID,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// EvaluateField runs the named metric over a field's stored batch, persists
// the result, and publishes an EvaluationCompleted event.
func (s *Service) EvaluateField(ctx context.Context, tenantID, fieldID, metricName string) (*evaluation.Result, error) {
	if s == nil {
		return nil, errors.New("evaluation: nil service")
	}
	started := s.clock.Now()
	if tenantID == "" {
		tenantID = s.tenantID
	}

	def, err := s.registry.Resolve(metricName)
	if err != nil {
		metrics.ObserveEvaluation(metricName, "error", 0)
		return nil, err
	}

	batch, err := s.visits.ListByField(ctx, tenantID, fieldID)
	if err != nil {
		metrics.ObserveEvaluation(metricName, "error", time.Since(started))
		return nil, err
	}

	value, passed, err := s.run(def, batch)
	if err != nil {
		metrics.ObserveEvaluation(metricName, "error", time.Since(started))
		return nil, err
	}

	result := evaluation.Result{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		FieldID:     fieldID,
		MetricName:  def.Name,
		MetricKind:  def.Kind,
		Value:       value,
		Passed:      passed,
		VisitCount:  len(batch.Visits),
		Parameters:  def.Parameters(),
		EvaluatedAt: s.clock.Now(),
	}
	if err := s.results.Save(ctx, result); err != nil {
		metrics.ObserveEvaluation(metricName, "error", time.Since(started))
		return nil, err
	}
	metrics.ObserveEvaluation(metricName, "success", time.Since(started))

	if s.bus != nil {
		if err := s.bus.Publish(ctx, EvaluationCompleted{Result: result}); err != nil {
			s.logger.Printf("evaluation: publish completed event: %v", err)
		}
	}
	return &result, nil
}

// EvaluateAdHoc checks an inline list of visit times against inline
// window-criterion parameters. Nothing is stored; this is the bare
// single-window contract for callers that bring their own batch.
func (s *Service) EvaluateAdHoc(ctx context.Context, intervalLengthDays float64, minVisits, nPairs int, minPairGapDays float64, times []float64) (bool, error) {
	if s == nil {
		return false, errors.New("evaluation: nil service")
	}
	_ = ctx
	started := s.clock.Now()
	criterion, err := cadence.NewWindowCriterion(intervalLengthDays, minVisits, nPairs, minPairGapDays)
	if err != nil {
		metrics.ObserveEvaluation("ad-hoc", "error", 0)
		return false, err
	}
	passed := criterion.Evaluate(times)
	metrics.ObserveEvaluation("ad-hoc", "success", time.Since(started))
	return passed, nil
}

// ListResults returns stored results, optionally filtered by field and metric.
func (s *Service) ListResults(ctx context.Context, tenantID, fieldID, metricName string) ([]evaluation.Result, error) {
	if s == nil {
		return nil, errors.New("evaluation: nil service")
	}
	if tenantID == "" {
		tenantID = s.tenantID
	}
	return s.results.List(ctx, tenantID, fieldID, metricName)
}

// run dispatches a validated definition to the cadence domain.
func (s *Service) run(def evaluation.Definition, batch *observations.Batch) (value float64, passed bool, err error) {
	switch def.Kind {
	case evaluation.KindVisitsInInterval:
		criterion, err := cadence.NewWindowCriterion(def.IntervalLengthDays, def.MinVisits, def.NPairs, def.MinPairGapDays)
		if err != nil {
			return 0, false, err
		}
		ok := criterion.Evaluate(batch.Times())
		return boolValue(ok), ok, nil

	case evaluation.KindCampaignLength:
		raDeg, _, ok := batch.Coordinates()
		if !ok {
			return 0, false, observations.ErrFieldNotFound
		}
		seasons := s.seasons.Seasons(batch.Times(), raDeg)
		length := cadence.CampaignLength(seasons)
		minSeasons := def.MinSeasons
		if minSeasons <= 0 {
			minSeasons = 1
		}
		return float64(length), length >= minSeasons, nil

	case evaluation.KindGRBAfterglow:
		alpha := def.DecayIndex
		if alpha == 0 {
			alpha = cadence.DefaultAfterglowDecayIndex
		}
		mag := def.Mag1Min
		if mag == 0 {
			mag = cadence.DefaultAfterglowMag1Min
		}
		glow, err := cadence.NewGRBAfterglow(alpha, mag)
		if err != nil {
			return 0, false, err
		}
		times := batch.Times()
		if len(times) == 0 {
			return 0, false, observations.ErrFieldNotFound
		}
		burst := times[0] + def.BurstOffsetDays
		detections := glow.Detections(burst, times, batch.Depths())
		minDetections := def.MinDetections
		if minDetections <= 0 {
			minDetections = 1
		}
		return float64(detections), detections >= minDetections, nil

	case evaluation.KindFollowUp:
		limit := def.AirmassLimit
		if limit == 0 {
			limit = cadence.DefaultAirmassLimit
		}
		stacker, err := cadence.NewFollowUpStacker(def.MinApertureM, limit, def.TimeStepsHours)
		if err != nil {
			return 0, false, err
		}
		raDeg, decDeg, ok := batch.Coordinates()
		if !ok {
			return 0, false, observations.ErrFieldNotFound
		}
		counts := stacker.Counts(batch.Times(), raDeg, decDeg)
		worst := counts[0]
		for _, count := range counts[1:] {
			if count < worst {
				worst = count
			}
		}
		minFollowUps := def.MinFollowUps
		if minFollowUps <= 0 {
			minFollowUps = 1
		}
		return float64(worst), worst >= minFollowUps, nil
	}
	return 0, false, evaluation.ErrUnknownKind
}

func boolValue(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}
