package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"PoolProPlatform/internal/domain"
	"PoolProPlatform/internal/llm"
	"PoolProPlatform/internal/repository"
	apperrors "PoolProPlatform/pkg/errors"
	"PoolProPlatform/pkg/logger"
	"PoolProPlatform/pkg/metrics"
)

// symptomsSummaryLimit максимум символов симптомов в сводке плана
const symptomsSummaryLimit = 200

// DiagnoseInput входные данные диагностики бассейна
type DiagnoseInput struct {
	Symptoms string               `json:"symptoms"`
	Context  *llm.DiagnoseContext `json:"context"`
}

// DiagnoseResult ответ диагностики
type DiagnoseResult struct {
	Plan              *llm.Plan `json:"plan"`
	Source            string    `json:"source"`
	Warning           string    `json:"warning,omitempty"`
	SafetyAdjustments []string  `json:"safetyAdjustments"`
	SavedPlanID       string    `json:"savedPlanId"`
}

// DiagnoseService интерфейс диагностики и работы с планами лечения
type DiagnoseService interface {
	Diagnose(ctx context.Context, userID, poolID string, input DiagnoseInput) (*DiagnoseResult, error)
	RepeatPlan(ctx context.Context, userID, planID string) (*domain.TreatmentPlan, error)
}

// diagnoseService реализация DiagnoseService.
// Конвейер: генерация -> валидация формы -> проверки безопасности -> сохранение
type diagnoseService struct {
	poolRepository repository.PoolRepository
	waterTestRepo  repository.WaterTestRepository
	planRepository repository.TreatmentPlanRepository
	producer       llm.Producer
	enforcer       *llm.Enforcer
	collector      *metrics.Metrics
	timeout        time.Duration
	log            logger.Logger
}

// NewDiagnoseService создает новый экземпляр DiagnoseService
func NewDiagnoseService(
	poolRepository repository.PoolRepository,
	waterTestRepo repository.WaterTestRepository,
	planRepository repository.TreatmentPlanRepository,
	producer llm.Producer,
	enforcer *llm.Enforcer,
	collector *metrics.Metrics,
	timeout time.Duration,
	log logger.Logger,
) DiagnoseService {
	return &diagnoseService{
		poolRepository: poolRepository,
		waterTestRepo:  waterTestRepo,
		planRepository: planRepository,
		producer:       producer,
		enforcer:       enforcer,
		collector:      collector,
		timeout:        timeout,
		log:            log,
	}
}

// Diagnose выполняет полный конвейер диагностики бассейна
func (s *diagnoseService) Diagnose(ctx context.Context, userID, poolID string, input DiagnoseInput) (*DiagnoseResult, error) {
	pool, err := s.poolRepository.FindByID(ctx, poolID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, "pool not found")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to find pool")
	}

	// Контекст запроса дополняется полями бассейна
	diagCtx := llm.DiagnoseContext{}
	if input.Context != nil {
		diagCtx = *input.Context
	}
	if diagCtx.PoolVolumeGallons == nil && pool.VolumeGallons > 0 {
		volume := pool.VolumeGallons
		diagCtx.PoolVolumeGallons = &volume
	}
	if diagCtx.SurfaceType == "" {
		diagCtx.SurfaceType = pool.SurfaceType
	}
	if diagCtx.SanitizerType == "" {
		diagCtx.SanitizerType = pool.SanitizerType
	}
	// Явно переданное значение сохраняется, включая false
	if diagCtx.IsSalt == nil {
		isSalt := pool.IsSalt
		diagCtx.IsSalt = &isSalt
	}

	// Последний замер: привязка плана и показание FC для проверки доз
	var latestTestID *string
	latestTest, err := s.waterTestRepo.FindLatestByPool(ctx, poolID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to find latest water test")
	}
	if latestTest != nil {
		latestTestID = &latestTest.ID
		if diagCtx.LatestTest == nil {
			diagCtx.LatestTest = &llm.LatestTest{
				FC:    latestTest.FC,
				CC:    latestTest.CC,
				PH:    latestTest.PH,
				TA:    latestTest.TA,
				CH:    latestTest.CH,
				CYA:   latestTest.CYA,
				Salt:  latestTest.Salt,
				TempF: latestTest.TempF,
			}
		}
	}

	produceCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.producer.Produce(produceCtx, llm.DiagnoseRequest{
		PoolID:   poolID,
		Symptoms: input.Symptoms,
		Context:  diagCtx,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUpstreamFailed, "diagnose upstream request failed")
	}

	// Граница доверия: план проверяется до любых дальнейших действий
	if err := result.Plan.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUpstreamInvalid, "diagnose upstream returned invalid plan")
	}

	safetyCtx := llm.SafetyContext{PoolVolumeGallons: diagCtx.PoolVolumeGallons}
	if diagCtx.LatestTest != nil {
		safetyCtx.LatestFC = diagCtx.LatestTest.FC
	}
	warnings, err := s.enforcer.Enforce(result.Plan, safetyCtx)
	if err != nil {
		return nil, err
	}

	s.collector.DiagnoseRequests.WithLabelValues(result.Source).Inc()
	s.collector.SafetyAdjustments.Add(float64(len(warnings)))

	summary := fmt.Sprintf("Diagnose request. source=%s symptoms=%s", result.Source, truncate(input.Symptoms, symptomsSummaryLimit))
	saved := &domain.TreatmentPlan{
		ID:                  uuid.New().String(),
		PoolID:              poolID,
		WaterTestID:         latestTestID,
		Source:              result.Source,
		Diagnosis:           result.Plan.Diagnosis,
		Confidence:          result.Plan.Confidence,
		Steps:               result.Plan.Steps,
		ChemicalAdditions:   result.Plan.ChemicalAdditions,
		SafetyNotes:         result.Plan.SafetyNotes,
		RetestInHours:       result.Plan.RetestInHours,
		WhenToCallPro:       result.Plan.WhenToCallPro,
		ConversationSummary: summary,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.planRepository.Create(ctx, saved); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to save treatment plan")
	}

	s.log.Info("Diagnose completed",
		logger.String("pool_id", poolID),
		logger.String("source", result.Source),
		logger.Int("safety_adjustments", len(warnings)),
		logger.String("plan_id", saved.ID))

	return &DiagnoseResult{
		Plan:              result.Plan,
		Source:            result.Source,
		Warning:           result.Warning,
		SafetyAdjustments: warnings,
		SavedPlanID:       saved.ID,
	}, nil
}

// RepeatPlan создает новую неизменяемую копию исторического плана
func (s *diagnoseService) RepeatPlan(ctx context.Context, userID, planID string) (*domain.TreatmentPlan, error) {
	plan, err := s.planRepository.FindByID(ctx, planID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, "plan not found")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to find treatment plan")
	}

	repeated := &domain.TreatmentPlan{
		ID:                  uuid.New().String(),
		PoolID:              plan.PoolID,
		WaterTestID:         plan.WaterTestID,
		Source:              plan.Source,
		Diagnosis:           plan.Diagnosis,
		Confidence:          plan.Confidence,
		Steps:               plan.Steps,
		ChemicalAdditions:   plan.ChemicalAdditions,
		SafetyNotes:         plan.SafetyNotes,
		RetestInHours:       plan.RetestInHours,
		WhenToCallPro:       plan.WhenToCallPro,
		ConversationSummary: fmt.Sprintf("Repeated plan from %s", plan.CreatedAt.UTC().Format(time.RFC3339)),
		CreatedAt:           time.Now().UTC(),
	}

	if err := s.planRepository.Create(ctx, repeated); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to save repeated plan")
	}

	return repeated, nil
}

// truncate обрезает строку до максимальной длины в байтах,
// не разрезая многобайтовые руны
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for i := max; i > 0; i-- {
		if utf8.RuneStart(s[i]) {
			return s[:i]
		}
	}
	return ""
}
