package service

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PoolProPlatform/internal/domain"
	"PoolProPlatform/internal/llm"
	apperrors "PoolProPlatform/pkg/errors"
	"PoolProPlatform/pkg/logger"
	"PoolProPlatform/pkg/metrics"
)

// fakeProducer возвращает заранее заданный результат генерации
type fakeProducer struct {
	result  *llm.PlanResult
	err     error
	lastReq llm.DiagnoseRequest
}

func (f *fakeProducer) Produce(_ context.Context, req llm.DiagnoseRequest) (*llm.PlanResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func producedPlan() *llm.Plan {
	return &llm.Plan{
		Diagnosis:  "Low free chlorine.",
		Confidence: "Medium",
		Steps:      []string{"Add chlorine conservatively"},
		ChemicalAdditions: []domain.ChemicalAddition{
			{Chemical: "liquid_chlorine_10pct", Amount: "32", Unit: "oz", Instructions: "Add half, circulate, retest."},
		},
		SafetyNotes:   []string{"Always retest before adding more."},
		RetestInHours: 4,
		WhenToCallPro: []string{"If cloudiness persists"},
	}
}

type diagnoseFixture struct {
	svc      DiagnoseService
	producer *fakeProducer
	plans    *fakeTreatmentPlanRepository
	tests    *fakeWaterTestRepository
	pool     *domain.Pool
}

func newDiagnoseFixture(t *testing.T) *diagnoseFixture {
	t.Helper()
	log, err := logger.NewLogger("test", "debug", "poolpro-test")
	require.NoError(t, err)

	customers := newFakeCustomerRepository()
	pools := newFakePoolRepository(customers)
	tests := newFakeWaterTestRepository()
	plans := newFakeTreatmentPlanRepository(pools)

	now := time.Now().UTC()
	customers.customers["cust-1"] = &domain.Customer{ID: "cust-1", UserID: "user-1", Name: "Smith", CreatedAt: now}
	pool := &domain.Pool{ID: "pool-1", CustomerID: "cust-1", Name: "Backyard", VolumeGallons: 15000, CreatedAt: now}
	pools.pools[pool.ID] = pool

	producer := &fakeProducer{result: &llm.PlanResult{Plan: producedPlan(), Source: domain.PlanSourceLLM}}
	svc := NewDiagnoseService(pools, tests, plans, producer, llm.NewEnforcer(log), metrics.NewMetrics("poolpro_test"), 5*time.Second, log)

	return &diagnoseFixture{svc: svc, producer: producer, plans: plans, tests: tests, pool: pool}
}

func TestDiagnoseService_PersistsEnforcedPlan(t *testing.T) {
	fx := newDiagnoseFixture(t)
	ctx := context.Background()

	result, err := fx.svc.Diagnose(ctx, "user-1", "pool-1", DiagnoseInput{Symptoms: "cloudy water"})

	require.NoError(t, err)
	assert.Equal(t, domain.PlanSourceLLM, result.Source)
	assert.NotEmpty(t, result.SavedPlanID)

	saved, ok := fx.plans.plans[result.SavedPlanID]
	require.True(t, ok)
	assert.Equal(t, "pool-1", saved.PoolID)
	assert.Contains(t, saved.ConversationSummary, "source=llm")
	assert.Contains(t, saved.ConversationSummary, "symptoms=cloudy water")
}

func TestDiagnoseService_MergesPoolContext(t *testing.T) {
	fx := newDiagnoseFixture(t)
	ctx := context.Background()

	fc := 1.0
	fx.tests.tests["wt-1"] = &domain.WaterTest{
		ID:       "wt-1",
		PoolID:   "pool-1",
		TestedAt: time.Now().UTC(),
		FC:       &fc,
	}

	result, err := fx.svc.Diagnose(ctx, "user-1", "pool-1", DiagnoseInput{Symptoms: "algae"})

	require.NoError(t, err)
	// Объем бассейна подставлен из записи
	require.NotNil(t, fx.producer.lastReq.Context.PoolVolumeGallons)
	assert.Equal(t, 15000.0, *fx.producer.lastReq.Context.PoolVolumeGallons)
	// Последний замер подставлен в контекст и привязан к плану
	require.NotNil(t, fx.producer.lastReq.Context.LatestTest)
	assert.Equal(t, &fc, fx.producer.lastReq.Context.LatestTest.FC)

	saved := fx.plans.plans[result.SavedPlanID]
	require.NotNil(t, saved.WaterTestID)
	assert.Equal(t, "wt-1", *saved.WaterTestID)
}

func TestDiagnoseService_ExplicitIsSaltPreserved(t *testing.T) {
	fx := newDiagnoseFixture(t)
	ctx := context.Background()
	fx.pool.IsSalt = true

	// Явно переданное false не перекрывается значением бассейна
	isSalt := false
	_, err := fx.svc.Diagnose(ctx, "user-1", "pool-1", DiagnoseInput{
		Symptoms: "algae",
		Context:  &llm.DiagnoseContext{IsSalt: &isSalt},
	})

	require.NoError(t, err)
	require.NotNil(t, fx.producer.lastReq.Context.IsSalt)
	assert.False(t, *fx.producer.lastReq.Context.IsSalt)

	// Без явного значения подставляется значение бассейна
	_, err = fx.svc.Diagnose(ctx, "user-1", "pool-1", DiagnoseInput{Symptoms: "algae"})

	require.NoError(t, err)
	require.NotNil(t, fx.producer.lastReq.Context.IsSalt)
	assert.True(t, *fx.producer.lastReq.Context.IsSalt)
}

func TestDiagnoseService_CapsExcessiveChlorine(t *testing.T) {
	fx := newDiagnoseFixture(t)
	ctx := context.Background()

	fc := 1.0
	fx.tests.tests["wt-1"] = &domain.WaterTest{ID: "wt-1", PoolID: "pool-1", TestedAt: time.Now().UTC(), FC: &fc}

	plan := producedPlan()
	plan.ChemicalAdditions[0].Amount = "500"
	fx.producer.result = &llm.PlanResult{Plan: plan, Source: domain.PlanSourceLLM}

	result, err := fx.svc.Diagnose(ctx, "user-1", "pool-1", DiagnoseInput{Symptoms: "algae"})

	require.NoError(t, err)
	assert.NotEmpty(t, result.SafetyAdjustments)
	assert.NotEqual(t, "500", result.Plan.ChemicalAdditions[0].Amount)
}

func TestDiagnoseService_UnsafePlanRejected(t *testing.T) {
	fx := newDiagnoseFixture(t)
	ctx := context.Background()

	plan := producedPlan()
	plan.Steps = append(plan.Steps, "Mix all chemicals together to save time")
	fx.producer.result = &llm.PlanResult{Plan: plan, Source: domain.PlanSourceLLM}

	_, err := fx.svc.Diagnose(ctx, "user-1", "pool-1", DiagnoseInput{Symptoms: "algae"})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUpstreamFailed, apperrors.FromError(err).Code)
	// Небезопасный план не сохраняется
	assert.Empty(t, fx.plans.plans)
}

func TestDiagnoseService_InvalidPlanRejected(t *testing.T) {
	fx := newDiagnoseFixture(t)
	ctx := context.Background()

	plan := producedPlan()
	plan.Steps = nil
	fx.producer.result = &llm.PlanResult{Plan: plan, Source: domain.PlanSourceLLM}

	_, err := fx.svc.Diagnose(ctx, "user-1", "pool-1", DiagnoseInput{Symptoms: "algae"})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUpstreamInvalid, apperrors.FromError(err).Code)
}

func TestDiagnoseService_PoolOwnership(t *testing.T) {
	fx := newDiagnoseFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Diagnose(ctx, "user-2", "pool-1", DiagnoseInput{Symptoms: "algae"})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.FromError(err).Code)
}

func TestDiagnoseService_SymptomsTruncatedInSummary(t *testing.T) {
	fx := newDiagnoseFixture(t)
	ctx := context.Background()

	long := strings.Repeat("x", 500)
	result, err := fx.svc.Diagnose(ctx, "user-1", "pool-1", DiagnoseInput{Symptoms: long})

	require.NoError(t, err)
	saved := fx.plans.plans[result.SavedPlanID]
	assert.LessOrEqual(t, len(saved.ConversationSummary), len("Diagnose request. source=llm symptoms=")+200)
}

func TestDiagnoseService_SummaryTruncationKeepsRuneBoundary(t *testing.T) {
	fx := newDiagnoseFixture(t)
	ctx := context.Background()

	// Кириллица: 2 байта на символ, нечетный ASCII префикс сдвигает
	// границу в 200 байт внутрь руны
	long := "x" + strings.Repeat("м", 300)
	result, err := fx.svc.Diagnose(ctx, "user-1", "pool-1", DiagnoseInput{Symptoms: long})

	require.NoError(t, err)
	saved := fx.plans.plans[result.SavedPlanID]
	assert.True(t, utf8.ValidString(saved.ConversationSummary))
	assert.LessOrEqual(t, len(saved.ConversationSummary), len("Diagnose request. source=llm symptoms=")+200)
}

func TestDiagnoseService_RepeatPlan(t *testing.T) {
	fx := newDiagnoseFixture(t)
	ctx := context.Background()

	createdAt := time.Now().UTC().Add(-72 * time.Hour)
	original := &domain.TreatmentPlan{
		ID:            "plan-1",
		PoolID:        "pool-1",
		Source:        domain.PlanSourceLLM,
		Diagnosis:     "Low chlorine.",
		Confidence:    "Medium",
		Steps:         []string{"Add chlorine"},
		SafetyNotes:   []string{"Retest after."},
		RetestInHours: 4,
		WhenToCallPro: []string{"If persists"},
		CreatedAt:     createdAt,
	}
	fx.plans.plans[original.ID] = original

	repeated, err := fx.svc.RepeatPlan(ctx, "user-1", "plan-1")

	require.NoError(t, err)
	assert.NotEqual(t, original.ID, repeated.ID)
	assert.Equal(t, original.Diagnosis, repeated.Diagnosis)
	assert.Contains(t, repeated.ConversationSummary, "Repeated plan from "+createdAt.Format(time.RFC3339))
	// Исходная запись не изменилась
	assert.Equal(t, createdAt, fx.plans.plans["plan-1"].CreatedAt)

	// Чужой план недоступен
	_, err = fx.svc.RepeatPlan(ctx, "user-2", "plan-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.FromError(err).Code)
}
