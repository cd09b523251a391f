package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"PoolProPlatform/internal/domain"
	"PoolProPlatform/internal/repository"
)

// TreatmentPlanRepository реализация репозитория планов лечения для PostgreSQL.
// Списочные поля планов хранятся в jsonb-колонках
type TreatmentPlanRepository struct {
	pool *pgxpool.Pool
}

// NewTreatmentPlanRepository создает новый экземпляр TreatmentPlanRepository
func NewTreatmentPlanRepository(pool *pgxpool.Pool) repository.TreatmentPlanRepository {
	return &TreatmentPlanRepository{pool: pool}
}

// Create сохраняет новый план лечения. Планы неизменяемы после записи
func (r *TreatmentPlanRepository) Create(ctx context.Context, plan *domain.TreatmentPlan) error {
	steps, err := json.Marshal(plan.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal plan steps: %w", err)
	}
	additions, err := json.Marshal(plan.ChemicalAdditions)
	if err != nil {
		return fmt.Errorf("failed to marshal plan chemical additions: %w", err)
	}
	safetyNotes, err := json.Marshal(plan.SafetyNotes)
	if err != nil {
		return fmt.Errorf("failed to marshal plan safety notes: %w", err)
	}
	whenToCallPro, err := json.Marshal(plan.WhenToCallPro)
	if err != nil {
		return fmt.Errorf("failed to marshal plan when-to-call-pro: %w", err)
	}

	query := `INSERT INTO treatment_plans (id, pool_id, water_test_id, source, diagnosis, confidence, steps, chemical_additions, safety_notes, retest_in_hours, when_to_call_pro, conversation_summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = r.pool.Exec(ctx, query,
		plan.ID,
		plan.PoolID,
		plan.WaterTestID,
		plan.Source,
		plan.Diagnosis,
		plan.Confidence,
		steps,
		additions,
		safetyNotes,
		plan.RetestInHours,
		whenToCallPro,
		plan.ConversationSummary,
		plan.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create treatment plan: %w", err)
	}

	return nil
}

// ListByPool возвращает планы бассейна, новые первыми
func (r *TreatmentPlanRepository) ListByPool(ctx context.Context, poolID string, limit int) ([]*domain.TreatmentPlan, error) {
	query := `SELECT id, pool_id, water_test_id, source, diagnosis, confidence, steps, chemical_additions, safety_notes, retest_in_hours, when_to_call_pro, conversation_summary, created_at
		FROM treatment_plans WHERE pool_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, poolID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list treatment plans: %w", err)
	}
	defer rows.Close()

	var plans []*domain.TreatmentPlan
	for rows.Next() {
		plan, err := scanTreatmentPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate treatment plans: %w", err)
	}

	return plans, nil
}

// FindByID возвращает план по ID.
// Владелец проверяется через цепочку plan -> pool -> customer -> user
func (r *TreatmentPlanRepository) FindByID(ctx context.Context, id, userID string) (*domain.TreatmentPlan, error) {
	query := `SELECT tp.id, tp.pool_id, tp.water_test_id, tp.source, tp.diagnosis, tp.confidence, tp.steps, tp.chemical_additions, tp.safety_notes, tp.retest_in_hours, tp.when_to_call_pro, tp.conversation_summary, tp.created_at
		FROM treatment_plans tp
		JOIN pools p ON p.id = tp.pool_id
		JOIN customers c ON c.id = p.customer_id
		WHERE tp.id = $1 AND c.user_id = $2`

	row := r.pool.QueryRow(ctx, query, id, userID)
	plan, err := scanTreatmentPlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return plan, nil
}

// rowScanner объединяет pgx.Row и pgx.Rows для общего сканирования
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTreatmentPlan сканирует строку плана и разворачивает jsonb-поля
func scanTreatmentPlan(row rowScanner) (*domain.TreatmentPlan, error) {
	var plan domain.TreatmentPlan
	var steps, additions, safetyNotes, whenToCallPro []byte

	err := row.Scan(
		&plan.ID,
		&plan.PoolID,
		&plan.WaterTestID,
		&plan.Source,
		&plan.Diagnosis,
		&plan.Confidence,
		&steps,
		&additions,
		&safetyNotes,
		&plan.RetestInHours,
		&whenToCallPro,
		&plan.ConversationSummary,
		&plan.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan treatment plan: %w", err)
	}

	if err := json.Unmarshal(steps, &plan.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan steps: %w", err)
	}
	if err := json.Unmarshal(additions, &plan.ChemicalAdditions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan chemical additions: %w", err)
	}
	if err := json.Unmarshal(safetyNotes, &plan.SafetyNotes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan safety notes: %w", err)
	}
	if err := json.Unmarshal(whenToCallPro, &plan.WhenToCallPro); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan when-to-call-pro: %w", err)
	}

	return &plan, nil
}
