package llm

import (
	"PoolProPlatform/internal/domain"
	"PoolProPlatform/pkg/errors"
)

// Plan внешний план лечения в формате генератора.
// До прохождения SafetyEnforcer считается недоверенными данными
type Plan struct {
	Diagnosis         string                    `json:"diagnosis"`
	Confidence        string                    `json:"confidence"`
	Steps             []string                  `json:"steps"`
	ChemicalAdditions []domain.ChemicalAddition `json:"chemical_additions"`
	SafetyNotes       []string                  `json:"safety_notes"`
	RetestInHours     int                       `json:"retest_in_hours"`
	WhenToCallPro     []string                  `json:"when_to_call_pro"`
}

// LatestTest последние показания воды, передаваемые в контексте диагностики
type LatestTest struct {
	TestedAt *string  `json:"testedAt,omitempty"`
	FC       *float64 `json:"fc,omitempty"`
	CC       *float64 `json:"cc,omitempty"`
	PH       *float64 `json:"ph,omitempty"`
	TA       *float64 `json:"ta,omitempty"`
	CH       *float64 `json:"ch,omitempty"`
	CYA      *float64 `json:"cya,omitempty"`
	Salt     *float64 `json:"salt,omitempty"`
	TempF    *float64 `json:"tempF,omitempty"`
}

// DiagnoseContext контекст бассейна для диагностики
type DiagnoseContext struct {
	PoolVolumeGallons *float64    `json:"poolVolumeGallons,omitempty"`
	SurfaceType       string      `json:"surfaceType,omitempty"`
	SanitizerType     string      `json:"sanitizerType,omitempty"`
	IsSalt            *bool       `json:"isSalt,omitempty"`
	LatestTest        *LatestTest `json:"latestTest,omitempty"`
}

// DiagnoseRequest запрос на диагностику бассейна
type DiagnoseRequest struct {
	PoolID   string          `json:"poolId"`
	Symptoms string          `json:"symptoms"`
	Context  DiagnoseContext `json:"context"`
}

// PlanResult результат генерации плана с указанием источника
type PlanResult struct {
	Plan    *Plan  `json:"plan"`
	Source  string `json:"source"`
	Warning string `json:"warning,omitempty"`
}

// validConfidences допустимые уровни уверенности плана
var validConfidences = map[string]bool{
	"High":   true,
	"Medium": true,
	"Low":    true,
}

// Validate проверяет структурную корректность плана
func (p *Plan) Validate() error {
	if p.Diagnosis == "" {
		return errors.New(errors.ErrUpstreamInvalid, "plan diagnosis is empty")
	}
	if !validConfidences[p.Confidence] {
		return errors.New(errors.ErrUpstreamInvalid, "plan confidence must be High, Medium or Low")
	}
	if len(p.Steps) == 0 {
		return errors.New(errors.ErrUpstreamInvalid, "plan must contain at least one step")
	}
	for _, a := range p.ChemicalAdditions {
		if a.Chemical == "" || a.Amount == "" || a.Unit == "" {
			return errors.New(errors.ErrUpstreamInvalid, "plan chemical addition is incomplete")
		}
	}
	if len(p.SafetyNotes) == 0 {
		return errors.New(errors.ErrUpstreamInvalid, "plan must contain at least one safety note")
	}
	if p.RetestInHours < 1 || p.RetestInHours > 48 {
		return errors.New(errors.ErrUpstreamInvalid, "plan retest window must be between 1 and 48 hours")
	}
	if len(p.WhenToCallPro) == 0 {
		return errors.New(errors.ErrUpstreamInvalid, "plan must contain when-to-call-pro guidance")
	}
	return nil
}
