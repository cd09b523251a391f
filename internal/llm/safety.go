package llm

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"PoolProPlatform/internal/chemistry"
	"PoolProPlatform/pkg/errors"
	"PoolProPlatform/pkg/logger"
)

// unsafePatterns шаблоны запрещенных инструкций.
// Любое совпадение отклоняет весь план без попытки исправления
var unsafePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)mix .*chemicals`),
	regexp.MustCompile(`(?i)combine .*chlorine .*acid`),
	regexp.MustCompile(`(?i)no retest`),
	regexp.MustCompile(`(?i)skip retest`),
}

var retestPattern = regexp.MustCompile(`(?i)retest`)

// chlorinePattern определяет хлорсодержащие добавки для проверки потолка дозы
var chlorinePattern = regexp.MustCompile(`(?i)chlorine|hypochlorite`)

// nonNumericPattern все символы кроме цифр и точки
var nonNumericPattern = regexp.MustCompile(`[^\d.]`)

// minRetestHours минимальное окно повторного тестирования
const minRetestHours = 2

// SafetyContext данные бассейна для детерминированной проверки доз
type SafetyContext struct {
	PoolVolumeGallons *float64
	LatestFC          *float64
}

// Enforcer применяет последовательность проверок безопасности к внешнему плану.
// План мутируется на месте: заметки дописываются, дозы ограничиваются
type Enforcer struct {
	log logger.Logger
}

// NewEnforcer создает enforcer безопасности планов
func NewEnforcer(log logger.Logger) *Enforcer {
	return &Enforcer{log: log}
}

// Enforce выполняет проверки в фиксированном порядке и возвращает список
// предупреждений о внесенных корректировках. Совпадение с denylist фатально
func (e *Enforcer) Enforce(plan *Plan, sctx SafetyContext) ([]string, error) {
	warnings := []string{}

	if err := e.checkDenylist(plan); err != nil {
		return nil, err
	}

	// Полнота рекомендации о повторном тестировании
	if !containsRetestNote(plan.SafetyNotes) {
		plan.SafetyNotes = append(plan.SafetyNotes, "Always retest before additional chemical additions.")
		warnings = append(warnings, "Added missing retest guidance.")
	}

	// Полнота рекомендации об обращении к специалисту
	if len(plan.WhenToCallPro) == 0 {
		plan.WhenToCallPro = append(plan.WhenToCallPro, "If water remains unsafe after conservative treatment, call a professional.")
		warnings = append(warnings, "Added missing when-to-call-pro guidance.")
	}

	warnings = append(warnings, e.capChlorineAdditions(plan, sctx)...)

	// Минимальное окно повторного тестирования
	if plan.RetestInHours < minRetestHours {
		plan.RetestInHours = minRetestHours
		warnings = append(warnings, "Raised retest window to 2 hours minimum for conservative safety.")
	}

	return warnings, nil
}

// checkDenylist проверяет объединенный текст плана на запрещенные инструкции
func (e *Enforcer) checkDenylist(plan *Plan) error {
	parts := []string{plan.Diagnosis}
	parts = append(parts, plan.Steps...)
	parts = append(parts, plan.SafetyNotes...)
	for _, a := range plan.ChemicalAdditions {
		parts = append(parts, a.Instructions)
	}
	combined := strings.Join(parts, "\n")

	for _, pattern := range unsafePatterns {
		if pattern.MatchString(combined) {
			e.log.Warn("Unsafe chemical instruction detected in plan",
				logger.String("pattern", pattern.String()))
			return errors.New(errors.ErrUpstreamFailed, "unsafe chemical instruction detected")
		}
	}
	return nil
}

// capChlorineAdditions ограничивает дозы хлора потолком в 1.5 раза от
// детерминированной дозы калькулятора для цели FC = clamp(fc+2, 3, 8).
// Без объема бассейна или показания FC проверка не выполняется
func (e *Enforcer) capChlorineAdditions(plan *Plan, sctx SafetyContext) []string {
	var warnings []string

	if sctx.PoolVolumeGallons == nil || *sctx.PoolVolumeGallons <= 0 || sctx.LatestFC == nil {
		return nil
	}

	fc := *sctx.LatestFC
	targetFc := fc + 2
	if targetFc < 3 {
		targetFc = 3
	}
	if targetFc > 8 {
		targetFc = 8
	}

	lcPercent := 10.0
	calc := chemistry.CalculateDosing(chemistry.CalculatorInput{
		PoolVolumeGallons: sctx.PoolVolumeGallons,
		Readings:          chemistry.Readings{Fc: &fc},
		Targets:           chemistry.Targets{Fc: &targetFc},
		ProductStrengths:  &chemistry.ProductStrengths{LiquidChlorinePercent: &lcPercent},
	})

	var reference *chemistry.Dose
	for i := range calc.Doses {
		if strings.Contains(calc.Doses[i].Chemical, "liquid_chlorine") {
			reference = &calc.Doses[i]
			break
		}
	}
	if reference == nil {
		return nil
	}

	cap := round1(reference.Amount * 1.5)
	for i := range plan.ChemicalAdditions {
		addition := &plan.ChemicalAdditions[i]
		if !chlorinePattern.MatchString(addition.Chemical) || !strings.EqualFold(addition.Unit, "oz") {
			continue
		}
		amount, ok := parseNumericAmount(addition.Amount)
		if !ok {
			// Непарсимая доза пропускается, но оставляет след в логе
			e.log.Debug("Failed to parse chemical addition amount, skipping cap check",
				logger.String("chemical", addition.Chemical),
				logger.String("amount", addition.Amount))
			continue
		}
		if amount > cap {
			addition.Amount = strconv.FormatFloat(cap, 'f', -1, 64)
			addition.Instructions = addition.Instructions + " Capped to conservative threshold using deterministic dosing check."
			warnings = append(warnings, fmt.Sprintf("Capped chlorine addition to %s oz.", strconv.FormatFloat(cap, 'f', -1, 64)))
		}
	}

	return warnings
}

// containsRetestNote проверяет упоминание повторного тестирования
func containsRetestNote(notes []string) bool {
	for _, note := range notes {
		if retestPattern.MatchString(note) {
			return true
		}
	}
	return false
}

// parseNumericAmount извлекает число из текстовой дозы
func parseNumericAmount(value string) (float64, bool) {
	cleaned := nonNumericPattern.ReplaceAllString(value, "")
	if cleaned == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// round1 округляет до одного знака
func round1(v float64) float64 { return math.Round(v*10) / 10 }
