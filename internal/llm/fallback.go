package llm

import "PoolProPlatform/internal/domain"

// BuildFallbackPlan строит консервативный план без внешнего генератора.
// Используется при отсутствии ключа API и при недоступном или невалидном ответе
func BuildFallbackPlan(symptoms string) *Plan {
	confidence := "Medium"
	if symptoms == "" {
		confidence = "Low"
	}
	return &Plan{
		Diagnosis:  "Likely sanitizer imbalance or filtration issue.",
		Confidence: confidence,
		Steps: []string{
			"Check and clean filter",
			"Raise free chlorine conservatively",
			"Brush pool walls and circulate",
		},
		ChemicalAdditions: []domain.ChemicalAddition{
			{
				Chemical:     "liquid_chlorine_10pct",
				Amount:       "64",
				Unit:         "oz",
				Instructions: "Add half now, retest in 4 hours.",
			},
		},
		// Формулировки заметок не должны совпадать с denylist enforcer'а
		SafetyNotes: []string{
			"Never combine different chemicals directly.",
			"Wear gloves and eye protection.",
			"Always retest before additional chemical additions.",
		},
		RetestInHours: 4,
		WhenToCallPro: []string{
			"If strong chlorine odor persists with high CC",
			"If water remains cloudy after 24-48h",
			"If pump/filter has abnormal pressure or electrical issues",
		},
	}
}
