package chemistry

import (
	"math"
	"strconv"
)

// Confidence уровень уверенности плана дозирования
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Пороговые максимумы разовых доз для каждого семейства химикатов
const (
	maxChlorineOz    = 512
	maxAcidOz        = 64
	maxBicarbLb      = 25
	maxCalciumLb     = 30
	maxCyanuricOz    = 128
	defaultLcPercent = 10
	defaultTa        = 90
	retestInHours    = 4
)

// Readings показания тестирования воды
type Readings struct {
	Fc  *float64 `json:"fc,omitempty"`
	Ph  *float64 `json:"ph,omitempty"`
	Ta  *float64 `json:"ta,omitempty"`
	Ch  *float64 `json:"ch,omitempty"`
	Cya *float64 `json:"cya,omitempty"`
}

// Targets целевые значения показателей воды
type Targets struct {
	Fc  *float64 `json:"fc,omitempty"`
	Ph  *float64 `json:"ph,omitempty"`
	Ta  *float64 `json:"ta,omitempty"`
	Ch  *float64 `json:"ch,omitempty"`
	Cya *float64 `json:"cya,omitempty"`
}

// ProductStrengths концентрации используемых продуктов
type ProductStrengths struct {
	LiquidChlorinePercent *float64 `json:"liquidChlorinePercent,omitempty"`
}

// CalculatorInput входные данные калькулятора дозирования
type CalculatorInput struct {
	PoolVolumeGallons *float64          `json:"poolVolumeGallons,omitempty"`
	Readings          Readings          `json:"readings"`
	Targets           Targets           `json:"targets"`
	ProductStrengths  *ProductStrengths `json:"productStrengths,omitempty"`
}

// Dose рекомендованная доза одного химиката
type Dose struct {
	Chemical string  `json:"chemical"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
	Notes    string  `json:"notes"`
}

// CalculatorOutput результат расчета дозирования
type CalculatorOutput struct {
	Confidence    Confidence `json:"confidence"`
	Doses         []Dose     `json:"doses"`
	Assumptions   []string   `json:"assumptions"`
	SafetyNotes   []string   `json:"safetyNotes"`
	MissingFields []string   `json:"missingFields"`
	RetestInHours int        `json:"retestInHours"`
}

// capAmount ограничивает дозу сверху и снизу
func capAmount(amount, max float64) float64 {
	return math.Min(math.Max(0, amount), max)
}

// round1 округляет до одного знака
func round1(v float64) float64 { return math.Round(v*10) / 10 }

// round2 округляет до двух знаков
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// CalculateDosing рассчитывает консервативные дозы по линейным аппроксимациям.
// Каждое семейство химикатов обрабатывается независимо: доза выдается только
// при известном объеме, известных показании и цели, и движении в поддерживаемую
// сторону (хлор/щелочность/кальций/CYA только повышаются, pH только понижается).
func CalculateDosing(input CalculatorInput) CalculatorOutput {
	var missing []string
	var doses []Dose

	pool := 0.0
	if input.PoolVolumeGallons != nil && *input.PoolVolumeGallons > 0 {
		pool = *input.PoolVolumeGallons
	} else {
		missing = append(missing, "poolVolumeGallons")
	}

	lcPercent := float64(defaultLcPercent)
	if input.ProductStrengths != nil && input.ProductStrengths.LiquidChlorinePercent != nil && *input.ProductStrengths.LiquidChlorinePercent > 0 {
		lcPercent = *input.ProductStrengths.LiquidChlorinePercent
	}

	readings := input.Readings
	targets := input.Targets

	if pool > 0 && readings.Fc != nil && targets.Fc != nil && *targets.Fc > *readings.Fc {
		delta := *targets.Fc - *readings.Fc
		gallons := (delta * pool) / (10000 * lcPercent)
		oz := capAmount(gallons*128, maxChlorineOz)
		doses = append(doses, Dose{
			Chemical: "liquid_chlorine_" + formatPercent(lcPercent) + "pct",
			Amount:   round1(oz),
			Unit:     "oz",
			Notes:    "Add half dose, circulate 30-60 min, retest before adding remainder.",
		})
	}

	if pool > 0 && readings.Ph != nil && targets.Ph != nil && *readings.Ph > *targets.Ph {
		// Коэффициент щелочности по умолчанию, когда нет показания TA
		ta := float64(defaultTa)
		if readings.Ta != nil {
			ta = *readings.Ta
		}
		phDelta := *readings.Ph - *targets.Ph
		baseOzPer10k := phDelta * 12 * (ta / 100)
		oz := capAmount(baseOzPer10k*(pool/10000), maxAcidOz)
		doses = append(doses, Dose{
			Chemical: "muriatic_acid_31_45pct",
			Amount:   round1(oz),
			Unit:     "oz",
			Notes:    "Conservative first-step estimate; pre-dilute and pour slowly with pump running.",
		})
	}

	if pool > 0 && readings.Ta != nil && targets.Ta != nil && *targets.Ta > *readings.Ta {
		delta := *targets.Ta - *readings.Ta
		lbs := capAmount((delta/10)*(pool/10000)*1.4, maxBicarbLb)
		doses = append(doses, Dose{
			Chemical: "sodium_bicarbonate",
			Amount:   round2(lbs),
			Unit:     "lb",
			Notes:    "Split into 2 additions if >5 lb.",
		})
	}

	if pool > 0 && readings.Ch != nil && targets.Ch != nil && *targets.Ch > *readings.Ch {
		delta := *targets.Ch - *readings.Ch
		lbs := capAmount((delta/10)*(pool/10000)*1.25, maxCalciumLb)
		doses = append(doses, Dose{
			Chemical: "calcium_chloride",
			Amount:   round2(lbs),
			Unit:     "lb",
			Notes:    "Dissolve as directed; add in portions.",
		})
	}

	if pool > 0 && readings.Cya != nil && targets.Cya != nil && *targets.Cya > *readings.Cya {
		delta := *targets.Cya - *readings.Cya
		oz := capAmount((delta/10)*(pool/10000)*13, maxCyanuricOz)
		doses = append(doses, Dose{
			Chemical: "cyanuric_acid",
			Amount:   round1(oz),
			Unit:     "oz",
			Notes:    "Add via sock method; avoid backwashing for 24-48h.",
		})
	}

	// Показание CYA всегда обязательно для оценки уверенности
	if readings.Cya == nil {
		missing = append(missing, "cya")
	}

	confidence := ConfidenceMedium
	switch {
	case len(missing) > 0:
		confidence = ConfidenceLow
	case len(doses) >= 3:
		confidence = ConfidenceHigh
	}

	return CalculatorOutput{
		Confidence: confidence,
		Doses:      doses,
		Assumptions: []string{
			"Conservative first-step dosing. Exact demand varies by water conditions and product brand.",
			"Never mix chemicals directly. Add one chemical at a time with circulation running.",
		},
		SafetyNotes: []string{
			"Wear PPE and follow manufacturer labels.",
			"Always retest before additional dosing.",
		},
		MissingFields: missing,
		RetestInHours: retestInHours,
	}
}

// formatPercent форматирует концентрацию без хвостовых нулей
func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
