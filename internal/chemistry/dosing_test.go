package chemistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestCalculateDosing_NoVolume(t *testing.T) {
	// Без объема бассейна дозы не рассчитываются
	out := CalculateDosing(CalculatorInput{
		Readings: Readings{Fc: f(1), Cya: f(40)},
		Targets:  Targets{Fc: f(3)},
	})

	assert.Equal(t, ConfidenceLow, out.Confidence)
	assert.Contains(t, out.MissingFields, "poolVolumeGallons")
	assert.Empty(t, out.Doses)
	assert.Equal(t, 4, out.RetestInHours)
}

func TestCalculateDosing_ChlorineRaise(t *testing.T) {
	// 10000 галлонов, FC 1 -> 3: доза хлора заметно больше 20 oz
	out := CalculateDosing(CalculatorInput{
		PoolVolumeGallons: f(10000),
		Readings:          Readings{Fc: f(1), Cya: f(40)},
		Targets:           Targets{Fc: f(3)},
	})

	require.Len(t, out.Doses, 1)
	dose := out.Doses[0]
	assert.Equal(t, "liquid_chlorine_10pct", dose.Chemical)
	assert.Equal(t, "oz", dose.Unit)
	assert.Greater(t, dose.Amount, 20.0)
	assert.NotEmpty(t, out.SafetyNotes)
	assert.Equal(t, ConfidenceMedium, out.Confidence)
}

func TestCalculateDosing_ChlorineCap(t *testing.T) {
	// Экстремальная дельта упирается в потолок 512 oz
	out := CalculateDosing(CalculatorInput{
		PoolVolumeGallons: f(100000),
		Readings:          Readings{Fc: f(0), Cya: f(40)},
		Targets:           Targets{Fc: f(10)},
	})

	require.Len(t, out.Doses, 1)
	assert.Equal(t, 512.0, out.Doses[0].Amount)
}

func TestCalculateDosing_CustomChlorineStrength(t *testing.T) {
	// Более крепкий хлор требует меньшую дозу
	out := CalculateDosing(CalculatorInput{
		PoolVolumeGallons: f(10000),
		Readings:          Readings{Fc: f(1), Cya: f(40)},
		Targets:           Targets{Fc: f(3)},
		ProductStrengths:  &ProductStrengths{LiquidChlorinePercent: f(12.5)},
	})

	require.Len(t, out.Doses, 1)
	assert.Equal(t, "liquid_chlorine_12.5pct", out.Doses[0].Chemical)
	assert.InDelta(t, 20.5, out.Doses[0].Amount, 0.1)
}

func TestCalculateDosing_PhLowerOnly(t *testing.T) {
	// Кислотная доза считается только при pH выше цели
	out := CalculateDosing(CalculatorInput{
		PoolVolumeGallons: f(10000),
		Readings:          Readings{Ph: f(8.0), Ta: f(100), Cya: f(40)},
		Targets:           Targets{Ph: f(7.5)},
	})

	require.Len(t, out.Doses, 1)
	dose := out.Doses[0]
	assert.Equal(t, "muriatic_acid_31_45pct", dose.Chemical)
	// 0.5 * 12 * (100/100) * 1 = 6.0 oz
	assert.Equal(t, 6.0, dose.Amount)

	// pH ниже цели: повышение не поддерживается
	out = CalculateDosing(CalculatorInput{
		PoolVolumeGallons: f(10000),
		Readings:          Readings{Ph: f(7.0), Cya: f(40)},
		Targets:           Targets{Ph: f(7.5)},
	})
	assert.Empty(t, out.Doses)
}

func TestCalculateDosing_PhDefaultAlkalinity(t *testing.T) {
	// Без показания TA применяется фактор щелочности по умолчанию 90
	out := CalculateDosing(CalculatorInput{
		PoolVolumeGallons: f(10000),
		Readings:          Readings{Ph: f(8.0), Cya: f(40)},
		Targets:           Targets{Ph: f(7.5)},
	})

	require.Len(t, out.Doses, 1)
	// 0.5 * 12 * 0.9 * 1 = 5.4 oz
	assert.Equal(t, 5.4, out.Doses[0].Amount)
}

func TestCalculateDosing_AlkalinityAndCalcium(t *testing.T) {
	out := CalculateDosing(CalculatorInput{
		PoolVolumeGallons: f(20000),
		Readings:          Readings{Ta: f(60), Ch: f(150), Cya: f(40)},
		Targets:           Targets{Ta: f(90), Ch: f(250)},
	})

	require.Len(t, out.Doses, 2)
	// TA: (30/10) * 2 * 1.4 = 8.4 lb
	assert.Equal(t, "sodium_bicarbonate", out.Doses[0].Chemical)
	assert.Equal(t, 8.4, out.Doses[0].Amount)
	assert.Equal(t, "lb", out.Doses[0].Unit)
	// CH: (100/10) * 2 * 1.25 = 25 lb
	assert.Equal(t, "calcium_chloride", out.Doses[1].Chemical)
	assert.Equal(t, 25.0, out.Doses[1].Amount)
}

func TestCalculateDosing_CyanuricAcid(t *testing.T) {
	out := CalculateDosing(CalculatorInput{
		PoolVolumeGallons: f(10000),
		Readings:          Readings{Cya: f(20)},
		Targets:           Targets{Cya: f(40)},
	})

	require.Len(t, out.Doses, 1)
	// (20/10) * 1 * 13 = 26 oz
	assert.Equal(t, "cyanuric_acid", out.Doses[0].Chemical)
	assert.Equal(t, 26.0, out.Doses[0].Amount)
}

func TestCalculateDosing_MissingCyaAlwaysRecorded(t *testing.T) {
	// Отсутствие показания CYA понижает уверенность даже без цели CYA
	out := CalculateDosing(CalculatorInput{
		PoolVolumeGallons: f(10000),
		Readings:          Readings{Fc: f(1)},
		Targets:           Targets{Fc: f(3)},
	})

	assert.Contains(t, out.MissingFields, "cya")
	assert.Equal(t, ConfidenceLow, out.Confidence)
	// Дозы при известном объеме все равно рассчитываются
	assert.Len(t, out.Doses, 1)
}

func TestCalculateDosing_HighConfidence(t *testing.T) {
	// Три и более дозы без пропусков дают высокую уверенность
	out := CalculateDosing(CalculatorInput{
		PoolVolumeGallons: f(15000),
		Readings:          Readings{Fc: f(1), Ta: f(60), Ch: f(150), Cya: f(40)},
		Targets:           Targets{Fc: f(3), Ta: f(90), Ch: f(250)},
	})

	assert.GreaterOrEqual(t, len(out.Doses), 3)
	assert.Empty(t, out.MissingFields)
	assert.Equal(t, ConfidenceHigh, out.Confidence)
}

func TestCalculateDosing_NoMovementNeeded(t *testing.T) {
	// Показания уже на целевых значениях
	out := CalculateDosing(CalculatorInput{
		PoolVolumeGallons: f(10000),
		Readings:          Readings{Fc: f(3), Ph: f(7.5), Cya: f(40)},
		Targets:           Targets{Fc: f(3), Ph: f(7.5)},
	})

	assert.Empty(t, out.Doses)
	assert.Equal(t, ConfidenceMedium, out.Confidence)
}
