package domain

import (
	"time"
)

// User представляет пользователя системы (владельца клиентской базы)
// Пароли хранятся в формате "salt:digest" (PBKDF2-SHA256)
// Email должен быть уникальным
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Customer представляет клиента пользователя (владельца бассейна)
type Customer struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Pool представляет бассейн клиента
type Pool struct {
	ID             string    `json:"id"`
	CustomerID     string    `json:"customer_id"`
	Name           string    `json:"name"`
	VolumeGallons  float64   `json:"volume_gallons"`
	SurfaceType    string    `json:"surface_type"`
	SanitizerType  string    `json:"sanitizer_type"`
	IsSalt         bool      `json:"is_salt"`
	EquipmentNotes string    `json:"equipment_notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// WaterTest представляет замер химии воды.
// Показания опциональны: отсутствующее значение означает, что параметр не измерялся.
type WaterTest struct {
	ID        string    `json:"id"`
	PoolID    string    `json:"pool_id"`
	TestedAt  time.Time `json:"tested_at"`
	FC        *float64  `json:"fc,omitempty"`
	CC        *float64  `json:"cc,omitempty"`
	PH        *float64  `json:"ph,omitempty"`
	TA        *float64  `json:"ta,omitempty"`
	CH        *float64  `json:"ch,omitempty"`
	CYA       *float64  `json:"cya,omitempty"`
	Salt      *float64  `json:"salt,omitempty"`
	TempF     *float64  `json:"temp_f,omitempty"`
	Symptoms  string    `json:"symptoms,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChemicalAddition представляет одну химическую добавку в плане лечения.
// Amount хранится как текст: внешний генератор возвращает числа строками
type ChemicalAddition struct {
	Chemical     string `json:"chemical"`
	Amount       string `json:"amount"`
	Unit         string `json:"unit"`
	Instructions string `json:"instructions"`
}

// Источники планов лечения
const (
	PlanSourceLLM        = "llm"
	PlanSourceFallback   = "fallback"
	PlanSourceCalculator = "calculator"
)

// TreatmentPlan представляет план лечения бассейна.
// Записи неизменяемы: повтор плана создает новую запись, существующие не обновляются.
type TreatmentPlan struct {
	ID                  string             `json:"id"`
	PoolID              string             `json:"pool_id"`
	WaterTestID         *string            `json:"water_test_id,omitempty"`
	Source              string             `json:"source"`
	Diagnosis           string             `json:"diagnosis"`
	Confidence          string             `json:"confidence"`
	Steps               []string           `json:"steps"`
	ChemicalAdditions   []ChemicalAddition `json:"chemical_additions"`
	SafetyNotes         []string           `json:"safety_notes"`
	RetestInHours       int                `json:"retest_in_hours"`
	WhenToCallPro       []string           `json:"when_to_call_pro"`
	ConversationSummary string             `json:"conversation_summary,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
}

// TimelineEntry представляет одно событие в истории бассейна
type TimelineEntry struct {
	Type string      `json:"type"`
	At   time.Time   `json:"at"`
	Data interface{} `json:"data"`
}

// TestComparison представляет сравнение двух последних замеров
type TestComparison struct {
	Latest   *WaterTest `json:"latest"`
	Previous *WaterTest `json:"previous"`
}
