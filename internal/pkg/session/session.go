package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken единая ошибка для любого невалидного токена.
// Истекший и подделанный токены не различаются для вызывающего.
var ErrInvalidToken = errors.New("invalid session token")

// Claims структура для хранения данных сессии в токене
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Session представляет проверенную сессию пользователя
type Session struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// Codec интерфейс для подписи и проверки сессионных токенов
type Codec interface {
	Sign(userID, email string) (string, error)
	Verify(token string) (*Session, error)
	TTL() time.Duration
}

// Manager реализация Codec на основе HMAC-SHA256.
// Токены самодостаточны: сервер не хранит сессии и не может отозвать
// токен до истечения срока.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager создает новый менеджер сессий
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// NewManagerWithClock создает менеджер с заданными часами.
// Используется в тестах для контроля времени.
func NewManagerWithClock(secret string, ttl time.Duration, now func() time.Time) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    now,
	}
}

// TTL возвращает срок жизни сессии
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Sign генерирует подписанный сессионный токен.
// jti уникален для каждого токена, при проверке не используется и
// нужен для отладки и уникальности токенов
func (m *Manager) Sign(userID, email string) (string, error) {
	now := m.now().UTC()

	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, nil
}

// Verify проверяет токен и возвращает сессию.
// Отклоняет токены с неверной подписью, неподдерживаемым алгоритмом,
// некорректным payload или истекшим сроком. Причина не раскрывается.
func (m *Manager) Verify(token string) (*Session, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)

	parsedToken, err := parser.ParseWithClaims(token, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Проверяем метод подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsedToken.Claims.(*Claims)
	if !ok || !parsedToken.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &Session{UserID: claims.UserID, Email: claims.Email}, nil
}
