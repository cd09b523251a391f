package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Параметры PBKDF2. Менять нельзя без миграции существующих хешей.
const (
	saltBytes  = 16
	iterations = 100_000
	keyLength  = 32
)

// Hasher интерфейс для работы с паролями
type Hasher interface {
	Hash(password string) (string, error)
	Check(password, hash string) bool
	Validate(password string) bool
}

// PBKDF2Hasher реализация Hasher на основе PBKDF2-SHA256.
// Хеш хранится в формате "salt:digest", обе части в hex.
type PBKDF2Hasher struct{}

// NewPBKDF2Hasher создает новый PBKDF2Hasher
func NewPBKDF2Hasher() *PBKDF2Hasher {
	return &PBKDF2Hasher{}
}

// Hash хеширует пароль со случайной солью
func (h *PBKDF2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return h.hashWithSalt(password, hex.EncodeToString(salt)), nil
}

// hashWithSalt хеширует пароль с заданной солью
func (h *PBKDF2Hasher) hashWithSalt(password, salt string) string {
	digest := pbkdf2.Key([]byte(password), []byte(salt), iterations, keyLength, sha256.New)
	return salt + ":" + hex.EncodeToString(digest)
}

// Check проверяет, соответствует ли пароль хешу.
// Некорректный формат хеша трактуется как несовпадение, не как ошибка.
// Сравнение дайджестов выполняется за константное время.
func (h *PBKDF2Hasher) Check(password, hash string) bool {
	salt, digest, found := strings.Cut(hash, ":")
	if !found || salt == "" || digest == "" {
		return false
	}

	candidate := h.hashWithSalt(password, salt)
	_, candidateDigest, _ := strings.Cut(candidate, ":")

	return subtle.ConstantTimeCompare([]byte(candidateDigest), []byte(digest)) == 1
}

// Validate проверяет сложность пароля.
// Минимальная длина 8 символов
func (h *PBKDF2Hasher) Validate(password string) bool {
	return len(password) >= 8
}
