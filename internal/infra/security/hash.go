package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

var errInvalidHashFormat = errors.New("security: invalid encoded hash format")

// Argon2Config defines tunable parameters for Argon2id credential hashing.
// The same primitive backs both primary password hashes and OTP hashes.
type Argon2Config struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var (
	defaultArgon2Config = Argon2Config{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}

	activeArgon2Config = defaultArgon2Config
	argon2ConfigMu     sync.RWMutex
)

// ConfigureArgon2 sets the active hashing parameters after validation.
func ConfigureArgon2(cfg Argon2Config) error {
	if cfg.Memory < 8*1024 {
		return fmt.Errorf("security: argon2 memory must be at least 8192")
	}
	if cfg.Iterations == 0 || cfg.Parallelism == 0 {
		return fmt.Errorf("security: argon2 iterations and parallelism must be positive")
	}
	if cfg.SaltLength < 8 || cfg.KeyLength < 16 {
		return fmt.Errorf("security: argon2 salt/key lengths too short")
	}

	argon2ConfigMu.Lock()
	activeArgon2Config = cfg
	argon2ConfigMu.Unlock()
	return nil
}

func currentArgon2Config() Argon2Config {
	argon2ConfigMu.RLock()
	defer argon2ConfigMu.RUnlock()
	return activeArgon2Config
}

// HashCredential generates an Argon2id digest for the provided plaintext.
// The result is encoded as "salt:hash" with both components base64-encoded.
func HashCredential(plaintext string) (string, error) {
	cfg := currentArgon2Config()

	salt := make([]byte, cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	sum := argon2.IDKey([]byte(plaintext), salt, cfg.Iterations, cfg.Memory, cfg.Parallelism, cfg.KeyLength)

	return base64.StdEncoding.EncodeToString(salt) + ":" + base64.StdEncoding.EncodeToString(sum), nil
}

// VerifyCredential compares the plaintext against a stored digest in
// constant time.
func VerifyCredential(plaintext, encoded string) (bool, error) {
	if plaintext == "" || encoded == "" {
		return false, nil
	}

	parts := strings.Split(encoded, ":")
	if len(parts) != 2 {
		return false, errInvalidHashFormat
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}

	expected, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false, fmt.Errorf("decode hash: %w", err)
	}

	cfg := currentArgon2Config()
	computed := argon2.IDKey([]byte(plaintext), salt, cfg.Iterations, cfg.Memory, cfg.Parallelism, uint32(len(expected)))

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
