package app

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	codeTTL           = 5 * time.Minute
	codeResendAfter   = time.Minute
	maxVerifyAttempts = 5
	codeKeyPrefix     = "mixmeet:auth:code"
)

// codeStore keeps one live verification code per phone number in redis. Only
// a bcrypt hash of the code is stored; the plaintext exists just long enough
// to hand to the gateway.
type codeStore struct {
	client *redis.Client
}

type codeRecord struct {
	PhoneNumber string    `json:"phoneNumber"`
	CodeHash    string    `json:"codeHash"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Attempts    int       `json:"attempts"`
}

func newCodeStore(addr, password string) (*codeStore, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("code redis addr is required")
	}
	return &codeStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}, nil
}

// Create issues a fresh code for the phone number. A second request inside
// the resend window is rejected so the gateway is not spammed.
func (s *codeStore) Create(phoneNumber string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resendKey := s.resendKey(phoneNumber)
	allowed, err := s.client.SetNX(ctx, resendKey, "1", codeResendAfter).Result()
	if err != nil {
		return "", err
	}
	if !allowed {
		return "", ErrRateLimited
	}

	code, err := generateNumericCode(6)
	if err != nil {
		_ = s.client.Del(ctx, resendKey).Err()
		return "", fmt.Errorf("generate code: %w", err)
	}
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		_ = s.client.Del(ctx, resendKey).Err()
		return "", fmt.Errorf("hash code: %w", err)
	}
	record := codeRecord{
		PhoneNumber: phoneNumber,
		CodeHash:    string(codeHash),
		ExpiresAt:   time.Now().UTC().Add(codeTTL),
	}
	raw, err := json.Marshal(record)
	if err != nil {
		_ = s.client.Del(ctx, resendKey).Err()
		return "", fmt.Errorf("marshal code record: %w", err)
	}
	if err := s.client.Set(ctx, s.codeKey(phoneNumber), raw, codeTTL).Err(); err != nil {
		_ = s.client.Del(ctx, resendKey).Err()
		return "", err
	}
	return code, nil
}

// Verify consumes the live code for the phone number. The record is deleted
// on success and after too many wrong guesses.
func (s *codeStore) Verify(phoneNumber, code string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := s.codeKey(phoneNumber)
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCodeExpired
	}
	if err != nil {
		return err
	}
	var record codeRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return fmt.Errorf("unmarshal code record: %w", err)
	}
	if time.Now().UTC().After(record.ExpiresAt) {
		_ = s.client.Del(ctx, key).Err()
		return ErrCodeExpired
	}
	if record.Attempts >= maxVerifyAttempts {
		_ = s.client.Del(ctx, key).Err()
		return ErrCodeExpired
	}
	if bcrypt.CompareHashAndPassword([]byte(record.CodeHash), []byte(code)) != nil {
		record.Attempts++
		if record.Attempts >= maxVerifyAttempts {
			_ = s.client.Del(ctx, key).Err()
		} else if updated, marshalErr := json.Marshal(record); marshalErr == nil {
			ttl, ttlErr := s.client.TTL(ctx, key).Result()
			if ttlErr == nil && ttl > 0 {
				_ = s.client.Set(ctx, key, updated, ttl).Err()
			}
		}
		return ErrCodeInvalid
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return err
	}
	return nil
}

// Drop removes the live code and resend marker, used when delivery fails so
// the caller may retry immediately.
func (s *codeStore) Drop(phoneNumber string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.client.Del(ctx, s.codeKey(phoneNumber), s.resendKey(phoneNumber)).Err()
}

func (s *codeStore) codeKey(phoneNumber string) string {
	return fmt.Sprintf("%s:live:%s", codeKeyPrefix, phoneNumber)
}

func (s *codeStore) resendKey(phoneNumber string) string {
	return fmt.Sprintf("%s:resend:%s", codeKeyPrefix, phoneNumber)
}

func generateNumericCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
