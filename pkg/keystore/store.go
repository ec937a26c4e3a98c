package keystore

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/noteauth/pkg/cache"
	"github.com/dmitrymomot/noteauth/pkg/fingerprint"
	"github.com/dmitrymomot/noteauth/pkg/keylock"
	"github.com/dmitrymomot/noteauth/pkg/kv"
	"github.com/dmitrymomot/noteauth/pkg/logger"
)

const (
	// DefaultSessionElementKey is the durable storage key of the session element.
	DefaultSessionElementKey = "keystore.session_element"

	sessionElementSize  = 32
	defaultKeyCacheSize = 16
)

// Store encrypts values and keeps them in durable storage.
type Store struct {
	durable    kv.Store
	source     fingerprint.Source
	elementKey string
	cacheSize  int
	keys       *cache.LRU[string, []byte]
	locks      keylock.Locker
	elementMu  sync.Mutex
	logger     *slog.Logger
}

// New creates a Store. source supplies the device fingerprint mixed into keys.
func New(durable kv.Store, source fingerprint.Source, opts ...Option) *Store {
	s := &Store{
		durable:    durable,
		source:     source,
		elementKey: DefaultSessionElementKey,
		cacheSize:  defaultKeyCacheSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cacheSize > 0 {
		s.keys = cache.NewLRU[string, []byte](s.cacheSize)
		s.keys.OnEvict(func(_ string, k []byte) { clear(k) })
	}
	s.logger = s.logger.With(logger.Component("keystore"))
	return s
}

// Seal encrypts plaintext under a key bound to id and the current device,
// returning the encoded record.
func (s *Store) Seal(ctx context.Context, plaintext string, id Identity) (string, error) {
	if !id.Valid() {
		return "", ErrIdentityRequired
	}

	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}
	key, err := s.identityKey(ctx, id, salt)
	if err != nil {
		return "", err
	}
	defer clear(key)

	ct, err := sealCBC(key[:KeySize/2], key[KeySize/2:], salt, []byte(plaintext))
	if err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}
	encoded, err := Record{Scheme: SchemeIdentityBound, Salt: salt, Ciphertext: ct}.Encode()
	if err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}
	return encoded, nil
}

// Open decrypts a record produced by Seal. It does not touch storage.
func (s *Store) Open(ctx context.Context, encoded string, id Identity) (string, error) {
	if !id.Valid() {
		return "", ErrIdentityRequired
	}
	rec := ParseRecord(encoded)
	if rec.Malformed() {
		return "", errors.Join(ErrDecryptionFailed, ErrMalformedRecord)
	}
	if rec.Scheme != SchemeIdentityBound {
		return "", ErrSchemeMismatch
	}

	key, err := s.identityKey(ctx, id, rec.Salt)
	if err != nil {
		return "", err
	}
	defer clear(key)

	plain, err := openCBC(key[:KeySize/2], key[KeySize/2:], rec.Salt, rec.Ciphertext)
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}
	return string(plain), nil
}

// EncryptAndStore seals plaintext and writes it under key.
// Encryption without a complete identity is refused with ErrIdentityRequired.
func (s *Store) EncryptAndStore(ctx context.Context, key, plaintext string, id Identity) error {
	sealed, err := s.Seal(ctx, plaintext, id)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	if err := s.durable.Set(ctx, key, sealed); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

// DecryptAndGet reads and decrypts the value under key.
//
// It returns ok=false with a nil error when nothing is stored. When the stored
// record cannot be decrypted, because of a wrong identity, a changed device or
// tampering, the record is deleted and ErrDecryptionFailed is returned; later
// calls report ok=false. A damaged value that no longer decodes as a record
// counts as tampering. A record of another scheme yields ErrSchemeMismatch and
// is left in place for Migrate.
func (s *Store) DecryptAndGet(ctx context.Context, key string, id Identity) (string, bool, error) {
	if !id.Valid() {
		return "", false, ErrIdentityRequired
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	raw, ok, err := s.read(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}

	plain, err := s.Open(ctx, raw, id)
	switch {
	case err == nil:
		return plain, true, nil
	case errors.Is(err, ErrDecryptionFailed):
		return "", false, s.discard(ctx, key, SchemeIdentityBound, err)
	default:
		return "", false, err
	}
}

// EncryptDeviceBound stores plaintext under the weaker basic-mode scheme,
// keyed by the device fingerprint and session element only.
func (s *Store) EncryptDeviceBound(ctx context.Context, key, plaintext string) error {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return errors.Join(ErrEncryptionFailed, err)
	}
	k, err := s.deviceKey(ctx, salt)
	if err != nil {
		return err
	}
	defer clear(k)

	ct, err := sealGCM(k, []byte(plaintext))
	if err != nil {
		return errors.Join(ErrEncryptionFailed, err)
	}
	encoded, err := Record{Scheme: SchemeDeviceBound, Salt: salt, Ciphertext: ct}.Encode()
	if err != nil {
		return errors.Join(ErrEncryptionFailed, err)
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	if err := s.durable.Set(ctx, key, encoded); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

// DecryptDeviceBound is DecryptAndGet for the basic-mode scheme, with the
// same fail-safe delete policy.
func (s *Store) DecryptDeviceBound(ctx context.Context, key string) (string, bool, error) {
	unlock := s.locks.Lock(key)
	defer unlock()

	raw, ok, err := s.read(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	rec := ParseRecord(raw)
	if rec.Malformed() {
		return "", false, s.discard(ctx, key, rec.Scheme, ErrMalformedRecord)
	}
	if rec.Scheme != SchemeDeviceBound {
		return "", false, ErrSchemeMismatch
	}

	k, err := s.deviceKey(ctx, rec.Salt)
	if err != nil {
		return "", false, err
	}
	defer clear(k)

	plain, err := openGCM(k, rec.Ciphertext)
	if err != nil {
		return "", false, s.discard(ctx, key, SchemeDeviceBound, err)
	}
	return string(plain), true, nil
}

// Inspect returns the record stored under key without decrypting it.
func (s *Store) Inspect(ctx context.Context, key string) (Record, bool, error) {
	raw, ok, err := s.read(ctx, key)
	if err != nil || !ok {
		return Record{}, false, err
	}
	return ParseRecord(raw), true, nil
}

// ApplyMigration inspects the record under key and deletes it when Migrate
// says so. A missing record needs no action.
func (s *Store) ApplyMigration(ctx context.Context, key string) (Action, error) {
	unlock := s.locks.Lock(key)
	defer unlock()

	raw, ok, err := s.read(ctx, key)
	if err != nil || !ok {
		return ActionKeep, err
	}
	rec := ParseRecord(raw)
	action := Migrate(rec)
	if action == ActionDeleteAndReenroll {
		if err := s.durable.Remove(ctx, key); err != nil {
			return action, errors.Join(ErrStorage, err)
		}
		s.logger.InfoContext(ctx, "old record deleted",
			logger.Event("keystore.migrated"),
			logger.Scheme(string(rec.Scheme)),
		)
	}
	return action, nil
}

// Remove deletes the given keys.
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		unlock := s.locks.Lock(key)
		err := s.durable.Remove(ctx, key)
		unlock()
		if err != nil {
			return errors.Join(ErrStorage, err)
		}
	}
	return nil
}

// ForgetKeys drops every cached derived key.
func (s *Store) ForgetKeys() {
	if s.keys != nil {
		s.keys.Purge()
	}
}

func (s *Store) read(ctx context.Context, key string) (string, bool, error) {
	raw, err := s.durable.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Join(ErrStorage, err)
	}
	return raw, true, nil
}

// discard deletes an undecryptable record. Must be called with the key lock held.
func (s *Store) discard(ctx context.Context, key string, scheme Scheme, cause error) error {
	s.logger.WarnContext(ctx, "undecryptable record deleted",
		logger.Event("keystore.discarded"),
		logger.Scheme(string(scheme)),
		logger.Error(cause),
	)
	if err := s.durable.Remove(ctx, key); err != nil {
		return errors.Join(ErrDecryptionFailed, ErrStorage, err)
	}
	return ErrDecryptionFailed
}

// identityKey returns a copy of the PBKDF2 key for id, the device and salt.
func (s *Store) identityKey(ctx context.Context, id Identity, salt []byte) ([]byte, error) {
	fp, err := s.fingerprint(ctx)
	if err != nil {
		return nil, err
	}
	element, err := s.sessionElement(ctx)
	if err != nil {
		return nil, err
	}

	parts := append(id.secrets(), fp, element)
	pass := passphrase(parts...)
	defer clear(pass)

	if s.keys == nil {
		return deriveKey(pass, salt), nil
	}
	ck := cacheKey(pass, salt)
	if k, ok := s.keys.Get(ck); ok {
		return bytes.Clone(k), nil
	}
	k := deriveKey(pass, salt)
	s.keys.Put(ck, bytes.Clone(k))
	return k, nil
}

func (s *Store) deviceKey(ctx context.Context, salt []byte) ([]byte, error) {
	fp, err := s.fingerprint(ctx)
	if err != nil {
		return nil, err
	}
	element, err := s.sessionElement(ctx)
	if err != nil {
		return nil, err
	}
	material := passphrase(fp, element)
	defer clear(material)

	k, err := deviceBoundKey(material, salt)
	if err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}
	return k, nil
}

func (s *Store) fingerprint(ctx context.Context) ([]byte, error) {
	if s.source == nil {
		return nil, ErrFingerprint
	}
	fp, err := s.source.Fingerprint(ctx)
	if err != nil {
		return nil, errors.Join(ErrFingerprint, err)
	}
	return []byte(fp), nil
}

// sessionElement loads the persisted random element, creating it on first use.
func (s *Store) sessionElement(ctx context.Context) ([]byte, error) {
	s.elementMu.Lock()
	defer s.elementMu.Unlock()

	raw, err := s.durable.Get(ctx, s.elementKey)
	if err == nil {
		if el, decErr := base64.StdEncoding.DecodeString(raw); decErr == nil && len(el) == sessionElementSize {
			return el, nil
		}
		s.logger.WarnContext(ctx, "malformed session element replaced", logger.Event("keystore.element_reset"))
	} else if !errors.Is(err, kv.ErrNotFound) {
		return nil, errors.Join(ErrStorage, err)
	}

	el := make([]byte, sessionElementSize)
	if _, err := rand.Read(el); err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}
	if err := s.durable.Set(ctx, s.elementKey, base64.StdEncoding.EncodeToString(el)); err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	return el, nil
}
