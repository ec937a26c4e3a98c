package keystore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/noteauth/pkg/keystore"
	"github.com/dmitrymomot/noteauth/pkg/kv"
)

func TestParseRecord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want keystore.Scheme
	}{
		{"plaintext secret", "JBSWY3DPEHPK3PXP", keystore.SchemeLegacy},
		{"plaintext user id", "b1946ac92492d2347c6235b4d2611184", keystore.SchemeLegacy},
		{"device bound", `{"scheme":"device_bound","ciphertext":"AAAA"}`, keystore.SchemeDeviceBound},
		{"identity bound", `{"scheme":"identity_bound","salt":"AAAA","ciphertext":"AAAA"}`, keystore.SchemeIdentityBound},
		{"unknown json", `{"foo":"bar"}`, keystore.SchemeMalformed},
		{"unknown scheme", `{"scheme":"rot13","ciphertext":""}`, keystore.SchemeMalformed},
		{"broken json", `{"scheme":`, keystore.SchemeMalformed},
		{"broken base64", `{"scheme":"identity_bound","salt":"AAAA","ciphertext":"AA!A"}`, keystore.SchemeMalformed},
		{"damaged opening brace", `;"scheme":"device_bound","ciphertext":"AAAA"}`, keystore.SchemeMalformed},
		{"damaged closing brace", `{"scheme":"device_bound","ciphertext":"AAAA"|`, keystore.SchemeMalformed},
		{"field name case", `{"Scheme":"device_bound","ciphertext":"AAAA"}`, keystore.SchemeMalformed},
		{"unused base64 bits", `{"scheme":"device_bound","ciphertext":"AAB="}`, keystore.SchemeMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, keystore.ParseRecord(tt.raw).Scheme)
		})
	}
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, keystore.ActionKeep, keystore.Migrate(keystore.Record{Scheme: keystore.SchemeIdentityBound}))
	assert.Equal(t, keystore.ActionDeleteAndReenroll, keystore.Migrate(keystore.Record{Scheme: keystore.SchemeDeviceBound}))
	assert.Equal(t, keystore.ActionDeleteAndReenroll, keystore.Migrate(keystore.Record{Scheme: keystore.SchemeLegacy}))
	assert.Equal(t, keystore.ActionDeleteAndReenroll, keystore.Migrate(keystore.Record{Scheme: keystore.SchemeMalformed}))
	assert.Equal(t, keystore.ActionDeleteAndReenroll, keystore.Migrate(keystore.Record{Scheme: "future"}))
	assert.Equal(t, "delete_and_reenroll", keystore.ActionDeleteAndReenroll.String())
}

func TestStore_ApplyMigration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("legacy plaintext is deleted", func(t *testing.T) {
		t.Parallel()
		durable := kv.NewMemoryStore()
		s := newStore(durable, laptop)
		require.NoError(t, durable.Set(ctx, secretKey, "JBSWY3DPEHPK3PXP"))

		rec, ok, err := s.Inspect(ctx, secretKey)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, keystore.SchemeLegacy, rec.Scheme)

		action, err := s.ApplyMigration(ctx, secretKey)
		require.NoError(t, err)
		assert.Equal(t, keystore.ActionDeleteAndReenroll, action)

		_, ok, err = s.Inspect(ctx, secretKey)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("device bound is deleted", func(t *testing.T) {
		t.Parallel()
		durable := kv.NewMemoryStore()
		s := newStore(durable, laptop)
		require.NoError(t, s.EncryptDeviceBound(ctx, secretKey, "JBSWY3DPEHPK3PXP"))

		action, err := s.ApplyMigration(ctx, secretKey)
		require.NoError(t, err)
		assert.Equal(t, keystore.ActionDeleteAndReenroll, action)
		_, err = durable.Get(ctx, secretKey)
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("identity bound is kept", func(t *testing.T) {
		t.Parallel()
		durable := kv.NewMemoryStore()
		s := newStore(durable, laptop)
		require.NoError(t, s.EncryptAndStore(ctx, secretKey, "secret", alice))

		action, err := s.ApplyMigration(ctx, secretKey)
		require.NoError(t, err)
		assert.Equal(t, keystore.ActionKeep, action)

		got, ok, err := s.DecryptAndGet(ctx, secretKey, alice)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "secret", got)
	})

	t.Run("missing record", func(t *testing.T) {
		t.Parallel()
		action, err := newStore(kv.NewMemoryStore(), laptop).ApplyMigration(ctx, secretKey)
		require.NoError(t, err)
		assert.Equal(t, keystore.ActionKeep, action)
	})
}
