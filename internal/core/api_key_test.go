package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/softsso/internal/crypto"
)

func TestNewAPIKeyService(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)

	require.NotNil(t, svc)
	assert.Equal(t, db, svc.db)
}

// ---------- Create ----------

func TestAPIKeyService_Create_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()
	created := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	var storedHash string
	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*time.Time)) = created
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		storedHash = args[2].(string)
		return len(args) == 4 && args[1] == "billing"
	})).Return(row)

	key, raw, err := svc.Create(ctx, "billing")
	require.NoError(t, err)
	assert.Regexp(t, `^ssk_[0-9a-f]{64}$`, raw)
	assert.Equal(t, raw[:12], key.KeyPrefix)
	assert.Equal(t, crypto.HashAPIKey(raw), storedHash)
	assert.Equal(t, created, key.CreatedAt)
	assert.NotEmpty(t, key.ID)
	db.AssertExpectations(t)
}

func TestAPIKeyService_Create_EmptyName(t *testing.T) {
	svc := NewAPIKeyService(&mockDB{})
	_, _, err := svc.Create(context.Background(), "")
	require.Error(t, err)
}

func TestAPIKeyService_Create_DBError(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return errors.New("db down") }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, _, err := svc.Create(ctx, "billing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert api key")
}

// ---------- Authenticate ----------

func TestAPIKeyService_Authenticate_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "key-1"
		*(dest[1].(*string)) = "billing"
		*(dest[2].(*string)) = "ssk_abcdefgh"
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{crypto.HashAPIKey("ssk_raw")}).Return(row)

	key, err := svc.Authenticate(ctx, "ssk_raw")
	require.NoError(t, err)
	assert.Equal(t, "key-1", key.ID)
	assert.Equal(t, "billing", key.Name)
}

func TestAPIKeyService_Authenticate_Unknown(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := svc.Authenticate(ctx, "ssk_nope")
	assert.ErrorIs(t, err, ErrAPIKeyNotFound)
}

func TestAPIKeyService_Authenticate_EmptyKeySkipsDB(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)

	_, err := svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrAPIKeyNotFound)
	db.AssertNotCalled(t, "QueryRow", mock.Anything, mock.Anything, mock.Anything)
}

// ---------- List ----------

func TestAPIKeyService_List(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	rows := newMockRows(
		func(dest ...any) error {
			*(dest[0].(*string)) = "key-2"
			*(dest[1].(*string)) = "ops"
			return nil
		},
		func(dest ...any) error {
			*(dest[0].(*string)) = "key-1"
			*(dest[1].(*string)) = "billing"
			revoked := time.Now()
			*(dest[4].(**time.Time)) = &revoked
			return nil
		},
	)
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	keys, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "key-2", keys[0].ID)
	assert.Nil(t, keys[0].RevokedAt)
	assert.NotNil(t, keys[1].RevokedAt)
}

func TestAPIKeyService_List_QueryError(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(nil, errors.New("boom"))

	_, err := svc.List(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list api keys")
}

// ---------- Revoke ----------

func TestAPIKeyService_Revoke(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{"key-1"}).Return(pgconn.NewCommandTag("UPDATE 1"), nil).Once()
	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{"key-9"}).Return(pgconn.NewCommandTag("UPDATE 0"), nil).Once()

	require.NoError(t, svc.Revoke(ctx, "key-1"))
	assert.ErrorIs(t, svc.Revoke(ctx, "key-9"), ErrAPIKeyNotFound)
}
