package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	pgx.Tx
	commits   int
	rollbacks int
}

func (f *fakeTx) Commit(ctx context.Context) error   { f.commits++; return nil }
func (f *fakeTx) Rollback(ctx context.Context) error { f.rollbacks++; return nil }

type fakeBeginner struct {
	tx  *fakeTx
	err error
}

func (f *fakeBeginner) BeginTx(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tx, nil
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	tx := &fakeTx{}
	err := WithTx(context.Background(), &fakeBeginner{tx: tx}, func(pgx.Tx) error { return nil })
	require.NoError(t, err)
	require.Equal(t, 1, tx.commits)
}

func TestWithTxRollsBackOnCallbackError(t *testing.T) {
	tx := &fakeTx{}
	boom := errors.New("boom")
	err := WithTx(context.Background(), &fakeBeginner{tx: tx}, func(pgx.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, tx.commits)
	require.Equal(t, 1, tx.rollbacks)
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	tx := &fakeTx{}
	require.Panics(t, func() {
		_ = WithTx(context.Background(), &fakeBeginner{tx: tx}, func(pgx.Tx) error { panic("boom") })
	})
	require.Equal(t, 0, tx.commits)
	require.Equal(t, 1, tx.rollbacks)
}

func TestWithTxReturnsBeginError(t *testing.T) {
	boom := errors.New("down")
	err := WithTx(context.Background(), &fakeBeginner{err: boom}, func(pgx.Tx) error { return nil })
	require.ErrorIs(t, err, boom)
}
