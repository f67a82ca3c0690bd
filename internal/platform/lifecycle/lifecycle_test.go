package lifecycle

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []interface{}
}

type fakeQuerier struct {
	calls    []execCall
	affected int64
	err      error
	count    int64
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	verb := strings.Fields(sql)[0]
	return pgconn.NewCommandTag(verb + " " + strconv.FormatInt(f.affected, 10)), nil
}

func (f *fakeQuerier) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...interface{}) pgx.Row {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return countRow{n: f.count, err: f.err}
}

type countRow struct {
	n   int64
	err error
}

func (r countRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.n
	return nil
}

func TestSoftDelete(t *testing.T) {
	q := &fakeQuerier{affected: 1}
	id := uuid.New()
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	found, err := SoftDelete(context.Background(), q, "doctor", id, at)
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, q.calls, 1)
	assert.Contains(t, q.calls[0].sql, "UPDATE doctor SET is_deleted = TRUE, deleted_at = $2")
	assert.Equal(t, []interface{}{id, at}, q.calls[0].args)
}

func TestSoftDelete_NotFound(t *testing.T) {
	q := &fakeQuerier{affected: 0}
	found, err := SoftDelete(context.Background(), q, "posture", uuid.New(), time.Now())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRestore(t *testing.T) {
	q := &fakeQuerier{affected: 1}
	found, err := Restore(context.Background(), q, "patient", uuid.New(), time.Now())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Contains(t, q.calls[0].sql, "is_deleted = FALSE, deleted_at = NULL")
}

func TestPurgeBefore(t *testing.T) {
	q := &fakeQuerier{affected: 4}
	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	n, err := PurgeBefore(context.Background(), q, "mission", cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Contains(t, q.calls[0].sql, "DELETE FROM mission WHERE is_deleted")
	assert.Equal(t, []interface{}{cutoff}, q.calls[0].args)
}

func TestCountPurgeable(t *testing.T) {
	q := &fakeQuerier{count: 7}
	n, err := CountPurgeable(context.Background(), q, "posture", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestErrorsAreWrapped(t *testing.T) {
	q := &fakeQuerier{err: errors.New("connection reset")}
	_, err := SoftDelete(context.Background(), q, "doctor", uuid.New(), time.Now())
	assert.ErrorContains(t, err, "soft delete doctor")
	_, err = PurgeBefore(context.Background(), q, "doctor", time.Now())
	assert.ErrorContains(t, err, "purge doctor")
}
