package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronbannin/vectordb/internal/vdberrors"
)

type testRecord struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	// Given: an empty store
	s, err := Open(t.TempDir(), "chunk")
	require.NoError(t, err)

	// When: a record is put then got
	rec := testRecord{ID: "a", Text: "hello"}
	require.NoError(t, s.Put(rec.ID, rec))

	var got testRecord
	require.NoError(t, s.Get("a", &got))

	// Then: the record round-trips byte-for-byte in meaning
	assert.Equal(t, rec, got)
}

func TestStore_GetMissing_NotFound(t *testing.T) {
	s, err := Open(t.TempDir(), "chunk")
	require.NoError(t, err)

	var got testRecord
	err = s.Get("missing", &got)

	require.Error(t, err)
	assert.True(t, errors.Is(err, vdberrors.NotFound("chunk", "missing")))
}

func TestStore_Delete_Idempotent(t *testing.T) {
	// Given: a store with one record
	s, err := Open(t.TempDir(), "chunk")
	require.NoError(t, err)
	require.NoError(t, s.Put("a", testRecord{ID: "a"}))

	// When: deleted twice
	require.NoError(t, s.Delete("a"))
	err = s.Delete("a")

	// Then: the second call reports NotFound, end state is the same
	require.Error(t, err)
	assert.True(t, errors.Is(err, vdberrors.NotFound("chunk", "a")))
	assert.False(t, s.Exists("a"))
}

func TestStore_List(t *testing.T) {
	s, err := Open(t.TempDir(), "chunk")
	require.NoError(t, err)

	require.NoError(t, s.Put("a", testRecord{ID: "a"}))
	require.NoError(t, s.Put("b", testRecord{ID: "b"}))

	ids, err := s.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestStore_List_IgnoresTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "chunk")
	require.NoError(t, err)
	require.NoError(t, s.Put("a", testRecord{ID: "a"}))

	// A half-written temp file left behind by a crashed writer.
	tmp := filepath.Join(dir, "b.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("{incomplete"), 0o644))

	ids, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}

func TestStore_Exists(t *testing.T) {
	s, err := Open(t.TempDir(), "chunk")
	require.NoError(t, err)

	assert.False(t, s.Exists("a"))
	require.NoError(t, s.Put("a", testRecord{ID: "a"}))
	assert.True(t, s.Exists("a"))
}

func TestStore_Put_Overwrites(t *testing.T) {
	s, err := Open(t.TempDir(), "chunk")
	require.NoError(t, err)

	require.NoError(t, s.Put("a", testRecord{ID: "a", Text: "first"}))
	require.NoError(t, s.Put("a", testRecord{ID: "a", Text: "second"}))

	var got testRecord
	require.NoError(t, s.Get("a", &got))
	assert.Equal(t, "second", got.Text)
}
