package share

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clauselens/internal/model"
)

func testReport() *model.Report {
	return &model.Report{
		Source: "pasted",
		Result: &model.AnalysisResult{RiskScore: 33, RiskLevel: model.RiskLow},
	}
}

func TestMemoryStore_SaveGet(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	entry, err := s.Save(testReport())
	require.NoError(t, err)

	_, err = uuid.Parse(entry.ID)
	assert.NoError(t, err, "share IDs are UUIDs")
	assert.Equal(t, fixed, entry.CreatedAt)
	assert.Equal(t, fixed.Add(time.Hour), entry.ExpiresAt)

	got, err := s.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, got.Report.Result.RiskScore)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_NotFound(t *testing.T) {
	s := NewMemoryStore(time.Hour)

	_, err := s.Get(uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get("../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Expires(t *testing.T) {
	s := NewMemoryStore(20 * time.Millisecond)

	entry, err := s.Save(testReport())
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	_, err = s.Get(entry.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_InvalidReport(t *testing.T) {
	s := NewMemoryStore(time.Hour)

	_, err := s.Save(nil)
	assert.ErrorIs(t, err, ErrInvalidReport)
	_, err = s.Save(&model.Report{Source: "x"})
	assert.ErrorIs(t, err, ErrInvalidReport)
}

func TestMemoryStore_UniqueIDs(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		entry, err := s.Save(testReport())
		require.NoError(t, err)
		assert.False(t, seen[entry.ID])
		seen[entry.ID] = true
	}
}
