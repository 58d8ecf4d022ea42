package application

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/bmi-tracker/internal/domain/entity"
	"github.com/oksasatya/bmi-tracker/internal/infrastructure/memory"
	"github.com/oksasatya/bmi-tracker/pkg/helpers"
	"github.com/oksasatya/bmi-tracker/pkg/validation"
)

type fakeIndexer struct {
	index  func(ctx context.Context, r entity.BMIRecord) error
	delete func(ctx context.Context, id string) error
}

func (f fakeIndexer) IndexRecord(ctx context.Context, r entity.BMIRecord) error {
	return f.index(ctx, r)
}

func (f fakeIndexer) DeleteRecord(ctx context.Context, id string) error {
	return f.delete(ctx, id)
}

type fakeUploader func(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)

func (f fakeUploader) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	return f(ctx, objectPath, contentType, r)
}

type countingMetrics struct {
	submitted map[string]int
	deleted   int
}

func (m *countingMetrics) RecordSubmission(category string) {
	if m.submitted == nil {
		m.submitted = map[string]int{}
	}
	m.submitted[category]++
}

func (m *countingMetrics) RecordDeletion() { m.deleted++ }

// failingRepo fails every call to exercise storage fault paths.
type failingRepo struct{ err error }

func (f failingRepo) Create(context.Context, *entity.BMIRecord) error { return f.err }
func (f failingRepo) ListRecent(context.Context, string, int) ([]entity.BMIRecord, error) {
	return nil, f.err
}
func (f failingRepo) GetLatest(context.Context, string) (*entity.BMIRecord, error) { return nil, f.err }
func (f failingRepo) DeleteByID(context.Context, string, string) error          { return f.err }

func measurement(weight, height float64, age int) MeasurementInput {
	return MeasurementInput{Weight: &weight, Height: &height, Age: &age}
}

func newTestBMIService() *BMIService {
	return NewBMIService(memory.NewBMIRepository(), helpers.NewDiscardLogger())
}

func TestSubmitDerivesAndStores(t *testing.T) {
	svc := newTestBMIService()
	ctx := context.Background()

	rec, err := svc.Submit(ctx, "user-1", measurement(70, 175, 30))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, 22.9, rec.BMI)
	assert.Equal(t, entity.CategoryNormalWeight, rec.Category)
	assert.False(t, rec.CreatedAt.IsZero())

	latest, err := svc.Latest(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, latest.ID)
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	svc := newTestBMIService()
	ctx := context.Background()

	tests := []struct {
		name  string
		in    MeasurementInput
		field string
	}{
		{"age zero", measurement(70, 175, 0), "age"},
		{"age too high", measurement(70, 175, 151), "age"},
		{"weight zero", measurement(0, 175, 30), "weight"},
		{"negative height", measurement(70, -1, 30), "height"},
		{"missing weight", MeasurementInput{Height: ptr(175.0), Age: ptr(30)}, "weight"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, "user-1", tt.in)
			var verrs validation.Errors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}

	hist, err := svc.History(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func ptr[T any](v T) *T { return &v }

func TestSubmitRejectsOverflowingBMI(t *testing.T) {
	svc := newTestBMIService()
	ctx := context.Background()

	for _, in := range []MeasurementInput{measurement(1e308, 1, 30), measurement(70, 1e-200, 30)} {
		_, err := svc.Submit(ctx, "user-1", in)
		var verrs validation.Errors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "bmi", verrs[0].Field)

		_, _, err = svc.Preview(in)
		assert.ErrorAs(t, err, &verrs)
	}

	hist, err := svc.History(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestHistoryCapsAtFiftyNewestFirst(t *testing.T) {
	svc := newTestBMIService()
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		_, err := svc.Submit(ctx, "user-1", measurement(40+float64(i), 175, 30))
		require.NoError(t, err)
	}
	_, err := svc.Submit(ctx, "user-2", measurement(80, 180, 40))
	require.NoError(t, err)

	hist, err := svc.History(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, hist, historyLimit)
	assert.Equal(t, 99.0, hist[0].Weight)
	assert.Equal(t, 50.0, hist[historyLimit-1].Weight)
	for _, r := range hist {
		assert.Equal(t, "user-1", r.UserID)
	}
}

func TestHistoryEmptyIsNotNil(t *testing.T) {
	hist, err := newTestBMIService().History(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, hist)
	assert.Empty(t, hist)
}

func TestLatestWithoutRecords(t *testing.T) {
	_, err := newTestBMIService().Latest(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestRemoveIsOwnerScoped(t *testing.T) {
	svc := newTestBMIService()
	ctx := context.Background()
	rec, err := svc.Submit(ctx, "owner", measurement(70, 175, 30))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Remove(ctx, "intruder", rec.ID), ErrRecordNotFound)
	latest, err := svc.Latest(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, latest.ID)

	require.NoError(t, svc.Remove(ctx, "owner", rec.ID))
	assert.ErrorIs(t, svc.Remove(ctx, "owner", rec.ID), ErrRecordNotFound)
	assert.ErrorIs(t, svc.Remove(ctx, "owner", "not-a-uuid"), ErrRecordNotFound)
}

func TestStatsOverService(t *testing.T) {
	svc := newTestBMIService()
	ctx := context.Background()

	st, err := svc.Stats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, TrendNoData, st.Trend)

	// heights chosen so BMI is 22.0 then 23.0
	_, err = svc.Submit(ctx, "user-1", measurement(88, 200, 30))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "user-1", measurement(92, 200, 30))
	require.NoError(t, err)

	st, err = svc.Stats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, TrendIncreasing, st.Trend)
	assert.Equal(t, 22.5, st.AverageBMI)
	assert.Equal(t, 2, st.CategoryDistribution[entity.CategoryNormalWeight])
	assert.Len(t, st.Records, 2)
}

func TestStatsWindowIsThirty(t *testing.T) {
	svc := newTestBMIService()
	ctx := context.Background()
	// 10 obese records first, then 30 normal ones; only the latter are in the window
	for i := 0; i < 10; i++ {
		_, err := svc.Submit(ctx, "user-1", measurement(140, 200, 30))
		require.NoError(t, err)
	}
	for i := 0; i < statsWindow; i++ {
		_, err := svc.Submit(ctx, "user-1", measurement(88, 200, 30))
		require.NoError(t, err)
	}

	st, err := svc.Stats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, map[entity.Category]int{entity.CategoryNormalWeight: statsWindow}, st.CategoryDistribution)
	assert.Len(t, st.Records, chartSize)
}

func TestPreviewDoesNotPersist(t *testing.T) {
	svc := newTestBMIService()

	bmi, cat, err := svc.Preview(measurement(70, 175, 30))
	require.NoError(t, err)
	assert.Equal(t, 22.9, bmi)
	assert.Equal(t, entity.CategoryNormalWeight, cat)

	_, _, err = svc.Preview(measurement(70, 175, 0))
	assert.Error(t, err)

	_, err = svc.Latest(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestSideEffectsAreBestEffort(t *testing.T) {
	svc := newTestBMIService()
	metrics := &countingMetrics{}
	var indexed, unindexed []string
	svc.Metrics = metrics
	svc.Indexer = fakeIndexer{
		index: func(_ context.Context, r entity.BMIRecord) error {
			indexed = append(indexed, r.ID)
			return errors.New("es down")
		},
		delete: func(_ context.Context, id string) error {
			unindexed = append(unindexed, id)
			return errors.New("es down")
		},
	}
	ctx := context.Background()

	rec, err := svc.Submit(ctx, "user-1", measurement(100, 175, 30))
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, "user-1", rec.ID))

	assert.Equal(t, []string{rec.ID}, indexed)
	assert.Equal(t, []string{rec.ID}, unindexed)
	assert.Equal(t, 1, metrics.submitted["Obesity"])
	assert.Equal(t, 1, metrics.deleted)

	// failed deletes leave no trace
	assert.ErrorIs(t, svc.Remove(ctx, "user-1", rec.ID), ErrRecordNotFound)
	assert.Len(t, unindexed, 1)
	assert.Equal(t, 1, metrics.deleted)
}

func TestStorageFaultsAreWrapped(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewBMIService(failingRepo{err: boom}, helpers.NewDiscardLogger())
	ctx := context.Background()

	_, err := svc.Submit(ctx, "u", measurement(70, 175, 30))
	assert.ErrorIs(t, err, boom)
	_, err = svc.History(ctx, "u")
	assert.ErrorIs(t, err, boom)
	_, err = svc.Latest(ctx, "u")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNoRecords)
	assert.ErrorIs(t, svc.Remove(ctx, "u", "id"), boom)
	_, err = svc.Stats(ctx, "u")
	assert.ErrorIs(t, err, boom)
}

func TestExport(t *testing.T) {
	svc := newTestBMIService()
	ctx := context.Background()

	_, err := svc.Export(ctx, "user-1")
	assert.ErrorIs(t, err, ErrExportUnavailable)

	rec, err := svc.Submit(ctx, "user-1", measurement(70, 175, 30))
	require.NoError(t, err)

	var gotPath, gotType string
	var body bytes.Buffer
	svc.Uploader = fakeUploader(func(_ context.Context, objectPath, contentType string, r io.Reader) (string, error) {
		gotPath, gotType = objectPath, contentType
		_, err := io.Copy(&body, r)
		return "https://storage.example/" + objectPath, err
	})

	url, err := svc.Export(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(gotPath, "exports/user-1/"))
	assert.True(t, strings.HasSuffix(gotPath, ".csv"))
	assert.Equal(t, "text/csv", gotType)
	assert.Equal(t, "https://storage.example/"+gotPath, url)

	rows, err := csv.NewReader(&body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{rec.ID, rec.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"), "70", "175", "30", "22.9", "Normal weight"}, rows[1])
}
