package application

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/bmi-tracker/internal/domain/entity"
	repo "github.com/oksasatya/bmi-tracker/internal/domain/repository"
	"github.com/oksasatya/bmi-tracker/pkg/helpers"
	"github.com/oksasatya/bmi-tracker/pkg/validation"
)

const (
	historyLimit = 50
	statsWindow  = 30
	chartSize    = 10
	exportLimit  = 1000
)

// MeasurementInput is a submitted measurement. Pointer fields tell a missing
// value apart from an explicit zero.
type MeasurementInput struct {
	Weight *float64 `json:"weight" validate:"required,gt=0"`
	Height *float64 `json:"height" validate:"required,gt=0"`
	Age    *int     `json:"age" validate:"required,age"`
}

// RecordIndexer mirrors records into a search index.
type RecordIndexer interface {
	IndexRecord(ctx context.Context, r entity.BMIRecord) error
	DeleteRecord(ctx context.Context, id string) error
}

// ObjectUploader stores an object and returns a URL for it.
type ObjectUploader interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// RecordMetrics counts record writes.
type RecordMetrics interface {
	RecordSubmission(category string)
	RecordDeletion()
}

// BMIService owns the record use cases. Indexer, Uploader and Metrics are
// optional; leave them nil when the backing service is not configured.
type BMIService struct {
	Repo     repo.BMIRepository
	Logger   *logrus.Logger
	Indexer  RecordIndexer
	Uploader ObjectUploader
	Metrics  RecordMetrics
}

func NewBMIService(r repo.BMIRepository, logger *logrus.Logger) *BMIService {
	return &BMIService{Repo: r, Logger: logger}
}

// Submit validates the measurement, derives BMI and category, and stores it.
func (s *BMIService) Submit(ctx context.Context, ownerID string, in MeasurementInput) (*entity.BMIRecord, error) {
	if _, _, err := derive(in); err != nil {
		return nil, err
	}
	rec := entity.NewBMIRecord(ownerID, *in.Weight, *in.Height, *in.Age)
	if err := s.Repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create bmi record: %w", err)
	}

	if s.Metrics != nil {
		s.Metrics.RecordSubmission(string(rec.Category))
	}
	if s.Indexer != nil {
		if err := s.Indexer.IndexRecord(ctx, *rec); err != nil {
			helpers.LogWarn(s.Logger, "index bmi record failed", err, logrus.Fields{"user_id": ownerID, "record_id": rec.ID})
		}
	}
	return rec, nil
}

// Preview runs the same validation and derivation as Submit without storing.
func (s *BMIService) Preview(in MeasurementInput) (float64, entity.Category, error) {
	return derive(in)
}

// derive validates in and rejects measurements whose BMI does not fit in a
// float64, which could be neither stored nor encoded as JSON.
func derive(in MeasurementInput) (float64, entity.Category, error) {
	if err := validation.Struct(in); err != nil {
		return 0, "", err
	}
	bmi, cat := entity.Derive(*in.Weight, *in.Height)
	if math.IsInf(bmi, 0) || math.IsNaN(bmi) {
		return 0, "", validation.Errors{{Field: "bmi", Message: "bmi is out of range, check weight and height"}}
	}
	return bmi, cat, nil
}

// History returns the newest records of the owner, newest first.
func (s *BMIService) History(ctx context.Context, ownerID string) ([]entity.BMIRecord, error) {
	recs, err := s.Repo.ListRecent(ctx, ownerID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("list bmi history: %w", err)
	}
	if recs == nil {
		recs = []entity.BMIRecord{}
	}
	return recs, nil
}

func (s *BMIService) Latest(ctx context.Context, ownerID string) (*entity.BMIRecord, error) {
	rec, err := s.Repo.GetLatest(ctx, ownerID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNoRecords
	}
	if err != nil {
		return nil, fmt.Errorf("get latest bmi record: %w", err)
	}
	return rec, nil
}

// Remove deletes one of the owner's records.
func (s *BMIService) Remove(ctx context.Context, ownerID, id string) error {
	err := s.Repo.DeleteByID(ctx, ownerID, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrRecordNotFound
	}
	if err != nil {
		return fmt.Errorf("delete bmi record: %w", err)
	}

	if s.Metrics != nil {
		s.Metrics.RecordDeletion()
	}
	if s.Indexer != nil {
		if err := s.Indexer.DeleteRecord(ctx, id); err != nil {
			helpers.LogWarn(s.Logger, "unindex bmi record failed", err, logrus.Fields{"user_id": ownerID, "record_id": id})
		}
	}
	return nil
}

// Stats aggregates the owner's most recent records.
func (s *BMIService) Stats(ctx context.Context, ownerID string) (Stats, error) {
	window, err := s.Repo.ListRecent(ctx, ownerID, statsWindow)
	if err != nil {
		return Stats{}, fmt.Errorf("list bmi stats window: %w", err)
	}
	return Aggregate(window), nil
}

// Export writes the owner's history as CSV to object storage and returns
// the object URL.
func (s *BMIService) Export(ctx context.Context, ownerID string) (string, error) {
	if s.Uploader == nil {
		return "", ErrExportUnavailable
	}
	recs, err := s.Repo.ListRecent(ctx, ownerID, exportLimit)
	if err != nil {
		return "", fmt.Errorf("list bmi export: %w", err)
	}
	body, err := encodeCSV(recs)
	if err != nil {
		return "", fmt.Errorf("encode bmi export: %w", err)
	}
	objectPath := fmt.Sprintf("exports/%s/%s.csv", ownerID, uuid.NewString())
	url, err := s.Uploader.Upload(ctx, objectPath, "text/csv", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("upload bmi export: %w", err)
	}
	return url, nil
}

var csvHeader = []string{"id", "created_at", "weight_kg", "height_cm", "age", "bmi", "category"}

func encodeCSV(recs []entity.BMIRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range recs {
		row := []string{
			r.ID,
			r.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatFloat(r.Weight, 'f', -1, 64),
			strconv.FormatFloat(r.Height, 'f', -1, 64),
			strconv.Itoa(r.Age),
			strconv.FormatFloat(r.BMI, 'f', 1, 64),
			string(r.Category),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
