package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/bmi-tracker/internal/domain/entity"
)

const defaultTimeout = 3 * time.Second

// RecordIndexer mirrors BMI records into an Elasticsearch index.
type RecordIndexer struct {
	ES      *elasticsearch.Client
	Index   string
	Timeout time.Duration
}

func NewRecordIndexer(es *elasticsearch.Client, index string) *RecordIndexer {
	return &RecordIndexer{ES: es, Index: index, Timeout: defaultTimeout}
}

type recordDoc struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Weight    float64 `json:"weight"`
	Height    float64 `json:"height"`
	Age       int     `json:"age"`
	BMI       float64 `json:"bmi"`
	Category  string  `json:"category"`
	CreatedAt string  `json:"created_at"`
}

func (x *RecordIndexer) timeout() time.Duration {
	if x.Timeout <= 0 {
		return defaultTimeout
	}
	return x.Timeout
}

// IndexRecord upserts the record document under its id.
func (x *RecordIndexer) IndexRecord(ctx context.Context, r entity.BMIRecord) error {
	b, err := json.Marshal(recordDoc{
		ID:        r.ID,
		UserID:    r.UserID,
		Weight:    r.Weight,
		Height:    r.Height,
		Age:       r.Age,
		BMI:       r.BMI,
		Category:  string(r.Category),
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	c, cancel := context.WithTimeout(ctx, x.timeout())
	defer cancel()

	req := esapi.IndexRequest{Index: x.Index, DocumentID: r.ID, Body: bytes.NewReader(b), Refresh: "false"}
	res, err := req.Do(c, x.ES)
	if err != nil {
		return fmt.Errorf("es index %s: %w", r.ID, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index %s: %s", r.ID, res.Status())
	}
	return nil
}

// DeleteRecord removes the document. A missing document is not an error.
func (x *RecordIndexer) DeleteRecord(ctx context.Context, id string) error {
	c, cancel := context.WithTimeout(ctx, x.timeout())
	defer cancel()

	req := esapi.DeleteRequest{Index: x.Index, DocumentID: id}
	res, err := req.Do(c, x.ES)
	if err != nil {
		return fmt.Errorf("es delete %s: %w", id, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es delete %s: %s", id, res.Status())
	}
	return nil
}
