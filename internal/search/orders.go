package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Skotchmaster/medorder/internal/models"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
)

type orderDoc struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"`
	PatientName string   `json:"patient_name"`
	MobileNo    string   `json:"mobile_no"`
	Pincode     string   `json:"pincode"`
	AwbDocketNo string   `json:"awb_docket_no,omitempty"`
	Medicines   []string `json:"medicines"`
	CreatedBy   string   `json:"created_by"`
}

type OrderIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewClient(url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: new client: %w", err)
	}
	return client, nil
}

func NewOrderIndex(client *elasticsearch.Client, index string) *OrderIndex {
	return &OrderIndex{es: client, index: index}
}

func toDoc(o *models.Order) orderDoc {
	meds := make([]string, 0, len(o.Medicines))
	for _, m := range o.Medicines {
		meds = append(meds, m.Name)
	}
	return orderDoc{
		ID:          o.ID.String(),
		Date:        o.Date,
		PatientName: o.PatientName,
		MobileNo:    o.MobileNo,
		Pincode:     o.Pincode,
		AwbDocketNo: o.AwbDocketNo,
		Medicines:   meds,
		CreatedBy:   o.CreatedBy,
	}
}

func (x *OrderIndex) Index(ctx context.Context, o *models.Order) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(toDoc(o)); err != nil {
		return fmt.Errorf("search: encode order: %w", err)
	}

	res, err := x.es.Index(x.index, &buf,
		x.es.Index.WithContext(ctx),
		x.es.Index.WithDocumentID(o.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("search: index order: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search: index order: %s", res.Status())
	}
	return nil
}

func (x *OrderIndex) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := x.es.Delete(x.index, id.String(), x.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: delete order: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("search: delete order: %s", res.Status())
	}
	return nil
}

// Search returns matching order ids, best match first.
func (x *OrderIndex) Search(ctx context.Context, query string, size int) ([]uuid.UUID, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"patient_name^2", "mobile_no", "pincode", "awb_docket_no", "medicines"},
				"fuzziness": "AUTO",
				"lenient":   true,
			},
		},
		"_source": []string{"id"},
		"size":    size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := x.es.Search(
		x.es.Search.WithContext(ctx),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search: query orders: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("search: query orders: %s: %s", res.Status(), msg)
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source struct {
					ID string `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		id, err := uuid.Parse(hit.Source.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
