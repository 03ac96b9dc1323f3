package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Skotchmaster/shoppingcart/internal/models"
	"github.com/Skotchmaster/shoppingcart/internal/repo"
	"github.com/elastic/go-elasticsearch/v9"
)

type Config struct {
	URL      string
	Username string
	Password string
}

// NewClient builds a client and checks that the cluster answers.
func NewClient(ctx context.Context, cfg Config, log *slog.Logger) (*elasticsearch.Client, error) {
	log.Info("es_connect", "url", cfg.URL)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}

	return client, nil
}

// ESProducts reads product documents from an index keyed by product id.
type ESProducts struct {
	ES    *elasticsearch.Client
	Index string
}

type productDoc struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Count       uint    `json:"count"`
}

func (s *ESProducts) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	docID := strconv.FormatUint(uint64(id), 10)
	res, err := s.ES.Get(s.Index, docID, s.ES.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("es get product %s: %w", docID, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("product %s: %w", docID, repo.ErrNotFound)
	}
	if res.IsError() {
		return nil, fmt.Errorf("es get product %s: %s", docID, res.Status())
	}

	var r struct {
		Found  bool       `json:"found"`
		Source productDoc `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode product %s: %w", docID, err)
	}
	if !r.Found {
		return nil, fmt.Errorf("product %s: %w", docID, repo.ErrNotFound)
	}

	return &models.Product{
		ID:          id,
		Name:        r.Source.Name,
		Description: r.Source.Description,
		Price:       r.Source.Price,
		Count:       r.Source.Count,
	}, nil
}
