// Package shopapi reads products and resolves customers through the shop's
// catalog service.
package shopapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/ports"
	"flowershop/internal/pkg/errs"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Config configures the shop API client. A zero Timeout means 5s.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// productResponse is the product card returned by the shop. Prices are decimal strings.
type productResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	RetailPrice string `json:"retail_price"`
}

// resolveCustomerRequest looks a customer up by phone and creates one when missing.
type resolveCustomerRequest struct {
	Phone   string `json:"phone"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// customerResponse carries only the customer ID.
type customerResponse struct {
	ID string `json:"id"`
}

// Client implements ports.Catalog and ports.Customers.
type Client struct {
	http *resty.Client
}

// NewClient creates a client authenticating with APIKey as a bearer token.
//
// Example:
//
//	shop := shopapi.NewClient(shopapi.Config{BaseURL: "http://shop:8080", APIKey: key})
//	product, err := shop.GetProduct(ctx, productID)
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		rc.SetAuthToken(cfg.APIKey)
	}
	return &Client{http: rc}
}

// GetProduct loads a product card from the catalogue.
//
// Returns:
//   - errs.ErrObjectNotFound when the shop answers 404
//   - a wrapped transport error when the shop is unreachable
func (c *Client) GetProduct(ctx context.Context, id kernel.UUID) (ports.Product, error) {
	var body productResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id.String()).
		SetResult(&body).
		Get("/api/v1/products/{id}")
	if err != nil {
		return ports.Product{}, errors.Wrapf(err, "shop api: get product %s", id)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ports.Product{}, errs.NewObjectNotFoundError("product", id.String())
	}
	if resp.IsError() {
		return ports.Product{}, errors.Errorf("shop api: get product %s: status %d", id, resp.StatusCode())
	}

	price, err := kernel.MoneyFromString(body.RetailPrice)
	if err != nil {
		return ports.Product{}, errors.Wrapf(err, "shop api: product %s price", id)
	}
	return ports.Product{ID: id, Name: body.Name, Category: body.Category, RetailPrice: price}, nil
}

// GetOrCreate resolves the customer by phone, creating one with name and
// address when the shop does not know the phone yet.
func (c *Client) GetOrCreate(ctx context.Context, phone, name, address string) (kernel.UUID, error) {
	var body customerResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(resolveCustomerRequest{Phone: phone, Name: name, Address: address}).
		SetResult(&body).
		Post("/api/v1/customers/resolve")
	if err != nil {
		return kernel.UUID{}, errors.Wrap(err, "shop api: resolve customer")
	}
	if resp.IsError() {
		return kernel.UUID{}, errors.Errorf("shop api: resolve customer: status %d", resp.StatusCode())
	}
	return kernel.UUIDFromString(body.ID)
}

// UpdateStatistics asks the shop to recount the orders of the customer.
func (c *Client) UpdateStatistics(ctx context.Context, customerID kernel.UUID) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", customerID.String()).
		Post("/api/v1/customers/{id}/statistics")
	if err != nil {
		return errors.Wrapf(err, "shop api: update statistics of %s", customerID)
	}
	if resp.IsError() {
		return errors.Errorf("shop api: update statistics of %s: status %d", customerID, resp.StatusCode())
	}
	return nil
}
