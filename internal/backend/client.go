package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/krittapak/catalog-panel/internal/config"
	"github.com/krittapak/catalog-panel/internal/model"
)

// Client is the typed HTTP client for the upstream catalog API. The backend
// is an external collaborator: it offers independent, non-transactional
// endpoints and owns all persistence.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.Backend) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// CreateProduct creates a product with an empty image list and returns the
// server-confirmed product code.
func (c *Client) CreateProduct(ctx context.Context, product model.Product) (string, error) {
	var created model.Product
	if err := c.doJSON(ctx, http.MethodPost, "/products", product, &created); err != nil {
		return "", fmt.Errorf("create product: %w", err)
	}

	return created.Code, nil
}

// UploadImages uploads staged image blobs for the given product code as a
// single multipart request. The backend reports no per-file outcome.
func (c *Client) UploadImages(ctx context.Context, productCode string, uploads []model.PendingUpload) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("product_code", productCode); err != nil {
		return fmt.Errorf("write product_code field: %w", err)
	}
	for _, upload := range uploads {
		part, err := mw.CreatePart(fileHeader("files", upload))
		if err != nil {
			return fmt.Errorf("create multipart file part: %w", err)
		}
		if _, err := part.Write(upload.Data); err != nil {
			return fmt.Errorf("write multipart file part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/products-vectors", &body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload images: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &UnexpectedStatusError{Method: http.MethodPost, Path: "/products-vectors", StatusCode: resp.StatusCode}
	}

	return nil
}

// DeleteProduct removes a product by code. It is used both for explicit
// deletion and as the compensating action of the creation workflow.
func (c *Client) DeleteProduct(ctx context.Context, productCode string) error {
	path := "/products/" + url.PathEscape(productCode)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	return nil
}

func (c *Client) UpdateProduct(ctx context.Context, productCode string, fields model.ProductFields) error {
	path := "/products/" + url.PathEscape(productCode)
	if err := c.doJSON(ctx, http.MethodPut, path, fields.Product(), nil); err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	return nil
}

func (c *Client) DeleteImage(ctx context.Context, imageID uuid.UUID) error {
	path := "/products/image/" + imageID.String()
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}

	return nil
}

func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.doJSON(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, productCode string) (model.Product, error) {
	var product model.Product
	path := "/products/" + url.PathEscape(productCode)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &product); err != nil {
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func (c *Client) Statistics(ctx context.Context) (model.Statistics, error) {
	var stats model.Statistics
	if err := c.doJSON(ctx, http.MethodGet, "/products/statistics", nil, &stats); err != nil {
		return model.Statistics{}, fmt.Errorf("get statistics: %w", err)
	}

	return stats, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &UnexpectedStatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}

	return nil
}

func fileHeader(fieldName string, upload model.PendingUpload) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, upload.Filename))
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return h
}

// drainAndClose consumes the remaining body so the underlying connection
// can be reused.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<20))
	_ = body.Close()
}
