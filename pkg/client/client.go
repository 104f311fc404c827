// Package client - HTTP-клиент для API категорий и тем.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"topics_go/models"
)

// APIError - ответ сервера с кодом не из диапазона 2xx
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client обращается к серверу по BaseURL. Token, если задан, передаётся как Bearer.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// New создаёт клиента с таймаутом по умолчанию
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func categoryPath(id string) string { return "/categories/" + url.PathEscape(id) }

func topicPath(id string) string { return "/topics/" + url.PathEscape(id) }

// --- Категории ---

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := c.do(ctx, http.MethodGet, "/categories", nil, &out)
	return out, err
}

func (c *Client) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var out models.Category
	if err := c.do(ctx, http.MethodGet, categoryPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	var out models.Category
	if err := c.do(ctx, http.MethodPost, "/categories", map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id, name string) (*models.Category, error) {
	var out models.Category
	if err := c.do(ctx, http.MethodPut, categoryPath(id), map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, categoryPath(id), nil, nil)
}

// --- Темы ---

func (c *Client) ListTopics(ctx context.Context, categoryID string) ([]models.Topic, error) {
	var out []models.Topic
	err := c.do(ctx, http.MethodGet, categoryPath(categoryID)+"/topics", nil, &out)
	return out, err
}

func (c *Client) GetTopic(ctx context.Context, id string) (*models.Topic, error) {
	var out models.Topic
	if err := c.do(ctx, http.MethodGet, topicPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTopic(ctx context.Context, categoryID, title string) (*models.Topic, error) {
	var out models.Topic
	if err := c.do(ctx, http.MethodPost, categoryPath(categoryID)+"/topics", map[string]string{"title": title}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTopic(ctx context.Context, id, title string) (*models.Topic, error) {
	var out models.Topic
	if err := c.do(ctx, http.MethodPut, topicPath(id), map[string]string{"title": title}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTopic(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, topicPath(id), nil, nil)
}
