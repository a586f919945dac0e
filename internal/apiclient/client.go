// Package apiclient — типизированный клиент HTTP API платформы.
// Заменяет прежний сценарий на curl с разбором текстового вывода:
// каждый вызов возвращает явный тип результата.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	BaseURL string
	Token   string // Bearer; пустой для неаутентифицированных вызовов
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// WithToken — копия клиента, выполняющая вызовы от имени владельца токена.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.Token = token
	return &cp
}

type APIError struct {
	Status int
	Kind   string `json:"error"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("http %d: %s: %s", e.Status, e.Kind, e.Detail)
}

type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	SchoolID    *int64 `json:"school_id"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/admin/login", map[string]string{
		"email": email, "password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type School struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

func (c *Client) CreateSchool(ctx context.Context, name, code string) (*School, error) {
	var out School
	err := c.do(ctx, http.MethodPost, "/api/superadmin/create-school", map[string]string{
		"name": name, "code": code,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type SchoolAdmin struct {
	UserID     int64  `json:"user_id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	SchoolID   int64  `json:"school_id"`
	SchoolName string `json:"school_name"`
}

func (c *Client) CreateSchoolAdmin(ctx context.Context, fullName, email, password string, schoolID int64) (*SchoolAdmin, error) {
	var out SchoolAdmin
	err := c.do(ctx, http.MethodPost, "/api/superadmin/create-school-admin", map[string]any{
		"full_name": fullName, "email": email, "password": password, "school_id": schoolID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListSchools(ctx context.Context) ([]School, error) {
	var out struct {
		Success bool     `json:"success"`
		Data    []School `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/superadmin/schools", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Kind == "" {
			apiErr.Detail = strings.TrimSpace(string(raw))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
