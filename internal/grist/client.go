// Package grist wraps the Grist records API behind typed operations on the
// Urls, Users and LoginLogs tables. Every operation is a single HTTP
// request/response with an equality filter; the store offers no transactions
// and none are assumed here.
package grist

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

	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/config"
	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/models"
)

const maxErrorBody = 200

// Client talks to a single Grist document.
type Client struct {
	httpClient *http.Client
	baseURL    string
	docID      string
	apiKey     string

	urlsTable      string
	usersTable     string
	loginLogsTable string

	now func() time.Time
}

func New(cfg config.Grist) *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout.Std()},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		docID:          cfg.DocID,
		apiKey:         cfg.APIKey,
		urlsTable:      cfg.UrlsTable,
		usersTable:     cfg.UsersTable,
		loginLogsTable: cfg.LoginLogsTable,
		now:            time.Now,
	}
}

func (c *Client) recordsURL(table string) string {
	return fmt.Sprintf("%s/api/docs/%s/tables/%s/records",
		c.baseURL, url.PathEscape(c.docID), url.PathEscape(table))
}

func withFilter(base, column string, value any) string {
	filter, _ := json.Marshal(map[string][]any{column: {value}})

	params := url.Values{}
	params.Set("filter", string(filter))

	return base + "?" + params.Encode()
}

// do performs a single request against the records API. Non-2xx responses
// become *APIError with the body truncated to maxErrorBody bytes.
func (c *Client) do(ctx context.Context, method, rawURL string, body, out any) error {
	const op = "grist.Client.do"

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request body: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s: %w", op, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		})
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: failed to decode response body: %w", op, err)
		}
	}

	return nil
}

// record envelopes mirror the records API wire format. Fields the store
// omits or nulls decode to zero values.

type linkFields struct {
	ShortID   string `json:"urlsId"`
	LongURL   string `json:"longUrl"`
	Clicks    int64  `json:"clicks"`
	CreatedAt string `json:"createdAt"`
	CreatedBy int64  `json:"createdBy"`
}

type linkRecord struct {
	ID     int64      `json:"id"`
	Fields linkFields `json:"fields"`
}

type linkRecordList struct {
	Records []linkRecord `json:"records"`
}

func (r linkRecord) toModel() *models.ShortLink {
	createdAt, _ := time.Parse(time.RFC3339, r.Fields.CreatedAt)

	return &models.ShortLink{
		RowID:     r.ID,
		ShortID:   r.Fields.ShortID,
		LongURL:   r.Fields.LongURL,
		Clicks:    r.Fields.Clicks,
		CreatedAt: createdAt,
		CreatedBy: r.Fields.CreatedBy,
	}
}

// FindByShortID retrieves the short link record with the given short id.
// It returns ErrNotFound when no record matches.
func (c *Client) FindByShortID(ctx context.Context, shortID string) (*models.ShortLink, error) {
	const op = "grist.Client.FindByShortID"

	var list linkRecordList
	if err := c.do(ctx, http.MethodGet, withFilter(c.recordsURL(c.urlsTable), "urlsId", shortID), nil, &list); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(list.Records) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return list.Records[0].toModel(), nil
}

// FindByLongURL retrieves the short link record for a normalized long URL.
// It returns ErrNotFound when no record matches.
func (c *Client) FindByLongURL(ctx context.Context, longURL string) (*models.ShortLink, error) {
	const op = "grist.Client.FindByLongURL"

	var list linkRecordList
	if err := c.do(ctx, http.MethodGet, withFilter(c.recordsURL(c.urlsTable), "longUrl", longURL), nil, &list); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(list.Records) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return list.Records[0].toModel(), nil
}

// ShortIDExists reports whether any record already uses the given short id.
func (c *Client) ShortIDExists(ctx context.Context, shortID string) (bool, error) {
	const op = "grist.Client.ShortIDExists"

	var list linkRecordList
	if err := c.do(ctx, http.MethodGet, withFilter(c.recordsURL(c.urlsTable), "urlsId", shortID), nil, &list); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return len(list.Records) > 0, nil
}

// CreateShortLink inserts a new short link record with a zero click count.
// A createdBy of zero means the creator is unknown and the column is left
// unset.
func (c *Client) CreateShortLink(ctx context.Context, shortID, longURL string, createdBy int64) (*models.ShortLink, error) {
	const op = "grist.Client.CreateShortLink"

	createdAt := c.now().UTC()

	fields := map[string]any{
		"urlsId":    shortID,
		"longUrl":   longURL,
		"clicks":    0,
		"createdAt": createdAt.Format(time.RFC3339),
	}
	if createdBy != 0 {
		fields["createdBy"] = createdBy
	}

	body := map[string]any{
		"records": []map[string]any{{"fields": fields}},
	}

	var created struct {
		Records []struct {
			ID int64 `json:"id"`
		} `json:"records"`
	}
	if err := c.do(ctx, http.MethodPost, c.recordsURL(c.urlsTable), body, &created); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	link := &models.ShortLink{
		ShortID:   shortID,
		LongURL:   longURL,
		CreatedAt: createdAt,
		CreatedBy: createdBy,
	}
	if len(created.Records) > 0 {
		link.RowID = created.Records[0].ID
	}

	return link, nil
}

// IncrementClicks writes currentClicks+1 to the record. The read-increment-
// write is not atomic; concurrent visits may under-count.
func (c *Client) IncrementClicks(ctx context.Context, rowID, currentClicks int64) error {
	const op = "grist.Client.IncrementClicks"

	body := map[string]any{
		"records": []map[string]any{{
			"id":     rowID,
			"fields": map[string]any{"clicks": currentClicks + 1},
		}},
	}

	if err := c.do(ctx, http.MethodPatch, c.recordsURL(c.urlsTable), body, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

type userFields struct {
	UserID    int64  `json:"userId"`
	Email     string `json:"email"`
	UserName  string `json:"userName"`
	Password  string `json:"password"`
	LastLogin string `json:"lastLogin"`
}

type userRecord struct {
	ID     int64      `json:"id"`
	Fields userFields `json:"fields"`
}

type userRecordList struct {
	Records []userRecord `json:"records"`
}

func (r userRecord) toModel() *models.User {
	lastLogin, _ := time.Parse(time.RFC3339, r.Fields.LastLogin)

	return &models.User{
		RowID:     r.ID,
		UserID:    r.Fields.UserID,
		Email:     r.Fields.Email,
		UserName:  r.Fields.UserName,
		Password:  r.Fields.Password,
		LastLogin: lastLogin,
	}
}

// FindUserByIdentifier looks a user up by email first, then by user name.
// The filter language has no OR, so this is two queries at worst.
func (c *Client) FindUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	const op = "grist.Client.FindUserByIdentifier"

	var byEmail userRecordList
	if err := c.do(ctx, http.MethodGet, withFilter(c.recordsURL(c.usersTable), "email", identifier), nil, &byEmail); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(byEmail.Records) > 0 {
		return byEmail.Records[0].toModel(), nil
	}

	var byName userRecordList
	if err := c.do(ctx, http.MethodGet, withFilter(c.recordsURL(c.usersTable), "userName", identifier), nil, &byName); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(byName.Records) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return byName.Records[0].toModel(), nil
}

// UpdateLastLogin stamps the user's lastLogin column with the current time.
func (c *Client) UpdateLastLogin(ctx context.Context, rowID int64) error {
	const op = "grist.Client.UpdateLastLogin"

	body := map[string]any{
		"records": []map[string]any{{
			"id":     rowID,
			"fields": map[string]any{"lastLogin": c.now().UTC().Format(time.RFC3339)},
		}},
	}

	if err := c.do(ctx, http.MethodPatch, c.recordsURL(c.usersTable), body, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// AppendLoginLog writes an audit entry to the LoginLogs table. Entries are
// never read back by this service.
func (c *Client) AppendLoginLog(ctx context.Context, attempt models.LoginAttempt) error {
	const op = "grist.Client.AppendLoginLog"

	body := map[string]any{
		"records": []map[string]any{{
			"fields": map[string]any{
				"Username":  attempt.Username,
				"Success":   attempt.Success,
				"IP":        attempt.IP,
				"UserAgent": attempt.UserAgent,
				"LoginAt":   c.now().UTC().Format(time.RFC3339),
				"Note":      attempt.Note,
			},
		}},
	}

	if err := c.do(ctx, http.MethodPost, c.recordsURL(c.loginLogsTable), body, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
