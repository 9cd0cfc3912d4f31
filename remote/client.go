// ABOUTME: HTTP client for a remote CRM backend implementing the editor collaborators
// ABOUTME: Company search/create, case roles, duplicate lookup and contact persistence over JSON
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/models"
	"go.uber.org/zap"
)

// ErrNotFound is returned when the backend answers 404.
var ErrNotFound = errors.New("not found")

var (
	_ editor.CompanyDirectory = (*Client)(nil)
	_ editor.CaseRoleStore    = (*Client)(nil)
	_ editor.DuplicateLookup  = (*Client)(nil)
	_ editor.ContactStore     = (*Client)(nil)
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crm api error: %s (status: %d)", e.Message, e.StatusCode)
}

// Options configures the client.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Retries int
}

// Client talks to the CRM backend.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient builds a client for opts.BaseURL.
func NewClient(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if opts.Token != "" {
		client.SetAuthToken(opts.Token)
	}

	return &Client{http: client, logger: logger}
}

type createCompanyRequest struct {
	Name     string `json:"name"`
	Industry string `json:"industry,omitempty"`
}

type saveRolesRequest struct {
	Roles []models.Role `json:"roles"`
}

func (c *Client) SearchCompanies(ctx context.Context, query string, limit int) ([]models.Company, error) {
	var out []models.Company
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"q": query, "limit": strconv.Itoa(limit)}).
		SetResult(&out).
		SetError(&APIError{}).
		Get("/api/companies")
	if err := c.check(resp, err, "search companies"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCompany(ctx context.Context, name, industry string) (*models.Company, error) {
	var out models.Company
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(createCompanyRequest{Name: name, Industry: industry}).
		SetResult(&out).
		SetError(&APIError{}).
		Post("/api/companies")
	if err := c.check(resp, err, "create company"); err != nil {
		return nil, err
	}

	c.logger.Info("company created remotely", zap.String("company_id", out.ID.String()), zap.String("name", out.Name))
	return &out, nil
}

func (c *Client) ListCaseRoles(ctx context.Context, contactID uuid.UUID) ([]models.CaseRoles, error) {
	var out []models.CaseRoles
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("contactID", contactID.String()).
		SetResult(&out).
		SetError(&APIError{}).
		Get("/api/contacts/{contactID}/cases")
	if err := c.check(resp, err, "list case roles"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SaveCaseRoles(ctx context.Context, contactID, caseID uuid.UUID, roles []models.Role) error {
	if roles == nil {
		roles = []models.Role{}
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"contactID": contactID.String(), "caseID": caseID.String()}).
		SetBody(saveRolesRequest{Roles: roles}).
		SetError(&APIError{}).
		Put("/api/contacts/{contactID}/cases/{caseID}/roles")
	return c.check(resp, err, "save case roles")
}

func (c *Client) LookupDuplicates(ctx context.Context, normalized string, kind models.DuplicateKind) ([]models.DuplicateMatch, error) {
	var out []models.DuplicateMatch
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"value": normalized, "kind": string(kind)}).
		SetResult(&out).
		SetError(&APIError{}).
		Get("/api/duplicates")
	if err := c.check(resp, err, "look up duplicates"); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveContact creates the contact when its ID is nil and replaces it otherwise.
// The backend's answer is copied back into contact.
func (c *Client) SaveContact(ctx context.Context, contact *models.Contact) error {
	req := c.http.R().
		SetContext(ctx).
		SetBody(contact).
		SetResult(contact).
		SetError(&APIError{})

	var resp *resty.Response
	var err error
	if contact.ID == uuid.Nil {
		resp, err = req.Post("/api/contacts")
	} else {
		resp, err = req.SetPathParam("contactID", contact.ID.String()).Put("/api/contacts/{contactID}")
	}
	return c.check(resp, err, "save contact")
}

// GetContact fetches one contact. A 404 yields ErrNotFound.
func (c *Client) GetContact(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	var out models.Contact
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("contactID", id.String()).
		SetResult(&out).
		SetError(&APIError{}).
		Get("/api/contacts/{contactID}")
	if err := c.check(resp, err, "get contact"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) check(resp *resty.Response, err error, op string) error {
	if err != nil {
		c.logger.Warn("crm api call failed", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if !resp.IsError() {
		return nil
	}

	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("failed to %s: %w", op, ErrNotFound)
	}

	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
	}
	apiErr.StatusCode = resp.StatusCode()
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode())
	}

	c.logger.Warn("crm api returned error",
		zap.String("op", op),
		zap.Int("status_code", apiErr.StatusCode),
		zap.String("msg", apiErr.Message),
	)
	return fmt.Errorf("failed to %s: %w", op, apiErr)
}
