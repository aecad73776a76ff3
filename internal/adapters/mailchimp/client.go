// Package mailchimp is a minimal Mailchimp Marketing API v3 client covering list members,
// member tags and one-off campaigns.
package mailchimp

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"eventrsvp/internal/domain"
)

// DefaultTimeout for HTTP requests
const DefaultTimeout = 15 * time.Second

// Client talks to one Mailchimp audience (list).
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	listID     string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithBaseURL overrides the API root, e.g. for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// NewClient creates a client for the data center in serverPrefix (e.g. "us1").
func NewClient(apiKey, serverPrefix, listID string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    fmt.Sprintf("https://%s.api.mailchimp.com/3.0", serverPrefix),
		apiKey:     apiKey,
		listID:     listID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ domain.MailingList = (*Client)(nil)

// SubscriberHash is the member id Mailchimp derives from an email address.
func SubscriberHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

func (c *Client) memberPath(email string) string {
	return fmt.Sprintf("/lists/%s/members/%s", c.listID, SubscriberHash(email))
}

// GetMember returns nil and no error when the address is not on the list.
func (c *Client) GetMember(ctx context.Context, email string) (*domain.MailingListMember, error) {
	var m member
	err := c.do(ctx, http.MethodGet, c.memberPath(email), nil, &m)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return toDomainMember(&m), nil
}

// UpsertMember adds the address as subscribed, or re-subscribes an existing member.
func (c *Client) UpsertMember(ctx context.Context, email string) (*domain.MailingListMember, error) {
	body := upsertMemberRequest{
		EmailAddress: email,
		Status:       "subscribed",
		StatusIfNew:  "subscribed",
	}
	var m member
	if err := c.do(ctx, http.MethodPut, c.memberPath(email), body, &m); err != nil {
		return nil, fmt.Errorf("upsert member: %w", err)
	}
	return toDomainMember(&m), nil
}

// CreateCampaign creates a regular campaign on the list. When settings name a recipient the
// campaign is segmented down to that address.
func (c *Client) CreateCampaign(ctx context.Context, settings domain.CampaignSettings) (string, error) {
	body := createCampaignRequest{
		Type: "regular",
		Recipients: campaignRecipients{
			ListID: c.listID,
		},
		Settings: campaignSettings{
			SubjectLine: settings.SubjectLine,
			Title:       settings.Title,
			FromName:    settings.FromName,
			ReplyTo:     settings.ReplyTo,
		},
	}
	if settings.RecipientEmail != "" {
		body.Recipients.SegmentOpts = &segmentOpts{
			Match: "all",
			Conditions: []segmentCondition{{
				ConditionType: "EmailAddress",
				Field:         "EMAIL",
				Op:            "is",
				Value:         settings.RecipientEmail,
			}},
		}
	}
	var out campaign
	if err := c.do(ctx, http.MethodPost, "/campaigns", body, &out); err != nil {
		return "", fmt.Errorf("create campaign: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("create campaign: response has no id")
	}
	return out.ID, nil
}

func (c *Client) SetCampaignContent(ctx context.Context, campaignID, html string) error {
	if err := c.do(ctx, http.MethodPut, "/campaigns/"+campaignID+"/content", campaignContent{HTML: html}, nil); err != nil {
		return fmt.Errorf("set campaign content: %w", err)
	}
	return nil
}

func (c *Client) SendCampaign(ctx context.Context, campaignID string) error {
	if err := c.do(ctx, http.MethodPost, "/campaigns/"+campaignID+"/actions/send", nil, nil); err != nil {
		return fmt.Errorf("send campaign: %w", err)
	}
	return nil
}

func (c *Client) TagMember(ctx context.Context, email, tag string) error {
	body := tagsRequest{Tags: []tagUpdate{{Name: tag, Status: "active"}}}
	if err := c.do(ctx, http.MethodPost, c.memberPath(email)+"/tags", body, nil); err != nil {
		return fmt.Errorf("tag member: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth("eventrsvp", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{}
		if len(raw) == 0 || json.Unmarshal(raw, apiErr) != nil {
			apiErr = &APIError{Title: http.StatusText(resp.StatusCode)}
		}
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	return nil
}

func toDomainMember(m *member) *domain.MailingListMember {
	tags := make([]string, 0, len(m.Tags))
	for _, t := range m.Tags {
		tags = append(tags, t.Name)
	}
	return &domain.MailingListMember{
		ID:     m.ID,
		Email:  m.EmailAddress,
		Status: m.Status,
		Tags:   tags,
	}
}
