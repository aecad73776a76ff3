package mailchimp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventrsvp/internal/domain"
)

type recordedRequest struct {
	method string
	path   string
	body   map[string]any
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recordedRequest) {
	t.Helper()
	var calls []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user == "" || pass != "key-123" {
			t.Errorf("missing or wrong basic auth: %q %q", user, pass)
		}
		rec := recordedRequest{method: r.Method, path: r.URL.Path}
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			assert.NoError(t, json.Unmarshal(b, &rec.body))
		}
		calls = append(calls, rec)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient("key-123", "us1", "list-1", WithBaseURL(srv.URL)), &calls
}

func TestSubscriberHash(t *testing.T) {
	// md5("urist.mcvankab@freddiesjokes.com") per Mailchimp docs.
	assert.Equal(t, "62eeb292278cc15f5817cb78f7790b08", SubscriberHash("Urist.McVankab@freddiesjokes.com "))
}

func TestNewClient_baseURL(t *testing.T) {
	c := NewClient("k", "us7", "l")
	assert.Equal(t, "https://us7.api.mailchimp.com/3.0", c.baseURL)
}

func TestClient_GetMember(t *testing.T) {
	hash := SubscriberHash("ada@example.com")

	t.Run("found with tags", func(t *testing.T) {
		c, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(member{
				ID:           hash,
				EmailAddress: "ada@example.com",
				Status:       "subscribed",
				Tags:         []memberTag{{ID: 1, Name: "event_7"}},
			})
		})
		m, err := c.GetMember(context.Background(), "ada@example.com")
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, hash, m.ID)
		assert.True(t, m.HasTag("event_7"))
		assert.False(t, m.HasTag("event_8"))
		require.Len(t, *calls, 1)
		assert.Equal(t, http.MethodGet, (*calls)[0].method)
		assert.Equal(t, "/lists/list-1/members/"+hash, (*calls)[0].path)
	})

	t.Run("not found is nil without error", func(t *testing.T) {
		c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":404,"title":"Resource Not Found"}`))
		})
		m, err := c.GetMember(context.Background(), "ada@example.com")
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("server error", func(t *testing.T) {
		c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		_, err := c.GetMember(context.Background(), "ada@example.com")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	})
}

func TestClient_UpsertMember(t *testing.T) {
	c, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(member{ID: "h", EmailAddress: "ada@example.com", Status: "subscribed"})
	})
	m, err := c.UpsertMember(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "subscribed", m.Status)
	require.Len(t, *calls, 1)
	got := (*calls)[0]
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "subscribed", got.body["status_if_new"])
	assert.Equal(t, "ada@example.com", got.body["email_address"])
}

func TestClient_CreateCampaign(t *testing.T) {
	c, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(campaign{ID: "camp-1", Status: "save"})
	})
	id, err := c.CreateCampaign(context.Background(), domain.CampaignSettings{
		Title:          "Launch invitation",
		SubjectLine:    "You're invited: Launch",
		FromName:       "Event Organizer",
		ReplyTo:        "host@example.com",
		RecipientEmail: "ada@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "camp-1", id)

	got := (*calls)[0]
	assert.Equal(t, "/campaigns", got.path)
	assert.Equal(t, "regular", got.body["type"])
	recipients := got.body["recipients"].(map[string]any)
	assert.Equal(t, "list-1", recipients["list_id"])
	seg := recipients["segment_opts"].(map[string]any)
	cond := seg["conditions"].([]any)[0].(map[string]any)
	assert.Equal(t, "ada@example.com", cond["value"])
	settings := got.body["settings"].(map[string]any)
	assert.Equal(t, "You're invited: Launch", settings["subject_line"])
}

func TestClient_CreateCampaign_errors(t *testing.T) {
	t.Run("rejected", func(t *testing.T) {
		c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":400,"title":"Invalid Resource","detail":"reply_to is required"}`))
		})
		_, err := c.CreateCampaign(context.Background(), domain.CampaignSettings{})
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "reply_to is required", apiErr.Detail)
		assert.Contains(t, err.Error(), "reply_to is required")
	})
	t.Run("missing id", func(t *testing.T) {
		c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		})
		_, err := c.CreateCampaign(context.Background(), domain.CampaignSettings{})
		assert.Error(t, err)
	})
}

func TestClient_ContentSendTag(t *testing.T) {
	c, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()
	require.NoError(t, c.SetCampaignContent(ctx, "camp-1", "<p>hi</p>"))
	require.NoError(t, c.SendCampaign(ctx, "camp-1"))
	require.NoError(t, c.TagMember(ctx, "ada@example.com", "event_7"))

	require.Len(t, *calls, 3)
	assert.Equal(t, http.MethodPut, (*calls)[0].method)
	assert.Equal(t, "/campaigns/camp-1/content", (*calls)[0].path)
	assert.Equal(t, "<p>hi</p>", (*calls)[0].body["html"])
	assert.Equal(t, "/campaigns/camp-1/actions/send", (*calls)[1].path)
	assert.Equal(t, "/lists/list-1/members/"+SubscriberHash("ada@example.com")+"/tags", (*calls)[2].path)
	tags := (*calls)[2].body["tags"].([]any)
	tag := tags[0].(map[string]any)
	assert.Equal(t, "event_7", tag["name"])
	assert.Equal(t, "active", tag["status"])
}
