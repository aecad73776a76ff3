package mailchimp

import "fmt"

type memberTag struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name"`
}

type member struct {
	ID           string      `json:"id"`
	EmailAddress string      `json:"email_address"`
	Status       string      `json:"status"`
	Tags         []memberTag `json:"tags"`
}

type upsertMemberRequest struct {
	EmailAddress string `json:"email_address"`
	Status       string `json:"status"`
	StatusIfNew  string `json:"status_if_new"`
}

type segmentCondition struct {
	ConditionType string `json:"condition_type"`
	Field         string `json:"field"`
	Op            string `json:"op"`
	Value         string `json:"value"`
}

type segmentOpts struct {
	Match      string             `json:"match"`
	Conditions []segmentCondition `json:"conditions"`
}

type campaignRecipients struct {
	ListID      string       `json:"list_id"`
	SegmentOpts *segmentOpts `json:"segment_opts,omitempty"`
}

type campaignSettings struct {
	SubjectLine string `json:"subject_line"`
	Title       string `json:"title,omitempty"`
	FromName    string `json:"from_name"`
	ReplyTo     string `json:"reply_to"`
}

type createCampaignRequest struct {
	Type       string             `json:"type"`
	Recipients campaignRecipients `json:"recipients"`
	Settings   campaignSettings   `json:"settings"`
}

type campaign struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type campaignContent struct {
	HTML string `json:"html"`
}

type tagUpdate struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type tagsRequest struct {
	Tags []tagUpdate `json:"tags"`
}

// APIError is the problem document Mailchimp returns for non-2xx responses.
type APIError struct {
	StatusCode int    `json:"status"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	Detail     string `json:"detail"`
	Instance   string `json:"instance"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("mailchimp: %d %s: %s", e.StatusCode, e.Title, e.Detail)
	}
	return fmt.Sprintf("mailchimp: %d %s", e.StatusCode, e.Title)
}
