// Package tbrd is the typed client for the TBRD backend: cases, documents, the
// generation pipeline, the generated document, search, conversation and dashboard.
package tbrd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/target/tbrd-ui/internal/apiclient"
	"github.com/target/tbrd-ui/internal/domain/model"
)

// API is the authenticated transport the client runs on. *apiclient.Client implements it.
type API interface {
	RequestInto(ctx context.Context, path string, opts apiclient.RequestOptions, dst any) error
	Upload(ctx context.Context, path string, in apiclient.UploadInput) (json.RawMessage, error)
}

// Client maps backend endpoints onto domain types.
type Client struct {
	api API
}

// New returns a Client over api.
func New(api API) *Client {
	return &Client{api: api}
}

// ListCases returns all cases visible to the caller.
func (c *Client) ListCases(ctx context.Context) ([]model.Case, error) {
	var out []model.Case
	if err := c.api.RequestInto(ctx, "/cases", apiclient.RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCase fetches one case.
func (c *Client) GetCase(ctx context.Context, caseID string) (*model.Case, error) {
	var out model.Case
	if err := c.api.RequestInto(ctx, casePath(caseID), apiclient.RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCase creates a case. The backend takes the name as a query parameter.
func (c *Client) CreateCase(ctx context.Context, req model.CreateCaseRequest) (*model.Case, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out model.Case
	path := "/cases?name=" + url.QueryEscape(req.Name)
	if err := c.api.RequestInto(ctx, path, apiclient.RequestOptions{Method: http.MethodPost}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDocuments returns the BRDs uploaded to a case.
func (c *Client) ListDocuments(ctx context.Context, caseID string) ([]model.Document, error) {
	var out []model.Document
	if err := c.api.RequestInto(ctx, casePath(caseID)+"/documents", apiclient.RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadDocument validates and uploads a BRD to a case.
func (c *Client) UploadDocument(
	ctx context.Context,
	caseID string,
	meta model.BRDUpload,
	file io.Reader,
) (*model.Document, error) {
	if err := model.ValidateBRDUpload(meta); err != nil {
		return nil, err
	}
	raw, err := c.api.Upload(ctx, casePath(caseID)+"/documents", apiclient.UploadInput{
		FileName: meta.Filename,
		File:     file,
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var out model.Document
	if decErr := json.Unmarshal(raw, &out); decErr != nil {
		return nil, fmt.Errorf("decode uploaded document: %w", decErr)
	}
	return &out, nil
}

// StartPipeline queues TBRD generation for a case.
func (c *Client) StartPipeline(ctx context.Context, caseID string) (*model.PipelineStatus, error) {
	var out model.PipelineStatus
	opts := apiclient.RequestOptions{Method: http.MethodPost}
	if err := c.api.RequestInto(ctx, casePath(caseID)+"/pipeline", opts, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PipelineStatus reports the current pipeline run of a case.
func (c *Client) PipelineStatus(ctx context.Context, caseID string) (*model.PipelineStatus, error) {
	var out model.PipelineStatus
	if err := c.api.RequestInto(ctx, casePath(caseID)+"/pipeline", apiclient.RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTBRD returns the generated document of a case.
func (c *Client) GetTBRD(ctx context.Context, caseID string) (*model.TBRDContent, error) {
	var out model.TBRDContent
	if err := c.api.RequestInto(ctx, casePath(caseID)+"/tbrd", apiclient.RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSection replaces the content of one section and returns the stored section.
func (c *Client) UpdateSection(
	ctx context.Context,
	caseID, sectionItemID string,
	req model.UpdateSectionRequest,
) (*model.Section, error) {
	var out model.Section
	path := casePath(caseID) + "/tbrd/sections/" + url.PathEscape(sectionItemID)
	if err := c.api.RequestInto(ctx, path, apiclient.RequestOptions{Method: http.MethodPut, JSON: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search runs a retrieval query over a case's ingested documents.
// limit <= 0 leaves the page size to the backend.
func (c *Client) Search(ctx context.Context, caseID, query string, limit int) ([]model.SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []model.SearchResult
	if err := c.api.RequestInto(ctx, casePath(caseID)+"/search?"+q.Encode(), apiclient.RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMessages returns the conversation of a case, oldest first.
func (c *Client) ListMessages(ctx context.Context, caseID string) ([]model.ConversationMessage, error) {
	var out []model.ConversationMessage
	if err := c.api.RequestInto(ctx, casePath(caseID)+"/conversation", apiclient.RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage posts a user turn and returns the agent reply.
func (c *Client) SendMessage(
	ctx context.Context,
	caseID string,
	req model.SendMessageRequest,
) (*model.ConversationMessage, error) {
	var out model.ConversationMessage
	opts := apiclient.RequestOptions{Method: http.MethodPost, JSON: req}
	if err := c.api.RequestInto(ctx, casePath(caseID)+"/conversation", opts, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// KPIs returns the dashboard headline numbers.
func (c *Client) KPIs(ctx context.Context) (*model.KPIData, error) {
	var out model.KPIData
	if err := c.api.RequestInto(ctx, "/dashboard/kpis", apiclient.RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Activity returns the recent activity feed.
func (c *Client) Activity(ctx context.Context) ([]model.ActivityItem, error) {
	var out []model.ActivityItem
	if err := c.api.RequestInto(ctx, "/dashboard/activity", apiclient.RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats returns the dashboard chart series.
func (c *Client) Stats(ctx context.Context) (*model.DashboardStats, error) {
	var out model.DashboardStats
	if err := c.api.RequestInto(ctx, "/dashboard/stats", apiclient.RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func casePath(caseID string) string {
	return "/cases/" + url.PathEscape(caseID)
}
