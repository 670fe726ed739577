package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/model"
)

// RESTClient implements API against the HTTP endpoints, authenticating every
// request with a bearer token.
type RESTClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewRESTClient returns a client rooted at baseURL (e.g.
// "http://localhost:8080/api/v1").
func NewRESTClient(baseURL, token string) *RESTClient {
	return &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{},
	}
}

func (r *RESTClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr model.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (r *RESTClient) ListConversations(ctx context.Context) ([]model.ConversationResponse, error) {
	var convs []model.ConversationResponse
	if err := r.do(ctx, http.MethodGet, "/conversations", nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (r *RESTClient) CreateDirect(ctx context.Context, partnerID uuid.UUID) (*model.DirectConversationResponse, error) {
	var resp model.DirectConversationResponse
	req := model.DirectConversationRequest{ReceiverID: partnerID}
	if err := r.do(ctx, http.MethodPost, "/conversations/direct", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *RESTClient) History(ctx context.Context, conversationID uuid.UUID) ([]model.Message, error) {
	var msgs []model.Message
	path := fmt.Sprintf("/conversations/%s/messages", conversationID)
	if err := r.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *RESTClient) Send(ctx context.Context, conversationID uuid.UUID, req model.SendMessageRequest) (*model.Message, error) {
	var msg model.Message
	path := fmt.Sprintf("/conversations/%s/messages", conversationID)
	if err := r.do(ctx, http.MethodPost, path, req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *RESTClient) MarkRead(ctx context.Context, conversationID uuid.UUID) error {
	return r.do(ctx, http.MethodPost, fmt.Sprintf("/conversations/%s/read", conversationID), nil, nil)
}

func (r *RESTClient) DeleteMessage(ctx context.Context, messageID uuid.UUID) error {
	return r.do(ctx, http.MethodDelete, fmt.Sprintf("/messages/%s", messageID), nil, nil)
}

func (r *RESTClient) LeaveConversation(ctx context.Context, conversationID uuid.UUID) error {
	return r.do(ctx, http.MethodDelete, fmt.Sprintf("/conversations/%s", conversationID), nil, nil)
}
