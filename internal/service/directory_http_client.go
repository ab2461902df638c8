package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DirectoryClient resolves class identity and membership. The directory is an
// external collaborator; the engine never owns user or class records.
type DirectoryClient interface {
	ClassExists(ctx context.Context, classID uuid.UUID) (bool, error)
	ClassMembers(ctx context.Context, classID uuid.UUID) ([]uuid.UUID, error)
	ListClasses(ctx context.Context) ([]DirectoryClass, error)
}

type DirectoryClass struct {
	ID   uuid.UUID
	Name string
}

type DirectoryHTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewDirectoryHTTPClient(baseURL string, httpClient *http.Client) *DirectoryHTTPClient {
	return &DirectoryHTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type directoryClassResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type directoryMembersResponse struct {
	Students []uuid.UUID `json:"students"`
}

func (c *DirectoryHTTPClient) ClassExists(ctx context.Context, classID uuid.UUID) (bool, error) {
	resp, err := c.get(ctx, "/classes/"+classID.String())
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("directory service unexpected status: %d", resp.StatusCode)
	}
}

func (c *DirectoryHTTPClient) ClassMembers(ctx context.Context, classID uuid.UUID) ([]uuid.UUID, error) {
	resp, err := c.get(ctx, "/classes/"+classID.String()+"/students")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// continue
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("directory service unexpected status: %d", resp.StatusCode)
	}

	var body directoryMembersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Students, nil
}

func (c *DirectoryHTTPClient) ListClasses(ctx context.Context) ([]DirectoryClass, error) {
	resp, err := c.get(ctx, "/classes")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory service unexpected status: %d", resp.StatusCode)
	}

	var body []directoryClassResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	classes := make([]DirectoryClass, 0, len(body))
	for _, class := range body {
		classes = append(classes, DirectoryClass{ID: class.ID, Name: class.Name})
	}
	return classes, nil
}

func (c *DirectoryHTTPClient) get(ctx context.Context, path string) (*http.Response, error) {
	if c.baseURL == "" {
		return nil, ErrInvalidInput
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

func DefaultDirectoryHTTPClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Second}
}

var _ DirectoryClient = (*DirectoryHTTPClient)(nil)
