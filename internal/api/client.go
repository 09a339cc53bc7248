package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"cloudsave/internal/config"
	"cloudsave/internal/constants"
	"cloudsave/internal/http"
	"cloudsave/internal/logging"
	"cloudsave/internal/models"
	"cloudsave/internal/validation"
)

// RootDirectoryID is the provider's sentinel id for the tree root.
const RootDirectoryID = "-11"

func init() {
	RegisterProvider("cloud189", func(cfg *config.Config) (Provider, error) {
		return NewClient(cfg)
	})
}

// retryLogger implements the retryablehttp.LeveledLogger interface,
// forwarding only warnings and errors.
type retryLogger struct {
	log *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{})  {}
func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}

// Client is the cloud189 provider implementation. All calls are
// cookie-authenticated JSON-over-HTTPS against the provider's open API.
type Client struct {
	httpClient *nethttp.Client
	config     *config.Config
	baseURL    string
	log        *logging.Logger
}

// NewClient creates a cloud189 client from configuration.
func NewClient(cfg *config.Config) (*Client, error) {
	httpClient, err := http.ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	// Wrap with retry logic
	logger := logging.NewLogger("api")
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = constants.RetryMax
	retryClient.RetryWaitMin = constants.RetryWaitMin
	retryClient.RetryWaitMax = constants.RetryWaitMax
	retryClient.Logger = &retryLogger{log: logger}

	return &Client{
		httpClient: retryClient.StandardClient(),
		config:     cfg,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		log:        logger,
	}, nil
}

// Kind implements Provider.
func (c *Client) Kind() string { return "cloud189" }

// doRequest performs an HTTP request with cookie authentication. GET requests
// encode params as the query string, POST requests as a form body.
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	var reqURL string
	var body io.Reader

	if method == nethttp.MethodGet {
		reqURL = c.baseURL + path
		if len(params) > 0 {
			reqURL += "?" + params.Encode()
		}
	} else {
		reqURL = c.baseURL + path
		body = strings.NewReader(params.Encode())
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Cookie", c.config.Cookie)
	req.Header.Set("Accept", "application/json;charset=UTF-8")
	if method != nethttp.MethodGet {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Str("method", method).Str("path", path).Err(err).Msg("API call failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != nethttp.StatusOK {
		c.log.Error().Str("path", path).Int("status", resp.StatusCode).Msg("API returned non-200")
		return nil, &RemoteError{Code: resp.StatusCode, Message: string(data)}
	}

	return data, nil
}

// envelope is the common response wrapper. res_code 0 means success.
type envelope struct {
	ResCode    int    `json:"res_code"`
	ResMessage string `json:"res_message"`
}

func (e *envelope) check() error {
	if e.ResCode != 0 {
		return &RemoteError{Code: e.ResCode, Message: e.ResMessage}
	}
	return nil
}

// wireEntry is a folder or file as it appears in fileListAO lists. IDs come
// back as JSON numbers.
type wireEntry struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

type listResponse struct {
	envelope
	FileListAO struct {
		Count      int         `json:"count"`
		FolderList []wireEntry `json:"folderList"`
		FileList   []wireEntry `json:"fileList"`
	} `json:"fileListAO"`
}

func (r *listResponse) toListing(dirID string) *models.Listing {
	listing := &models.Listing{
		DirectoryID: dirID,
		Entries:     make([]models.DirectoryEntry, 0, len(r.FileListAO.FolderList)+len(r.FileListAO.FileList)),
	}
	// Folders first, then files, provider order within each group
	for _, f := range r.FileListAO.FolderList {
		listing.Entries = append(listing.Entries, models.Folder(f.ID.String(), f.Name))
	}
	for _, f := range r.FileListAO.FileList {
		listing.Entries = append(listing.Entries, models.File(f.ID.String(), f.Name))
	}
	return listing
}

// ListChildren implements Provider.
func (c *Client) ListChildren(ctx context.Context, dirID string) (*models.Listing, error) {
	if dirID == "" {
		dirID = RootDirectoryID
	}

	params := url.Values{}
	params.Set("folderId", dirID)
	params.Set("pageNum", "1")
	params.Set("pageSize", "1000")
	params.Set("mediaType", "0")
	params.Set("iconOption", "5")
	params.Set("orderBy", "lastOpTime")
	params.Set("descending", "true")

	data, err := c.doRequest(ctx, nethttp.MethodGet, "/api/open/file/listFiles.action", params)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}
	if err := resp.check(); err != nil {
		return nil, err
	}

	return resp.toListing(dirID), nil
}

// ListShareChildren implements Provider. dirID empty lists the shared root.
func (c *Client) ListShareChildren(ctx context.Context, share *models.ShareRef, dirID string) (*models.Listing, error) {
	if share == nil {
		return nil, NewValidationError("share", "share reference is nil")
	}
	if dirID == "" {
		dirID = share.FileID
	}

	params := url.Values{}
	params.Set("shareId", share.ShareID)
	params.Set("fileId", dirID)
	params.Set("shareMode", share.ShareMode)
	params.Set("accessCode", share.AccessCode)
	params.Set("isFolder", "true")
	params.Set("pageNum", "1")
	params.Set("pageSize", "1000")
	params.Set("iconOption", "5")
	params.Set("orderBy", "lastOpTime")
	params.Set("descending", "true")

	data, err := c.doRequest(ctx, nethttp.MethodGet, "/api/open/share/listShareDir.action", params)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode share listing: %w", err)
	}
	if err := resp.check(); err != nil {
		return nil, err
	}

	return resp.toListing(dirID), nil
}

type shareInfoResponse struct {
	envelope
	ShareID        json.Number `json:"shareId"`
	FileID         json.Number `json:"fileId"`
	FileName       string      `json:"fileName"`
	ShareMode      json.Number `json:"shareMode"`
	IsFolder       bool        `json:"isFolder"`
	NeedAccessCode int         `json:"needAccessCode"`
}

// GetShareInfo implements Provider. Private shares are unlocked with the
// access code before the share info is usable.
func (c *Client) GetShareInfo(ctx context.Context, shareCode, accessCode string) (*models.ShareRef, error) {
	if strings.TrimSpace(shareCode) == "" {
		return nil, NewValidationError("shareCode", "share code is empty")
	}

	params := url.Values{}
	params.Set("shareCode", shareCode)

	data, err := c.doRequest(ctx, nethttp.MethodGet, "/api/open/share/getShareInfoByCodeV2.action", params)
	if err != nil {
		return nil, err
	}

	var resp shareInfoResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode share info: %w", err)
	}
	if err := resp.check(); err != nil {
		return nil, err
	}

	if resp.NeedAccessCode != 0 {
		if accessCode == "" {
			return nil, ErrAccessCodeRequired
		}
		if err := c.checkAccessCode(ctx, shareCode, accessCode); err != nil {
			return nil, err
		}
	}

	return &models.ShareRef{
		ShareID:    resp.ShareID.String(),
		FileID:     resp.FileID.String(),
		ShareMode:  resp.ShareMode.String(),
		AccessCode: accessCode,
		IsFolder:   resp.IsFolder,
	}, nil
}

func (c *Client) checkAccessCode(ctx context.Context, shareCode, accessCode string) error {
	params := url.Values{}
	params.Set("shareCode", shareCode)
	params.Set("accessCode", accessCode)

	data, err := c.doRequest(ctx, nethttp.MethodGet, "/api/open/share/checkAccessCode.action", params)
	if err != nil {
		return err
	}

	var resp struct {
		envelope
		ShareID json.Number `json:"shareId"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("failed to decode access check: %w", err)
	}
	if err := resp.check(); err != nil {
		return err
	}
	if resp.ShareID.String() == "" || resp.ShareID.String() == "0" {
		return &RemoteError{Code: -1, Message: "access code rejected"}
	}
	return nil
}

// SaveShareFiles implements Provider. The provider executes the copy as a
// server-side batch task; this call only enqueues it.
func (c *Client) SaveShareFiles(ctx context.Context, share *models.ShareRef, destDirID string, refs []models.EntryRef) error {
	if share == nil {
		return NewValidationError("share", "share reference is nil")
	}
	if len(refs) == 0 {
		return NewValidationError("refs", "nothing to save")
	}
	if destDirID == "" {
		destDirID = RootDirectoryID
	}

	taskInfos, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("failed to marshal task infos: %w", err)
	}

	params := url.Values{}
	params.Set("type", "SHARE_SAVE")
	params.Set("taskInfos", string(taskInfos))
	params.Set("targetFolderId", destDirID)
	params.Set("shareId", share.ShareID)

	data, err := c.doRequest(ctx, nethttp.MethodPost, "/api/open/batch/createBatchTask.action", params)
	if err != nil {
		return err
	}

	var resp envelope
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("failed to decode save response: %w", err)
	}
	return resp.check()
}

type createFolderResponse struct {
	envelope
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

// CreateFolder implements Provider. The name is validated locally so a bad
// name never reaches the network.
func (c *Client) CreateFolder(ctx context.Context, parentID, name string) (*models.DirectoryEntry, error) {
	if err := validation.ValidateEntryName(name); err != nil {
		return nil, NewValidationError("name", err.Error())
	}
	if parentID == "" {
		parentID = RootDirectoryID
	}

	params := url.Values{}
	params.Set("parentFolderId", parentID)
	params.Set("folderName", name)

	data, err := c.doRequest(ctx, nethttp.MethodPost, "/api/open/file/createFolder.action", params)
	if err != nil {
		return nil, err
	}

	var resp createFolderResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode create response: %w", err)
	}
	if err := resp.check(); err != nil {
		return nil, err
	}

	entry := models.Folder(resp.ID.String(), resp.Name)
	return &entry, nil
}

// Rename implements Provider. Folders and files use different endpoints.
func (c *Client) Rename(ctx context.Context, ref models.EntryRef, newName string) error {
	if err := validation.ValidateEntryName(newName); err != nil {
		return NewValidationError("name", err.Error())
	}

	params := url.Values{}
	path := "/api/open/file/renameFile.action"
	if ref.IsFolder {
		path = "/api/open/file/renameFolder.action"
		params.Set("folderId", ref.ID)
		params.Set("destFolderName", newName)
	} else {
		params.Set("fileId", ref.ID)
		params.Set("destFileName", newName)
	}

	data, err := c.doRequest(ctx, nethttp.MethodPost, path, params)
	if err != nil {
		return err
	}

	var resp envelope
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("failed to decode rename response: %w", err)
	}
	return resp.check()
}

// Delete implements Provider. Deletion is a batch task like the share save.
func (c *Client) Delete(ctx context.Context, refs []models.EntryRef) error {
	if len(refs) == 0 {
		return NewValidationError("refs", "nothing to delete")
	}

	taskInfos, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("failed to marshal task infos: %w", err)
	}

	params := url.Values{}
	params.Set("type", "DELETE")
	params.Set("taskInfos", string(taskInfos))
	params.Set("targetFolderId", "")

	data, err := c.doRequest(ctx, nethttp.MethodPost, "/api/open/batch/createBatchTask.action", params)
	if err != nil {
		return err
	}

	var resp envelope
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("failed to decode delete response: %w", err)
	}
	return resp.check()
}
