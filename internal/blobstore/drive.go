package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Drive uploads blobs into a Google Drive folder and returns their web view
// links.
type Drive struct {
	files    *drive.FilesService
	folderID string
}

type driveSettings struct {
	endpoint string
}

// DriveOption configures Drive.
type DriveOption func(*driveSettings)

// WithDriveBaseURL points the client at another API host. The Drive v3 paths
// are appended to baseURL.
func WithDriveBaseURL(baseURL string) DriveOption {
	return func(s *driveSettings) {
		if baseURL != "" {
			s.endpoint = strings.TrimRight(baseURL, "/") + "/drive/v3/"
		}
	}
}

// NewDrive authenticates with service account credentials JSON. The full
// drive scope is requested so uploads into shared folders the service
// account did not create are accepted.
func NewDrive(ctx context.Context, credentialsJSON []byte, folderID string, opts ...DriveOption) (*Drive, error) {
	if len(credentialsJSON) == 0 {
		return nil, errors.New("blobstore: empty drive credentials")
	}
	if folderID == "" {
		return nil, errors.New("blobstore: empty drive folder id")
	}
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("blobstore: drive credentials: %w", err)
	}
	return newDrive(ctx, folderID, opts, option.WithTokenSource(creds.TokenSource))
}

// NewDriveWithClient uses an already authorized HTTP client.
func NewDriveWithClient(client *http.Client, folderID string, opts ...DriveOption) (*Drive, error) {
	if folderID == "" {
		return nil, errors.New("blobstore: empty drive folder id")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return newDrive(context.Background(), folderID, opts, option.WithHTTPClient(client))
}

func newDrive(ctx context.Context, folderID string, opts []DriveOption, clientOpts ...option.ClientOption) (*Drive, error) {
	var settings driveSettings
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(settings.endpoint))
	}
	srv, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("blobstore: drive service: %w", err)
	}
	return &Drive{files: srv.Files, folderID: folderID}, nil
}

// Upload creates the file inside the configured folder.
func (d *Drive) Upload(ctx context.Context, data []byte, name, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyData
	}
	clean := SanitizeName(name)
	if clean == "" {
		return "", ErrEmptyName
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	file, err := d.files.Create(&drive.File{Name: clean, Parents: []string{d.folderID}}).
		Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
		Fields("id", "webViewLink").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("blobstore: drive upload: %w", err)
	}
	if file.WebViewLink == "" {
		return "", fmt.Errorf("blobstore: drive file %s has no web view link", file.Id)
	}
	return file.WebViewLink, nil
}
