package drive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/judev-jbg/confirmation-invoice/internal/models"
	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Service locates and retrieves invoice artifacts stored in a Google
// Drive folder, authenticated with a service account.
type Service struct {
	svc      *drive.Service
	folderID string
	logger   *zap.Logger
}

// NewService creates a new Drive service. folderID is optional; when
// set, searches are scoped to that folder.
func NewService(ctx context.Context, credentialsFile, folderID string, logger *zap.Logger) (*Service, error) {
	svc, err := drive.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	logger.Info("Drive service initialized", zap.String("folder_id", folderID))

	return &Service{
		svc:      svc,
		folderID: folderID,
		logger:   logger,
	}, nil
}

// SearchFileByName looks up a file by exact name. A missing file is
// not an error: the result is (nil, nil) so the caller can treat it as
// a normal "not ready yet" condition.
func (s *Service) SearchFileByName(ctx context.Context, fileName string) (*models.ArtifactFile, error) {
	query := []string{
		fmt.Sprintf("name = '%s'", escapeQuery(fileName)),
		"trashed = false",
	}
	if s.folderID != "" {
		query = append(query, fmt.Sprintf("'%s' in parents", s.folderID))
	}

	s.logger.Debug("Searching for file", zap.String("file_name", fileName))

	result, err := s.svc.Files.List().
		Q(strings.Join(query, " and ")).
		Spaces("drive").
		Fields("files(id, name, mimeType, modifiedTime, size)").
		PageSize(10).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search file %q: %w", fileName, err)
	}

	if len(result.Files) == 0 {
		s.logger.Debug("File not found", zap.String("file_name", fileName))
		return nil, nil
	}

	f := result.Files[0]
	s.logger.Info("File found", zap.String("file_name", f.Name), zap.String("file_id", f.Id))

	return &models.ArtifactFile{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		ModifiedTime: f.ModifiedTime,
		Size:         f.Size,
	}, nil
}

// DownloadFile fetches the raw content of a file by its identity
func (s *Service) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	s.logger.Debug("Downloading file", zap.String("file_id", fileID))

	resp, err := s.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fileID, err)
	}

	s.logger.Info("File downloaded", zap.String("file_id", fileID), zap.Int("bytes", len(content)))
	return content, nil
}

// escapeQuery escapes single quotes and backslashes inside a Drive
// query string literal
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
