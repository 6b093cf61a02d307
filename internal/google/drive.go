package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/EasterCompany/dex-athena-service/internal/storage"
	"google.golang.org/api/drive/v3"
)

const (
	BackupPrefix   = "memory-backup-"
	listPageSize   = 10
	backupPageSize = 20
	folderMimeType = "application/vnd.google-apps.folder"
	fileFields     = "files(id,name,mimeType,size,modifiedTime,webViewLink)"
)

var ErrFileNotFound = errors.New("file not found")

type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
	WebViewLink  string `json:"web_view_link,omitempty"`
}

func (f File) IsFolder() bool { return f.MimeType == folderMimeType }

type Quota struct {
	UsedGB  int64 `json:"used_gb"`
	LimitGB int64 `json:"limit_gb"`
	Percent int64 `json:"percent"`
}

type syncRecord struct {
	Time  string `json:"time"`
	Files int    `json:"files"`
}

func fromDrive(f *drive.File) File {
	return File{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		Size:         f.Size,
		ModifiedTime: f.ModifiedTime,
		WebViewLink:  f.WebViewLink,
	}
}

func quoteQuery(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), "'", `\'`)
}

func (c *Client) listFiles(ctx context.Context, q string, pageSize int64) ([]File, error) {
	srv, err := c.driveService(ctx)
	if err != nil {
		return nil, err
	}
	call := srv.Files.List().PageSize(pageSize).Fields(fileFields).OrderBy("modifiedTime desc").Context(ctx)
	if q != "" {
		call = call.Q(q)
	}
	list, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("drive list failed: %w", err)
	}
	files := make([]File, 0, len(list.Files))
	for _, f := range list.Files {
		files = append(files, fromDrive(f))
	}
	return files, nil
}

// ListFiles returns the most recently modified files and caches them.
func (c *Client) ListFiles(ctx context.Context) ([]File, error) {
	files, err := c.listFiles(ctx, "trashed=false", listPageSize)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, storage.DocDriveFilesCache, files); err != nil {
		return nil, fmt.Errorf("failed to cache drive files: %w", err)
	}
	return files, nil
}

// SearchFiles finds non-trashed files whose name contains keyword.
func (c *Client) SearchFiles(ctx context.Context, keyword string) ([]File, error) {
	return c.listFiles(ctx, fmt.Sprintf("name contains '%s' and trashed=false", quoteQuery(keyword)), listPageSize)
}

// UploadFile uploads a local file under name into the Drive root.
func (c *Client) UploadFile(ctx context.Context, path, name string) (File, error) {
	srv, err := c.driveService(ctx)
	if err != nil {
		return File{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if name == "" {
		name = filepath.Base(path)
	}
	created, err := srv.Files.Create(&drive.File{Name: name, Parents: []string{"root"}}).
		Media(f).
		Fields("id,name,mimeType,size,modifiedTime,webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return File{}, fmt.Errorf("drive upload failed: %w", err)
	}
	return fromDrive(created), nil
}

func (c *Client) cachedFiles(ctx context.Context) ([]File, error) {
	var files []File
	err := c.store.Get(ctx, storage.DocDriveFilesCache, &files)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && len(files) == 0) {
		return c.ListFiles(ctx)
	}
	return files, err
}

// DownloadFile saves the cached file whose name contains fragment into the
// data directory and returns the local path.
func (c *Client) DownloadFile(ctx context.Context, fragment string) (string, error) {
	files, err := c.cachedFiles(ctx)
	if err != nil {
		return "", err
	}
	var target *File
	needle := strings.ToLower(fragment)
	for i := range files {
		if !files[i].IsFolder() && strings.Contains(strings.ToLower(files[i].Name), needle) {
			target = &files[i]
			break
		}
	}
	if target == nil {
		return "", ErrFileNotFound
	}

	srv, err := c.driveService(ctx)
	if err != nil {
		return "", err
	}
	resp, err := srv.Files.Get(target.ID).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("drive download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	dir := filepath.Join(c.dataDir, "downloads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(dir, filepath.Base(target.Name))
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return dst, out.Close()
}

// Backup uploads each file as memory-backup-<name> and records the sync time.
func (c *Client) Backup(ctx context.Context, paths []string) (int, error) {
	uploaded := 0
	for _, p := range paths {
		if _, err := c.UploadFile(ctx, p, BackupPrefix+filepath.Base(p)); err != nil {
			if errors.Is(err, ErrNotAuthorized) {
				return uploaded, err
			}
			return uploaded, fmt.Errorf("backup of %s failed: %w", filepath.Base(p), err)
		}
		uploaded++
	}
	rec := syncRecord{Time: time.Now().Format(time.RFC3339), Files: uploaded}
	if err := c.store.Set(ctx, storage.DocLastSync, rec); err != nil {
		return uploaded, fmt.Errorf("failed to record sync: %w", err)
	}
	return uploaded, nil
}

// Sync backs up paths and returns how many backup files exist on Drive.
func (c *Client) Sync(ctx context.Context, paths []string) (int, error) {
	if _, err := c.Backup(ctx, paths); err != nil {
		return 0, err
	}
	backups, err := c.listFiles(ctx, fmt.Sprintf("name contains '%s' and trashed=false", BackupPrefix), backupPageSize)
	if err != nil {
		return 0, err
	}
	return len(backups), nil
}

// Quota returns storage usage in whole gigabytes.
func (c *Client) Quota(ctx context.Context) (Quota, error) {
	srv, err := c.driveService(ctx)
	if err != nil {
		return Quota{}, err
	}
	about, err := srv.About.Get().Fields("storageQuota").Context(ctx).Do()
	if err != nil {
		return Quota{}, fmt.Errorf("drive quota failed: %w", err)
	}
	if about.StorageQuota == nil {
		return Quota{}, nil
	}
	return quotaFrom(about.StorageQuota.Usage, about.StorageQuota.Limit), nil
}

func quotaFrom(usage, limit int64) Quota {
	q := Quota{UsedGB: usage >> 30, LimitGB: limit >> 30}
	if limit > 0 {
		q.Percent = usage * 100 / limit
	}
	return q
}
