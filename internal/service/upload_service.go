package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"sitebuilder-backend/internal/blocks"
	"sitebuilder-backend/internal/constants"
	"sitebuilder-backend/internal/models"
	"sitebuilder-backend/pkg/utils"
	"sitebuilder-backend/pkg/validator"
)

const (
	defaultMaxUploadSize = 10 * 1024 * 1024
	maxNameAttempts      = 100
)

// DocumentLoader reads the saved site document.
type DocumentLoader interface {
	Load(ctx context.Context) (models.SiteDocument, error)
}

// UploadService is the media library behind image fields of blocks.
type UploadService struct {
	dir       string
	maxSize   int64
	allowed   []string
	documents DocumentLoader
}

// UploadInfo describes a stored image. UsedBy lists "page/block" references
// found in the saved document.
type UploadInfo struct {
	URL         string    `json:"url"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"mod_time"`
	UsedBy      []string  `json:"used_by,omitempty"`
}

var (
	ErrUploadNotFound    = errors.New("upload not found")
	ErrUploadTooLarge    = errors.New("file size exceeds maximum allowed size")
	ErrUploadTypeInvalid = errors.New("file type not allowed")
	ErrUploadInUse       = errors.New("upload is used by saved blocks")
)

// NewUploadService stores images under dir. documents may be nil, in which
// case nothing is reported as in use.
func NewUploadService(dir string, maxSize int64, documents DocumentLoader) *UploadService {
	if maxSize <= 0 {
		maxSize = defaultMaxUploadSize
	}
	return &UploadService{
		dir:       dir,
		maxSize:   maxSize,
		allowed:   constants.ImageMediaTypes(),
		documents: documents,
	}
}

// UploadImage stores an image for use in block data. The type is sniffed
// from the content; the client supplied extension and header are ignored.
func (s *UploadService) UploadImage(file *multipart.FileHeader, preferredName string) (UploadInfo, error) {
	if file == nil {
		return UploadInfo{}, errors.New("image file is required")
	}
	if !validator.ValidateFileSize(file.Size, s.maxSize) {
		return UploadInfo{}, ErrUploadTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return UploadInfo{}, err
	}
	defer src.Close()

	detected, err := mimetype.DetectReader(src)
	if err != nil {
		return UploadInfo{}, fmt.Errorf("failed to detect file type: %w", err)
	}
	if !validator.ValidateContentType(detected.String(), s.allowed) {
		return UploadInfo{}, ErrUploadTypeInvalid
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return UploadInfo{}, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return UploadInfo{}, err
	}
	dst, filename, err := s.create(baseName(file.Filename, preferredName), detected.Extension())
	if err != nil {
		return UploadInfo{}, err
	}

	size, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(filepath.Join(s.dir, filename))
		return UploadInfo{}, err
	}

	return UploadInfo{
		URL:         constants.UploadURLPrefix + filename,
		Filename:    filename,
		ContentType: detected.String(),
		Size:        size,
		ModTime:     time.Now(),
	}, nil
}

// create claims the first free name derived from base. O_EXCL keeps two
// concurrent uploads of the same name from overwriting each other.
func (s *UploadService) create(base, ext string) (*os.File, string, error) {
	for i := 0; i < maxNameAttempts; i++ {
		name := base + ext
		if i > 0 {
			name = fmt.Sprintf("%s-%d%s", base, i, ext)
		}
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}

	name := uuid.NewString() + ext
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	return f, name, err
}

func baseName(original, preferred string) string {
	name := strings.TrimSpace(preferred)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	}
	if slug := utils.GenerateSlug(name); slug != "" {
		return slug
	}
	return uuid.NewString()
}

// DeleteImage removes an upload. Images still referenced by the saved
// document are kept unless force is set.
func (s *UploadService) DeleteImage(ctx context.Context, name string, force bool) error {
	path, filename, err := s.resolve(name)
	if err != nil {
		return err
	}

	if !force {
		usage, err := s.usage(ctx)
		if err != nil {
			return err
		}
		if len(usage[filename]) > 0 {
			return ErrUploadInUse
		}
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrUploadNotFound
		}
		return err
	}
	return nil
}

// ListImages returns stored images, newest first.
func (s *UploadService) ListImages(ctx context.Context) ([]UploadInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []UploadInfo{}, nil
		}
		return nil, err
	}

	usage, err := s.usage(ctx)
	if err != nil {
		return nil, err
	}

	uploads := make([]UploadInfo, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		mediaType, ok := constants.ImageMediaType(filepath.Ext(name))
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		uploads = append(uploads, UploadInfo{
			URL:         constants.UploadURLPrefix + name,
			Filename:    name,
			ContentType: mediaType,
			Size:        info.Size(),
			ModTime:     info.ModTime(),
			UsedBy:      usage[name],
		})
	}

	sort.Slice(uploads, func(i, j int) bool {
		return uploads[i].ModTime.After(uploads[j].ModTime)
	})
	return uploads, nil
}

// usage maps upload filenames to the "page/block" ids whose data mention
// them. Hidden blocks count; they may be shown again.
func (s *UploadService) usage(ctx context.Context) (map[string][]string, error) {
	usage := make(map[string][]string)
	if s.documents == nil {
		return usage, nil
	}

	doc, err := s.documents.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load site document: %w", err)
	}

	for _, page := range doc.Pages {
		blocks.Walk(page.Blocks, func(block models.Block, _ blocks.Position) bool {
			ref := page.Slug + "/" + block.ID
			for _, name := range uploadRefs(block.Data) {
				if refs := usage[name]; len(refs) == 0 || refs[len(refs)-1] != ref {
					usage[name] = append(refs, ref)
				}
			}
			return true
		})
	}
	return usage, nil
}

// uploadRefs collects upload filenames from string values anywhere in data.
func uploadRefs(value interface{}) []string {
	switch v := value.(type) {
	case string:
		idx := strings.Index(v, constants.UploadURLPrefix)
		if idx < 0 {
			return nil
		}
		name := v[idx+len(constants.UploadURLPrefix):]
		if cut := strings.IndexAny(name, "?#\"' )"); cut >= 0 {
			name = name[:cut]
		}
		if name == "" || strings.Contains(name, "/") {
			return nil
		}
		return []string{name}
	case map[string]interface{}:
		var refs []string
		for _, item := range v {
			refs = append(refs, uploadRefs(item)...)
		}
		return refs
	case []interface{}:
		var refs []string
		for _, item := range v {
			refs = append(refs, uploadRefs(item)...)
		}
		return refs
	}
	return nil
}

func (s *UploadService) resolve(name string) (string, string, error) {
	filename := filepath.Base(strings.TrimSpace(name))
	if filename == "" || filename == "." || filename == string(filepath.Separator) || strings.HasPrefix(filename, ".") {
		return "", "", ErrUploadNotFound
	}

	dir, err := filepath.Abs(s.dir)
	if err != nil {
		return "", "", err
	}
	path := filepath.Join(dir, filename)
	if !strings.HasPrefix(path, dir+string(filepath.Separator)) {
		return "", "", ErrUploadNotFound
	}
	return path, filename, nil
}
