package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/yi-nology/mediahub/biz/dal/model"
)

// ThumbnailDir is the directory, relative to the original, holding thumbnails.
const ThumbnailDir = "thumbs"

// GenerateThumbnail writes a copy of an image that fits within width x
// height next to the original under thumbs/ and records it in
// metadata.thumbnail.
func (s *Service) GenerateThumbnail(ctx context.Context, mediaID uint, width, height int) (*model.MediaAsset, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid thumbnail size %dx%d", width, height)
	}
	m, err := s.logic.GetMedia(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if !m.IsImage() {
		return nil, ErrNotImage
	}
	disk, err := s.disks.Disk(m.Disk)
	if err != nil {
		return nil, err
	}

	rc, err := disk.GetObject(ctx, m.Path)
	if err != nil {
		return nil, fmt.Errorf("read original: %w", err)
	}
	src, err := imaging.Decode(rc, imaging.AutoOrientation(true))
	_ = rc.Close()
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Fit(src, width, height, imaging.Lanczos)
	format, err := imaging.FormatFromFilename(m.Path)
	if err != nil {
		format = imaging.JPEG
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	thumbPath := path.Join(m.Dir(), ThumbnailDir, path.Base(m.Path))
	if ext := strings.ToLower(path.Ext(thumbPath)); format == imaging.JPEG && ext != ".jpg" && ext != ".jpeg" {
		thumbPath += ".jpg"
	}
	if err := disk.PutObject(ctx, thumbPath, bytes.NewReader(buf.Bytes()), thumbnailContentType(format), int64(buf.Len())); err != nil {
		s.metrics.PhysicalFailure(m.Disk, "put")
		return nil, fmt.Errorf("store thumbnail: %w", err)
	}

	bounds := thumb.Bounds()
	m.SetThumbnail(thumbPath, bounds.Dx(), bounds.Dy())
	if err := s.logic.UpdateMediaColumns(ctx, m.ID, map[string]interface{}{"metadata": m.Metadata}); err != nil {
		return nil, err
	}
	return m, nil
}

func thumbnailContentType(format imaging.Format) string {
	switch format {
	case imaging.PNG:
		return "image/png"
	case imaging.GIF:
		return "image/gif"
	case imaging.TIFF:
		return "image/tiff"
	case imaging.BMP:
		return "image/bmp"
	default:
		return "image/jpeg"
	}
}
