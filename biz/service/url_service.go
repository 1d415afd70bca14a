package service

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/yi-nology/mediahub/biz/dal/model"
	"github.com/yi-nology/mediahub/pkg/slug"
	"github.com/yi-nology/mediahub/pkg/storage"
	"github.com/yi-nology/mediahub/pkg/storage/local"
)

// --------------------- URL synthesis ---------------------
//
// URL helpers never fail: anything that cannot be resolved yields the
// configured sentinel so rendering can go on.

// PublicURL returns the URL of a media record. With seoFriendly set the SEO
// route /media/p/{slug}-{token}/{ext} is preferred; on local and token disks
// the slug is computed on first use and cached on the record, while cloud
// disks only use it once an SEO filename has been stored. Otherwise the disk
// decides: static path, token route, or cloud URL.
func (s *Service) PublicURL(ctx context.Context, m *model.MediaAsset, seoFriendly bool) string {
	if m == nil {
		return s.invalid(ctx, "", "nil_media", errors.New("media is nil"))
	}
	disk, err := s.disks.Disk(m.Disk)
	if err != nil {
		return s.unknownDiskURL(ctx, m.Disk, m.Path, err)
	}
	if seoFriendly && s.seoAvailable(ctx, disk, m) {
		return slug.SEOURLPath(m.Slug, m.PublicToken, s.mediaExtension(m))
	}
	url, err := disk.ObjectURL(m.Path, m.PublicToken)
	if err != nil {
		return s.invalid(ctx, m.Disk, "unresolvable", err)
	}
	return url
}

// SEOURLWithExtension returns /media/p/{slug}-{token}.{ext} for sitemaps and
// Open Graph tags that need a real extension.
func (s *Service) SEOURLWithExtension(ctx context.Context, m *model.MediaAsset) string {
	if m == nil {
		return s.invalid(ctx, "", "nil_media", errors.New("media is nil"))
	}
	if !s.ensureSEO(ctx, m) {
		return s.invalid(ctx, m.Disk, "no_token", errors.New("media has no public token"))
	}
	return slug.SEOURLPathWithExtension(m.Slug, m.PublicToken, s.mediaExtension(m))
}

// ThumbnailURL resolves metadata.thumbnail.path on cloud disks, always uses
// the token route on token-gated disks, and falls back to PublicURL.
func (s *Service) ThumbnailURL(ctx context.Context, m *model.MediaAsset) string {
	if m == nil {
		return s.invalid(ctx, "", "nil_media", errors.New("media is nil"))
	}
	return s.thumbnailURL(ctx, m.Disk, m.ThumbnailPath(), m.PublicToken, func() string {
		return s.PublicURL(ctx, m, true)
	})
}

// ImageURL returns the non-SEO URL of a gallery image.
func (s *Service) ImageURL(ctx context.Context, img *model.GalleryImage) string {
	if img == nil {
		return s.invalid(ctx, "", "nil_image", errors.New("gallery image is nil"))
	}
	disk, err := s.disks.Disk(img.Disk)
	if err != nil {
		return s.unknownDiskURL(ctx, img.Disk, img.Path, err)
	}
	url, err := disk.ObjectURL(img.Path, img.PublicToken)
	if err != nil {
		return s.invalid(ctx, img.Disk, "unresolvable", err)
	}
	return url
}

// ImageThumbnailURL applies the ThumbnailURL rules to a gallery image.
func (s *Service) ImageThumbnailURL(ctx context.Context, img *model.GalleryImage) string {
	if img == nil {
		return s.invalid(ctx, "", "nil_image", errors.New("gallery image is nil"))
	}
	return s.thumbnailURL(ctx, img.Disk, img.ThumbnailPath(), img.PublicToken, func() string {
		return s.ImageURL(ctx, img)
	})
}

func (s *Service) thumbnailURL(ctx context.Context, diskName, thumbPath, token string, mainURL func() string) string {
	disk, err := s.disks.Disk(diskName)
	if err != nil {
		return mainURL()
	}
	switch disk.Kind() {
	case storage.KindToken:
		url, err := disk.ObjectURL("", token)
		if err != nil {
			return s.invalid(ctx, diskName, "unresolvable", err)
		}
		return url
	case storage.KindS3:
		if thumbPath == "" {
			return mainURL()
		}
		url, err := disk.ObjectURL(thumbPath, token)
		if err != nil {
			return s.invalid(ctx, diskName, "unresolvable", err)
		}
		return url
	default:
		return mainURL()
	}
}

// seoAvailable reports whether the SEO route can serve m. Cloud objects are
// served by their bucket URL until an SEO filename exists.
func (s *Service) seoAvailable(ctx context.Context, disk storage.Disk, m *model.MediaAsset) bool {
	if disk.Kind() == storage.KindS3 {
		return m.PublicToken != "" && m.Slug != "" && m.SEOFilename != ""
	}
	return s.ensureSEO(ctx, m)
}

// ensureSEO fills Slug and SEOFilename when missing and caches them on the
// row. It reports false only when the record has no token to build from.
func (s *Service) ensureSEO(ctx context.Context, m *model.MediaAsset) bool {
	if m.PublicToken == "" {
		return false
	}
	if m.Slug != "" && m.SEOFilename != "" {
		return true
	}
	name := m.Filename
	if name == "" {
		name = m.Path
	}
	m.Slug = slug.FromFilename(name)
	m.SEOFilename = slug.SEOFilename(m.Slug, m.PublicToken, s.mediaExtension(m))
	if m.ID != 0 {
		if err := s.logic.UpdateMediaColumns(ctx, m.ID, map[string]interface{}{
			"slug":         m.Slug,
			"seo_filename": m.SEOFilename,
		}); err != nil {
			hlog.CtxWarnf(ctx, "cache seo filename for media %d: %v", m.ID, err)
		}
	}
	return true
}

func (s *Service) mediaExtension(m *model.MediaAsset) string {
	if m.Filename != "" {
		return slug.Extension(m.Filename)
	}
	return slug.Extension(m.Path)
}

// unknownDiskURL serves records of unconfigured disks from the legacy static
// path as a best effort.
func (s *Service) unknownDiskURL(ctx context.Context, diskName, p string, cause error) string {
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return s.invalid(ctx, diskName, "unknown_disk", cause)
	}
	hlog.CtxWarnf(ctx, "url for unknown disk %q falls back to static path: %v", diskName, cause)
	return local.PublicURLPrefix + p
}

func (s *Service) invalid(ctx context.Context, diskName, reason string, cause error) string {
	hlog.CtxWarnf(ctx, "media url unresolvable on disk %q (%s): %v", diskName, reason, cause)
	s.metrics.InvalidURL(diskName, reason)
	return s.invalidURL
}
