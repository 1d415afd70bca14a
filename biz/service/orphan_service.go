package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/yi-nology/mediahub/biz/dal/model"
)

// Sweep outcomes.
const (
	SweepResolved = "resolved"
	SweepRetained = "retained"
)

// SweepResult summarizes one reconciliation pass.
type SweepResult struct {
	Resolved int
	Retained int
}

// ListOrphans returns pending reconciliation entries, oldest first.
func (s *Service) ListOrphans(ctx context.Context, limit int) ([]model.StorageOrphan, error) {
	return s.logic.ListOrphans(ctx, limit)
}

// SweepOrphans retries up to limit failed physical operations. Deletes are
// reissued; copies are confirmed by an existence check and reissued when the
// target is still missing, unless the copy's media row no longer exists. Resolved entries are removed, the rest get their
// attempt counter bumped.
func (s *Service) SweepOrphans(ctx context.Context, limit int) (SweepResult, error) {
	var result SweepResult
	orphans, err := s.logic.ListOrphans(ctx, limit)
	if err != nil {
		return result, err
	}

	for i := range orphans {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		o := &orphans[i]
		if cause := s.reconcile(ctx, o); cause != nil {
			result.Retained++
			s.metrics.SweepOutcome(SweepRetained)
			hlog.CtxWarnf(ctx, "orphan %d (%s %s:%s) still pending: %v", o.ID, o.Operation, o.Disk, o.Path, cause)
			if err := s.logic.RecordOrphanAttempt(ctx, o.ID, cause.Error()); err != nil {
				return result, fmt.Errorf("record orphan attempt %d: %w", o.ID, err)
			}
			continue
		}
		result.Resolved++
		s.metrics.SweepOutcome(SweepResolved)
		if err := s.logic.ResolveOrphan(ctx, o.ID); err != nil {
			return result, fmt.Errorf("resolve orphan %d: %w", o.ID, err)
		}
	}
	hlog.CtxInfof(ctx, "orphan sweep: %d resolved, %d retained", result.Resolved, result.Retained)
	return result, nil
}

func (s *Service) reconcile(ctx context.Context, o *model.StorageOrphan) error {
	disk, err := s.disks.Disk(o.Disk)
	if err != nil {
		return err
	}
	switch o.Operation {
	case model.OrphanDelete:
		return disk.DeleteObject(ctx, o.Path)
	case model.OrphanCopy:
		if o.MediaID != nil {
			if _, err := s.logic.GetMedia(ctx, *o.MediaID); errors.Is(err, ErrMediaNotFound) {
				hlog.CtxInfof(ctx, "orphan %d: media %d is gone, copy dropped", o.ID, *o.MediaID)
				return nil
			} else if err != nil {
				return err
			}
		}
		ok, err := disk.ObjectExists(ctx, o.Path)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if o.SourcePath == "" {
			return errors.New("copy orphan without source path")
		}
		return disk.CopyObject(ctx, o.SourcePath, o.Path)
	default:
		return fmt.Errorf("unknown orphan operation %q", o.Operation)
	}
}
