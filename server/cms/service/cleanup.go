package service

import (
	"context"
	"net/url"

	"cms_server/server/cms/domain"
	"cms_server/server/common/cmserr"
	"cms_server/server/common/log"
)

// ObjectRemover is the delete side of the external object store.
type ObjectRemover interface {
	BulkDelete(ctx context.Context, fileIDs []string) error
}

// CleanupNotifier records remote deletions that failed, so orphaned bytes
// can be reconciled offline. Nil means log-only.
type CleanupNotifier interface {
	NotifyFailedCleanup(ctx context.Context, fileIDs []string, reason string) error
}

// removeRemote deletes bytes from the object store before the relational
// rows go. Failure is deliberately non-fatal: stale rows must not outlive
// the user's intent to delete, so the caller proceeds either way and the
// failed ids are handed to the cleanup notifier.
func removeRemote(ctx context.Context, store ObjectRemover, cleanup CleanupNotifier, fileIDs []string) {
	if len(fileIDs) == 0 {
		return
	}
	err := store.BulkDelete(ctx, fileIDs)
	if err == nil {
		return
	}
	log.Errorf("remote cleanup of %d objects failed: %v", len(fileIDs), err)
	if cleanup != nil {
		if notifyErr := cleanup.NotifyFailedCleanup(ctx, fileIDs, err.Error()); notifyErr != nil {
			log.Errorf("publish cleanup event: %v", notifyErr)
		}
	}
}

func validateRefs(refs []domain.ImageRef) error {
	if len(refs) == 0 {
		return cmserr.Validationf("imageArray must not be empty")
	}
	for i, ref := range refs {
		if ref.FileID == "" {
			return cmserr.Validationf("imageArray[%d].fileId must not be empty", i)
		}
		if !validDeliveryURL(ref.URL) {
			return cmserr.Validationf("imageArray[%d].url is not a valid delivery URL", i)
		}
	}
	return nil
}

func validDeliveryURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
