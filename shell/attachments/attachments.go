// Package attachments removes the borrower-submitted files referenced by a loan.
//
// Storage of the files belongs to another subsystem. The loan engine only purges them once a
// loan no longer needs them, after the status change committed. Removal is best effort.
package attachments

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
)

const (
	logMsgPurgeFailed = "attachment purge failed, loan transition kept"
	logAttrLoanID     = "loan_id"
	logAttrError      = "error"
)

var (
	ErrEmptyRoot        = errors.New("attachment root must not be empty")
	ErrInvalidReference = errors.New("attachment reference escapes the attachment root")
)

// Remover deletes attachments by reference.
type Remover interface {
	Remove(ctx context.Context, refs []string) error
}

// DiskStore removes attachments stored as files below a root directory.
type DiskStore struct {
	root string
}

// NewDiskStore creates a DiskStore for root.
func NewDiskStore(root string) (*DiskStore, error) {
	if root == "" {
		return nil, ErrEmptyRoot
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	return &DiskStore{root: abs}, nil
}

// Remove deletes every referenced file. Missing files are ignored.
// All references are attempted; the returned error joins every failure.
func (s *DiskStore) Remove(ctx context.Context, refs []string) error {
	var errs []error

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}

		path, err := s.resolve(ref)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *DiskStore) resolve(ref string) (string, error) {
	if ref == "" || filepath.IsAbs(ref) {
		return "", fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}

	path := filepath.Join(s.root, filepath.FromSlash(ref))
	if !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}

	return path, nil
}

// Purge removes the attachments of a loan whose transition already committed.
// Failures are logged and never surface to the caller.
func Purge(ctx context.Context, remover Remover, logger loanstore.Logger, loanID uuid.UUID, refs []string) {
	if remover == nil || len(refs) == 0 {
		return
	}

	if err := remover.Remove(ctx, refs); err != nil && logger != nil {
		logger.Warn(logMsgPurgeFailed, logAttrLoanID, loanID.String(), logAttrError, err.Error())
	}
}

// Nop discards removal requests.
type Nop struct{}

// Remove implements Remover.
func (Nop) Remove(context.Context, []string) error {
	return nil
}

var (
	_ Remover = (*DiskStore)(nil)
	_ Remover = Nop{}
)
