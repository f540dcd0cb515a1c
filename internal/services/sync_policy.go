package services

import "fmt"

// SyncPolicy decides when reads pull from the remote store
type SyncPolicy interface {
	Name() string
	// SyncOnList reports whether listing runs a best-effort sync first
	SyncOnList() bool
	// RefreshOnGet reports whether a single read refreshes the record first
	RefreshOnGet() bool
}

// RemoteAuthoritative treats Airtable as the source of truth: lists sync the
// whole table and single reads refresh their record.
type RemoteAuthoritative struct{}

func (RemoteAuthoritative) Name() string       { return "remote" }
func (RemoteAuthoritative) SyncOnList() bool   { return true }
func (RemoteAuthoritative) RefreshOnGet() bool { return true }

// LocalAuthoritative serves single reads from the database only. Lists still
// sync so new remote records appear.
type LocalAuthoritative struct{}

func (LocalAuthoritative) Name() string       { return "local" }
func (LocalAuthoritative) SyncOnList() bool   { return true }
func (LocalAuthoritative) RefreshOnGet() bool { return false }

// PolicyFromName maps the SYNC_POLICY setting to a SyncPolicy
func PolicyFromName(name string) (SyncPolicy, error) {
	switch name {
	case "", "remote":
		return RemoteAuthoritative{}, nil
	case "local":
		return LocalAuthoritative{}, nil
	}
	return nil, fmt.Errorf("unknown sync policy %q", name)
}

// DeletionPolicy decides what sync does with local rows whose remote record is gone
type DeletionPolicy string

const (
	// DeletionKeep never removes local rows during sync
	DeletionKeep DeletionPolicy = "keep"
	// DeletionPrune removes them after a complete listing
	DeletionPrune DeletionPolicy = "prune"
)

// DeletionPolicyFromName maps the SYNC_DELETION_POLICY setting
func DeletionPolicyFromName(name string) (DeletionPolicy, error) {
	switch DeletionPolicy(name) {
	case "", DeletionKeep:
		return DeletionKeep, nil
	case DeletionPrune:
		return DeletionPrune, nil
	}
	return "", fmt.Errorf("unknown deletion policy %q", name)
}
