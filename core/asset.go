package core

import "time"

// AssetStatus is the availability of a physical bike.
type AssetStatus string

const (
	AssetAvailable        AssetStatus = "available"
	AssetBorrowed         AssetStatus = "borrowed"
	AssetUnderMaintenance AssetStatus = "under_maintenance"
)

// IsValid reports whether s is a known asset status.
func (s AssetStatus) IsValid() bool {
	switch s {
	case AssetAvailable, AssetBorrowed, AssetUnderMaintenance:
		return true
	default:
		return false
	}
}

// Asset is one bike of the fleet.
type Asset struct {
	Serial           AssetSerialString
	Status           AssetStatus
	Brand            string
	Kind             string
	Description      string
	LastMaintainedOn *time.Time
}

// Borrower is the read-only contact view of a registered user.
type Borrower struct {
	ID    BorrowerIDString
	Name  string
	Email string
}
