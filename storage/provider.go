package storage

import (
	"github.com/kennkash/delegated-groups/delegated"
)

// Provider is durable, constraint-enforced storage for delegated group
// ownership. Uniqueness is enforced by the backing store's unique indexes,
// never by check-then-insert in application code.
type Provider interface {
	// Initialize connects and applies any pending schema migrations.
	// Running it against an up-to-date schema is a no-op.
	Initialize() error
	Connect() error
	Close() error

	// ResolveUser returns the id for the folded (username, email) identity,
	// inserting the user with first-seen display casing when absent.
	ResolveUser(username, email string) (int64, bool, error)
	// ResolveGroup does the same for the (app, folded group name) key.
	ResolveGroup(app delegated.App, groupName, delegationID string) (int64, bool, error)
	// InsertOwner adds an ownership edge. An edge that already exists is
	// not an error; it reports created=false.
	InsertOwner(groupID, userID int64, source delegated.SourceType, viaGroup string) (bool, error)

	AddUserOwner(app delegated.App, groupName, username, email string) error
	AddGroupOwner(app delegated.App, groupName, viaGroup, username, email string) error
	RemoveUserOwner(app delegated.App, groupName, username string) error
	RemoveGroupOwner(app delegated.App, groupName, viaGroup string) error
	DeleteGroup(app delegated.App, groupName string) error

	GetUser(username string) (*delegated.User, error)
	SearchGroups(app delegated.App, prefix string) ([]delegated.ManagedGroup, error)

	AllOwners() ([]delegated.OwnerRow, error)
	GroupsForUser(username string) ([]delegated.UserGroupRow, error)
	OwnersOfGroup(app, groupName string) ([]delegated.OwnerRow, error)

	// RefreshView recreates the derived owners view so readers see the
	// latest imported state.
	RefreshView() error
	Counts() (delegated.StoreCounts, error)
}
