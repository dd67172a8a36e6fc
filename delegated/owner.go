package delegated

import (
	"fmt"
	"time"
)

// SourceType records how an ownership edge was established.
type SourceType string

const (
	// SourceUserOwner marks a user assigned directly as an owner.
	SourceUserOwner SourceType = "USER_OWNER"
	// SourceGroupOwner marks ownership inherited through membership in
	// another group; the edge carries the intermediary's name.
	SourceGroupOwner SourceType = "GROUP_OWNER"
)

func ParseSourceType(in string) (SourceType, error) {
	switch SourceType(in) {
	case SourceUserOwner:
		return SourceUserOwner, nil
	case SourceGroupOwner:
		return SourceGroupOwner, nil
	}
	return "", fmt.Errorf("unknown source type %q", in)
}

// OwnerRow is one effective owner of a managed group, as exposed by the
// vw_delegated_group_owners view. ViaGroupName is empty for direct edges.
type OwnerRow struct {
	App          App
	GroupName    string
	Username     string
	Email        string
	SourceType   SourceType
	ViaGroupName string
	CreatedAt    time.Time
}

// UserGroupRow is one managed group a user owns.
type UserGroupRow struct {
	App          App
	GroupName    string
	SourceType   SourceType
	ViaGroupName string
}
