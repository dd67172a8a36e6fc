package delegated

import "fmt"

// AppSummary reports what one application's import created. Rows skipped
// as duplicates are never counted.
type AppSummary struct {
	App           App `json:"app"`
	RowsRead      int `json:"rowsRead"`
	RowsSkipped   int `json:"rowsSkipped"`
	UsersCreated  int `json:"usersCreated"`
	GroupsCreated int `json:"groupsCreated"`
	OwnersCreated int `json:"ownersCreated"`
}

func (s AppSummary) String() string {
	return fmt.Sprintf("%s: %d rows (%d skipped), %d new users, %d new groups, %d new ownership rows",
		s.App, s.RowsRead, s.RowsSkipped, s.UsersCreated, s.GroupsCreated, s.OwnersCreated)
}

// ImportSummary aggregates the per-application summaries of one run, in
// source order.
type ImportSummary struct {
	Apps []AppSummary `json:"apps"`
}

// StoreCounts is a point-in-time row count of the three tables.
type StoreCounts struct {
	Users  int64 `json:"users"`
	Groups int64 `json:"groups"`
	Owners int64 `json:"owners"`
}
