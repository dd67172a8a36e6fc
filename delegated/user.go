package delegated

// User is a unique account shared across both applications. Identity is
// the folded (LowerUsername, LowerEmail) pair; Username and Email keep the
// first-seen display casing.
type User struct {
	ID            int64
	Username      string
	Email         string
	LowerUsername string
	LowerEmail    string
}

// ManagedGroup is a group in one application whose ownership is delegated.
type ManagedGroup struct {
	ID             int64
	App            App
	GroupName      string
	LowerGroupName string
	DelegationID   string
}
