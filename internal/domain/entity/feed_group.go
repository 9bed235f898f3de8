package entity

// FeedGroup assigns a feed to a user-defined label group, backing the
// `user/-/label/{groupName}` stream id grammar.
type FeedGroup struct {
	FeedID int64
	UserID int64
	Label  string
}
