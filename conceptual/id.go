package conceptual

// UserID is the dataset's user identifier; a fixed-width numeric-looking
// string like "112". It is conceptual because nothing in the engine cares
// what it looks like, only that it compares and sorts stably.
type UserID string

func (u UserID) String() string {
	return string(u)
}

func (u UserID) Empty() bool {
	return u == ""
}
