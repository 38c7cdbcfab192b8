package types

// CachedProfile wraps profile data for serialization
type CachedProfile struct {
	Profile   *ProfileInfo `json:"profile,omitempty"`
	FetchedAt int64        `json:"fetched_at"`
	NotFound  bool         `json:"not_found"`
}

// CachedContacts wraps contact list for serialization
type CachedContacts struct {
	Pubkeys   []string   `json:"pubkeys"`
	Tags      [][]string `json:"tags"` // full p tags so republishing keeps petnames and relay hints
	Content   string     `json:"content"`
	FetchedAt int64      `json:"fetched_at"`
	NotFound  bool       `json:"not_found"`
}

// CachedSession is the stored form of a signed-in session.
// SealedKey holds the user's secret key encrypted with the server session secret.
type CachedSession struct {
	ID         string `json:"id"`
	UserPubKey string `json:"user_pub_key"`
	SealedKey  string `json:"sealed_key"`
	CreatedAt  int64  `json:"created_at"`
}
