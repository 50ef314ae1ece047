package domain

// Origin records where a media title came from.
type Origin string

const (
	OriginMetadataScrape Origin = "metadata_scrape"
	OriginDirectLookup   Origin = "direct_lookup"
)

// MediaItem is one downloadable unit resolved from a URL or read back from the ledger.
type MediaItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Duration  int    `json:"duration"`
	Origin    Origin `json:"origin"`
	GroupName string `json:"group_name,omitempty"`
}

// SameAs reports whether both items refer to the same source video.
// Titles are ignored: they may change between scrapes.
func (m MediaItem) SameAs(other MediaItem) bool {
	return m.ID == other.ID
}

// InPlaylist reports whether the item belongs to a playlist group.
func (m MediaItem) InPlaylist() bool {
	return m.GroupName != ""
}

// ItemState is the lifecycle of one item inside a batch.
type ItemState string

const (
	ItemStateQueued      ItemState = "queued"
	ItemStateDownloading ItemState = "downloading"
	ItemStateSucceeded   ItemState = "succeeded"
	ItemStateFailed      ItemState = "failed"
)

// IsFinished reports whether the state is terminal.
func (s ItemState) IsFinished() bool {
	return s == ItemStateSucceeded || s == ItemStateFailed
}
