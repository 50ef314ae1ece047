package domain

// LedgerStatus is the state column of a ledger line.
type LedgerStatus string

const (
	LedgerStatusPending    LedgerStatus = "pending"
	LedgerStatusDownloaded LedgerStatus = "downloaded"
)

// Valid reports whether s is one of the known ledger states.
func (s LedgerStatus) Valid() bool {
	return s == LedgerStatusPending || s == LedgerStatusDownloaded
}

// LedgerRecord is one line of a ledger file.
type LedgerRecord struct {
	ID       string       `json:"id"`
	Duration int          `json:"duration"`
	Status   LedgerStatus `json:"status"`
	Title    string       `json:"title"`
}

// NewPendingRecord builds the record written when a scrape discovers an item.
func NewPendingRecord(item MediaItem) LedgerRecord {
	return LedgerRecord{
		ID:       item.ID,
		Duration: item.Duration,
		Status:   LedgerStatusPending,
		Title:    item.Title,
	}
}

// NewDownloadedRecord builds the record written once an item has been filed.
func NewDownloadedRecord(item MediaItem) LedgerRecord {
	return LedgerRecord{
		ID:       item.ID,
		Duration: item.Duration,
		Status:   LedgerStatusDownloaded,
		Title:    item.Title,
	}
}

// MediaItem converts a ledger record back into a downloadable item.
func (r LedgerRecord) MediaItem() MediaItem {
	return MediaItem{
		ID:       r.ID,
		Title:    r.Title,
		Duration: r.Duration,
		Origin:   OriginMetadataScrape,
	}
}
