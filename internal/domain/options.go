package domain

// MediaKind selects what gets downloaded for an item.
type MediaKind string

const (
	MediaKindAudio MediaKind = "audio"
	MediaKindVideo MediaKind = "video"
)

// Extension returns the file extension of the finished artifact.
func (k MediaKind) Extension() string {
	if k == MediaKindVideo {
		return "mp4"
	}
	return "mp3"
}

// Supported MP3 bitrates in kbps.
const (
	Bitrate128 = 128
	Bitrate192 = 192
	Bitrate256 = 256
	Bitrate320 = 320

	DefaultBitrate = Bitrate192
)

// Bitrates lists the accepted bitrates in ascending order.
var Bitrates = []int{Bitrate128, Bitrate192, Bitrate256, Bitrate320}

// DownloadOptions configures one invocation of the download pipeline.
// Limit 0 means no limit.
type DownloadOptions struct {
	Kind           MediaKind `json:"kind" validate:"required,oneof=audio video"`
	Bitrate        int       `json:"bitrate" validate:"oneof=128 192 256 320"`
	KeepSource     bool      `json:"keep_source"`
	EmbedThumbnail bool      `json:"embed_thumbnail"`
	OutputRoot     string    `json:"-" validate:"required"`
	PlaylistName   string    `json:"playlist_name,omitempty" validate:"omitempty,max=200"`
	Reverse        bool      `json:"reverse"`
	Limit          int       `json:"limit" validate:"gte=0"`
	SongsOnly      bool      `json:"songs_only"`
}

// DefaultDownloadOptions returns audio at the default bitrate under root.
func DefaultDownloadOptions(root string) DownloadOptions {
	return DownloadOptions{
		Kind:       MediaKindAudio,
		Bitrate:    DefaultBitrate,
		OutputRoot: root,
	}
}
