package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranemoloko/ytfetch/internal/domain"
	"github.com/veranemoloko/ytfetch/internal/encoder"
	errpkg "github.com/veranemoloko/ytfetch/internal/errors"
	"github.com/veranemoloko/ytfetch/internal/storage"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testFormats = youtube.FormatList{
	{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 130000, AudioChannels: 2},
	{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, AverageBitrate: 160000, AudioChannels: 2},
	{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, Bitrate: 500000, AudioChannels: 2, Width: 640, Height: 360},
	{ItagNo: 43, MimeType: `video/webm; codecs="vp8.0, vorbis"`, Bitrate: 900000, AudioChannels: 2, Width: 1280, Height: 720},
	{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, Bitrate: 4000000, Width: 1920, Height: 1080},
}

func TestSelectAudioFormat(t *testing.T) {
	f := SelectAudioFormat(testFormats)
	require.NotNil(t, f)
	assert.Equal(t, 251, f.ItagNo)

	assert.Nil(t, SelectAudioFormat(testFormats[2:]))
}

func TestSelectVideoFormat(t *testing.T) {
	f := SelectVideoFormat(testFormats)
	require.NotNil(t, f)
	assert.Equal(t, 18, f.ItagNo)

	f = SelectVideoFormat(youtube.FormatList{testFormats[3], testFormats[4]})
	require.NotNil(t, f)
	assert.Equal(t, 43, f.ItagNo)

	assert.Nil(t, SelectVideoFormat(testFormats[:2]))
}

func TestMimeToExt(t *testing.T) {
	assert.Equal(t, "webm", MimeToExt(`audio/webm; codecs="opus"`))
	assert.Equal(t, "m4a", MimeToExt(`audio/mp4; codecs="mp4a.40.2"`))
	assert.Equal(t, "mp4", MimeToExt(`video/mp4`))
	assert.Equal(t, "3gp", MimeToExt(`video/3gpp; codecs="mp4v"`))
	assert.Equal(t, "bin", MimeToExt(""))
}

func TestBestThumbnail(t *testing.T) {
	_, ok := BestThumbnail(nil)
	assert.False(t, ok)

	th, ok := BestThumbnail(youtube.Thumbnails{
		{URL: "small", Width: 120, Height: 90},
		{URL: "large", Width: 1280, Height: 720},
		{URL: "medium", Width: 480, Height: 360},
	})
	require.True(t, ok)
	assert.Equal(t, "large", th.URL)
}

type cancelReader struct {
	cancel context.CancelFunc
	reads  int
}

func (r *cancelReader) Read(p []byte) (int, error) {
	r.reads++
	if r.reads == 2 {
		r.cancel()
	}
	return copy(p, "chunk"), nil
}

func TestCopyWithContext(t *testing.T) {
	var dst bytes.Buffer
	n, err := copyWithContext(context.Background(), &dst, strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)
	assert.Equal(t, "hello world", dst.String())

	ctx, cancel := context.WithCancel(context.Background())
	dst.Reset()
	_, err = copyWithContext(ctx, &dst, &cancelReader{cancel: cancel})
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeClient struct {
	video     *youtube.Video
	videoErr  error
	streamErr error
	payload   string
}

func (f *fakeClient) GetVideoContext(ctx context.Context, url string) (*youtube.Video, error) {
	return f.video, f.videoErr
}

func (f *fakeClient) GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error) {
	if f.streamErr != nil {
		return nil, 0, f.streamErr
	}
	return io.NopCloser(strings.NewReader(f.payload)), int64(len(f.payload)), nil
}

type fakeEncoder struct {
	jobs []encoder.Job
	err  error
}

func (f *fakeEncoder) ToMP3(ctx context.Context, job encoder.Job) error {
	f.jobs = append(f.jobs, job)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(job.Target, []byte("mp3"), 0644)
}

func TestFetch_Audio(t *testing.T) {
	dir := t.TempDir()
	client := &fakeClient{video: &youtube.Video{ID: "abc", Formats: testFormats}, payload: "opus-data"}
	enc := &fakeEncoder{}
	f := NewYouTubeFetcher(client, enc, storage.NewFileStorage(), time.Second, newTestLogger())

	item := domain.MediaItem{ID: "abc", Title: "Artist - Song"}
	art, err := f.Fetch(context.Background(), item, FetchRequest{Dir: dir, Kind: domain.MediaKindAudio, Bitrate: 256})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "abc.mp3"), art.Path)
	assert.Equal(t, filepath.Join(dir, "abc.src.webm"), art.SourcePath)
	assert.Equal(t, int64(len("opus-data")), art.Bytes)

	require.Len(t, enc.jobs, 1)
	assert.Equal(t, encoder.Job{Source: art.SourcePath, Target: art.Path, Bitrate: 256, Title: "Artist - Song"}, enc.jobs[0])

	data, err := os.ReadFile(art.SourcePath)
	require.NoError(t, err)
	assert.Equal(t, "opus-data", string(data))

	_, err = os.Stat(art.SourcePath + ".part")
	assert.True(t, os.IsNotExist(err))
}

func TestFetch_AudioWithThumbnail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.WriteString(w, "jpeg"); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	video := &youtube.Video{
		ID:         "abc",
		Formats:    testFormats,
		Thumbnails: youtube.Thumbnails{{URL: server.URL + "/hq.jpg", Width: 480, Height: 360}},
	}
	enc := &fakeEncoder{}
	f := NewYouTubeFetcher(&fakeClient{video: video, payload: "x"}, enc, storage.NewFileStorage(), time.Second, newTestLogger())

	_, err := f.Fetch(context.Background(), domain.MediaItem{ID: "abc"}, FetchRequest{Dir: dir, Kind: domain.MediaKindAudio, Bitrate: 192, EmbedThumbnail: true})
	require.NoError(t, err)

	cover := filepath.Join(dir, "abc.jpg")
	require.Len(t, enc.jobs, 1)
	assert.Equal(t, cover, enc.jobs[0].Cover)
	data, err := os.ReadFile(cover)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
}

func TestFetch_ThumbnailFailureIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	video := &youtube.Video{ID: "abc", Formats: testFormats, Thumbnails: youtube.Thumbnails{{URL: server.URL}}}
	enc := &fakeEncoder{}
	f := NewYouTubeFetcher(&fakeClient{video: video, payload: "x"}, enc, storage.NewFileStorage(), time.Second, newTestLogger())

	_, err := f.Fetch(context.Background(), domain.MediaItem{ID: "abc"}, FetchRequest{Dir: t.TempDir(), Kind: domain.MediaKindAudio, Bitrate: 192, EmbedThumbnail: true})
	require.NoError(t, err)
	require.Len(t, enc.jobs, 1)
	assert.Empty(t, enc.jobs[0].Cover)
}

func TestFetch_Video(t *testing.T) {
	dir := t.TempDir()
	enc := &fakeEncoder{}
	client := &fakeClient{video: &youtube.Video{ID: "abc", Formats: testFormats}, payload: "mp4-data"}
	f := NewYouTubeFetcher(client, enc, storage.NewFileStorage(), time.Second, newTestLogger())

	art, err := f.Fetch(context.Background(), domain.MediaItem{ID: "abc"}, FetchRequest{Dir: dir, Kind: domain.MediaKindVideo})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "abc.mp4"), art.Path)
	assert.Empty(t, art.SourcePath)
	assert.Empty(t, enc.jobs)
}

func TestFetch_Errors(t *testing.T) {
	dir := t.TempDir()
	files := storage.NewFileStorage()
	item := domain.MediaItem{ID: "abc"}
	req := FetchRequest{Dir: dir, Kind: domain.MediaKindAudio, Bitrate: 192}

	f := NewYouTubeFetcher(&fakeClient{videoErr: errors.New("unavailable")}, &fakeEncoder{}, files, time.Second, newTestLogger())
	_, err := f.Fetch(context.Background(), item, req)
	assert.ErrorIs(t, err, errpkg.ErrFetch)

	f = NewYouTubeFetcher(&fakeClient{video: &youtube.Video{ID: "abc", Formats: testFormats[2:]}}, &fakeEncoder{}, files, time.Second, newTestLogger())
	_, err = f.Fetch(context.Background(), item, req)
	assert.ErrorIs(t, err, errpkg.ErrFetch)

	f = NewYouTubeFetcher(&fakeClient{video: &youtube.Video{ID: "abc", Formats: testFormats}, streamErr: errors.New("403")}, &fakeEncoder{}, files, time.Second, newTestLogger())
	_, err = f.Fetch(context.Background(), item, req)
	assert.ErrorIs(t, err, errpkg.ErrFetch)

	enc := &fakeEncoder{err: errors.New("ffmpeg failed")}
	f = NewYouTubeFetcher(&fakeClient{video: &youtube.Video{ID: "abc", Formats: testFormats}, payload: "x"}, enc, files, time.Second, newTestLogger())
	_, err = f.Fetch(context.Background(), item, req)
	assert.ErrorIs(t, err, errpkg.ErrFetch)
}
