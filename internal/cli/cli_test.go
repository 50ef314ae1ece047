package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranemoloko/ytfetch/internal/config"
	"github.com/veranemoloko/ytfetch/internal/domain"
	errpkg "github.com/veranemoloko/ytfetch/internal/errors"
	"github.com/veranemoloko/ytfetch/internal/service"
)

const testPlaylist = "https://www.youtube.com/playlist?list=PLcfg"

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type call struct {
	op        string
	url       string
	opts      domain.DownloadOptions
	confirmed *bool
}

type fakeLibrary struct {
	mu      sync.Mutex
	calls   []call
	scanErr error
	result  domain.BatchResult
	panicOn string
}

func (f *fakeLibrary) record(c call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if c.op == f.panicOn {
		panic("boom")
	}
}

func (f *fakeLibrary) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ops []string
	for _, c := range f.calls {
		ops = append(ops, c.op)
	}
	return ops
}

func (f *fakeLibrary) Scan(ctx context.Context, url string, opts domain.DownloadOptions) (int, error) {
	f.record(call{op: "scan", url: url, opts: opts})
	return 3, f.scanErr
}

func (f *fakeLibrary) DownloadPending(ctx context.Context, opts domain.DownloadOptions) (domain.BatchResult, error) {
	f.record(call{op: "pending", opts: opts})
	return f.result, nil
}

func (f *fakeLibrary) Clean(ctx context.Context) (int, error) {
	f.record(call{op: "clean"})
	return 2, nil
}

func (f *fakeLibrary) DownloadSingle(ctx context.Context, url string, opts domain.DownloadOptions) (domain.BatchResult, error) {
	f.record(call{op: "single", url: url, opts: opts})
	return f.result, nil
}

func (f *fakeLibrary) DownloadPlaylist(ctx context.Context, url string, opts domain.DownloadOptions, confirm service.ConfirmFunc) (domain.BatchResult, error) {
	c := call{op: "playlist", url: url, opts: opts}
	if confirm != nil {
		ok := confirm(12)
		c.confirmed = &ok
	}
	f.record(c)
	return f.result, nil
}

func (f *fakeLibrary) Download(ctx context.Context, url string, opts domain.DownloadOptions, confirm service.ConfirmFunc) (domain.BatchResult, error) {
	f.record(call{op: "auto", url: url, opts: opts})
	return f.result, nil
}

func testConfig() *config.Config {
	return &config.Config{
		OutputDir:      "/music",
		WorkerPoolSize: 4,
		DefaultBitrate: 192,
		PlaylistURL:    testPlaylist,
	}
}

type harness struct {
	lib     *fakeLibrary
	out     *bytes.Buffer
	app     *App
	workers int
	served  bool
}

func newHarness(cfg *config.Config, input string) *harness {
	h := &harness{lib: &fakeLibrary{}, out: &bytes.Buffer{}}
	factory := func(workers int) Library {
		h.workers = workers
		return h.lib
	}
	serve := func(ctx context.Context, lib Library) error {
		h.served = true
		return nil
	}
	h.app = NewApp(cfg, factory, serve, strings.NewReader(input), h.out, newTestLogger())
	return h
}

func TestApp_FlagsBecomeOptions(t *testing.T) {
	h := newHarness(testConfig(), "")

	err := h.app.Run(context.Background(), []string{
		"-video", "-bitrate", "320", "-limit", "3", "-reverse", "-keep", "-thumbnail",
		"-name", "Road Trip", "-songs", "-workers", "2", "-out", "/elsewhere",
		"single", "https://www.youtube.com/watch?v=abc",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, h.workers)
	require.Len(t, h.lib.calls, 1)
	c := h.lib.calls[0]
	assert.Equal(t, "single", c.op)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", c.url)
	assert.Equal(t, domain.DownloadOptions{
		Kind:           domain.MediaKindVideo,
		Bitrate:        320,
		KeepSource:     true,
		EmbedThumbnail: true,
		OutputRoot:     "/elsewhere",
		PlaylistName:   "Road Trip",
		Reverse:        true,
		Limit:          3,
		SongsOnly:      true,
	}, c.opts)
}

func TestApp_Defaults(t *testing.T) {
	h := newHarness(testConfig(), "")

	require.NoError(t, h.app.Run(context.Background(), []string{"download"}))

	assert.Equal(t, 4, h.workers)
	assert.Equal(t, domain.DefaultDownloadOptions("/music"), h.lib.calls[0].opts)
	assert.Contains(t, h.out.String(), "Nothing to download")
}

func TestApp_ScanUsesConfiguredPlaylist(t *testing.T) {
	h := newHarness(testConfig(), "")

	require.NoError(t, h.app.Run(context.Background(), []string{"all"}))

	assert.Equal(t, []string{"scan", "pending"}, h.lib.ops())
	assert.Equal(t, testPlaylist, h.lib.calls[0].url)
	assert.Contains(t, h.out.String(), "3 new item(s)")
}

func TestApp_ScanFailureStopsAll(t *testing.T) {
	h := newHarness(testConfig(), "")
	h.lib.scanErr = errpkg.ErrResolution

	err := h.app.Run(context.Background(), []string{"all"})
	assert.ErrorIs(t, err, errpkg.ErrResolution)
	assert.Equal(t, []string{"scan"}, h.lib.ops())
}

func TestApp_PlaylistConfirmation(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		input     string
		confirmed *bool
	}{
		{"accepted", []string{"playlist", testPlaylist}, "y\n", ptr(true)},
		{"declined", []string{"playlist", testPlaylist}, "n\n", ptr(false)},
		{"no input", []string{"playlist", testPlaylist}, "", ptr(false)},
		{"auto confirm", []string{"-yes", "playlist", testPlaylist}, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(testConfig(), tt.input)
			require.NoError(t, h.app.Run(context.Background(), tt.args))
			require.Len(t, h.lib.calls, 1)
			assert.Equal(t, tt.confirmed, h.lib.calls[0].confirmed)
		})
	}
}

func TestApp_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.PlaylistURL = ""

	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"fly"}},
		{"single without url", []string{"single"}},
		{"scan without url", []string{"scan"}},
		{"bad flag", []string{"-nope"}},
		{"bad workers", []string{"-workers", "0", "clean"}},
		{"zero limit", []string{"-limit", "0", "single", "https://youtu.be/abc"}},
		{"negative limit", []string{"-limit", "-1", "single", "https://youtu.be/abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(cfg, "")
			err := h.app.Run(context.Background(), tt.args)
			assert.ErrorIs(t, err, errpkg.ErrConfiguration)
			assert.Empty(t, h.lib.calls)
		})
	}
}

func TestApp_FailedItemsFailTheCommand(t *testing.T) {
	h := newHarness(testConfig(), "")
	h.lib.result = domain.BatchResult{Total: 3, Succeeded: 1, Failed: 2}

	err := h.app.Run(context.Background(), []string{"auto", "https://youtu.be/abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3")
}

func TestApp_HelpAndServe(t *testing.T) {
	h := newHarness(testConfig(), "")
	require.NoError(t, h.app.Run(context.Background(), []string{"-h"}))
	assert.Contains(t, h.out.String(), "usage: ytfetch")

	require.NoError(t, h.app.Run(context.Background(), []string{"serve"}))
	assert.True(t, h.served)
}

func TestShell_RunsCommandsUntilQuit(t *testing.T) {
	input := "h\ncs\n\nbogus\ndl\ndbclean\ns https://youtu.be/abc\np " + testPlaylist + "\ny\nq\ncs\n"
	h := newHarness(testConfig(), input)

	require.NoError(t, h.app.Run(context.Background(), nil))

	assert.Equal(t, []string{"scan", "pending", "clean", "single", "playlist"}, h.lib.ops())
	assert.Equal(t, ptr(true), h.lib.calls[4].confirmed)

	out := h.out.String()
	assert.Contains(t, out, "dbclean - drop processed entries")
	assert.Contains(t, out, "Invalid command")
	assert.Contains(t, out, "2 record(s) removed")
	assert.Contains(t, out, "Quitting")
}

func TestShell_ErrorsDoNotStopTheLoop(t *testing.T) {
	h := newHarness(testConfig(), "a\ns\ndl\n")
	h.lib.scanErr = errors.New("network down")

	require.NoError(t, h.app.Run(context.Background(), []string{"shell"}))

	assert.Equal(t, []string{"scan", "pending"}, h.lib.ops())
	out := h.out.String()
	assert.Contains(t, out, "Error: network down")
	assert.Contains(t, out, "s needs a url")
}

func TestShell_RecoversFromPanics(t *testing.T) {
	h := newHarness(testConfig(), "dbclean\ndl\n")
	h.lib.panicOn = "clean"

	require.NoError(t, h.app.Run(context.Background(), nil))

	assert.Equal(t, []string{"clean", "pending"}, h.lib.ops())
	assert.Contains(t, h.out.String(), "panicked")
}

func TestShell_StopsWhenInterrupted(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	lib := &fakeLibrary{}
	out := &bytes.Buffer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	shell := NewShell(lib, testPlaylist, domain.DefaultDownloadOptions("/music"), newLineReader(pr), out, newTestLogger())
	require.NoError(t, shell.Run(ctx))

	assert.Empty(t, lib.calls)
	assert.Contains(t, out.String(), "Interrupted")
}

func ptr(b bool) *bool {
	return &b
}

func TestParseFlags_LimitDefaultsToAll(t *testing.T) {
	s, err := ParseFlags(testConfig(), []string{"download"}, io.Discard)
	require.NoError(t, err)
	assert.Zero(t, s.Options.Limit)

	s, err = ParseFlags(testConfig(), []string{"-limit", "5", "download"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 5, s.Options.Limit)

	_, err = ParseFlags(testConfig(), []string{"-limit", "0", "download"}, io.Discard)
	assert.ErrorIs(t, err, errpkg.ErrConfiguration)
}
