package ytdlp

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRunner replays outputs in order and records every call
type scriptedRunner struct {
	outputs []*Output
	calls   [][]string
	names   []string
}

func (r *scriptedRunner) Run(_ context.Context, name string, args []string) (*Output, error) {
	r.names = append(r.names, name)
	r.calls = append(r.calls, append([]string(nil), args...))
	if len(r.calls) > len(r.outputs) {
		return &Output{ExitCode: 99, Stderr: "unexpected call"}, nil
	}
	return r.outputs[len(r.calls)-1], nil
}

func newTestClient(r Runner, cookies string) *Client {
	return New(Options{
		CookiesFile: cookies,
		Runner:      r,
		Logger:      zerolog.Nop(),
		MergerProbe: func() bool { return false },
	})
}

func TestIsCertificateError(t *testing.T) {
	assert.True(t, IsCertificateError("ERROR: [SSL: CERTIFICATE_VERIFY_FAILED] certificate verify failed"))
	assert.True(t, IsCertificateError("Unable to get local issuer certificate (_ssl.c:1006)"))
	assert.False(t, IsCertificateError("ERROR: Video unavailable"))
	assert.False(t, IsCertificateError(""))
}

func TestFetchMetadataSuccess(t *testing.T) {
	r := &scriptedRunner{outputs: []*Output{
		{Stdout: `{"id":"abc","title":"Clip","formats":[{"format_id":"18","vcodec":"avc1","acodec":"mp4a","height":360}]}`},
	}}
	c := newTestClient(r, " /tmp/cookies.txt ")

	item, err := c.FetchMetadata(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)
	assert.Equal(t, "Clip", item.Title)
	require.Len(t, item.Formats, 1)
	assert.Equal(t, "18", item.Formats[0].ID())

	require.Len(t, r.calls, 1)
	assert.Equal(t, DefaultBinary, r.names[0])
	assert.Equal(t, []string{
		"--no-warnings",
		"--cookies", "/tmp/cookies.txt",
		"--dump-single-json", "--skip-download",
		"https://youtu.be/abc",
	}, r.calls[0])
}

func TestFetchMetadataToolFailure(t *testing.T) {
	r := &scriptedRunner{outputs: []*Output{
		{ExitCode: 1, Stderr: "  ERROR: Private video\n"},
	}}
	c := newTestClient(r, "")

	_, err := c.FetchMetadata(context.Background(), "https://youtu.be/abc")
	require.Error(t, err)

	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, "ERROR: Private video", extractErr.Message)
	assert.Len(t, r.calls, 1, "non-certificate failures are not retried")
}

func TestFetchMetadataFallsBackToStdout(t *testing.T) {
	r := &scriptedRunner{outputs: []*Output{{ExitCode: 2, Stdout: "usage error"}}}
	_, err := newTestClient(r, "").FetchMetadata(context.Background(), "https://youtu.be/abc")
	require.EqualError(t, err, "usage error")

	r = &scriptedRunner{outputs: []*Output{{ExitCode: 2}}}
	_, err = newTestClient(r, "").FetchMetadata(context.Background(), "https://youtu.be/abc")
	require.EqualError(t, err, "yt-dlp failed")
}

func TestFetchMetadataParseFailure(t *testing.T) {
	r := &scriptedRunner{outputs: []*Output{{Stdout: "not json"}}}
	_, err := newTestClient(r, "").FetchMetadata(context.Background(), "https://youtu.be/abc")
	require.Error(t, err)

	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, metadataParseFailed, extractErr.Message)
	assert.NotNil(t, extractErr.Unwrap())
}

func TestCertificateRetrySucceeds(t *testing.T) {
	r := &scriptedRunner{outputs: []*Output{
		{ExitCode: 1, Stderr: "ERROR: [SSL: CERTIFICATE_VERIFY_FAILED]"},
		{Stdout: `{"id":"abc","title":"ok"}`},
	}}
	c := newTestClient(r, "")

	item, err := c.FetchMetadata(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)
	assert.Equal(t, "ok", item.Title)

	require.Len(t, r.calls, 2)
	assert.Equal(t, noCheckCertificates, r.calls[1][0])
	assert.Equal(t, r.calls[0], r.calls[1][1:])
}

func TestCertificateRetryResultIsFinal(t *testing.T) {
	r := &scriptedRunner{outputs: []*Output{
		{ExitCode: 1, Stderr: "unable to get local issuer certificate"},
		{ExitCode: 1, Stderr: "unable to get local issuer certificate, again"},
		{Stdout: `{}`},
	}}
	c := newTestClient(r, "")

	_, err := c.FetchMetadata(context.Background(), "https://youtu.be/abc")
	require.EqualError(t, err, "unable to get local issuer certificate, again")
	assert.Len(t, r.calls, 2)
}

func TestRunnerErrorBecomesExtractionError(t *testing.T) {
	boom := errors.New("exec: \"yt-dlp\": executable file not found in $PATH")
	r := RunnerFunc(func(context.Context, string, []string) (*Output, error) {
		return nil, boom
	})

	_, err := newTestClient(r, "").FetchMetadata(context.Background(), "https://youtu.be/abc")
	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.ErrorIs(t, err, boom)
}

func TestDownloadArgs(t *testing.T) {
	c := newTestClient(nil, "")

	tests := []struct {
		name string
		req  DownloadRequest
		want []string
	}{
		{
			name: "single item ignores playlists",
			req:  DownloadRequest{URL: "u", OutputDir: "/w", Selector: "best", ItemCount: 1, Index: 3},
			want: []string{"--no-warnings", "--restrict-filenames", "-P", "/w", "-o", OutputTemplate, "-f", "best", "--no-playlist", "u"},
		},
		{
			name: "multi item with index",
			req:  DownloadRequest{URL: "u", OutputDir: "/w", Selector: "137+bestaudio/best", ItemCount: 3, Index: 2},
			want: []string{"--no-warnings", "--restrict-filenames", "-P", "/w", "-o", OutputTemplate, "-f", "137+bestaudio/best", "--playlist-items", "2", "u"},
		},
		{
			name: "multi item without index",
			req:  DownloadRequest{URL: "u", OutputDir: "/w", ItemCount: 3},
			want: []string{"--no-warnings", "--restrict-filenames", "-P", "/w", "-o", OutputTemplate, "u"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.DownloadArgs(tt.req))
		})
	}
}

func TestDownloadFailureMessage(t *testing.T) {
	r := &scriptedRunner{outputs: []*Output{{ExitCode: 1}}}
	err := newTestClient(r, "").Download(context.Background(), DownloadRequest{URL: "u", OutputDir: "/w", ItemCount: 1})
	require.EqualError(t, err, "Download failed")
}

func TestDownloadCertificateRetry(t *testing.T) {
	r := &scriptedRunner{outputs: []*Output{
		{ExitCode: 1, Stderr: "CERTIFICATE_VERIFY_FAILED"},
		{},
	}}
	err := newTestClient(r, "").Download(context.Background(), DownloadRequest{URL: "u", OutputDir: "/w", ItemCount: 1})
	require.NoError(t, err)
	require.Len(t, r.calls, 2)
	assert.Equal(t, noCheckCertificates, r.calls[1][0])
}

func TestHasMergerProbe(t *testing.T) {
	c := New(Options{MergerProbe: func() bool { return true }})
	assert.True(t, c.HasMerger())

	c = New(Options{FFmpegBinary: "clipgrab-missing-ffmpeg-binary"})
	assert.False(t, c.HasMerger())
}
