package tarshard

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/shardstream/shardstream/errors"
	"github.com/shardstream/shardstream/pipeline"
	"github.com/shardstream/shardstream/sample"
)

type entry struct {
	name string
	body string
}

func buildArchive(t *testing.T, entries []entry) io.ReadCloser {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644, Size: int64(len(e.body))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(e.body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return io.NopCloser(&buf)
}

func collect(t *testing.T, it pipeline.Iterator[sample.Sample]) []sample.Sample {
	t.Helper()
	defer it.Close()
	var out []sample.Sample
	for {
		s, ok, err := it.Next(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			return out
		}
		out = append(out, s)
	}
}

func TestNewReader_GroupsConsecutiveEntries(t *testing.T) {
	rc := buildArchive(t, []entry{
		{"a.jpg", "jpeg-a"},
		{"a.cls", "0"},
		{"b.jpg", "jpeg-b"},
		{"b.cls", "1"},
	})
	samples := collect(t, NewReader(rc))
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[0].Key != "a" || samples[1].Key != "b" {
		t.Errorf("keys = %q, %q", samples[0].Key, samples[1].Key)
	}
	if b, _ := samples[0].Bytes("jpg"); string(b) != "jpeg-a" {
		t.Errorf("a.jpg = %q", b)
	}
	if b, _ := samples[1].Bytes("cls"); string(b) != "1" {
		t.Errorf("b.cls = %q", b)
	}
}

func TestNewReader_FlushesFinalSample(t *testing.T) {
	rc := buildArchive(t, []entry{{"only.txt", "tail"}})
	samples := collect(t, NewReader(rc))
	if len(samples) != 1 || samples[0].Key != "only" {
		t.Fatalf("got %v", samples)
	}
}

func TestNewReader_EmptyArchive(t *testing.T) {
	rc := buildArchive(t, nil)
	if samples := collect(t, NewReader(rc)); len(samples) != 0 {
		t.Errorf("got %d samples, want 0", len(samples))
	}
}

func TestNewReader_GroupingIsConsecutiveOnly(t *testing.T) {
	rc := buildArchive(t, []entry{
		{"a.jpg", "x"},
		{"b.jpg", "y"},
		{"a.cls", "z"},
	})
	samples := collect(t, NewReader(rc))
	// A key reappearing after an interruption starts a new sample.
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
}

func TestNewReader_DottedFieldNames(t *testing.T) {
	rc := buildArchive(t, []entry{
		{"scene.left.png", "l"},
		{"scene.right.png", "r"},
	})
	samples := collect(t, NewReader(rc))
	if len(samples) != 1 {
		t.Fatalf("got %d samples, want 1", len(samples))
	}
	if !samples[0].Has("left.png") || !samples[0].Has("right.png") {
		t.Errorf("fields = %v", samples[0].FieldNames())
	}
}

func TestNewReader_SkipsUngroupableEntries(t *testing.T) {
	rc := buildArchive(t, []entry{
		{"nodot", "skipped"},
		{".hidden", "skipped"},
		{"good.txt", "kept"},
	})
	samples := collect(t, NewReader(rc))
	if len(samples) != 1 || samples[0].Key != "good" {
		t.Fatalf("got %v", samples)
	}
}

func TestNewReader_SkipsDirectories(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(&tar.Header{Name: "dir.d/", Typeflag: tar.TypeDir, Mode: 0o755}); err != nil {
		t.Fatal(err)
	}
	if err := tw.WriteHeader(&tar.Header{Name: "x.txt", Mode: 0o644, Size: 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write([]byte("ok")); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	samples := collect(t, NewReader(io.NopCloser(&buf)))
	if len(samples) != 1 || samples[0].Key != "x" {
		t.Fatalf("got %v", samples)
	}
}

func TestNewReader_CorruptFraming(t *testing.T) {
	garbage := io.NopCloser(bytes.NewReader(bytes.Repeat([]byte{0xff}, 1024)))
	it := NewReader(garbage, WithShard("bad.tar"))
	defer it.Close()
	_, _, err := it.Next(context.Background())
	if err == nil {
		t.Fatal("expected framing error")
	}
	if !errors.Is(err, errors.ErrCodeMalformedEntry) {
		t.Errorf("got code %v, want MALFORMED_ENTRY", errors.CodeOf(err))
	}
}

type trackedStream struct {
	io.Reader
	closed   bool
	closeErr error
}

func (s *trackedStream) Close() error {
	s.closed = true
	return s.closeErr
}

func TestNewReader_CloseClosesStream(t *testing.T) {
	var buf bytes.Buffer
	tar.NewWriter(&buf).Close()
	stream := &trackedStream{Reader: &buf}

	it := NewReader(stream)
	if err := it.Close(); err != nil {
		t.Fatal(err)
	}
	if !stream.closed {
		t.Error("early Close did not close the stream")
	}
	// Double close is safe.
	if err := it.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestNewReader_SurfacesStreamCloseError(t *testing.T) {
	rc := buildArchive(t, []entry{{"a.txt", "x"}})
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	stream := &trackedStream{
		Reader:   bytes.NewReader(data),
		closeErr: fmt.Errorf("command exited with code 22"),
	}

	it := NewReader(stream)
	defer it.Close()
	ctx := context.Background()

	// The final sample is flushed before the close error surfaces.
	s, ok, err := it.Next(ctx)
	if err != nil || !ok || s.Key != "a" {
		t.Fatalf("flush: %v %v %v", s, ok, err)
	}
	if _, _, err := it.Next(ctx); err == nil || err.Error() != "command exited with code 22" {
		t.Errorf("got %v, want close error", err)
	}
	// Error is delivered once.
	if _, ok, err := it.Next(ctx); ok || err != nil {
		t.Errorf("after delivery: ok=%v err=%v", ok, err)
	}
}
