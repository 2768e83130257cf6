package player

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTapReaderCopiesAndCounts(t *testing.T) {
	var tap bytes.Buffer
	tr := &tapReader{reader: bytes.NewReader([]byte{1, 2, 3, 4, 5}), tap: &tap}

	buf := make([]byte, 3)
	n, err := tr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int64(3), tr.Pos())

	rest, err := io.ReadAll(tr)
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5}, rest)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, tap.Bytes())
	assert.Equal(t, int64(5), tr.Pos())
}

func TestTapReaderWithoutTap(t *testing.T) {
	tr := &tapReader{reader: bytes.NewReader([]byte{1, 2})}
	_, err := io.ReadAll(tr)
	require.NoError(t, err)
	assert.Equal(t, int64(2), tr.Pos())
}

func TestPauseSetsPausedWithoutToggle(t *testing.T) {
	p := &Player{}
	p.Pause()
	assert.True(t, p.Paused())
}

func TestPlayerCloseRunsCleanupOnce(t *testing.T) {
	calls := 0
	p := &Player{
		stopMon: make(chan struct{}),
		cleanup: func() { calls++ },
	}

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, calls)
}

func TestPositionFromBytesRead(t *testing.T) {
	p := &Player{reader: &tapReader{}, bytesPerSec: 100}
	p.reader.SetPos(250)
	assert.Equal(t, "2.5s", p.Position().String())

	assert.Zero(t, (&Player{reader: &tapReader{}}).Position())
}

func TestOpenRejectsUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := Open(path, nil)
	assert.ErrorContains(t, err, "unsupported format")
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mp3"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadMetadataFallsBackToFileName(t *testing.T) {
	m := ReadMetadata("/music/Some Song.flac")
	assert.Equal(t, "Some Song", m.Title)
	assert.Equal(t, "Some Song", m.Label())

	assert.Equal(t, "Band - Tune", Metadata{Title: "Tune", Artist: "Band"}.Label())
}

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	l.calls = append(l.calls, s)
	l.mu.Unlock()
}

func (l *callLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeOutput struct {
	name string
	log  *callLog
}

func (o *fakeOutput) Play()           { o.log.add(o.name + ".play") }
func (o *fakeOutput) Pause()          { o.log.add(o.name + ".pause") }
func (o *fakeOutput) IsPlaying() bool { return true }
func (o *fakeOutput) Close() error    { o.log.add(o.name + ".close"); return nil }

type fakeDecoder struct {
	*bytes.Reader
	log *callLog
}

func (d *fakeDecoder) Seek(offset int64, whence int) (int64, error) {
	d.log.add("seek")
	return d.Reader.Seek(offset, whence)
}

func (d *fakeDecoder) Length() int64     { return d.Reader.Size() }
func (d *fakeDecoder) SampleRate() int   { return 44100 }
func (d *fakeDecoder) ChannelCount() int { return 2 }

func newFakePlayer(log *callLog) *Player {
	dec := &fakeDecoder{Reader: bytes.NewReader(make([]byte, 64)), log: log}
	outputs := 0
	p := &Player{
		decoder: dec,
		reader:  &tapReader{reader: dec},
		newOutput: func(io.Reader) output {
			outputs++
			return &fakeOutput{name: fmt.Sprintf("out%d", outputs), log: log}
		},
		done:    make(chan struct{}),
		stopMon: make(chan struct{}),
	}
	p.out = p.newOutput(p.reader)
	return p
}

func TestRestartClosesOutputBeforeSeeking(t *testing.T) {
	log := &callLog{}
	p := newFakePlayer(log)
	defer p.Close()
	p.reader.SetPos(64)
	p.Pause()

	require.NoError(t, p.Restart())
	assert.Equal(t, []string{"out1.pause", "out1.close", "seek", "out2.play"}, log.get())
	assert.False(t, p.Paused())
	assert.Zero(t, p.reader.Pos())
}

func TestCloseClosesOutput(t *testing.T) {
	log := &callLog{}
	p := newFakePlayer(log)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, []string{"out1.pause", "out1.close"}, log.get())
}

func TestTogglePause(t *testing.T) {
	log := &callLog{}
	p := newFakePlayer(log)
	defer p.Close()

	p.TogglePause()
	assert.True(t, p.Paused())
	p.TogglePause()
	assert.False(t, p.Paused())
	assert.Equal(t, []string{"out1.pause", "out1.play"}, log.get()[:2])
}
