package shiftfile

import (
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/govetachun/shiftfile/internal/avlarray"
	"github.com/govetachun/shiftfile/internal/osal"
)

// openMem opens a fresh in-memory container promoted from an empty
// payload, with a small block size so tests exercise multi-block
// splitting, growth, and defrag without needing megabytes of data. The
// layout needs blocks larger than the 32-byte node record, so the tests
// use 64.
func openMem(t *testing.T, blockSize uint32) *Container {
	t.Helper()
	c, err := Open(osal.NewMemFile(), "", osal.CreateOrWipe, blockSize)
	require.NoError(t, err)
	return c
}

func TestOpenEmptyThenWriteReadRoundTrip(t *testing.T) {
	c := openMem(t, 64)
	require.Equal(t, uint32(0), c.Size())

	payload := []byte("the quick brown fox jumps over the lazy dog")
	n, err := c.Write(payload)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, uint32(len(payload)), c.Size())
	require.NoError(t, verifyInvariants(c))

	require.NoError(t, c.SeekSet(0))
	buf := make([]byte, len(payload))
	total := 0
	for total < len(buf) {
		m, err := c.Read(buf[total:])
		total += m
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	require.Equal(t, payload, buf[:total])

	_, err = c.Read(make([]byte, 1))
	require.Equal(t, io.EOF, err)
}

func TestWritePastEndOfFileExtends(t *testing.T) {
	c := openMem(t, 64)
	_, err := c.Write([]byte("hello"))
	require.NoError(t, err)

	require.NoError(t, c.SeekSet(3))
	_, err = c.Write([]byte("LO WORLD"))
	require.NoError(t, err)

	require.Equal(t, uint32(11), c.Size())
	require.NoError(t, verifyInvariants(c))

	require.NoError(t, c.SeekSet(0))
	buf := make([]byte, c.Size())
	_, err = io.ReadFull(c, buf)
	require.NoError(t, err)
	require.Equal(t, "helLO WORLD", string(buf))
}

func TestInsertInMiddleShiftsTail(t *testing.T) {
	c := openMem(t, 64)
	_, err := c.Write([]byte("helloworld"))
	require.NoError(t, err)

	require.NoError(t, c.Insert(5, []byte(", ")))
	require.NoError(t, verifyInvariants(c))

	require.NoError(t, c.SeekSet(0))
	buf := make([]byte, c.Size())
	_, err = io.ReadFull(c, buf)
	require.NoError(t, err)
	require.Equal(t, "hello, world", string(buf))
}

func TestInsertAtStartAndEnd(t *testing.T) {
	c := openMem(t, 64)
	_, err := c.Write([]byte("middle"))
	require.NoError(t, err)

	require.NoError(t, c.Insert(0, []byte("[")))
	require.NoError(t, c.Insert(c.Size(), []byte("]")))
	require.NoError(t, verifyInvariants(c))

	require.NoError(t, c.SeekSet(0))
	buf := make([]byte, c.Size())
	_, err = io.ReadFull(c, buf)
	require.NoError(t, err)
	require.Equal(t, "[middle]", string(buf))
}

func TestRemoveMiddleRange(t *testing.T) {
	c := openMem(t, 64)
	_, err := c.Write([]byte("hello, cruel world"))
	require.NoError(t, err)

	require.NoError(t, c.Remove(5, 7)) // removes ", cruel"
	require.NoError(t, verifyInvariants(c))

	require.NoError(t, c.SeekSet(0))
	buf := make([]byte, c.Size())
	_, err = io.ReadFull(c, buf)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(buf))
}

func TestRemoveToEndOfFile(t *testing.T) {
	c := openMem(t, 64)
	_, err := c.Write([]byte("keep this, drop this"))
	require.NoError(t, err)

	cut := len("keep this,")
	require.NoError(t, c.Remove(uint32(cut), c.Size()-uint32(cut)))
	require.NoError(t, verifyInvariants(c))

	require.NoError(t, c.SeekSet(0))
	buf := make([]byte, c.Size())
	_, err = io.ReadFull(c, buf)
	require.NoError(t, err)
	require.Equal(t, "keep this,", string(buf))
}

func TestInsertPastEndOfFileRejected(t *testing.T) {
	c := openMem(t, 64)
	_, err := c.Write([]byte("abc"))
	require.NoError(t, err)
	err = c.Insert(100, []byte("x"))
	require.Error(t, err)
}

func TestRemoveRangePastEndOfFileRejected(t *testing.T) {
	c := openMem(t, 64)
	_, err := c.Write([]byte("abc"))
	require.NoError(t, err)
	err = c.Remove(1, 100)
	require.Error(t, err)
}

// TestManyRandomEditsStayConsistent applies a long randomised sequence of
// inserts and removes against both the container and a plain []byte
// reference model, checking full-content equality and the tree/free-list
// invariants after every step.
func TestManyRandomEditsStayConsistent(t *testing.T) {
	c := openMem(t, 64)
	rng := rand.New(rand.NewSource(1))
	var model []byte

	randBytes := func(n int) []byte {
		b := make([]byte, n)
		for i := range b {
			b[i] = byte('a' + rng.Intn(26))
		}
		return b
	}

	for i := 0; i < 300; i++ {
		if len(model) == 0 || rng.Intn(2) == 0 {
			pos := 0
			if len(model) > 0 {
				pos = rng.Intn(len(model) + 1)
			}
			n := 1 + rng.Intn(12)
			data := randBytes(n)

			require.NoError(t, c.Insert(uint32(pos), data))
			model = append(model[:pos], append(append([]byte{}, data...), model[pos:]...)...)
		} else {
			pos := rng.Intn(len(model))
			maxN := len(model) - pos
			n := 1 + rng.Intn(maxN)

			require.NoError(t, c.Remove(uint32(pos), uint32(n)))
			model = append(model[:pos], model[pos+n:]...)
		}

		require.Equal(t, uint32(len(model)), c.Size())
		require.NoError(t, verifyInvariants(c))
	}

	require.NoError(t, c.SeekSet(0))
	got := make([]byte, c.Size())
	_, err := io.ReadFull(c, got)
	require.NoError(t, err)
	require.Equal(t, model, got)
}

// TestRandomEditsMatchAVLArrayOracle cross-checks this package's own
// index translation against internal/avlarray.Tree used as an
// independent oracle: every inserted byte becomes a width-1 element of
// the oracle tree, every removed range is deleted element-by-element
// from it, and after each edit the oracle's Len and WidthSum must agree
// with the container's Size; at the end every byte of content and every
// FindByWidth result is compared with the oracle. This exercises avlarray
// from outside its own package, rather than leaving it a fully isolated,
// self-tested structure.
func TestRandomEditsMatchAVLArrayOracle(t *testing.T) {
	c := openMem(t, 64)
	rng := rand.New(rand.NewSource(7))
	oracle := avlarray.New[byte, uint32]()

	randBytes := func(n int) []byte {
		b := make([]byte, n)
		for i := range b {
			b[i] = byte('a' + rng.Intn(26))
		}
		return b
	}

	for i := 0; i < 150; i++ {
		if oracle.Len() == 0 || rng.Intn(2) == 0 {
			pos := 0
			if oracle.Len() > 0 {
				pos = rng.Intn(oracle.Len() + 1)
			}
			n := 1 + rng.Intn(12)
			data := randBytes(n)

			require.NoError(t, c.Insert(uint32(pos), data))
			for j, b := range data {
				oracle.Insert(pos+j, b, 1)
			}
		} else {
			pos := rng.Intn(oracle.Len())
			maxN := oracle.Len() - pos
			n := 1 + rng.Intn(maxN)

			require.NoError(t, c.Remove(uint32(pos), uint32(n)))
			for j := 0; j < n; j++ {
				oracle.RemoveAt(pos)
			}
		}

		require.Equal(t, c.Size(), uint32(oracle.Len()))
		require.Equal(t, c.Size(), oracle.WidthSum())
	}

	require.NoError(t, c.SeekSet(0))
	got := make([]byte, c.Size())
	_, err := io.ReadFull(c, got)
	require.NoError(t, err)
	for i, want := range got {
		require.Equal(t, want, oracle.Get(i))
		idx, offset := oracle.FindByWidth(uint32(i))
		require.Equal(t, i, idx)
		require.Equal(t, uint32(0), offset)
	}
}

func TestSeekSetCurEnd(t *testing.T) {
	c := openMem(t, 64)
	_, err := c.Write([]byte("0123456789"))
	require.NoError(t, err)

	require.NoError(t, c.SeekSet(3))
	require.Equal(t, uint32(3), c.Tell())

	require.NoError(t, c.SeekCur(2))
	require.Equal(t, uint32(5), c.Tell())

	require.NoError(t, c.SeekEnd(-1))
	require.Equal(t, uint32(9), c.Tell())

	// Seeking past end of file is not an error (spec.md §8): the cursor
	// lands at the end-of-file sentinel with the excess recorded, and a
	// read there returns 0 bytes.
	require.NoError(t, c.SeekSet(1000))
	require.Equal(t, uint32(1000), c.Tell())
	n, err := c.Read(make([]byte, 4))
	require.Equal(t, 0, n)
	require.Equal(t, io.EOF, err)

	require.NoError(t, c.SeekSet(9))
	require.NoError(t, c.SeekCur(1000))
	require.Equal(t, uint32(1009), c.Tell())

	require.Error(t, c.SeekCur(-2000))
	require.Error(t, c.SeekEnd(-2000))
}

func TestDefragPreservesContent(t *testing.T) {
	c := openMem(t, 64)
	_, err := c.Write([]byte("one two three four five six seven eight"))
	require.NoError(t, err)
	require.NoError(t, c.Remove(4, 4)) // drop "two "
	require.NoError(t, c.Insert(4, []byte("TWO ")))

	before := snapshotAll(t, c)

	require.NoError(t, c.Defrag())
	require.NoError(t, verifyInvariants(c))

	after := snapshotAll(t, c)
	require.Equal(t, before, after)
}

// The close tests use a real file: a memFile's contents vanish on Close.
func TestCloseAndReopenShiftable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shiftable.bin")
	c, err := Open(osal.NewOSFile(), path, osal.CreateOrWipe, 64)
	require.NoError(t, err)
	_, err = c.Write([]byte("persisted content"))
	require.NoError(t, err)
	require.NoError(t, c.Close(false))

	reopened, err := Open(osal.NewOSFile(), path, osal.OpenExistingOrFail, 64)
	require.NoError(t, err)
	got := snapshotAll(t, reopened)
	require.Equal(t, "persisted content", string(got))
	require.NoError(t, verifyInvariants(reopened))
	require.NoError(t, reopened.Close(false))
}

func TestCloseRestorePlainTruncatesToPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.bin")
	c, err := Open(osal.NewOSFile(), path, osal.CreateOrWipe, 64)
	require.NoError(t, err)
	_, err = c.Write([]byte("plain again"))
	require.NoError(t, err)
	require.NoError(t, c.Close(true))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(len("plain again")), fi.Size())
}

func TestStatsReportsOccupancy(t *testing.T) {
	c := openMem(t, 64)
	_, err := c.Write([]byte("abcdefghijklmnopqrstuvwxyz"))
	require.NoError(t, err)

	s := c.Stats()
	require.Equal(t, uint32(26), s.TotalBytes)
	require.True(t, s.OccupiedNodes > 0)
	require.True(t, s.MapSize > 0)
}

func snapshotAll(t *testing.T, c *Container) []byte {
	t.Helper()
	require.NoError(t, c.SeekSet(0))
	buf := make([]byte, c.Size())
	_, err := io.ReadFull(c, buf)
	require.NoError(t, err)
	return buf
}
