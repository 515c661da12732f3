package hashio

import (
	"bytes"
	"crypto/sha1"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
)

// withTrailer appends the SHA-1 of body, forming a well-formed stream.
func withTrailer(body []byte) []byte {
	sum := sha1.Sum(body)
	return append(append([]byte{}, body...), sum[:]...)
}

func TestReaderWithholdsTrailer(t *testing.T) {
	body := []byte("the quick brown fox jumps over the lazy dog")
	r := NewReader(bytes.NewReader(withTrailer(body)))

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, body, got)
	require.NoError(t, r.Verify())
}

func TestReaderOneByteAtATime(t *testing.T) {
	body := []byte("abcdefghijklmnopqrstuvwxyz")
	r := NewReader(iotest.OneByteReader(bytes.NewReader(withTrailer(body))))

	var got []byte
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	require.Equal(t, body, got)
	require.NoError(t, r.Verify())
}

func TestReaderEmptyBody(t *testing.T) {
	r := NewReader(bytes.NewReader(withTrailer(nil)))
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Empty(t, got)
	require.NoError(t, r.Verify())
}

func TestReaderMismatch(t *testing.T) {
	stream := withTrailer([]byte("payload"))
	stream[0] ^= 0x01
	r := NewReader(bytes.NewReader(stream))
	require.ErrorIs(t, r.Verify(), ErrHashMismatch)
}

func TestReaderShortStream(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte("too short")))
	_, err := io.ReadAll(r)
	require.ErrorIs(t, err, ErrMissingTrailer)
	require.ErrorIs(t, r.Verify(), ErrMissingTrailer)
}

func TestReaderVerifyWithoutReading(t *testing.T) {
	body := []byte("unread payload")
	r := NewReader(bytes.NewReader(withTrailer(body)))
	// Verify drains the logical stream itself.
	require.NoError(t, r.Verify())
}

func TestWriterFinishAppendsDigest(t *testing.T) {
	body := []byte("some serialized index bytes")

	var buf bytes.Buffer
	w := NewWriter(&buf)
	n, err := w.Write(body)
	require.NoError(t, err)
	require.Equal(t, len(body), n)

	sum := sha1.Sum(body)
	require.Equal(t, sum[:], w.Sum())
	require.NoError(t, w.Finish())
	require.Equal(t, withTrailer(body), buf.Bytes())
}

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, chunk := range []string{"DIRC", "entries", "and more"} {
		_, err := w.Write([]byte(chunk))
		require.NoError(t, err)
	}
	require.NoError(t, w.Finish())

	r := NewReader(&buf)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, []byte("DIRCentriesand more"), got)
	require.NoError(t, r.Verify())
}
