package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pregen/internal/pool"
)

func TestReadTree(t *testing.T) {
	dir := t.TempDir()
	writeEntries(t, dir,
		pool.MustEntry("/app.base/app/B.rec", []byte("b")),
		pool.MustEntry("/app.base/app/A.rec", []byte("a")),
		pool.MustEntry("/app.base/META/notes.txt", []byte("n")),
	)

	p, err := ReadTree(dir)
	require.NoError(t, err)

	var paths []string
	for e := range p.Entries() {
		paths = append(paths, e.Path())
	}
	assert.Equal(t, []string{"/app.base/META/notes.txt", "/app.base/app/A.rec", "/app.base/app/B.rec"}, paths)

	a, ok := p.Find("/app.base/app/A.rec")
	require.True(t, ok)
	assert.True(t, a.IsRecord())
	assert.Equal(t, "app.base", a.Module())
	assert.Equal(t, []byte("a"), a.Content())
}

func TestReadTree_FileOutsideModule(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.rec"), nil, 0o644))

	_, err := ReadTree(dir)
	assert.Error(t, err)
}

func TestReadTree_Missing(t *testing.T) {
	_, err := ReadTree(filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteTree_RoundTrip(t *testing.T) {
	src := t.TempDir()
	writeEntries(t, src,
		pool.MustEntry("/m/a/A.rec", []byte{1, 2, 3}),
		pool.MustEntry("/m/res.txt", []byte("x")),
	)
	p, err := ReadTree(src)
	require.NoError(t, err)

	dst := filepath.Join(t.TempDir(), "out")
	require.NoError(t, WriteTree(dst, p))

	again, err := ReadTree(dst)
	require.NoError(t, err)
	assert.Equal(t, p.All(), again.All())
}

func TestWriteTree_RefusesNonEmpty(t *testing.T) {
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dst, "keep"), nil, 0o644))

	err := WriteTree(dst, testPool(t))
	assert.ErrorIs(t, err, ErrOutputNotEmpty)
}

func TestCheckOutputDir(t *testing.T) {
	assert.NoError(t, CheckOutputDir(filepath.Join(t.TempDir(), "absent")))
	assert.NoError(t, CheckOutputDir(t.TempDir()))
}

func testPool(t *testing.T) *pool.Pool {
	t.Helper()
	p, err := pool.New(pool.MustEntry("/m/x.txt", nil))
	require.NoError(t, err)
	return p
}
