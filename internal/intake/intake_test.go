package intake

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"romhex/internal/grid"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestValidate(t *testing.T) {
	opts := DefaultOptions()

	assert.NoError(t, Validate("tetris.gb", 32768, opts))
	assert.NoError(t, Validate("TETRIS.GB", 1, opts))
	assert.ErrorIs(t, Validate("", 10, opts), ErrNoFile)
	assert.ErrorIs(t, Validate("tetris.nes", 10, opts), ErrExtension)
	assert.ErrorIs(t, Validate("tetris", 10, opts), ErrExtension)
	assert.ErrorIs(t, Validate("tetris.gb", 32769, opts), ErrTooLarge)
	assert.ErrorIs(t, Validate("tetris.gb", 0, opts), grid.ErrEmptyInput)
}

func TestRead(t *testing.T) {
	data := []byte{0x31, 0xFE, 0xFF, 0xAF}
	path := writeTemp(t, "tetris.gb", data)

	f, err := Read(path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, data, f.Data)
	assert.Equal(t, "tetris-modified", f.ExportName)
}

func TestReadErrors(t *testing.T) {
	opts := DefaultOptions()

	_, err := Read("", opts)
	assert.ErrorIs(t, err, ErrNoFile)

	_, err = Read(filepath.Join(t.TempDir(), "missing.gb"), opts)
	assert.True(t, os.IsNotExist(err))

	_, err = Read(writeTemp(t, "big.gb", make([]byte, grid.MaxSize+1)), opts)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Read(writeTemp(t, "empty.gb", nil), opts)
	assert.ErrorIs(t, err, grid.ErrEmptyInput)
}

func TestReadIntelHex(t *testing.T) {
	text := ":0400100001020304E2\n:00000001FF\n"
	f, err := Read(writeTemp(t, "patch.hex", []byte(text)), DefaultOptions())
	require.NoError(t, err)

	require.Len(t, f.Data, 0x14)
	assert.Equal(t, byte(0xFF), f.Data[0x00])
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, f.Data[0x10:])
	assert.Equal(t, "patch-modified", f.ExportName)
}

func TestIntelHexTextLimit(t *testing.T) {
	opts := Options{Extensions: []string{".hex"}, MaxSize: 16}
	limit := hexTextLimit(opts.MaxSize)

	assert.NoError(t, Validate("patch.hex", limit, opts))
	assert.ErrorIs(t, Validate("patch.hex", limit+1, opts), ErrTooLarge)

	big := make([]byte, limit+1)
	for i := range big {
		big[i] = '0'
	}
	_, err := Read(writeTemp(t, "big.hex", big), opts)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestExportName(t *testing.T) {
	assert.Equal(t, "tetris-modified", ExportName("/roms/tetris.gb"))
	assert.Equal(t, "mytetris-modified", ExportName("my.tetris.gb"))
	assert.Equal(t, "tetris-modified", ExportName("tetris"))
}
