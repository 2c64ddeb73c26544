package file_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casepilot/casepilot/pkg/file"
)

func TestLocalStorage_Save(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	storage, err := file.NewLocalStorage(tempDir, "/files/")
	require.NoError(t, err)

	t.Run("save pdf upload", func(t *testing.T) {
		t.Parallel()
		content := []byte("%PDF-1.4 denial letter body")

		obj, err := storage.Save(context.Background(), "uploads/denial.pdf", bytes.NewReader(content))
		require.NoError(t, err)
		require.NotNil(t, obj)

		assert.Equal(t, "denial.pdf", obj.Filename)
		assert.Equal(t, int64(len(content)), obj.Size)
		assert.Equal(t, "uploads/denial.pdf", obj.Path)
		assert.Equal(t, "application/pdf", obj.ContentType)

		data, err := os.ReadFile(filepath.Join(tempDir, "uploads", "denial.pdf"))
		require.NoError(t, err)
		assert.Equal(t, content, data)
	})

	t.Run("save under case path", func(t *testing.T) {
		t.Parallel()
		tenantID := uuid.New()
		caseID := uuid.New()
		p := file.CasePath(tenantID, caseID, "ledger.csv")

		obj, err := storage.Save(context.Background(), p, bytes.NewReader([]byte("claim_id,amount\n1,100\n")))
		require.NoError(t, err)
		assert.Equal(t, p, obj.Path)
		assert.True(t, storage.Exists(context.Background(), p))
	})

	t.Run("rejects path traversal", func(t *testing.T) {
		t.Parallel()
		_, err := storage.Save(context.Background(), "../outside.txt", bytes.NewReader([]byte("x")))
		require.Error(t, err)
		assert.ErrorIs(t, err, file.ErrInvalidPath)
	})

	t.Run("rejects nil reader", func(t *testing.T) {
		t.Parallel()
		_, err := storage.Save(context.Background(), "a.txt", nil)
		assert.ErrorIs(t, err, file.ErrNilReader)
	})

	t.Run("enforces max bytes", func(t *testing.T) {
		t.Parallel()
		capped, err := file.NewLocalStorage(t.TempDir(), "/files/", file.WithLocalMaxBytes(10))
		require.NoError(t, err)

		_, err = capped.Save(context.Background(), "big.bin", bytes.NewReader(make([]byte, 11)))
		require.Error(t, err)
		assert.ErrorIs(t, err, file.ErrFileTooLarge)

		// Partial file must not survive a failed save.
		assert.False(t, capped.Exists(context.Background(), "big.bin"))
	})
}

func TestLocalStorage_DeleteDir(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	storage, err := file.NewLocalStorage(tempDir, "/files/")
	require.NoError(t, err)

	ctx := context.Background()
	tenantID := uuid.New()
	caseID := uuid.New()

	_, err = storage.Save(ctx, file.CasePath(tenantID, caseID, "denial.pdf"), bytes.NewReader([]byte("%PDF-1.4")))
	require.NoError(t, err)
	_, err = storage.Save(ctx, file.CasePath(tenantID, caseID, "ledger.csv"), bytes.NewReader([]byte("a,b\n")))
	require.NoError(t, err)

	t.Run("removes tenant prefix", func(t *testing.T) {
		require.NoError(t, storage.DeleteDir(ctx, file.TenantDir(tenantID)))
		assert.False(t, storage.Exists(ctx, file.CasePath(tenantID, caseID, "denial.pdf")))
	})

	t.Run("repeat delete is a no-op", func(t *testing.T) {
		assert.NoError(t, storage.DeleteDir(ctx, file.TenantDir(tenantID)))
	})

	t.Run("refuses files", func(t *testing.T) {
		_, err := storage.Save(ctx, "plain.txt", bytes.NewReader([]byte("x")))
		require.NoError(t, err)
		assert.ErrorIs(t, storage.DeleteDir(ctx, "plain.txt"), file.ErrNotDirectory)
	})
}

func TestLocalStorage_Delete(t *testing.T) {
	t.Parallel()
	storage, err := file.NewLocalStorage(t.TempDir(), "/files/")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = storage.Save(ctx, "dir/a.txt", bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	require.NoError(t, storage.Delete(ctx, "dir/a.txt"))
	assert.ErrorIs(t, storage.Delete(ctx, "dir/a.txt"), file.ErrFileNotFound)
	assert.ErrorIs(t, storage.Delete(ctx, "dir"), file.ErrIsDirectory)
}

func TestLocalStorage_List(t *testing.T) {
	t.Parallel()
	storage, err := file.NewLocalStorage(t.TempDir(), "/files/")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = storage.Save(ctx, "cases/a.pdf", bytes.NewReader([]byte("%PDF-1.4")))
	require.NoError(t, err)
	_, err = storage.Save(ctx, "cases/sub/b.csv", bytes.NewReader([]byte("a,b\n")))
	require.NoError(t, err)

	entries, err := storage.List(ctx, "cases")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = e.IsDir
	}
	assert.False(t, names["a.pdf"])
	assert.True(t, names["sub"])
}

func TestLocalStorage_URL(t *testing.T) {
	t.Parallel()
	storage, err := file.NewLocalStorage(t.TempDir(), "https://cdn.example.com/files")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/files/a/b.pdf", storage.URL("a/b.pdf"))
	assert.Equal(t, "/absolute/path.pdf", storage.URL("/absolute/path.pdf"))
}
