package file_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casepilot/casepilot/pkg/file"
)

func TestCasePath(t *testing.T) {
	t.Parallel()

	tenantID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	caseID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	assert.Equal(t, "tenants/11111111-1111-1111-1111-111111111111", file.TenantDir(tenantID))
	assert.Equal(t,
		"tenants/11111111-1111-1111-1111-111111111111/cases/22222222-2222-2222-2222-222222222222",
		file.CaseDir(tenantID, caseID))
	assert.Equal(t,
		"tenants/11111111-1111-1111-1111-111111111111/cases/22222222-2222-2222-2222-222222222222/denial.pdf",
		file.CasePath(tenantID, caseID, "denial.pdf"))

	t.Run("sanitizes client filename", func(t *testing.T) {
		t.Parallel()
		p := file.CasePath(tenantID, caseID, "../../etc/passwd")
		assert.Equal(t, file.CaseDir(tenantID, caseID)+"/passwd", p)
	})
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"denial.pdf":             "denial.pdf",
		"../../../etc/passwd":    "passwd",
		"C:\\Windows\\file.txt":  "file.txt",
		"":                       "unnamed",
		"..":                     "unnamed",
		"weird\x00name.pdf":      "weirdname.pdf",
		"nested/dir/ledger.csv":  "ledger.csv",
	}
	for in, want := range cases {
		assert.Equal(t, want, file.SanitizeFilename(in), "input %q", in)
	}
}

func TestValidateContentType(t *testing.T) {
	t.Parallel()

	require.NoError(t, file.ValidateContentType("application/pdf"))
	require.NoError(t, file.ValidateContentType("text/plain; charset=utf-8"))
	require.NoError(t, file.ValidateContentType("image/png"))

	err := file.ValidateContentType("application/x-msdownload")
	require.Error(t, err)
	assert.ErrorIs(t, err, file.ErrContentTypeNotAllowed)
}

func TestValidateSize(t *testing.T) {
	t.Parallel()

	require.NoError(t, file.ValidateSize(100, 100))
	require.NoError(t, file.ValidateSize(0, 100))
	require.NoError(t, file.ValidateSize(5, 0)) // zero limit means uncapped

	assert.ErrorIs(t, file.ValidateSize(101, 100), file.ErrFileTooLarge)
}

func TestDetectContentType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "application/pdf", file.DetectContentType([]byte("%PDF-1.4 content")))
	assert.Contains(t, file.DetectContentType([]byte("claim_id,amount\n1,100\n")), "text/plain")
}
