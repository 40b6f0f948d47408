package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
)

func TestWriteAudit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auditoria.xlsx")
	results := []domain.AuditResult{
		{Interview: domain.Interview{ID: 1, Title: "Uno"}, Verdict: domain.Verdict{Status: domain.StatusApproved, Reason: "ok"}},
		{Interview: domain.Interview{ID: 2, Title: "Dos"}, Verdict: domain.Verdict{Status: domain.StatusRejected, Reason: "sin consentimiento"}},
	}
	require.NoError(t, WriteAudit(path, results))

	rows, err := ReadAudit(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "Uno", "APPROVED", "ok"}, rows[0])
	assert.Equal(t, []string{"2", "Dos", "REJECTED", "sin consentimiento"}, rows[1])
}

func TestWriteAudit_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vacio.xlsx")
	require.NoError(t, WriteAudit(path, nil))

	rows, err := ReadAudit(path)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
