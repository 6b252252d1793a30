package cmd

import (
	"bytes"
	"testing"

	"praxis_backend/internal/service"

	"github.com/stretchr/testify/assert"
)

func TestPrintAuditReport(t *testing.T) {
	var buf bytes.Buffer
	printAuditReport(&buf, &service.AuditReport{
		Analyzed:      3,
		WithIssues:    1,
		ExtraSkills:   1,
		MissingSkills: 0,
		Mismatches: []service.SkillMismatch{{
			SubmissionID: 7,
			ChallengeID:  2,
			Expected:     []string{"Python"},
			Assessed:     []string{"Python", "React"},
			NotDeclared:  []string{"React"},
		}},
	})

	out := buf.String()
	assert.Contains(t, out, "SUBMISSION #7 (Challenge #2)")
	assert.Contains(t, out, "NÃO estão no desafio: React")
	assert.NotContains(t, out, "NÃO foram avaliadas")
	assert.Contains(t, out, "Total de submissions analisadas: 3")
	assert.NotContains(t, out, "Nenhum problema encontrado")
}

func TestPrintAuditReport_Clean(t *testing.T) {
	var buf bytes.Buffer
	printAuditReport(&buf, &service.AuditReport{Analyzed: 2})
	assert.Contains(t, buf.String(), "Nenhum problema encontrado.")
}
