package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"praxis_backend/internal/repository"
	"praxis_backend/internal/service"
	"praxis_backend/pkg/database"
	"strings"

	"github.com/spf13/cobra"
)

var auditSkillsCmd = &cobra.Command{
	Use:   "audit-skills",
	Short: "Report AI skill assessments that disagree with challenges or user skills",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := database.Open(&cfg.Database)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		svc := service.NewAuditService(
			repository.NewSubmissionRepository(db),
			repository.NewChallengeRepository(db),
			repository.NewAttributesRepository(db),
			log,
		)
		report, err := svc.SkillMismatches(cmd.Context())
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printAuditReport(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	auditSkillsCmd.Flags().Bool("json", false, "Print the report as JSON")
}

func printAuditReport(w io.Writer, r *service.AuditReport) {
	sep := strings.Repeat("=", 80)
	list := func(items []string) string {
		if len(items) == 0 {
			return "Nenhuma"
		}
		return strings.Join(items, ", ")
	}

	for _, m := range r.Mismatches {
		fmt.Fprintf(w, "\nSUBMISSION #%d (Challenge #%d)\n", m.SubmissionID, m.ChallengeID)
		fmt.Fprintf(w, "   Título: %s\n   Categoria: %s\n   Usuário: %s\n", m.ChallengeTitle, m.Category, m.ProfileID)
		if len(m.NotDeclared) > 0 {
			fmt.Fprintf(w, "   Skills AVALIADAS mas NÃO estão no desafio: %s\n", list(m.NotDeclared))
		}
		if len(m.NotAssessed) > 0 {
			fmt.Fprintf(w, "   Skills do DESAFIO que NÃO foram avaliadas: %s\n", list(m.NotAssessed))
		}
		if len(m.NotOwned) > 0 {
			fmt.Fprintf(w, "   Skills AVALIADAS que o usuário NÃO possui: %s\n", list(m.NotOwned))
		}
		fmt.Fprintf(w, "   Skills esperadas: %s\n   Skills avaliadas: %s\n", list(m.Expected), list(m.Assessed))
		fmt.Fprintf(w, "   Skills do usuário (tech/soft): %d/%d\n", m.UserTechSkills, m.UserSoftSkills)
	}

	fmt.Fprintf(w, "\n%s\nRESUMO FINAL\n%s\n", sep, sep)
	fmt.Fprintf(w, "Total de submissions analisadas: %d\n", r.Analyzed)
	fmt.Fprintf(w, "Submissions com problemas: %d\n", r.WithIssues)
	fmt.Fprintf(w, "Skills extras avaliadas (não no desafio): %d\n", r.ExtraSkills)
	fmt.Fprintf(w, "Skills do desafio não avaliadas: %d\n", r.MissingSkills)
	fmt.Fprintf(w, "Skills avaliadas que o usuário não possui: %d\n", r.NotOwnedSkills)
	if r.WithIssues == 0 {
		fmt.Fprintln(w, "\nNenhum problema encontrado.")
	}
}
