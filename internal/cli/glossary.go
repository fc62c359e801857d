package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/dalemusser/linguashift/internal/domain/errs"
	"github.com/dalemusser/linguashift/internal/domain/models"
)

// glossaryFile is the TOML layout used by export and import:
//
//	[[entry]]
//	term = "Zorp"
//	plain_language = "the billing service"
type glossaryFile struct {
	Entries []models.GlossaryEntry `toml:"entry"`
}

var glossaryOutput string

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Manage your organization's glossary",
}

var glossaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List glossary entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, _, err := signedInClient()
		if err != nil {
			return err
		}
		org, err := c.MyOrganization(cmd.Context())
		if err != nil {
			return err
		}
		if len(org.Glossary) == 0 {
			cmd.Println("No glossary entries.")
			return nil
		}
		for _, e := range org.Glossary {
			cmd.Printf("%s: %s\n", e.Term, e.PlainLanguage)
		}
		return nil
	},
}

var glossaryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the glossary as TOML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, _, err := signedInClient()
		if err != nil {
			return err
		}
		org, err := c.MyOrganization(cmd.Context())
		if err != nil {
			return err
		}
		data, err := toml.Marshal(glossaryFile{Entries: org.Glossary})
		if err != nil {
			return err
		}
		if glossaryOutput == "" || glossaryOutput == "-" {
			cmd.Print(string(data))
			return nil
		}
		if err := os.WriteFile(glossaryOutput, data, 0644); err != nil {
			return err
		}
		cmd.Printf("Exported %d entries to %s\n", len(org.Glossary), glossaryOutput)
		return nil
	},
}

var glossaryImportCmd = &cobra.Command{
	Use:   "import <file.toml>",
	Short: "Add or update glossary entries from TOML",
	Long: `Add each [[entry]] in the file to your organization's glossary.
Entries whose term already exists are updated in place.`,
	Args: cobra.ExactArgs(1),
	RunE: runGlossaryImport,
}

func init() {
	glossaryExportCmd.Flags().StringVarP(&glossaryOutput, "output", "o", "", "output file (default stdout)")
	glossaryCmd.AddCommand(glossaryListCmd, glossaryExportCmd, glossaryImportCmd)
	rootCmd.AddCommand(glossaryCmd)
}

func runGlossaryImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var file glossaryFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	c, _, err := signedInClient()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	org, err := c.MyOrganization(ctx)
	if err != nil {
		return err
	}
	existing := make(map[string]bool, len(org.Glossary))
	for _, e := range org.Glossary {
		existing[strings.ToLower(e.Term)] = true
	}

	var added, updated int
	var failed []string
	for _, e := range file.Entries {
		var err error
		if existing[strings.ToLower(strings.TrimSpace(e.Term))] {
			err = c.UpdateGlossaryEntry(ctx, org.ID, e)
			if err == nil {
				updated++
			}
		} else {
			err = c.AddGlossaryEntry(ctx, org.ID, e)
			if err == nil {
				added++
				existing[strings.ToLower(strings.TrimSpace(e.Term))] = true
			}
		}
		if err != nil {
			if !errors.Is(err, errs.ErrValidation) {
				return err
			}
			failed = append(failed, fmt.Sprintf("%q: %v", e.Term, err))
		}
	}

	cmd.Printf("Added %d, updated %d.\n", added, updated)
	for _, f := range failed {
		cmd.Printf("  skipped %s\n", f)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d entries were rejected", len(failed))
	}
	return nil
}
