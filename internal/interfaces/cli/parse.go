package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	app "github.com/turtacn/keyip-smiles/internal/application/smiles"
	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-smiles/pkg/errors"
)

// parseFlags are the per-request parser options shared by parse, reaction
// and batch.
type parseFlags struct {
	mode           string
	explicitH      bool
	smartsWarnings bool
}

func (f *parseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "SMARTS mode: smiles|guess|smarts (default from config)")
	cmd.Flags().BoolVar(&f.explicitH, "explicit-h", false, "turn implicit hydrogens into explicit atoms")
	cmd.Flags().BoolVar(&f.smartsWarnings, "smarts-warnings", false, "report query features that could not be resolved")
}

// NewParseCmd creates the parse command.
func NewParseCmd() *cobra.Command {
	var (
		flags     parseFlags
		showAtoms bool
	)
	cmd := &cobra.Command{
		Use:   "parse SMILES...",
		Short: "Parse one or more SMILES or SMARTS strings",
		Example: "  smilesctl parse 'N[C@@H](C)C(=O)O'\n" +
			"  smilesctl parse --mode guess '[C;R]C' -o json",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, flags, showAtoms)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&showAtoms, "atoms", false, "list atoms and bonds in text output")
	return cmd
}

func runParse(cmd *cobra.Command, args []string, flags parseFlags, showAtoms bool) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	comps, err := cliCtx.Components()
	if err != nil {
		return err
	}
	defer cliCtx.Close()

	ctx, cancel := cliCtx.withTimeout(cmd.Context())
	defer cancel()

	var (
		results  = parseResults{showAtoms: showAtoms}
		firstErr error
		failed   int
	)
	for _, s := range args {
		out, err := comps.Service.Parse(ctx, &app.ParseInput{
			SMILES:               s,
			Mode:                 flags.mode,
			MakeHydrogenExplicit: flags.explicitH,
			SmartsWarnings:       flags.smartsWarnings,
		})
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			if len(args) > 1 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %v\n", color.RedString("failed:"), s, err)
			}
			continue
		}
		cliCtx.Logger.Debug("parsed", logging.String("smiles", s), logging.String("formula", out.Formula))
		results.items = append(results.items, out)
	}

	if len(results.items) > 0 {
		if err := PrintResult(cmd, results); err != nil {
			return err
		}
	}
	if firstErr == nil {
		return nil
	}
	if len(args) == 1 {
		return firstErr
	}
	return errors.Wrap(firstErr, errors.GetCode(firstErr), fmt.Sprintf("%d of %d inputs failed", failed, len(args)))
}
