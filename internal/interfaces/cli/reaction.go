package cli

import (
	"github.com/spf13/cobra"

	app "github.com/turtacn/keyip-smiles/internal/application/smiles"
)

// NewReactionCmd creates the reaction command.
func NewReactionCmd() *cobra.Command {
	var flags parseFlags
	cmd := &cobra.Command{
		Use:     "reaction REACTION_SMILES",
		Short:   "Parse a reaction SMILES (reactants>catalysts>products)",
		Example: "  smilesctl reaction 'CC=C.[H][H]>[Pd]>CCC'",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			out, err := comps.Service.ParseReaction(ctx, &app.ReactionInput{
				SMILES:               args[0],
				Mode:                 flags.mode,
				MakeHydrogenExplicit: flags.explicitH,
				SmartsWarnings:       flags.smartsWarnings,
			})
			if err != nil {
				return err
			}
			return PrintResult(cmd, reactionResult{out})
		},
	}
	flags.register(cmd)
	return cmd
}
