package cli

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	app "github.com/turtacn/keyip-smiles/internal/application/smiles"
	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-smiles/pkg/errors"
)

// NewBatchCmd creates the batch command.  Input is one SMILES per line;
// blank lines and lines starting with '#' are skipped.  Anything after the
// first whitespace on a line is treated as a name and ignored.
func NewBatchCmd() *cobra.Command {
	var (
		flags       parseFlags
		file        string
		failOnError bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Parse SMILES read line by line from a file or stdin",
		Example: "  smilesctl batch -f compounds.smi\n" +
			"  cat compounds.smi | smilesctl batch -o json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return errors.InvalidParam("cannot open input file").WithCause(err)
				}
				defer f.Close()
				in = f
			}
			lines, err := readSmilesLines(in)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return errors.InvalidParam("no SMILES in input")
			}

			comps, err := cliCtx.Components()
			if err != nil {
				return err
			}
			defer cliCtx.Close()

			ctx, cancel := cliCtx.withTimeout(cmd.Context())
			defer cancel()

			var result batchResult
			for _, chunk := range chunkLines(lines, cliCtx.Config.Parser.MaxBatchSize) {
				out, err := comps.Service.ParseBatch(ctx, &app.BatchInput{
					Items:                chunk,
					Mode:                 flags.mode,
					MakeHydrogenExplicit: flags.explicitH,
					SmartsWarnings:       flags.smartsWarnings,
				})
				if err != nil {
					return err
				}
				cliCtx.Logger.Debug("batch parsed",
					logging.String("job_id", out.JobID),
					logging.Int("total", out.Total),
					logging.Int("failed", out.Failed))
				result.Outputs = append(result.Outputs, out)
			}

			if err := PrintResult(cmd, result); err != nil {
				return err
			}
			if _, _, failed := result.counts(); failed > 0 && failOnError {
				return errors.Newf(errors.CodeSmilesSyntax, "%d of %d inputs failed", failed, len(lines))
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "input file (default: stdin)")
	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "exit non-zero when any line fails to parse")
	return cmd
}

func readSmilesLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexAny(line, " \t"); i >= 0 {
			line = line[:i]
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.InvalidParam("failed to read input").WithCause(err)
	}
	return lines, nil
}

// chunkLines splits lines into slices of at most size entries.
func chunkLines(lines []string, size int) [][]string {
	if size < 1 {
		size = len(lines)
	}
	var chunks [][]string
	for len(lines) > size {
		chunks = append(chunks, lines[:size])
		lines = lines[size:]
	}
	return append(chunks, lines)
}
