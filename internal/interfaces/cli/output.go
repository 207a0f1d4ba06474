package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"

	app "github.com/turtacn/keyip-smiles/internal/application/smiles"
)

// ─────────────────────────────────────────────────────────────────────────────
// parse
// ─────────────────────────────────────────────────────────────────────────────

type parseResults struct {
	items     []*app.ParseOutput
	showAtoms bool
}

func (r parseResults) MarshalJSON() ([]byte, error) {
	if len(r.items) == 1 {
		return json.Marshal(r.items[0])
	}
	return json.Marshal(r.items)
}

func (r parseResults) TableHeaders() []string {
	return []string{"SMILES", "Formula", "Atoms", "Bonds", "Rings", "Stereo", "Warnings"}
}

func (r parseResults) TableRows() [][]string {
	rows := make([][]string, 0, len(r.items))
	for _, out := range r.items {
		rows = append(rows, []string{
			out.SMILES,
			out.Formula,
			strconv.Itoa(out.HeavyAtoms),
			strconv.Itoa(out.BondCount),
			strconv.Itoa(out.Rings),
			strconv.Itoa(out.StereoCenters + out.StereoBonds),
			out.Warnings,
		})
	}
	return rows
}

func (r parseResults) String() string {
	var sb strings.Builder
	for i, out := range r.items {
		if i > 0 {
			sb.WriteString("\n")
		}
		writeSummary(&sb, &out.MoleculeSummary, out.Mode)
		if out.Cached {
			sb.WriteString("  cached:  yes\n")
		}
		if r.showAtoms {
			writeAtoms(&sb, &out.MoleculeSummary)
		}
	}
	return sb.String()
}

func writeSummary(sb *strings.Builder, s *app.MoleculeSummary, mode string) {
	fmt.Fprintf(sb, "%s\n", color.CyanString(s.SMILES))
	fmt.Fprintf(sb, "  formula: %s\n", s.Formula)
	fmt.Fprintf(sb, "  atoms:   %d heavy, %d total, %d bonds\n", s.HeavyAtoms, s.AtomCount, s.BondCount)
	fmt.Fprintf(sb, "  rings:   %d\n", s.Rings)
	if s.StereoCenters > 0 || s.StereoBonds > 0 {
		fmt.Fprintf(sb, "  stereo:  %d centers, %d double bonds\n", s.StereoCenters, s.StereoBonds)
	}
	if mode != "" {
		fmt.Fprintf(sb, "  mode:    %s\n", mode)
	}
	if s.Fragment {
		sb.WriteString("  fragment: yes\n")
	}
	if s.Warnings != "" {
		fmt.Fprintf(sb, "  %s %s\n", color.YellowString("warning:"), s.Warnings)
	}
}

func writeAtoms(sb *strings.Builder, s *app.MoleculeSummary) {
	for _, a := range s.Atoms {
		fmt.Fprintf(sb, "    atom %-3d %-3s", a.Index, a.Symbol)
		if a.Charge != 0 {
			fmt.Fprintf(sb, " charge=%+d", a.Charge)
		}
		if a.Mass != 0 {
			fmt.Fprintf(sb, " mass=%d", a.Mass)
		}
		if a.MapNo != 0 {
			fmt.Fprintf(sb, " map=%d", a.MapNo)
		}
		fmt.Fprintf(sb, " H=%d", a.ImplicitHydrogens)
		if a.Radical != "" {
			fmt.Fprintf(sb, " radical=%s", a.Radical)
		}
		if a.Parity != "" {
			fmt.Fprintf(sb, " parity=%s", a.Parity)
		}
		if len(a.QueryFeatures) > 0 {
			fmt.Fprintf(sb, " query=%s", strings.Join(a.QueryFeatures, ","))
		}
		sb.WriteString("\n")
	}
	for _, b := range s.Bonds {
		fmt.Fprintf(sb, "    bond %-3d %d-%d %s", b.Index, b.Atoms[0], b.Atoms[1], b.Type)
		if b.Parity != "" {
			fmt.Fprintf(sb, " parity=%s", b.Parity)
		}
		if len(b.QueryFeatures) > 0 {
			fmt.Fprintf(sb, " query=%s", strings.Join(b.QueryFeatures, ","))
		}
		sb.WriteString("\n")
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// reaction
// ─────────────────────────────────────────────────────────────────────────────

type reactionResult struct {
	*app.ReactionOutput
}

func (r reactionResult) roles() []struct {
	name string
	mols []*app.MoleculeSummary
} {
	return []struct {
		name string
		mols []*app.MoleculeSummary
	}{
		{"reactant", r.Reactants},
		{"catalyst", r.Catalysts},
		{"product", r.Products},
	}
}

func (r reactionResult) TableHeaders() []string {
	return []string{"Role", "#", "SMILES", "Formula", "Atoms", "Rings"}
}

func (r reactionResult) TableRows() [][]string {
	var rows [][]string
	for _, role := range r.roles() {
		for i, m := range role.mols {
			rows = append(rows, []string{
				role.name, strconv.Itoa(i + 1), m.SMILES, m.Formula,
				strconv.Itoa(m.HeavyAtoms), strconv.Itoa(m.Rings),
			})
		}
	}
	return rows
}

func (r reactionResult) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", color.CyanString(r.SMILES))
	formulas := func(mols []*app.MoleculeSummary) string {
		parts := make([]string, len(mols))
		for i, m := range mols {
			parts[i] = m.Formula
		}
		return strings.Join(parts, " + ")
	}
	fmt.Fprintf(&sb, "  %s", formulas(r.Reactants))
	if len(r.Catalysts) > 0 {
		fmt.Fprintf(&sb, " -[%s]->", formulas(r.Catalysts))
	} else {
		sb.WriteString(" ->")
	}
	fmt.Fprintf(&sb, " %s\n", formulas(r.Products))
	for _, w := range r.Warnings {
		fmt.Fprintf(&sb, "  %s %s\n", color.YellowString("warning:"), w)
	}
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// batch
// ─────────────────────────────────────────────────────────────────────────────

type batchResult struct {
	Outputs []*app.BatchOutput `json:"batches"`
}

func (r batchResult) counts() (total, ok, failed int) {
	for _, out := range r.Outputs {
		total += out.Total
		ok += out.Succeeded
		failed += out.Failed
	}
	return total, ok, failed
}

func (r batchResult) TableHeaders() []string {
	return []string{"#", "SMILES", "Status", "Formula / Error"}
}

func (r batchResult) TableRows() [][]string {
	total, _, _ := r.counts()
	rows := make([][]string, 0, total)
	offset := 0
	for _, out := range r.Outputs {
		for _, it := range out.Items {
			status, detail := "ok", ""
			if it.Error != nil {
				status, detail = it.Error.Code, it.Error.Message
			} else if it.Result != nil {
				detail = it.Result.Formula
			}
			rows = append(rows, []string{strconv.Itoa(offset + it.Index + 1), it.SMILES, status, detail})
		}
		offset += out.Total
	}
	return rows
}

func (r batchResult) String() string {
	var sb strings.Builder
	for _, row := range r.TableRows() {
		status := row[2]
		if status == "ok" {
			status = color.GreenString(status)
		} else {
			status = color.RedString(status)
		}
		fmt.Fprintf(&sb, "%s\t%s\t%s\t%s\n", row[0], status, row[1], row[3])
	}
	total, ok, failed := r.counts()
	fmt.Fprintf(&sb, "\n%d parsed, %d ok, %d failed\n", total, ok, failed)
	return sb.String()
}
