package client

// Atom is one atom of a parsed molecule.
type Atom struct {
	Index             int      `json:"index"`
	AtomicNo          int      `json:"atomic_no"`
	Symbol            string   `json:"symbol"`
	Charge            int      `json:"charge,omitempty"`
	Mass              int      `json:"mass,omitempty"`
	MapNo             int      `json:"map_no,omitempty"`
	ImplicitHydrogens int      `json:"implicit_hydrogens"`
	Radical           string   `json:"radical,omitempty"`
	Parity            string   `json:"parity,omitempty"`
	AtomList          []int    `json:"atom_list,omitempty"`
	QueryFeatures     []string `json:"query_features,omitempty"`
}

// Bond is one bond of a parsed molecule.
type Bond struct {
	Index         int      `json:"index"`
	Atoms         [2]int   `json:"atoms"`
	Type          string   `json:"type"`
	Order         int      `json:"order"`
	Parity        string   `json:"parity,omitempty"`
	QueryFeatures []string `json:"query_features,omitempty"`
}

// Molecule is the summary the server returns for one parsed SMILES.
type Molecule struct {
	SMILES         string `json:"smiles"`
	Formula        string `json:"formula"`
	HeavyAtoms     int    `json:"heavy_atoms"`
	AtomCount      int    `json:"atom_count"`
	BondCount      int    `json:"bond_count"`
	Rings          int    `json:"rings"`
	StereoCenters  int    `json:"stereo_centers"`
	StereoBonds    int    `json:"stereo_bonds"`
	Fragment       bool   `json:"fragment"`
	SmartsFeatures bool   `json:"smarts_features"`
	Warnings       string `json:"warnings,omitempty"`
	Atoms          []Atom `json:"atoms"`
	Bonds          []Bond `json:"bonds"`
}

// ParseOptions are the per-request parser settings.  Zero values select the
// server defaults.
type ParseOptions struct {
	Mode                 string `json:"mode,omitempty"` // smiles | guess | smarts
	MakeHydrogenExplicit bool   `json:"make_hydrogen_explicit,omitempty"`
	SmartsWarnings       bool   `json:"smarts_warnings,omitempty"`
}

// ParseResult is the response of Parse.
type ParseResult struct {
	Molecule
	Mode   string `json:"mode"`
	Cached bool   `json:"cached"`
}

// Reaction is the response of ParseReaction.
type Reaction struct {
	SMILES    string      `json:"smiles"`
	Mode      string      `json:"mode"`
	Reactants []*Molecule `json:"reactants"`
	Catalysts []*Molecule `json:"catalysts"`
	Products  []*Molecule `json:"products"`
	Warnings  []string    `json:"warnings,omitempty"`
}

// ItemError explains why one batch entry failed.
type ItemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Offset  *int   `json:"offset,omitempty"`
}

// BatchItem is the outcome of one batch entry.  Exactly one of Result and
// Error is set.
type BatchItem struct {
	Index  int          `json:"index"`
	SMILES string       `json:"smiles"`
	Result *ParseResult `json:"result,omitempty"`
	Error  *ItemError   `json:"error,omitempty"`
}

// BatchResult is the response of ParseBatch, in input order.
type BatchResult struct {
	JobID     string      `json:"job_id"`
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Items     []BatchItem `json:"items"`
}

type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

type ComponentCheck struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type Readiness struct {
	Status     string                    `json:"status"`
	Components map[string]ComponentCheck `json:"components,omitempty"`
}

type parseRequest struct {
	SMILES string `json:"smiles"`
	ParseOptions
}

type batchRequest struct {
	Items []string `json:"items"`
	ParseOptions
}
