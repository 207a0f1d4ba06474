package smiles

import (
	"github.com/turtacn/keyip-smiles/internal/domain/molecule"
	mtypes "github.com/turtacn/keyip-smiles/pkg/types/molecule"
)

// CoordinateOptions is passed to the coordinate inventor after a parse.
type CoordinateOptions struct {
	// SkipTemplates disables default ring and fragment templates.
	SkipTemplates bool
	// KeepHydrogens keeps explicit hydrogen atoms in the layout.
	KeepHydrogens bool
}

// CoordinateInventor generates 2D coordinates for a parsed molecule.  No
// implementation ships with this package; the parser only calls the hook.
type CoordinateInventor interface {
	Invent(mol *molecule.Molecule, opts CoordinateOptions) error
}

// Options configures a Parser.  The zero value parses strict SMILES without
// stereo features; NewParser enables stereo by default.
type Options struct {
	SmartsMode              mtypes.SmartsMode
	SkipCoordinateTemplates bool
	MakeHydrogenExplicit    bool
	CreateSmartsWarnings    bool
	ReadStereoFeatures      bool
	Coordinates             CoordinateInventor
}

// Option mutates Options.
type Option func(*Options)

// WithSmartsMode selects how SMARTS syntax is treated.
func WithSmartsMode(mode mtypes.SmartsMode) Option {
	return func(o *Options) { o.SmartsMode = mode }
}

// WithSkipCoordinateTemplates disables coordinate templates.
func WithSkipCoordinateTemplates(skip bool) Option {
	return func(o *Options) { o.SkipCoordinateTemplates = skip }
}

// WithMakeHydrogenExplicit materializes bracket hydrogens as atoms.
func WithMakeHydrogenExplicit(explicit bool) Option {
	return func(o *Options) { o.MakeHydrogenExplicit = explicit }
}

// WithSmartsWarnings collects SMARTS features that could not be translated.
func WithSmartsWarnings(enabled bool) Option {
	return func(o *Options) { o.CreateSmartsWarnings = enabled }
}

// WithStereo enables or disables reading of '@', '/' and '\'.
func WithStereo(enabled bool) Option {
	return func(o *Options) { o.ReadStereoFeatures = enabled }
}

// WithCoordinateInventor installs a coordinate generation post-step.
func WithCoordinateInventor(ci CoordinateInventor) Option {
	return func(o *Options) { o.Coordinates = ci }
}
