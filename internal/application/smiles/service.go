// Package smiles provides the application-level service for SMILES and
// reaction parsing.  It sits between the HTTP and CLI transports and the
// domain parser and adds input limits, the summary cache and metrics.
package smiles

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	domain "github.com/turtacn/keyip-smiles/internal/domain/smiles"
	"github.com/turtacn/keyip-smiles/internal/infrastructure/database/redis"
	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/keyip-smiles/pkg/errors"
	mtypes "github.com/turtacn/keyip-smiles/pkg/types/molecule"
)

// Cache keys written by Parse all start with this prefix.
const cacheKeyPrefix = "parse:"

// Service defines the SMILES application operations.
type Service interface {
	Parse(ctx context.Context, input *ParseInput) (*ParseOutput, error)
	ParseReaction(ctx context.Context, input *ReactionInput) (*ReactionOutput, error)
	ParseBatch(ctx context.Context, input *BatchInput) (*BatchOutput, error)
	// InvalidateCache drops every cached summary and returns the number of
	// entries removed.
	InvalidateCache(ctx context.Context) (int64, error)
	// Ready reports whether the backing cache, if any, is reachable.
	Ready(ctx context.Context) error
}

// ParseInput contains input for parsing one SMILES.  Mode is one of
// "smiles", "guess" or "smarts"; empty selects the configured default.
// The boolean flags are OR'ed with the configured defaults.
type ParseInput struct {
	SMILES               string
	Mode                 string
	MakeHydrogenExplicit bool
	SmartsWarnings       bool
}

// ParseOutput is the summary of one parsed molecule.
type ParseOutput struct {
	MoleculeSummary
	Mode   string `json:"mode"`
	Cached bool   `json:"cached"`
}

// ReactionInput contains input for parsing a reaction SMILES.
type ReactionInput struct {
	SMILES               string
	Mode                 string
	MakeHydrogenExplicit bool
	SmartsWarnings       bool
}

// ReactionOutput lists the molecules of each role.
type ReactionOutput struct {
	SMILES    string             `json:"smiles"`
	Mode      string             `json:"mode"`
	Reactants []*MoleculeSummary `json:"reactants"`
	Catalysts []*MoleculeSummary `json:"catalysts"`
	Products  []*MoleculeSummary `json:"products"`
	Warnings  []string           `json:"warnings,omitempty"`
}

// BatchInput contains input for parsing many SMILES with shared settings.
type BatchInput struct {
	Items                []string
	Mode                 string
	MakeHydrogenExplicit bool
	SmartsWarnings       bool
}

// ItemError describes why one batch item failed.
type ItemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Offset  *int   `json:"offset,omitempty"`
}

// BatchItem is the outcome of one batch entry; exactly one of Result and
// Error is set.
type BatchItem struct {
	Index  int          `json:"index"`
	SMILES string       `json:"smiles"`
	Result *ParseOutput `json:"result,omitempty"`
	Error  *ItemError   `json:"error,omitempty"`
}

// BatchOutput represents the results of a batch in input order.
type BatchOutput struct {
	JobID     string      `json:"job_id"`
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Items     []BatchItem `json:"items"`
}

// Config holds the service defaults and limits.
type Config struct {
	DefaultMode          mtypes.SmartsMode
	MakeHydrogenExplicit bool
	CreateSmartsWarnings bool
	DisableStereo        bool
	// MaxInputLength bounds one SMILES in bytes; 0 disables the check.
	MaxInputLength int
	// MaxBatchSize bounds BatchInput.Items; 0 disables the check.
	MaxBatchSize int
	// BatchConcurrency defaults to 1 when not positive.
	BatchConcurrency int
	// CacheTTL is passed to the cache; 0 uses the cache default.
	CacheTTL time.Duration
}

// Option configures optional collaborators of the service.
type Option func(*serviceImpl)

// WithCache enables the summary cache.
func WithCache(c redis.Cache) Option {
	return func(s *serviceImpl) { s.cache = c }
}

// WithMetrics records parse metrics on m.
func WithMetrics(m *prometheus.ParserMetrics) Option {
	return func(s *serviceImpl) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l logging.Logger) Option {
	return func(s *serviceImpl) {
		if l != nil {
			s.logger = l
		}
	}
}

// serviceImpl implements the Service interface.
type serviceImpl struct {
	cfg     Config
	cache   redis.Cache
	metrics *prometheus.ParserMetrics
	logger  logging.Logger
}

// NewService creates a new SMILES service.
func NewService(cfg Config, opts ...Option) Service {
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 1
	}
	s := &serviceImpl{cfg: cfg, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ─────────────────────────────────────────────────────────────────────────────
// Parse
// ─────────────────────────────────────────────────────────────────────────────

// request is the resolved form of the per-call settings.
type request struct {
	smiles   string
	mode     mtypes.SmartsMode
	explicit bool
	warnings bool
}

func (s *serviceImpl) resolve(smiles, mode string, explicit, warnings bool) (request, error) {
	if smiles == "" {
		return request{}, errors.InvalidParam("smiles is required")
	}
	if s.cfg.MaxInputLength > 0 && len(smiles) > s.cfg.MaxInputLength {
		return request{}, errors.Newf(errors.CodeInputTooLarge,
			"input of %d bytes exceeds limit of %d", len(smiles), s.cfg.MaxInputLength)
	}
	m := s.cfg.DefaultMode
	if mode != "" {
		var err error
		if m, err = mtypes.ParseSmartsMode(mode); err != nil {
			return request{}, errors.InvalidParam("unknown mode " + strconv.Quote(mode))
		}
	}
	return request{
		smiles:   smiles,
		mode:     m,
		explicit: explicit || s.cfg.MakeHydrogenExplicit,
		warnings: warnings || s.cfg.CreateSmartsWarnings,
	}, nil
}

func (s *serviceImpl) parser(r request) *domain.Parser {
	return domain.NewParser(
		domain.WithSmartsMode(r.mode),
		domain.WithMakeHydrogenExplicit(r.explicit),
		domain.WithSmartsWarnings(r.warnings),
		domain.WithStereo(!s.cfg.DisableStereo),
	)
}

func (r request) cacheKey(stereo bool) string {
	sum := sha256.Sum256([]byte(r.smiles))
	return cacheKeyPrefix + r.mode.String() +
		":" + flag(r.explicit) + flag(r.warnings) + flag(stereo) +
		":" + hex.EncodeToString(sum[:])
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Parse parses one SMILES and returns its summary.
func (s *serviceImpl) Parse(ctx context.Context, input *ParseInput) (*ParseOutput, error) {
	if input == nil {
		return nil, errors.InvalidParam("input is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeTimeout, "parse cancelled")
	}
	req, err := s.resolve(input.SMILES, input.Mode, input.MakeHydrogenExplicit, input.SmartsWarnings)
	if err != nil {
		return nil, err
	}

	out := &ParseOutput{Mode: req.mode.String()}
	if s.cache == nil {
		summary, err := s.parseOne(ctx, req)
		if err != nil {
			return nil, err
		}
		out.MoleculeSummary = *summary
		return out, nil
	}

	loaded := false
	err = s.cache.GetOrLoad(ctx, req.cacheKey(!s.cfg.DisableStereo), &out.MoleculeSummary, s.cfg.CacheTTL,
		func(ctx context.Context) (interface{}, error) {
			loaded = true
			return s.parseOne(ctx, req)
		})
	if err != nil {
		return nil, err
	}
	out.Cached = !loaded
	s.metrics.ObserveCache(out.Cached)
	return out, nil
}

// parseOne runs the parser and records metrics and logs for the outcome.
func (s *serviceImpl) parseOne(ctx context.Context, req request) (*MoleculeSummary, error) {
	mode := req.mode.String()
	start := time.Now()
	mol, res, err := s.parser(req).ParseString(req.smiles)
	elapsed := time.Since(start)

	if err != nil {
		appErr := domain.ToAppError(err)
		s.metrics.ObserveParse(mode, elapsed, 0, appErr.Code.String(), false)
		fields := []logging.Field{
			logging.String("smiles", req.smiles),
			logging.String("mode", mode),
			logging.String("code", appErr.Code.String()),
		}
		if pe, ok := domain.AsParseError(err); ok {
			fields = append(fields, logging.Int("offset", pe.Offset))
		}
		s.logger.WithContext(ctx).Warn("smiles parse failed", append(fields, logging.Err(err))...)
		return nil, appErr
	}

	s.metrics.ObserveParse(mode, elapsed, mol.AllAtoms(), "", res.Warnings != "")
	if res.Warnings != "" {
		s.logger.WithContext(ctx).Debug("smarts features left unresolved",
			logging.String("smiles", req.smiles), logging.String("warnings", res.Warnings))
	}
	return Summarize(req.smiles, mol, res), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reaction
// ─────────────────────────────────────────────────────────────────────────────

// ParseReaction parses reactants>catalysts>products.
func (s *serviceImpl) ParseReaction(ctx context.Context, input *ReactionInput) (*ReactionOutput, error) {
	if input == nil {
		return nil, errors.InvalidParam("input is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeTimeout, "parse cancelled")
	}
	req, err := s.resolve(input.SMILES, input.Mode, input.MakeHydrogenExplicit, input.SmartsWarnings)
	if err != nil {
		return nil, err
	}

	mode := req.mode.String()
	start := time.Now()
	rxn, err := s.parser(req).ParseReaction([]byte(req.smiles))
	elapsed := time.Since(start)
	if err != nil {
		appErr := domain.ToAppError(err)
		s.metrics.ObserveParse(mode, elapsed, 0, appErr.Code.String(), false)
		s.logger.WithContext(ctx).Warn("reaction parse failed",
			logging.String("smiles", req.smiles),
			logging.String("code", appErr.Code.String()),
			logging.Err(err))
		return nil, appErr
	}

	out := &ReactionOutput{SMILES: req.smiles, Mode: mode, Warnings: rxn.Warnings}
	atoms := 0
	for _, role := range []domain.ReactionRole{domain.RoleReactant, domain.RoleCatalyst, domain.RoleProduct} {
		mols := rxn.Molecules(role)
		summaries := make([]*MoleculeSummary, 0, len(mols))
		for _, mol := range mols {
			atoms += mol.AllAtoms()
			summaries = append(summaries, Summarize("", mol, nil))
		}
		switch role {
		case domain.RoleReactant:
			out.Reactants = summaries
		case domain.RoleCatalyst:
			out.Catalysts = summaries
		default:
			out.Products = summaries
		}
	}
	s.metrics.ObserveParse(mode, elapsed, atoms, "", len(rxn.Warnings) > 0)
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Batch
// ─────────────────────────────────────────────────────────────────────────────

// ParseBatch parses every item concurrently.  A failing item is reported in
// its BatchItem and never aborts the batch; only cancellation of ctx does.
func (s *serviceImpl) ParseBatch(ctx context.Context, input *BatchInput) (*BatchOutput, error) {
	if input == nil || len(input.Items) == 0 {
		return nil, errors.InvalidParam("items are required")
	}
	if s.cfg.MaxBatchSize > 0 && len(input.Items) > s.cfg.MaxBatchSize {
		return nil, errors.Newf(errors.CodeInputTooLarge,
			"batch of %d items exceeds limit of %d", len(input.Items), s.cfg.MaxBatchSize)
	}
	if input.Mode != "" {
		if _, err := mtypes.ParseSmartsMode(input.Mode); err != nil {
			return nil, errors.InvalidParam("unknown mode " + strconv.Quote(input.Mode))
		}
	}

	out := &BatchOutput{
		JobID: uuid.NewString(),
		Total: len(input.Items),
		Items: make([]BatchItem, len(input.Items)),
	}
	log := s.logger.WithContext(ctx).With(logging.String("job_id", out.JobID))
	log.Debug("batch started", logging.Int("items", out.Total))

	if s.metrics != nil {
		s.metrics.BatchSize.WithLabelValues().Observe(float64(out.Total))
		s.metrics.InflightBatches.WithLabelValues().Inc()
		defer s.metrics.InflightBatches.WithLabelValues().Dec()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchConcurrency)
	for i, smi := range input.Items {
		i, smi := i, smi
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item := BatchItem{Index: i, SMILES: smi}
			res, err := s.Parse(gctx, &ParseInput{
				SMILES:               smi,
				Mode:                 input.Mode,
				MakeHydrogenExplicit: input.MakeHydrogenExplicit,
				SmartsWarnings:       input.SmartsWarnings,
			})
			if err != nil {
				if errors.IsCode(err, errors.CodeTimeout) {
					return err
				}
				item.Error = NewItemError(err)
			} else {
				item.Result = res
			}
			out.Items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn("batch cancelled", logging.Err(err))
		return nil, errors.Wrap(err, errors.CodeTimeout, "batch cancelled")
	}

	for _, item := range out.Items {
		if item.Error != nil {
			out.Failed++
		} else {
			out.Succeeded++
		}
	}
	log.Info("batch finished",
		logging.Int("succeeded", out.Succeeded),
		logging.Int("failed", out.Failed))
	return out, nil
}

// NewItemError converts a failure into its reported form.  Parse failures
// carry their byte offset.
func NewItemError(err error) *ItemError {
	appErr := domain.ToAppError(err)
	ie := &ItemError{Code: appErr.Code.String(), Message: appErr.Message}
	if pe, ok := domain.AsParseError(err); ok && pe.Offset >= 0 {
		off := pe.Offset
		ie.Offset = &off
	}
	return ie
}

// ─────────────────────────────────────────────────────────────────────────────
// Cache administration
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) InvalidateCache(ctx context.Context) (int64, error) {
	if s.cache == nil {
		return 0, errors.New(errors.CodeNotImplemented, "summary cache is disabled")
	}
	n, err := s.cache.DeleteByPrefix(ctx, cacheKeyPrefix)
	if err != nil {
		return n, err
	}
	s.logger.WithContext(ctx).Info("summary cache invalidated", logging.Int64("deleted", n))
	return n, nil
}

func (s *serviceImpl) Ready(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Ping(ctx)
}
