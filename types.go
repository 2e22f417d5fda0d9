package opts

import (
	"strings"
	"time"

	"github.com/goliatone/go-wsoptions/pkg/activity"
)

// DefaultDebounce is the quiet period after the last Set before buffered
// writes are flushed.
const DefaultDebounce = 300 * time.Millisecond

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

const (
	// SchemaFormatDescriptors represents the flattened option descriptors.
	SchemaFormatDescriptors SchemaFormat = "descriptors"
	// SchemaFormatOpenAPI represents OpenAPI-compatible JSON Schema documents.
	SchemaFormatOpenAPI SchemaFormat = "openapi"
)

// SchemaDocument encapsulates a generated schema output alongside its format
// identifier. Implementations must ensure Document is JSON-serialisable.
type SchemaDocument struct {
	Format   SchemaFormat
	Document any
}

// SchemaGenerator transforms a catalog into a schema document. All
// implementations MUST be safe for concurrent use and handle a nil catalog by
// returning an empty schema document.
type SchemaGenerator interface {
	Generate(catalog *Catalog) (SchemaDocument, error)
}

// RuleContext carries inputs needed when evaluating an expression.
type RuleContext struct {
	Snapshot map[string]any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Option   string // option whose expression is evaluated
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	return *ctx.withDefaults().Now
}

func (ctx RuleContext) optionLabel() string {
	if ctx.Option != "" {
		return ctx.Option
	}
	return "unknown"
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	debounce      time.Duration
	scheduler     Scheduler
	evaluator     Evaluator
	engine        string
	programCache  ProgramCache
	functions     *FunctionRegistry
	logger        Logger
	activityHooks activity.Hooks
	channel       string
}

func (cfg storeConfig) engineLabel() string {
	if cfg.evaluator != nil {
		return "custom"
	}
	if cfg.engine == "" {
		return EngineExpr
	}
	return cfg.engine
}

func applyOptions(opts []Option) storeConfig {
	cfg := storeConfig{
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.scheduler == nil {
		cfg.scheduler = realScheduler{}
	}
	if cfg.logger == nil {
		cfg.logger = noopLogger{}
	}
	return cfg
}

// WithDebounce overrides the quiet period before a flush. Non-positive values
// keep DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(cfg *storeConfig) {
		if d > 0 {
			cfg.debounce = d
		}
	}
}

// WithEvaluator configures the evaluator used for EnabledWhen expressions.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *storeConfig) {
		cfg.evaluator = e
	}
}

// WithActivityHooks attaches hooks notified after flushes and profile or
// preset operations. Nil hooks are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := make(activity.Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			normalized = append(normalized, hook)
		}
	}
	return func(cfg *storeConfig) {
		cfg.activityHooks = append(cfg.activityHooks, normalized...)
	}
}

// WithActivityChannel sets the channel stamped on activity events.
func WithActivityChannel(channel string) Option {
	return func(cfg *storeConfig) {
		cfg.channel = strings.TrimSpace(channel)
	}
}
