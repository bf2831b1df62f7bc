package extract

import (
	"go.uber.org/zap"

	"github.com/bindcraft/winmd-gen/cdecl"
	"github.com/bindcraft/winmd-gen/layout"
	"github.com/bindcraft/winmd-gen/model"
	"github.com/bindcraft/winmd-gen/registry"
)

// Target names the partition being extracted.
type Target struct {
	Namespace string
	Library   string
	Scope     *Scope
}

// Diagnostic records a declaration that was skipped because the output
// format cannot represent it.
type Diagnostic struct {
	Partition string
	Construct string // "function", "macro", "typedef", ...
	Name      string
	Detail    string
}

// Extractor builds model partitions from parsed-declaration streams,
// registering every extracted type name as it goes.
type Extractor struct {
	reg       *registry.Registry
	overrides map[string]string
}

// New creates an extractor that registers names into reg.
func New(reg *registry.Registry) *Extractor {
	return &Extractor{reg: reg}
}

// SetNamespaceOverrides redirects the registry namespace of individual
// type names away from their extracting partition's. References then
// resolve to the override namespace and the extracting partition's own
// copy is stripped by the dedup pass.
func (x *Extractor) SetNamespaceOverrides(overrides map[string]string) {
	x.overrides = overrides
}

// Partition extracts every in-scope declaration of tu into a model
// partition. It never fails; unrepresentable declarations are returned
// as diagnostics.
func (x *Extractor) Partition(tu *cdecl.TranslationUnit, t Target) (*model.Partition, []Diagnostic) {
	log := Logger()
	w := &walker{
		extractor: x,
		target:    t,
		seen:      make(map[string]struct{}),
		log:       log,
	}

	p := &model.Partition{Namespace: t.Namespace, Library: t.Library}

	w.collectStructs(tu, p)
	w.collectEnums(tu, p)
	w.collectFunctions(tu, p)
	w.collectTypedefs(tu, p)
	w.collectConstants(tu, p)

	x.fillLayouts(p)

	log.Info("partition extraction complete",
		zap.String("namespace", t.Namespace),
		zap.Int("structs", len(p.Structs)),
		zap.Int("enums", len(p.Enums)),
		zap.Int("functions", len(p.Functions)),
		zap.Int("typedefs", len(p.Typedefs)),
		zap.Int("delegates", len(p.Delegates)),
		zap.Int("constants", len(p.Constants)))

	return p, w.diags
}

// fillLayouts computes size/align for records the front-end did not
// size, resolving named references against the partition itself.
func (x *Extractor) fillLayouts(p *model.Partition) {
	byName := make(map[string]*model.StructDef, len(p.Structs))
	for i := range p.Structs {
		byName[p.Structs[i].Name] = &p.Structs[i]
	}
	calc := layout.NewCalculator(func(name string) (*model.StructDef, bool) {
		s, ok := byName[name]
		return s, ok
	})
	for i := range p.Structs {
		s := &p.Structs[i]
		if s.Size != 0 && s.Align != 0 {
			continue
		}
		info := calc.Struct(s)
		s.Size = info.Size
		s.Align = info.Align
	}
}

// walker carries per-partition extraction state.
type walker struct {
	extractor *Extractor
	target    Target
	seen      map[string]struct{} // type and function names already taken
	diags     []Diagnostic
	log       *zap.Logger
}

func (w *walker) skip(construct, name, detail string) {
	w.diags = append(w.diags, Diagnostic{
		Partition: w.target.Namespace,
		Construct: construct,
		Name:      name,
		Detail:    detail,
	})
	w.log.Warn("skipping declaration",
		zap.String("construct", construct),
		zap.String("name", name),
		zap.String("detail", detail))
}

// register claims a type name for this partition, or for the override
// namespace when the manifest redirects the name. A false result means
// an earlier partition (or a seeded external file) owns the name; the
// local definition is still extracted and the dedup pass strips it.
func (w *walker) register(name string) {
	ns := w.target.Namespace
	if o, ok := w.extractor.overrides[name]; ok {
		ns = o
	}
	if !w.extractor.reg.Register(name, ns) {
		owner, _ := w.extractor.reg.Resolve(name)
		w.log.Debug("name already registered",
			zap.String("name", name),
			zap.String("owner", owner))
	}
}
