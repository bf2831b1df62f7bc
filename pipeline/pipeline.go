package pipeline

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/bindcraft/winmd-gen/cdecl"
	"github.com/bindcraft/winmd-gen/config"
	xerrors "github.com/bindcraft/winmd-gen/errors"
	"github.com/bindcraft/winmd-gen/extract"
	"github.com/bindcraft/winmd-gen/model"
	"github.com/bindcraft/winmd-gen/registry"
	"github.com/bindcraft/winmd-gen/winmd"
)

// Result is the outcome of one generation run. Bytes always holds a
// structurally valid metadata file; Unresolved lists partitions that
// were withheld from it.
type Result struct {
	Bytes       []byte
	Partitions  []*model.Partition
	Diagnostics []extract.Diagnostic
	Unresolved  []*xerrors.UnresolvedError
}

// Run executes the full pipeline for one manifest: seed the registry
// from type imports, parse and extract every partition in configured
// order, drop duplicate definitions, then emit.
//
// Seeding runs strictly before extraction so imported names win the
// first-writer-wins race against local redefinitions.
func Run(ctx context.Context, parser cdecl.Parser, cfg *config.Config) (*Result, error) {
	log := Logger()
	reg := registry.New()
	reg.SetLogger(log)

	for i := range cfg.TypeImports {
		if err := seedImport(reg, &cfg.TypeImports[i]); err != nil {
			return nil, err
		}
	}

	session, err := cdecl.NewSession(parser)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	ext := extract.New(reg)
	ext.SetNamespaceOverrides(cfg.NamespaceOverrides)
	res := &Result{}
	for i := range cfg.Partitions {
		pc := &cfg.Partitions[i]
		part, diags, err := extractPartition(ctx, session, ext, cfg, pc)
		if err != nil {
			return nil, err
		}
		res.Partitions = append(res.Partitions, part)
		res.Diagnostics = append(res.Diagnostics, diags...)
	}

	dedup(res.Partitions, reg, log)

	em := winmd.NewEmitter(cfg.Output.Assembly, reg)
	unresolved, err := em.Emit(res.Partitions)
	if err != nil {
		return nil, err
	}
	res.Unresolved = unresolved
	res.Bytes = em.Bytes()

	log.Info("generation complete",
		zap.String("assembly", cfg.Output.Assembly),
		zap.Int("partitions", len(res.Partitions)),
		zap.Int("withheld", len(unresolved)),
		zap.Int("bytes", len(res.Bytes)))
	return res, nil
}

// Generate runs the pipeline and writes the output file named by the
// manifest.
func Generate(ctx context.Context, parser cdecl.Parser, cfg *config.Config) (*Result, error) {
	res, err := Run(ctx, parser, cfg)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(cfg.Output.File, res.Bytes, 0o644); err != nil {
		return res, xerrors.IO(xerrors.PhaseEmit, "cannot write "+cfg.Output.File, err)
	}
	return res, nil
}

func seedImport(reg *registry.Registry, imp *config.TypeImport) error {
	data, err := os.ReadFile(imp.File)
	if err != nil {
		return xerrors.IO(xerrors.PhaseSeed, "cannot read type import "+imp.File, err)
	}
	rd, err := winmd.NewReader(data)
	if err != nil {
		return err
	}
	rows := rd.Types()
	types := make([]registry.SeededType, 0, len(rows))
	for _, t := range rows {
		types = append(types, registry.SeededType{Namespace: t.Namespace, Name: t.Name})
	}
	reg.Seed(types, imp.Namespace, rd.Assembly())
	return nil
}

func extractPartition(ctx context.Context, session *cdecl.Session, ext *extract.Extractor, cfg *config.Config, pc *config.Partition) (*model.Partition, []extract.Diagnostic, error) {
	headers := make([]string, 0, len(pc.Headers))
	for _, h := range pc.Headers {
		resolved, err := cfg.ResolveHeader(h)
		if err != nil {
			return nil, nil, err
		}
		headers = append(headers, resolved)
	}

	tu, err := session.Parse(ctx, headers, cfg.CompilerFlags(pc))
	if err != nil {
		return nil, nil, xerrors.Wrap(xerrors.PhaseParse, xerrors.KindInvalidData, err,
			"front-end failed for partition "+pc.Namespace)
	}

	part, diags := ext.Partition(tu, extract.Target{
		Namespace: pc.Namespace,
		Library:   pc.Library,
		Scope:     extract.NewScope(pc.Traverse),
	})
	return part, diags, nil
}

// dedup strips definitions whose name is owned by an earlier partition
// or a seeded import. The same system header pulled into two partitions
// yields the same structs in both; only the first writer keeps them.
func dedup(parts []*model.Partition, reg *registry.Registry, log *zap.Logger) {
	for _, p := range parts {
		owns := func(name string) bool {
			e, ok := reg.Lookup(name)
			return !ok || (!e.External && e.Namespace == p.Namespace)
		}
		p.Structs = filterOwned(p.Structs, func(d *model.StructDef) string { return d.Name }, owns, log, "struct", p.Namespace)
		p.Enums = filterOwned(p.Enums, func(d *model.EnumDef) string { return d.Name }, owns, log, "enum", p.Namespace)
		p.Typedefs = filterOwned(p.Typedefs, func(d *model.TypedefDef) string { return d.Name }, owns, log, "typedef", p.Namespace)
		p.Delegates = filterOwned(p.Delegates, func(d *model.DelegateDef) string { return d.Name }, owns, log, "delegate", p.Namespace)
	}
}

func filterOwned[T any](defs []T, nameOf func(*T) string, owns func(string) bool, log *zap.Logger, construct, ns string) []T {
	out := defs[:0]
	for i := range defs {
		name := nameOf(&defs[i])
		if owns(name) {
			out = append(out, defs[i])
			continue
		}
		log.Debug("dropping duplicate definition",
			zap.String("construct", construct),
			zap.String("name", name),
			zap.String("namespace", ns))
	}
	return out
}
