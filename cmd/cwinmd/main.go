package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/bindcraft/winmd-gen/cdecl"
	"github.com/bindcraft/winmd-gen/config"
	"github.com/bindcraft/winmd-gen/extract"
	"github.com/bindcraft/winmd-gen/pipeline"
	"github.com/bindcraft/winmd-gen/winmd"
)

func main() {
	var (
		gen         = flag.String("gen", "", "Generate metadata from a TOML manifest")
		frontend    = flag.String("frontend", "cdump", "Declaration dumper executable for -gen")
		file        = flag.String("file", "", "Path to metadata (.winmd) file")
		typeName    = flag.String("type", "", "Show a single type definition")
		list        = flag.Bool("list", false, "List every type definition")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *verbose {
		if log, err := zap.NewDevelopment(); err == nil {
			winmd.SetLogger(log)
			extract.SetLogger(log)
			pipeline.SetLogger(log)
		}
	}

	if *gen != "" {
		if err := generate(*gen, *frontend); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Usage: cwinmd -gen <manifest.toml> [-frontend cmd]")
		fmt.Fprintln(os.Stderr, "       cwinmd -file <file.winmd> [-list] [-type name]")
		fmt.Fprintln(os.Stderr, "       cwinmd -file <file.winmd> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(*file); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*file, *typeName, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func generate(manifest, frontend string) error {
	cfg, err := config.Load(manifest)
	if err != nil {
		return err
	}
	parser := &cdecl.CommandParser{Path: frontend}
	res, err := pipeline.Generate(context.Background(), parser, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %s (%d bytes, %d partitions)\n",
		cfg.Output.File, len(res.Bytes), len(res.Partitions))
	for _, d := range res.Diagnostics {
		fmt.Fprintf(os.Stderr, "warning: %s: skipped %s %q: %s\n",
			d.Partition, d.Construct, d.Name, d.Detail)
	}
	if len(res.Unresolved) > 0 {
		for _, ue := range res.Unresolved {
			fmt.Fprintln(os.Stderr, ue.Error())
		}
		return fmt.Errorf("%d partition(s) withheld from the output", len(res.Unresolved))
	}
	return nil
}

func run(file, typeName string, listOnly bool) error {
	rd, types, err := load(file)
	if err != nil {
		return err
	}

	fmt.Printf("Assembly: %s\n", rd.Assembly())
	fmt.Printf("Types: %d\n", len(types))

	if typeName != "" {
		for i := range types {
			if types[i].Name == typeName {
				fmt.Println()
				printType(&types[i])
				return nil
			}
		}
		return fmt.Errorf("type %q not found in %s", typeName, file)
	}

	if listOnly {
		fmt.Println()
		for i := range types {
			t := &types[i]
			fmt.Printf("  %-8s %s.%s (%d fields, %d methods)\n",
				t.Category(), t.Namespace, t.Name, len(t.Fields), len(t.Methods))
		}
		return nil
	}

	// Default view: per-namespace summary.
	counts := make(map[string]int)
	for i := range types {
		counts[types[i].Namespace]++
	}
	namespaces := make([]string, 0, len(counts))
	for ns := range counts {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	fmt.Println("\nNamespaces:")
	for _, ns := range namespaces {
		fmt.Printf("  %s (%d types)\n", ns, counts[ns])
	}
	return nil
}

// load reads a metadata file and returns its visible types, dropping
// the <Module> pseudo-definition.
func load(file string) (*winmd.Reader, []winmd.TypeRow, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, nil, fmt.Errorf("read file: %w", err)
	}
	rd, err := winmd.NewReader(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode: %w", err)
	}
	var types []winmd.TypeRow
	for _, t := range rd.Types() {
		if t.Name == "<Module>" {
			continue
		}
		types = append(types, t)
	}
	return rd, types, nil
}

func printType(t *winmd.TypeRow) {
	fmt.Printf("%s %s.%s\n", t.Category(), t.Namespace, t.Name)
	if len(t.Fields) > 0 {
		fmt.Println("  fields:")
		for _, f := range t.Fields {
			fmt.Printf("    %s\n", f)
		}
	}
	if len(t.Methods) > 0 {
		fmt.Println("  methods:")
		for _, m := range t.Methods {
			fmt.Printf("    %s\n", m)
		}
	}
}
