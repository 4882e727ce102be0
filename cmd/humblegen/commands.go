package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/broady/humble/humblegen"
	"github.com/broady/humble/humblegen/contract"
	"github.com/broady/humble/humblegen/openapi"
	"github.com/broady/humble/humblegen/sink"
)

type VersionCmd struct{}

func (c *VersionCmd) Run(s *streams) error {
	fmt.Fprintln(s.Stdout, Version())
	return nil
}

type CheckCmd struct {
	Files []string `arg:"" help:"Schema files to compile." name:"file"`
}

func (c *CheckCmd) Run(s *streams) error {
	var failed int
	for _, f := range c.Files {
		ct, err := compile(f)
		if err != nil {
			fmt.Fprintf(s.Stderr, "✗ %v\n", err)
			failed++
			continue
		}
		var routes int
		for _, svc := range ct.Services {
			routes += len(svc.Routes)
		}
		types := len(ct.Spec.Structs()) + len(ct.Spec.Enums())
		fmt.Fprintf(s.Stdout, "✓ %s: %d services, %d routes, %d types\n", f, len(ct.Services), routes, types)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to compile", failed, len(c.Files))
	}
	return nil
}

type RoutesCmd struct {
	File    string `arg:"" help:"Schema file, or - for stdin."`
	Service string `help:"Only list routes of this service." short:"s"`
}

func (c *RoutesCmd) Run(s *streams) error {
	ct, err := compile(c.File)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(s.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tROUTE\tMETHOD\tPATH\tPATTERN")
	found := c.Service == ""
	for _, svc := range ct.Services {
		if c.Service != "" && svc.Name != c.Service {
			continue
		}
		found = true
		for _, r := range svc.Routes {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", svc.Name, r.Name, r.Method, r.Path, r.Pattern)
		}
	}
	if !found {
		return fmt.Errorf("%s has no service %q", c.File, c.Service)
	}
	return tw.Flush()
}

// Output is shared by the commands that write a document.
type Output struct {
	Format string `help:"Output format." enum:"json,yaml" default:"json" short:"f" env:"HUMBLEGEN_FORMAT"`
	Out    string `help:"Output file, or - for stdout." default:"-" short:"o" env:"HUMBLEGEN_OUT"`
	Force  bool   `help:"Replace an existing output file." default:"true" negatable:""`
}

func (o *Output) write(ctx context.Context, s *streams, data []byte) error {
	if o.Out == "-" || o.Out == "" {
		return (&sink.Writer{W: s.Stdout}).WriteFile(ctx, "-", data)
	}
	fs := sink.NewFilesystem(filepath.Dir(o.Out))
	fs.Overwrite = o.Force
	return fs.WriteFile(ctx, filepath.Base(o.Out), data)
}

type ContractCmd struct {
	File   string `arg:"" help:"Schema file, or - for stdin."`
	Output `embed:""`
}

func (c *ContractCmd) Run(s *streams) error {
	ct, err := compile(c.File)
	if err != nil {
		return err
	}
	doc := ct.Document()
	var data []byte
	switch c.Format {
	case "yaml":
		data, err = doc.YAML()
	default:
		data, err = doc.JSON()
	}
	if err != nil {
		return fmt.Errorf("encoding contract: %w", err)
	}
	return c.write(context.Background(), s, data)
}

type OpenAPICmd struct {
	File       string            `arg:"" help:"Schema file, or - for stdin."`
	Title      string            `help:"Document title." default:"humble API"`
	APIVersion string            `help:"Document version." default:"0.0.0" name:"api-version"`
	Mount      map[string]string `help:"Prefix a service is mounted under." placeholder:"SERVICE=PREFIX" short:"m"`
	Output     `embed:""`
}

func (c *OpenAPICmd) Run(s *streams) error {
	ct, err := compile(c.File)
	if err != nil {
		return err
	}
	doc, err := openapi.Build(ct, openapi.Options{Title: c.Title, Version: c.APIVersion, Mounts: c.Mount})
	if err != nil {
		return err
	}
	var data []byte
	switch c.Format {
	case "yaml":
		data, err = openapi.YAML(doc)
	default:
		data, err = openapi.JSON(doc)
	}
	if err != nil {
		return fmt.Errorf("encoding openapi: %w", err)
	}
	return c.write(context.Background(), s, data)
}

func compile(path string) (*contract.Contract, error) {
	if path == "-" {
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return humblegen.Compile("<stdin>", src)
	}
	return humblegen.CompileFile(path)
}
