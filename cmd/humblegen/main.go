package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
)

type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Print version information."`
	Check    CheckCmd    `cmd:"" help:"Compile schema files and report errors without writing output."`
	Routes   RoutesCmd   `cmd:"" help:"List the compiled routes of a schema."`
	Contract ContractCmd `cmd:"" help:"Write the compiled wire contract as JSON or YAML."`
	OpenAPI  OpenAPICmd  `cmd:"" name:"openapi" help:"Write an OpenAPI 3.0 document for a schema."`
}

// streams are the command outputs, bound into every Run method.
type streams struct {
	Stdout io.Writer
	Stderr io.Writer
}

func newParser(cli *CLI, s *streams, opts ...kong.Option) (*kong.Kong, error) {
	opts = append([]kong.Option{
		kong.Name("humblegen"),
		kong.Description("Compiler for humble schema files."),
		kong.UsageOnError(),
		kong.Writers(s.Stdout, s.Stderr),
		kong.Bind(s),
	}, opts...)
	return kong.New(cli, opts...)
}

func main() {
	cli := &CLI{}
	s := &streams{Stdout: os.Stdout, Stderr: os.Stderr}
	parser, err := newParser(cli, s)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}
