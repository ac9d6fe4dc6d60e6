// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var usage = `usage: korucli <command> [flags]

commands:
  devices   print the Vulkan physical devices as JSON
  generate  generate a world into an octree file
  info      print the type census of an octree file
  convert   rewrite an octree file, compression follows the extension
`

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2:], os.Stdout, logger); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func run(command string, args []string, out io.Writer, logger logrus.FieldLogger) error {
	switch command {
	case "devices":
		fs := flag.NewFlagSet("devices", flag.ContinueOnError)
		validation := fs.Bool("vkdbg", false, "Load Vulkan validation layers")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return devices(out, *validation)
	case "generate":
		fs := flag.NewFlagSet("generate", flag.ContinueOnError)
		opts := generateOptions{}
		fs.StringVar(&opts.Generator, "generator", "random", "random or perlin")
		fs.IntVar(&opts.Depth, "depth", 2, "Maximum subdivision depth")
		fs.Int64Var(&opts.Seed, "seed", 1, "Generator seed")
		fs.Float64Var(&opts.Size, "size", 2, "World size")
		fs.StringVar(&opts.Output, "o", "world.oct", "Destination file, .lz4 or .zst compress")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return generate(opts, logger)
	case "info":
		fs := flag.NewFlagSet("info", flag.ContinueOnError)
		size := fs.Float64("size", 2, "World size")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("info needs exactly one file")
		}
		return info(out, fs.Arg(0), float32(*size))
	case "convert":
		fs := flag.NewFlagSet("convert", flag.ContinueOnError)
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 2 {
			return fmt.Errorf("convert needs a source and a destination")
		}
		return convert(fs.Arg(0), fs.Arg(1), logger)
	}
	return fmt.Errorf("unknown command %q", command)
}
