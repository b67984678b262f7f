// Command avrstack estimates the worst-case stack memory consumption of a
// compiled AVR program, combined with its static .data/.bss footprint,
// against a declared RAM budget (spec §1).
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v2"

	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/analyzer"
	"github.com/MrAnaKol/avr-static-stack-analyzer-Bakalaura-Darbs/internal/config"
)

func main() {
	os.Exit(doMain(os.Args, os.Stdout, os.Stderr))
}

// doMain is a testable entrypoint: stdout and stderr are passed in as
// io.Writer so tests can assert on output without touching the real streams.
func doMain(args []string, stdOut, stdErr io.Writer) int {
	app := newApp(stdOut, stdErr)
	if err := app.Run(args); err != nil {
		fmt.Fprintln(stdErr, "avrstack:", err)
		return exitFromErr(err)
	}
	return lastExitCode
}

// lastExitCode carries the analyze command's result exit code out of the
// cli.App's Action callback, which itself can only return an error.
var lastExitCode int

func newApp(stdOut, stdErr io.Writer) *cli.App {
	lastExitCode = 0
	return &cli.App{
		Name:      "avrstack",
		Usage:     "estimate worst-case stack and static memory use of an AVR binary",
		Writer:    stdOut,
		ErrWriter: stdErr,
		Commands: []*cli.Command{
			analyzeCommand(stdOut, stdErr),
		},
	}
}

func analyzeCommand(stdOut, stdErr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "run the stack-depth analysis over frame-size, disassembly and section-size listings",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a TOML configuration file"},
			&cli.StringFlag{Name: "mcu", Usage: "target MCU, used when --config is absent or to override its mcu"},
			&cli.StringSliceFlag{Name: "frame-size", Usage: "path to a *.su stack-usage listing (repeatable)", Required: true},
			&cli.StringFlag{Name: "disasm", Usage: "path to an objdump disassembly listing", Required: true},
			&cli.StringFlag{Name: "size", Usage: "path to a `size` section-size summary", Required: true},
			&cli.StringSliceFlag{Name: "entry", Usage: "additional root function name (repeatable)"},
			&cli.BoolFlag{Name: "json", Usage: "emit the report as JSON instead of a human summary"},
			&cli.StringFlag{Name: "dot", Usage: "write a Graphviz DOT rendering of the call graph to this path"},
		},
		Action: func(c *cli.Context) error {
			return runAnalyze(c, stdOut)
		},
	}
}

func runAnalyze(c *cli.Context, stdOut io.Writer) error {
	cfg, err := loadConfig(c)
	if err != nil {
		lastExitCode = 2
		return err
	}
	if err := cfg.Validate(); err != nil {
		lastExitCode = 2
		return err
	}

	frameFiles := c.StringSlice("frame-size")
	frameReaders, closeFrames, err := openAll(frameFiles)
	if err != nil {
		lastExitCode = 2
		return err
	}
	defer closeFrames()

	disasmFile, err := os.Open(c.String("disasm"))
	if err != nil {
		lastExitCode = 2
		return fmt.Errorf("opening disassembly listing: %w", err)
	}
	defer disasmFile.Close()

	sizeFile, err := os.Open(c.String("size"))
	if err != nil {
		lastExitCode = 2
		return fmt.Errorf("opening section-size summary: %w", err)
	}
	defer sizeFile.Close()

	in := analyzer.Inputs{
		FrameSize:    frameReaders,
		Disasm:       disasmFile,
		SectionSizes: sizeFile,
	}

	rep, graph, _, err := analyzer.RunGraph(in, cfg)
	if err != nil {
		lastExitCode = 2
		return err
	}

	if dotPath := c.String("dot"); dotPath != "" && graph != nil {
		if err := os.WriteFile(dotPath, []byte(graph.DOT()), 0o644); err != nil {
			lastExitCode = 2
			return fmt.Errorf("writing dot file %s: %w", dotPath, err)
		}
	}

	if c.Bool("json") {
		if err := rep.WriteJSON(stdOut); err != nil {
			lastExitCode = 2
			return err
		}
	} else if err := rep.WriteHuman(stdOut); err != nil {
		lastExitCode = 2
		return err
	}

	lastExitCode = rep.ExitCode()
	return nil
}

// loadConfig builds a Config from --config (TOML, decoded via mapstructure)
// or, absent that, straight from --mcu and --entry flags (spec §6 item 4).
func loadConfig(c *cli.Context) (config.Config, error) {
	if path := c.String("config"); path != "" {
		raw := make(map[string]any)
		if _, err := toml.DecodeFile(path, &raw); err != nil {
			return config.Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		cfg, err := config.Decode(raw)
		if err != nil {
			return config.Config{}, err
		}
		if entries := c.StringSlice("entry"); len(entries) > 0 {
			cfg.EntryPoints = append(cfg.EntryPoints, entries...)
		}
		if mcu := c.String("mcu"); mcu != "" {
			cfg.MCU = mcu
		}
		return cfg, nil
	}

	cfg := config.Default(c.String("mcu"))
	cfg.EntryPoints = c.StringSlice("entry")
	return cfg, nil
}

func openAll(paths []string) ([]io.Reader, func(), error) {
	readers := make([]io.Reader, 0, len(paths))
	files := make([]*os.File, 0, len(paths))
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("opening frame-size listing %s: %w", p, err)
		}
		files = append(files, f)
		readers = append(readers, f)
	}
	return readers, closeAll, nil
}

func exitFromErr(err error) int {
	if lastExitCode != 0 {
		return lastExitCode
	}
	return 2
}
