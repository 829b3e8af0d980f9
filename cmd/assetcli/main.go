/*
Command assetcli is an interactive shell for asset descriptors. It loads
descriptor files into a catalog, lists the catalog, queries the parse tree
of the last descriptor loaded and builds font atlases.

	assetcli -trace Debug -descriptor gfx/sprites.xml

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chzyer/readline"
	"github.com/npillmayer/assetpipe/core/config"
	"github.com/npillmayer/assetpipe/engine/asset"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

// tracer traces with key 'assets.cli'
func tracer() tracing.Trace {
	return tracing.Select("assets.cli")
}

func main() {
	initDisplay()

	// command line flags
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	descriptorFile := flag.String("descriptor", "", "Descriptor to load")
	strict := flag.Bool("strict", false, "Treat descriptor problems as errors")
	growable := flag.Bool("grow", false, "Let registries grow beyond their capacity")
	flag.Parse()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":          "go",
		"trace.assets.cli":         *tlevel,
		"trace.assets.catalog":     *tlevel,
		"trace.assets.descriptor":  *tlevel,
		"trace.assets.markup":      "Error",
		"trace.assets.fonts":       *tlevel,
		"trace.assets.resources":   "Error",
		"assets.strict":            fmt.Sprintf("%v", *strict),
		"assets.registry.growable": fmt.Sprintf("%v", *growable),
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())
	pterm.Info.Println("Welcome to the asset CLI")
	tracer().Infof("Trace level is %s", *tlevel)
	//
	cat, err := asset.NewCatalog(config.From(conf))
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(2)
	}
	// set up REPL
	repl, err := readline.New("assets > ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	defer repl.Close()
	intp := NewIntp(cat, os.Stdout)
	intp.repl = repl
	//
	if *descriptorFile != "" {
		if err := intp.load(*descriptorFile); err != nil {
			tracer().Errorf(err.Error())
			os.Exit(4)
		}
	}
	//
	// start receiving commands
	pterm.Info.Println("Quit with <ctrl>D or 'quit'") // inform user how to stop the CLI
	intp.REPL()                                        // go into interactive mode
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}
