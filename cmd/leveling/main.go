package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Menu      MenuCommand      `command:"menu" description:"Open the guided text menu (default)"`
	Visualize VisualizeCommand `command:"visualize" alias:"vis" description:"Live platform visualizer"`
	Run       RunCommand       `command:"run" description:"Interactive leveling shell (IMU + actuators)"`
	Compare   CompareCommand   `command:"compare" description:"Compare all platform variants over a set of tilts"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "Platform leveling simulator for tripod and Stewart platform rigs"
	parser.SubcommandsOptional = true

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	// No subcommand behaves like cmd "menu".
	if parser.Active == nil {
		menu := MenuCommand{}
		if err := menu.Execute(nil); err != nil {
			os.Exit(1)
		}
	}
}
