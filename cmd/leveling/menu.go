package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

type MenuCommand struct {
	Platform string `long:"platform" default:"tripod" description:"Preselected platform variant"`
}

func (c *MenuCommand) Execute(args []string) error {
	platform := c.Platform

	fmt.Println(headerStyle.Render("Platform Leveling"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━"))
	fmt.Println()

	for {
		var choice string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Select an option").
					Description(fmt.Sprintf("Current platform: %s", platform)).
					Options(
						huh.NewOption("Launch visualizer", "visualize"),
						huh.NewOption("Launch leveling shell", "run"),
						huh.NewOption("Compare platform variants", "compare"),
						huh.NewOption("Change platform type", "platform"),
						huh.NewOption("Quit", "quit"),
					).
					Value(&choice),
			),
		)
		if err := form.Run(); err != nil {
			fmt.Println()
			return nil
		}

		switch choice {
		case "visualize":
			cmd := VisualizeCommand{Platform: platform, Hz: 30, Step: 1}
			runAction(cmd.Execute, "launching the visualizer")
		case "run":
			cmd := RunCommand{Platform: platform}
			runAction(cmd.Execute, "starting the leveling shell")
		case "compare":
			cmd := CompareCommand{}
			runAction(cmd.Execute, "running the comparison")
		case "platform":
			platform = promptPlatform(platform)
		case "quit":
			fmt.Println("\nGoodbye!")
			return nil
		}
	}
}

// runAction shields the menu loop from a failing subcommand.
func runAction(action func([]string) error, doing string) {
	if err := action(nil); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Error while %s: %v", doing, err)))
		fmt.Println()
	}
}

func promptPlatform(current string) string {
	var options []huh.Option[string]
	for _, name := range platformNames() {
		options = append(options, huh.NewOption(name, name))
	}

	choice := current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Platform type").
				Description(fmt.Sprintf("Current: %s", current)).
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return current
	}
	return choice
}
