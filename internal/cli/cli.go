package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Inflate *InflateCommand
	Get     *GetCommand
	Series  *SeriesCommand
	Areas   *AreasCommand
	Items   *ItemsCommand
	Search  *SearchCommand
	Status  *StatusCommand
	Update  *UpdateCommand
	Import  *ImportCommand
	Serve   *ServeCommand
	Prune   *PruneCommand
	Purge   *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "cpi"
	parser.LongDescription = "Adjust amounts for inflation with the BLS Consumer Price Index."

	cmds := &commands{
		Inflate: &InflateCommand{globals: &globals, version: version},
		Get:     &GetCommand{globals: &globals, version: version},
		Series:  &SeriesCommand{globals: &globals, version: version},
		Areas:   &AreasCommand{globals: &globals, version: version},
		Items:   &ItemsCommand{globals: &globals, version: version},
		Search:  &SearchCommand{globals: &globals, version: version},
		Status:  &StatusCommand{globals: &globals, version: version},
		Update:  &UpdateCommand{globals: &globals, version: version},
		Import:  &ImportCommand{globals: &globals, version: version},
		Serve:   &ServeCommand{globals: &globals, version: version},
		Prune:   &PruneCommand{globals: &globals, version: version},
		Purge:   &PurgeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("inflate", "Adjust an amount for inflation", "Adjust VALUE from the price level of PERIOD to the price level of --to (default: latest).", cmds.Inflate)
	parser.AddCommand("get", "Print the index value for a period", "Print the CPI value of the selected series for PERIOD (a year like 1950 or a date like 1950-01-01).", cmds.Get)
	parser.AddCommand("series", "Show the selected series", "Resolve the series filters and show the series descriptor.", cmds.Series)
	parser.AddCommand("areas", "List areas", "List every area in the dataset.", cmds.Areas)
	parser.AddCommand("items", "List items", "List every item in the dataset.", cmds.Items)
	parser.AddCommand("search", "Search series titles", "Search stored series by title keywords, with optional filters.", cmds.Search)
	parser.AddCommand("status", "Show dataset statistics", "Show dataset statistics, the last refresh, and a configuration summary.", cmds.Status)
	parser.AddCommand("update", "Download the dataset", "Download the CPI-U dataset from the BLS and replace the stored copy.", cmds.Update)
	parser.AddCommand("import", "Import the dataset from a directory", "Load the CPI-U dataset from a directory of BLS files and replace the stored copy.", cmds.Import)
	parser.AddCommand("serve", "Start the HTTP API", "Start the local HTTP API serving the stored dataset.", cmds.Serve)
	parser.AddCommand("prune", "Trim the refresh log", "Delete refresh log entries older than the retention period.", cmds.Prune)
	parser.AddCommand("purge", "Delete ALL stored data", "Delete the stored dataset and refresh log. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the cpi CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("cpi %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
