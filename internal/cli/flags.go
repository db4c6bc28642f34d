package cli

import (
	"database/sql"

	"github.com/runnerr0/cpi/internal/cpi"
)

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	DBPath  string `long:"db-path" description:"Override the dataset database path"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// SeriesFlags selects a series. Empty fields fall back to the configured
// defaults; --series-id wins over everything else.
type SeriesFlags struct {
	SeriesID    string `long:"series-id" description:"BLS series id (e.g., CUUR0000SA0)"`
	Survey      string `long:"survey" description:"Survey code or name"`
	Area        string `long:"area" description:"Area code or name (e.g., S49A)"`
	Items       string `long:"items" description:"Item code or name (e.g., SA0E, Energy)"`
	Periodicity string `long:"periodicity" description:"monthly | annual"`
}

func (f SeriesFlags) filter() cpi.Filter {
	return cpi.Filter{
		SeriesID:    f.SeriesID,
		Survey:      f.Survey,
		Area:        f.Area,
		Item:        f.Items,
		Periodicity: f.Periodicity,
	}
}

// InflateCommand adjusts an amount between two periods.
type InflateCommand struct {
	To     string `long:"to" description:"Target period (default: latest available)"`
	Places int    `long:"places" description:"Round to N decimal places using decimal arithmetic" default:"-1"`

	SeriesFlags `group:"Series Options"`

	Args struct {
		Value  string `positional-arg-name:"VALUE"`
		Period string `positional-arg-name:"PERIOD"`
	} `positional-args:"yes" required:"yes"`

	globals *GlobalFlags
	version string
}

// GetCommand prints the index value for one period.
type GetCommand struct {
	SeriesFlags `group:"Series Options"`

	Args struct {
		Period string `positional-arg-name:"PERIOD"`
	} `positional-args:"yes" required:"yes"`

	globals *GlobalFlags
	version string
}

// SeriesCommand resolves a series and prints its descriptor.
type SeriesCommand struct {
	Observations bool `long:"observations" description:"Also list every observation"`

	SeriesFlags `group:"Series Options"`

	globals *GlobalFlags
	version string
}

// AreasCommand lists the areas of the dataset.
type AreasCommand struct {
	globals *GlobalFlags
	version string
}

// ItemsCommand lists the items of the dataset.
type ItemsCommand struct {
	globals *GlobalFlags
	version string
}

// SearchCommand searches stored series titles.
type SearchCommand struct {
	Area        string `long:"area" description:"Filter by area code"`
	Items       string `long:"items" description:"Filter by item code"`
	Periodicity string `long:"periodicity" description:"Filter by BLS periodicity code (R or S)"`
	Limit       int    `long:"limit" description:"Maximum results" default:"10"`
	Offset      int    `long:"offset" description:"Skip first N results" default:"0"`

	globals *GlobalFlags
	version string
}

// StatusCommand shows dataset statistics, the last refresh and config.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// UpdateCommand downloads the dataset from the BLS and stores it.
type UpdateCommand struct {
	BaseURL string `long:"base-url" description:"Override the download URL"`
	Workers int    `long:"workers" description:"Data files downloaded concurrently"`

	globals *GlobalFlags
	version string
}

// ImportCommand loads the dataset from a directory of BLS files.
type ImportCommand struct {
	Args struct {
		Dir string `positional-arg-name:"DIR"`
	} `positional-args:"yes" required:"yes"`

	globals *GlobalFlags
	version string
}

// ServeCommand starts the local HTTP API.
type ServeCommand struct {
	Host     string `long:"host" description:"Override listen host"`
	Port     int    `long:"port" description:"Override listen port"`
	LogLevel string `long:"log-level" description:"Override log level"`

	globals *GlobalFlags
	version string
}

// PruneCommand trims the refresh log.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Override retention period (e.g., 90d)"`
	DryRun    bool   `long:"dry-run" description:"Show what would be pruned without deleting"`

	globals *GlobalFlags
	version string
}

// PurgeCommand deletes the stored dataset with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	db      *sql.DB // injectable for testing; nil means open the configured DB
}
