package cli

import (
	"strings"
	"testing"

	goflags "github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionFlag(t *testing.T) {
	output := captureOutput(t, func() {
		err := RunWithArgs("0.1.0-test", []string{"--version"})
		assert.NoError(t, err)
	})

	assert.Contains(t, output, "cpi 0.1.0-test")
}

func TestVersionOutputFormat(t *testing.T) {
	output := captureOutput(t, func() {
		_ = RunWithArgs("1.2.3", []string{"--version"})
	})

	assert.Equal(t, "cpi 1.2.3", strings.TrimSpace(output))
}

// parseOnly parses args without executing the matched command.
func parseOnly(t *testing.T, args ...string) (*GlobalFlags, *commands, error) {
	t.Helper()
	p, globals, cmds := buildParser("test")
	p.CommandHandler = func(goflags.Commander, []string) error { return nil }
	_, err := p.ParseArgs(args)
	return globals, cmds, err
}

func TestInflateArgsParsed(t *testing.T) {
	_, c, err := parseOnly(t, "inflate", "100", "1950-01-11", "--to", "1960", "--area", "S49A", "--places", "2")
	require.NoError(t, err)

	assert.Equal(t, "100", c.Inflate.Args.Value)
	assert.Equal(t, "1950-01-11", c.Inflate.Args.Period)
	assert.Equal(t, "1960", c.Inflate.To)
	assert.Equal(t, "S49A", c.Inflate.Area)
	assert.Equal(t, 2, c.Inflate.Places)
}

func TestInflatePlacesDefault(t *testing.T) {
	_, c, err := parseOnly(t, "inflate", "100", "1950")
	require.NoError(t, err)
	assert.Equal(t, -1, c.Inflate.Places)
}

func TestGetArgsParsed(t *testing.T) {
	_, c, err := parseOnly(t, "get", "--series-id", "CUUR0000SA0", "1950")
	require.NoError(t, err)
	assert.Equal(t, "1950", c.Get.Args.Period)
	assert.Equal(t, "CUUR0000SA0", c.Get.SeriesID)
}

func TestSearchFlagsDefaults(t *testing.T) {
	_, c, err := parseOnly(t, "search", "los angeles")
	require.NoError(t, err)

	assert.Equal(t, 10, c.Search.Limit)
	assert.Equal(t, 0, c.Search.Offset)
}

func TestPruneDryRunAndOlderThanFlags(t *testing.T) {
	_, c, err := parseOnly(t, "prune", "--dry-run", "--older-than", "14d")
	require.NoError(t, err)
	assert.True(t, c.Prune.DryRun)
	assert.Equal(t, "14d", c.Prune.OlderThan)
}

func TestServeFlags(t *testing.T) {
	_, c, err := parseOnly(t, "serve", "--port", "9000", "--log-level", "debug")
	require.NoError(t, err)
	assert.Equal(t, 9000, c.Serve.Port)
	assert.Equal(t, "debug", c.Serve.LogLevel)
}

func TestGlobalFlagsParsed(t *testing.T) {
	g, _, err := parseOnly(t, "--json", "--verbose", "--config", "/tmp/test.yaml", "--db-path", "/tmp/cpi.db", "status")
	require.NoError(t, err)
	assert.True(t, g.JSON)
	assert.True(t, g.Verbose)
	assert.Equal(t, "/tmp/test.yaml", g.Config)
	assert.Equal(t, "/tmp/cpi.db", g.DBPath)
}

func TestUnknownSubcommandFails(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"nonexistent"})
	require.Error(t, err)
}

func TestAllSubcommandsExist(t *testing.T) {
	expected := []string{
		"inflate", "get", "series", "areas", "items", "search",
		"status", "update", "import", "serve", "prune", "purge",
	}
	parser, _, _ := buildParser("test")

	for _, name := range expected {
		cmd := parser.Find(name)
		assert.NotNil(t, cmd, "subcommand %q should exist", name)
	}
}

func TestHelpFlagDoesNotError(t *testing.T) {
	err := RunWithArgs("test", []string{"--help"})
	assert.NoError(t, err)
}

func TestInflateRequiresArguments(t *testing.T) {
	err := RunWithArgs("test", []string{"inflate", "100"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PERIOD")
}

func TestGetRequiresPeriod(t *testing.T) {
	err := RunWithArgs("test", []string{"get"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PERIOD")
}

func TestImportRequiresDir(t *testing.T) {
	err := RunWithArgs("test", []string{"import"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DIR")
}

func TestPurgeRequiresAll(t *testing.T) {
	err := RunWithArgs("test", []string{"purge"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "purge requires --all flag for safety")
}

func TestSeriesFlagsGroup(t *testing.T) {
	p, _, _ := buildParser("test")
	for _, name := range []string{"inflate", "get", "series"} {
		cmd := p.Find(name)
		require.NotNil(t, cmd, name)
		for _, flag := range []string{"series-id", "survey", "area", "items", "periodicity"} {
			assert.NotNil(t, cmd.FindOptionByLongName(flag), "%s --%s", name, flag)
		}
	}
}

func TestGlobalFlags(t *testing.T) {
	p, _, _ := buildParser("test")
	for _, flag := range []string{"config", "db-path", "json", "verbose", "version"} {
		assert.NotNil(t, p.FindOptionByLongName(flag), "--%s", flag)
	}
}

func TestSeriesFlags_Filter(t *testing.T) {
	f := SeriesFlags{
		SeriesID:    "CUUR0000SA0",
		Survey:      "CU",
		Area:        "S49A",
		Items:       "SA0E",
		Periodicity: "annual",
	}.filter()

	assert.Equal(t, "CUUR0000SA0", f.SeriesID)
	assert.Equal(t, "CU", f.Survey)
	assert.Equal(t, "S49A", f.Area)
	assert.Equal(t, "SA0E", f.Item)
	assert.Equal(t, "annual", f.Periodicity)
}
