package cli

import (
	"fmt"

	"github.com/runnerr0/cpi/internal/cpi"
)

type getJSON struct {
	SeriesID string  `json:"series_id"`
	Period   string  `json:"period"`
	Value    float64 `json:"value"`
}

// Execute implements the go-flags Commander interface for GetCommand.
func (c *GetCommand) Execute(args []string) error {
	svc, err := openService(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithService(svc)
}

// executeWithService looks up the value against a provided service (for testing).
func (c *GetCommand) executeWithService(svc *cpi.Service) error {
	period, err := parsePeriodArg("period", c.Args.Period)
	if err != nil {
		return err
	}

	series, err := svc.ResolveSeries(c.SeriesFlags.filter())
	if err != nil {
		return err
	}
	v, err := svc.Get(period, cpi.Filter{SeriesID: series.ID})
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(getJSON{SeriesID: series.ID, Period: period.String(), Value: v})
	}
	fmt.Println(formatValue(v))
	return nil
}
