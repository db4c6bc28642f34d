package cli

import (
	"fmt"

	"github.com/runnerr0/cpi/internal/cpi"
)

type observationJSON struct {
	Period string  `json:"period"`
	Code   string  `json:"code"`
	Value  float64 `json:"value"`
}

type seriesJSON struct {
	cpi.Info
	Observations   []observationJSON `json:"data,omitempty"`
	AnnualAverages []observationJSON `json:"annual_averages,omitempty"`
}

// Execute implements the go-flags Commander interface for SeriesCommand.
func (c *SeriesCommand) Execute(args []string) error {
	svc, err := openService(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithService(svc)
}

// executeWithService resolves the series against a provided service (for testing).
func (c *SeriesCommand) executeWithService(svc *cpi.Service) error {
	series, err := svc.ResolveSeries(c.SeriesFlags.filter())
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		out := seriesJSON{Info: series.Info()}
		if c.Observations {
			out.Observations = toObservationJSON(series.Observations(), series.Periodicity)
			out.AnnualAverages = toObservationJSON(series.AnnualAverages(), series.Periodicity)
		}
		return printJSON(out)
	}

	info := series.Info()
	fmt.Printf("%s\n", info.ID)
	fmt.Printf("  Title:        %s\n", info.Title)
	fmt.Printf("  Survey:       %s (%s)\n", info.Survey.Name, info.Survey.Code)
	fmt.Printf("  Area:         %s (%s)\n", info.Area.Name, info.Area.Code)
	fmt.Printf("  Items:        %s (%s)\n", info.Item.Name, info.Item.Code)
	fmt.Printf("  Periodicity:  %s\n", info.Periodicity)
	fmt.Printf("  Observations: %s\n", formatNumber(int64(info.Observations)))
	if info.First != "" {
		fmt.Printf("  Range:        %s to %s\n", info.First, info.Latest)
	}
	if info.LatestYear != "" {
		fmt.Printf("  Latest year:  %s\n", info.LatestYear)
	}

	if c.Observations {
		fmt.Println()
		for _, o := range series.Observations() {
			fmt.Printf("  %-8s %s  %s\n", o.Period, cpi.PeriodCode(o.Period, series.Periodicity), formatValue(o.Value))
		}
		if avgs := series.AnnualAverages(); len(avgs) > 0 {
			fmt.Println()
			fmt.Println("  Annual averages:")
			for _, o := range avgs {
				fmt.Printf("  %-8s %s  %s\n", o.Period, cpi.PeriodCode(o.Period, series.Periodicity), formatValue(o.Value))
			}
		}
	}
	return nil
}

// toObservationJSON renders obs with the BLS period codes they are stored
// under.
func toObservationJSON(obs []cpi.Observation, periodicity cpi.Periodicity) []observationJSON {
	out := make([]observationJSON, len(obs))
	for i, o := range obs {
		out[i] = observationJSON{
			Period: o.Period.String(),
			Code:   cpi.PeriodCode(o.Period, periodicity),
			Value:  o.Value,
		}
	}
	return out
}
