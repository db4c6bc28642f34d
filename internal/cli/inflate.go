package cli

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/runnerr0/cpi/internal/cpi"
)

type inflateJSON struct {
	SeriesID string `json:"series_id"`
	Amount   string `json:"amount"`
	From     string `json:"from"`
	To       string `json:"to"`
	Value    string `json:"value"`
}

// Execute implements the go-flags Commander interface for InflateCommand.
func (c *InflateCommand) Execute(args []string) error {
	svc, err := openService(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithService(svc)
}

// executeWithService runs the adjustment against a provided service (for testing).
func (c *InflateCommand) executeWithService(svc *cpi.Service) error {
	amount, err := decimal.NewFromString(c.Args.Value)
	if err != nil {
		return fmt.Errorf("invalid amount %q", c.Args.Value)
	}
	source, err := parsePeriodArg("period", c.Args.Period)
	if err != nil {
		return err
	}
	var target *cpi.Period
	if c.To != "" {
		p, err := parsePeriodArg("--to", c.To)
		if err != nil {
			return err
		}
		target = &p
	}

	series, err := svc.ResolveSeries(c.SeriesFlags.filter())
	if err != nil {
		return err
	}
	pinned := cpi.Filter{SeriesID: series.ID}

	// Report the period actually used when no target was given.
	dst := target
	if dst == nil {
		p, err := cpi.DefaultTarget(series, source)
		if err != nil {
			return err
		}
		dst = &p
	}

	var value string
	if c.Places >= 0 {
		d, err := svc.InflateDecimal(amount, source, target, pinned)
		if err != nil {
			return err
		}
		value = d.StringFixed(int32(c.Places))
	} else {
		v, err := svc.Inflate(amount.InexactFloat64(), source, target, pinned)
		if err != nil {
			return err
		}
		value = formatValue(v)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(inflateJSON{
			SeriesID: series.ID,
			Amount:   amount.String(),
			From:     source.String(),
			To:       dst.String(),
			Value:    value,
		})
	}

	if c.globals != nil && c.globals.Verbose {
		fmt.Printf("%s in %s is worth %s in %s (%s)\n", amount.String(), source, value, dst, series.ID)
		return nil
	}
	fmt.Println(value)
	return nil
}
