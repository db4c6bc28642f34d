package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/runnerr0/cpi/internal/storage"
)

// Execute implements the go-flags Commander interface for SearchCommand.
func (c *SearchCommand) Execute(args []string) error {
	sess, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer sess.Close()

	return c.executeWithStore(sess.store, args)
}

// executeWithStore runs the search against a provided store (for testing).
func (c *SearchCommand) executeWithStore(store storage.Store, args []string) error {
	query := strings.Join(args, " ")

	sq := storage.SeriesQuery{
		Query:       query,
		AreaCode:    c.Area,
		ItemCode:    c.Items,
		Periodicity: c.Periodicity,
		Limit:       c.Limit,
		Offset:      c.Offset,
	}

	ctx := context.Background()
	results, err := store.SearchSeries(ctx, sq)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return c.printJSON(query, results)
	}
	return c.printHuman(query, results)
}

func (c *SearchCommand) printHuman(query string, results []storage.SeriesRow) error {
	if len(results) == 0 {
		if query != "" {
			fmt.Printf("No series found for %q\n", query)
		} else {
			fmt.Println("No series found")
		}
		return nil
	}

	if query != "" {
		fmt.Printf("Found %d series for %q\n\n", len(results), query)
	} else {
		fmt.Printf("Found %d series\n\n", len(results))
	}

	for i, r := range results {
		fmt.Printf("%d. %s  %s\n", i+1+c.Offset, r.ID, r.Title)

		meta := r.AreaName
		if r.ItemName != "" {
			meta += " · " + r.ItemName
		}
		periodicity := "monthly"
		if r.PeriodicityCode == "S" {
			periodicity = "annual"
		}
		meta += " · " + periodicity
		meta += " · " + formatNumber(r.ObservationCount) + " observations"
		fmt.Printf("   %s\n", meta)

		if i < len(results)-1 {
			fmt.Println()
		}
	}

	return nil
}

type jsonSeriesResult struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Survey       string `json:"survey"`
	Periodicity  string `json:"periodicity"`
	AreaCode     string `json:"area_code"`
	AreaName     string `json:"area_name"`
	ItemCode     string `json:"item_code"`
	ItemName     string `json:"item_name"`
	Observations int64  `json:"observations"`
}

type jsonSearchOutput struct {
	Count   int                `json:"count"`
	Query   string             `json:"query"`
	Results []jsonSeriesResult `json:"results"`
}

func (c *SearchCommand) printJSON(query string, results []storage.SeriesRow) error {
	out := jsonSearchOutput{
		Count:   len(results),
		Query:   query,
		Results: make([]jsonSeriesResult, len(results)),
	}

	for i, r := range results {
		out.Results[i] = jsonSeriesResult{
			ID:           r.ID,
			Title:        r.Title,
			Survey:       r.SurveyCode,
			Periodicity:  r.PeriodicityCode,
			AreaCode:     r.AreaCode,
			AreaName:     r.AreaName,
			ItemCode:     r.ItemCode,
			ItemName:     r.ItemName,
			Observations: r.ObservationCount,
		}
	}

	return printJSON(out)
}
