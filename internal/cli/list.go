package cli

import (
	"fmt"
	"slices"

	"github.com/runnerr0/cpi/internal/cpi"
)

// Execute implements the go-flags Commander interface for AreasCommand.
func (c *AreasCommand) Execute(args []string) error {
	svc, err := openService(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithService(svc)
}

func (c *AreasCommand) executeWithService(svc *cpi.Service) error {
	seq, err := svc.ListAreas()
	if err != nil {
		return err
	}
	areas := slices.Collect(seq)

	if c.globals != nil && c.globals.JSON {
		return printJSON(areas)
	}
	for _, a := range areas {
		fmt.Printf("%-6s %s\n", a.Code, a.Name)
	}
	return nil
}

// Execute implements the go-flags Commander interface for ItemsCommand.
func (c *ItemsCommand) Execute(args []string) error {
	svc, err := openService(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithService(svc)
}

func (c *ItemsCommand) executeWithService(svc *cpi.Service) error {
	seq, err := svc.ListItems()
	if err != nil {
		return err
	}
	items := slices.Collect(seq)

	if c.globals != nil && c.globals.JSON {
		return printJSON(items)
	}
	for _, it := range items {
		fmt.Printf("%-10s %s\n", it.Code, it.Name)
	}
	return nil
}
