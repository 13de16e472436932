package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vsariola/patchbay"
	pcmd "github.com/vsariola/patchbay/cmd"
	"github.com/vsariola/patchbay/editor"
	"github.com/vsariola/patchbay/engine"
	"github.com/vsariola/patchbay/graph"
	"github.com/vsariola/patchbay/units"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Check the connections of a graph and show its processing order",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			doc, _, err := pcmd.ReadDocumentFile(args[0], nil)
			if err != nil {
				return err
			}
			illegal, err := check(doc)
			if err != nil {
				return err
			}
			if illegal > 0 {
				return fmt.Errorf("%d illegal connection(s) in %v", illegal, args[0])
			}
			return nil
		},
	}
}

// check loads the nodes of the document and adds the connections one by one,
// reporting the ones the graph rejects. Returns the number of rejected
// connections.
func check(doc patchbay.Document) (int, error) {
	m := graph.New(units.Factory{}, nil)
	if err := m.Load(patchbay.Document{Nodes: doc.Nodes}); err != nil {
		return 0, err
	}
	var rows [][]string
	for _, n := range doc.Nodes {
		name := ""
		if u := m.Unit(n.ID); u != nil {
			name = editor.DisplayName(u.Name())
		}
		rows = append(rows, []string{strconv.Itoa(int(n.ID)), n.Descriptor.Kind, name, fmt.Sprintf("%.2f, %.2f", n.X, n.Y)})
	}
	fmt.Println()
	Brand.Println("  Units")
	table([]string{"ID", "KIND", "NAME", "POSITION"}, rows)
	fmt.Println()
	illegal := 0
	if len(doc.Connections) > 0 {
		Brand.Println("  Connections")
	}
	for _, conn := range doc.Connections {
		if err := m.CheckConnection(conn); err != nil {
			illegal++
			fmt.Printf("  %s %-24v %s\n", statusIcon(false), conn, Bad.Sprint(err))
			continue
		}
		m.AddConnection(conn)
		fmt.Printf("  %s %v\n", statusIcon(true), conn)
	}
	e := engine.New(engine.Options{})
	e.Update(m.Snapshot())
	order := e.Order()
	ids := make([]string, len(order))
	for i, id := range order {
		ids[i] = strconv.Itoa(int(id))
	}
	fmt.Println()
	fmt.Printf("  %s %s\n", Brand.Sprint("Processing order:"), strings.Join(ids, " → "))
	if illegal > 0 {
		Warn.Printf("  %d of %d connections would be dropped on load\n", illegal, len(doc.Connections))
	}
	fmt.Println()
	return illegal, nil
}
