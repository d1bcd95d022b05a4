// ABOUTME: Graphviz rendering of a duplicate detection pass
// ABOUTME: Draws grouped contacts as nodes with edges from each group's first member to the rest
package viz

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/vcfmerge/models"
)

// Format is an output format for rendered graphs.
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatDOT, FormatSVG:
		return f, nil
	}
	return "", fmt.Errorf("unknown graph format %q", s)
}

type GraphGenerator struct {
	title string
}

func NewGraphGenerator(title string) *GraphGenerator {
	return &GraphGenerator{title: title}
}

// GenerateDuplicateGraph renders every contact that appears in a group.
// Contacts claimed by more than one group are highlighted, which happens
// when phone or email matches overlap without being transitive.
func (g *GraphGenerator) GenerateDuplicateGraph(ctx context.Context, contacts []models.Contact, groups []models.DuplicateGroup, format Format) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	if g.title != "" {
		graph.SetLabel(g.title)
	}
	graph.SetRankDir(cgraph.LRRank)

	byID := make(map[string]*models.Contact, len(contacts))
	for i := range contacts {
		byID[contacts[i].ID] = &contacts[i]
	}

	membership := make(map[string]int)
	for _, group := range groups {
		for _, id := range group {
			membership[id]++
		}
	}

	nodes := make(map[string]*cgraph.Node)
	nodeFor := func(id string) (*cgraph.Node, error) {
		if n, ok := nodes[id]; ok {
			return n, nil
		}
		n, err := graph.CreateNodeByName("contact_" + id)
		if err != nil {
			return nil, fmt.Errorf("failed to create contact node: %w", err)
		}
		n.SetLabel(nodeLabel(byID[id]))
		n.SetShape("box")
		n.SetStyle("filled")
		if membership[id] > 1 {
			n.SetFillColor("orange")
		} else {
			n.SetFillColor("lightgreen")
		}
		nodes[id] = n
		return n, nil
	}

	for gi, group := range groups {
		if len(group) == 0 {
			continue
		}
		head, err := nodeFor(group[0])
		if err != nil {
			return "", err
		}
		for mi, id := range group[1:] {
			member, err := nodeFor(id)
			if err != nil {
				return "", err
			}
			edge, err := graph.CreateEdgeByName(fmt.Sprintf("group_%d_%d", gi, mi), head, member)
			if err != nil {
				return "", fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel(fmt.Sprintf("group %d", gi+1))
			edge.SetDir("none")
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, renderFormat(format), &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}

	return buf.String(), nil
}

func renderFormat(f Format) graphviz.Format {
	if f == FormatSVG {
		return graphviz.SVG
	}
	return graphviz.XDOT
}

func nodeLabel(c *models.Contact) string {
	if c == nil {
		return "Unknown"
	}
	lines := []string{c.FullName}
	lines = append(lines, c.Phones...)
	lines = append(lines, c.Emails...)
	return strings.Join(lines, "\n")
}
