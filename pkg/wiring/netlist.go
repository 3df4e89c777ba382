package wiring

import (
	"encoding/json"

	"github.com/OpenTraceLab/circuitwire/pkg/geom"
)

// NetSummary describes one link for reports.
type NetSummary struct {
	ID        int         `json:"id"`
	Wires     []geom.Wire `json:"wires"`
	Ports     []string    `json:"ports"`
	BitWidths []int       `json:"bit_widths,omitempty"`
	Valid     bool        `json:"valid"`
}

// Netlist summarizes every link ordered by id.
func (b *Board) Netlist() []NetSummary {
	links := b.Links()
	nets := make([]NetSummary, 0, len(links))
	for _, l := range links {
		ports := make([]string, 0, len(l.ports))
		for _, ref := range l.Ports() {
			ports = append(ports, ref.String())
		}
		nets = append(nets, NetSummary{
			ID:        l.ID(),
			Wires:     l.Wires(),
			Ports:     ports,
			BitWidths: l.BitWidths(),
			Valid:     l.IsValid(),
		})
	}
	return nets
}

// ExportJSON exports the netlist to JSON format.
func (b *Board) ExportJSON() ([]byte, error) {
	nets := b.Netlist()

	output := struct {
		Version    string       `json:"version"`
		Components int          `json:"component_count"`
		NetCount   int          `json:"net_count"`
		BadNets    int          `json:"bad_nets"`
		Nets       []NetSummary `json:"nets"`
	}{
		Version:    "1.0",
		Components: len(b.Components()),
		NetCount:   len(nets),
		Nets:       nets,
	}
	for _, n := range nets {
		if !n.Valid {
			output.BadNets++
		}
	}

	return json.MarshalIndent(output, "", "  ")
}
