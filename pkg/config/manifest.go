/*
Package config loads a declarative YAML pipeline manifest and builds the
graph.Graph it describes, the same apply-a-YAML-manifest shape the teacher
used for its own resource manifests, scoped down to one resource kind:
a pipeline.
*/
package config

import (
	"fmt"
	"os"

	"github.com/elitr/pipeliner/pkg/endpoint"
	"github.com/elitr/pipeliner/pkg/graph"
	"gopkg.in/yaml.v3"
)

// Manifest is the top-level YAML document describing a pipeline.
type Manifest struct {
	LogsDir string     `yaml:"logsDir"`
	Ports   PortsSpec  `yaml:"ports"`
	Nodes   []NodeSpec `yaml:"nodes"`
	Edges   []EdgeSpec `yaml:"edges"`
}

// PortsSpec bounds the endpoint allocator's pool. Both ends default to
// endpoint.DefaultLow/DefaultHigh when zero.
type PortsSpec struct {
	Low  int `yaml:"low"`
	High int `yaml:"high"`
}

// NodeSpec declares one pipeline node.
type NodeSpec struct {
	Name    string         `yaml:"name"`
	Ingress map[string]any `yaml:"ingress"`
	Egress  map[string]any `yaml:"egress"`
	Command CommandSpec    `yaml:"command"`
}

// CommandSpec is a node's launch descriptor.
type CommandSpec struct {
	Argv  []string `yaml:"argv"`
	Env   []string `yaml:"env"`
	Image string   `yaml:"image,omitempty"`
}

// EdgeSpec declares one producer/consumer edge.
type EdgeSpec struct {
	Source        string `yaml:"source"`
	SourceEgress  string `yaml:"sourceEgress"`
	Target        string `yaml:"target"`
	TargetIngress string `yaml:"targetIngress"`
	Type          string `yaml:"type"`
}

// Load reads and parses a manifest from path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// Allocator builds the endpoint allocator the manifest's Ports section
// describes, defaulting to endpoint.DefaultLow/DefaultHigh.
func (m *Manifest) Allocator() *endpoint.Allocator {
	low, high := m.Ports.Low, m.Ports.High
	if low == 0 && high == 0 {
		return endpoint.NewDefault()
	}
	if low == 0 {
		low = endpoint.DefaultLow
	}
	if high == 0 {
		high = endpoint.DefaultHigh
	}
	return endpoint.New(low, high)
}

// Build declares every node and edge in the manifest against a fresh Graph.
func (m *Manifest) Build() (*graph.Graph, error) {
	g := graph.New()
	byName := make(map[string]*graph.Node, len(m.Nodes))

	for _, ns := range m.Nodes {
		n, err := g.AddLocalNode(ns.Name, ns.Ingress, ns.Egress, graph.Command{
			Argv:  ns.Command.Argv,
			Env:   ns.Command.Env,
			Image: ns.Command.Image,
		})
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", ns.Name, err)
		}
		byName[ns.Name] = n
	}

	for i, es := range m.Edges {
		source, ok := byName[es.Source]
		if !ok {
			return nil, fmt.Errorf("edge %d: unknown source node %q", i, es.Source)
		}
		target, ok := byName[es.Target]
		if !ok {
			return nil, fmt.Errorf("edge %d: unknown target node %q", i, es.Target)
		}

		edgeType := graph.Text
		switch es.Type {
		case "", "text":
			edgeType = graph.Text
		case "binary":
			edgeType = graph.Binary
		case "none":
			edgeType = graph.None
		default:
			return nil, fmt.Errorf("edge %d: unsupported type %q", i, es.Type)
		}

		if es.SourceEgress != "" || es.TargetIngress != "" {
			if _, err := g.AddEdge(source, es.SourceEgress, target, es.TargetIngress, edgeType); err != nil {
				return nil, fmt.Errorf("edge %d: %w", i, err)
			}
		} else {
			if _, err := g.AddSimpleEdge(source, target, edgeType); err != nil {
				return nil, fmt.Errorf("edge %d: %w", i, err)
			}
		}
	}

	return g, nil
}
