// Package config loads a pipeline's stage list from an ordered YAML
// document of stage descriptors, matching the YAML-configured-pipeline
// convention used elsewhere in this ecosystem.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wannadb/matchengine/internal/distance"
	"github.com/wannadb/matchengine/internal/feedback"
	"github.com/wannadb/matchengine/internal/pipeline"
)

// StageDescriptor is one entry in a pipeline configuration document: a
// recognized stage identifier plus its stage-specific options.
type StageDescriptor struct {
	Identifier string         `yaml:"identifier"`
	Options    map[string]any `yaml:"options"`
}

// Document is the top-level shape of a pipeline configuration file.
type Document struct {
	Stages []StageDescriptor `yaml:"stages"`
}

// Load reads and parses a pipeline configuration document from path.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return doc, nil
}

// BuildDeps supplies the shared collaborators stage constructors need:
// the embedder and distance function every matching stage is ultimately
// built on, and the feedback driver's configuration.
type BuildDeps struct {
	Embedder       distance.Embedder
	Distance       distance.Func
	Tau            float64
	FeedbackConfig feedback.Config
}

// stageFactories maps a recognized stage identifier to a constructor. A
// descriptor naming an identifier not in this table is a configuration
// error, caught by Build before the pipeline ever runs.
var stageFactories = map[string]func(StageDescriptor, BuildDeps) (pipeline.Stage, error){
	"embed-attribute": func(_ StageDescriptor, deps BuildDeps) (pipeline.Stage, error) {
		return pipeline.EmbedAttributeStage{Embedder: deps.Embedder}, nil
	},
	"compute-initial-distances": func(_ StageDescriptor, deps BuildDeps) (pipeline.Stage, error) {
		return pipeline.ComputeInitialDistancesStage{Distance: deps.Distance, Tau: deps.Tau}, nil
	},
	"interactive-feedback-loop": func(_ StageDescriptor, deps BuildDeps) (pipeline.Stage, error) {
		return pipeline.InteractiveFeedbackLoopStage{Distance: deps.Distance, Config: deps.FeedbackConfig}, nil
	},
	"finalize-cells": func(_ StageDescriptor, deps BuildDeps) (pipeline.Stage, error) {
		return pipeline.FinalizeCellsStage{Tau: deps.Tau}, nil
	},
}

// Build resolves a Document's stage descriptors into concrete
// pipeline.Stage values, rejecting any unrecognized identifier.
func Build(doc Document, deps BuildDeps) ([]pipeline.Stage, error) {
	stages := make([]pipeline.Stage, 0, len(doc.Stages))
	for _, d := range doc.Stages {
		factory, ok := stageFactories[d.Identifier]
		if !ok {
			return nil, fmt.Errorf("config: unrecognized stage identifier %q", d.Identifier)
		}
		st, err := factory(d, deps)
		if err != nil {
			return nil, fmt.Errorf("config: build stage %q: %w", d.Identifier, err)
		}
		stages = append(stages, st)
	}
	return stages, nil
}

// Default returns the canonical four-stage pipeline configuration, for
// callers that don't need a custom stage list.
func Default() Document {
	return Document{Stages: []StageDescriptor{
		{Identifier: "embed-attribute"},
		{Identifier: "compute-initial-distances"},
		{Identifier: "interactive-feedback-loop"},
		{Identifier: "finalize-cells"},
	}}
}
