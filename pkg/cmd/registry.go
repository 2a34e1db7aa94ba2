// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/fluxion-ai/fluxion/pkg/handlers/customcode"
	"github.com/fluxion-ai/fluxion/pkg/handlers/llmcall"
	"github.com/fluxion-ai/fluxion/pkg/handlers/notimplemented"
	"github.com/fluxion-ai/fluxion/pkg/handlers/output"
	"github.com/fluxion-ai/fluxion/pkg/handlers/passthrough"
	"github.com/fluxion-ai/fluxion/pkg/handlers/selector"
	"github.com/fluxion-ai/fluxion/pkg/llm"
	"github.com/fluxion-ai/fluxion/pkg/models"
	"github.com/fluxion-ai/fluxion/pkg/registry"
)

func registerNativeHandlers(reg *registry.Registry, llmClient llm.Client) {
	reg.MustRegister(passthrough.NewFactory(models.NodeTypeStart))
	reg.MustRegister(passthrough.NewFactory(models.NodeTypeInput))
	reg.MustRegister(passthrough.NewFactory(models.NodeTypeEnd))
	reg.MustRegister(output.NewFactory())
	reg.MustRegister(selector.NewFactory())
	reg.MustRegister(customcode.NewFactory())
	reg.MustRegister(llmcall.NewFactory(llmClient))
}

// registerPendingHandlers binds node types the taxonomy names but no
// handler implements yet. Executing them fails the instance with a clear
// error instead of an unknown-type lookup.
func registerPendingHandlers(reg *registry.Registry) {
	reg.MustRegister(notimplemented.NewFactory(models.NodeTypeKnowledgeQuery))
	reg.MustRegister(notimplemented.NewFactory(models.NodeTypeImageProcessing))
	reg.MustRegister(notimplemented.NewFactory(models.NodeTypeSpeechToText))
	reg.MustRegister(notimplemented.NewFactory(models.NodeTypeLoop))
	reg.MustRegister(notimplemented.NewFactory(models.NodeTypeAggregation))
}

func NewRegistry(logger *slog.Logger, llmClient llm.Client) *registry.Registry {
	reg := registry.NewRegistry(logger)

	registerNativeHandlers(reg, llmClient)
	registerPendingHandlers(reg)

	return reg
}
