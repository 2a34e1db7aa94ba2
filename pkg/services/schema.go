package services

import (
	"fmt"

	"github.com/fluxion-ai/fluxion/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// definitionSchema guards the structural shape of a workflow definition at
// save time. Node types are deliberately not checked here: handler
// resolution is lazy and happens at execution time.
const definitionSchema = `{
  "type": "object",
  "required": ["nodes"],
  "properties": {
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "type": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "config": {"type": "object"},
          "position_x": {"type": "integer"},
          "position_y": {"type": "integer"}
        }
      }
    },
    "connections": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["source_node_id", "target_node_id"],
        "properties": {
          "source_node_id": {"type": "string", "minLength": 1},
          "target_node_id": {"type": "string", "minLength": 1},
          "kind": {
            "type": "string",
            "enum": ["default", "condition_yes", "condition_no", "error"]
          }
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(definitionSchema)

// validateDefinition checks the definition structure plus referential
// integrity: node ids unique, connection endpoints resolving to nodes.
func validateDefinition(workflow *models.Workflow) error {
	doc := map[string]any{
		"nodes":       workflow.Nodes,
		"connections": workflow.Connections,
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	if !result.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidDefinition, result.Errors()[0].String())
	}

	seen := make(map[string]bool, len(workflow.Nodes))

	for _, node := range workflow.Nodes {
		if seen[node.ID] {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidDefinition, node.ID)
		}

		seen[node.ID] = true
	}

	for _, conn := range workflow.Connections {
		if !seen[conn.SourceNodeID] {
			return fmt.Errorf("%w: connection references unknown source node %q", ErrInvalidDefinition, conn.SourceNodeID)
		}

		if !seen[conn.TargetNodeID] {
			return fmt.Errorf("%w: connection references unknown target node %q", ErrInvalidDefinition, conn.TargetNodeID)
		}
	}

	return nil
}
