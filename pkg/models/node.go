package models

// Node type discriminators. Every type must resolve to a registered handler
// at execution time; resolution is deliberately lazy (not checked at save time).
const (
	NodeTypeStart           = "start"
	NodeTypeSelector        = "selector"
	NodeTypeLlmCall         = "llm_call"
	NodeTypeKnowledgeQuery  = "knowledge_query"
	NodeTypeImageProcessing = "image_processing"
	NodeTypeSpeechToText    = "speech_to_text"
	NodeTypeLoop            = "loop"
	NodeTypeAggregation     = "aggregation"
	NodeTypeInput           = "input"
	NodeTypeOutput          = "output"
	NodeTypeCustomCode      = "custom_code"
	NodeTypeEnd             = "end"
)

// NodeTypes lists the full node taxonomy.
var NodeTypes = []string{
	NodeTypeStart,
	NodeTypeSelector,
	NodeTypeLlmCall,
	NodeTypeKnowledgeQuery,
	NodeTypeImageProcessing,
	NodeTypeSpeechToText,
	NodeTypeLoop,
	NodeTypeAggregation,
	NodeTypeInput,
	NodeTypeOutput,
	NodeTypeCustomCode,
	NodeTypeEnd,
}

// ConnectionKind tags the semantic role of an edge.
type ConnectionKind string

const (
	ConnectionKindDefault      ConnectionKind = "default"
	ConnectionKindConditionYes ConnectionKind = "condition_yes"
	ConnectionKindConditionNo  ConnectionKind = "condition_no"
	ConnectionKindError        ConnectionKind = "error"
)

// Connection is a directed edge between two nodes.
type Connection struct {
	ID           string         `json:"id"`
	SourceNodeID string         `json:"source_node_id" validate:"required"`
	TargetNodeID string         `json:"target_node_id" validate:"required"`
	Kind         ConnectionKind `json:"kind"`
}

// WorkflowNode represents a node instance in a workflow definition.
// Position is presentation-only and irrelevant to execution.
type WorkflowNode struct {
	ID        string         `json:"id"         validate:"required"`
	Type      string         `json:"type"       validate:"required"`
	Name      string         `json:"name"`
	Config    map[string]any `json:"config"`
	PositionX int            `json:"position_x"`
	PositionY int            `json:"position_y"`
}

// IsTerminal reports whether reaching this node completes the instance.
func (n *WorkflowNode) IsTerminal() bool {
	return n.Type == NodeTypeOutput || n.Type == NodeTypeEnd
}
