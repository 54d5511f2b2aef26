package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Snowflake hands out time-ordered, positive product identifiers.
// Ids from one node never collide, even when created within the same millisecond.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator for the given node number (0-1023)
func NewSnowflake(nodeID int64) (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create id generator for node %d: %w", nodeID, err)
	}
	return &Snowflake{node: node}, nil
}

// NextID returns a new identifier
func (s *Snowflake) NextID() int64 {
	return s.node.Generate().Int64()
}
