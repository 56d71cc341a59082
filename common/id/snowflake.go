package id

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// Node IDs per binary. Two processes sharing a node ID can mint duplicate IDs.
const (
	NodeServer  int64 = 1
	NodeWorker  int64 = 2
	NodeMigrate int64 = 3
)

var (
	node    *snowflake.Node
	once    sync.Once
	initErr error
)

var ErrInvalid = errors.New("invalid id")

// Init initializes the Snowflake node with the given node ID.
// Only the first call has any effect.
func Init(nodeID int64) error {
	once.Do(func() {
		node, initErr = snowflake.NewNode(nodeID)
	})
	return initErr
}

// New generates a new time-ordered int64 ID. Init must have been called.
func New() int64 {
	if node == nil {
		panic("id: New called before Init")
	}
	return node.Generate().Int64()
}

// Parse converts a decimal string (path parameter, JWT subject) into an ID.
func Parse(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalid)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	return v, nil
}
