package skillgraph

import _ "embed"

//go:embed curriculum.json
var defaultCurriculum []byte

// DefaultGraph builds the graph from the bundled bar-exam curriculum.
// Deployments with their own curriculum use Load instead.
func DefaultGraph() (*Graph, error) {
	return LoadBytes(defaultCurriculum)
}
