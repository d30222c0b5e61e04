package risk

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/trees"
)

const criterion = "gini"

// node is one entry of a flattened binary decision tree. Leaves carry the
// predicted class; inner nodes send x[Feature] < Threshold to Left.
type node struct {
	Leaf      bool    `json:"leaf"`
	Class     int     `json:"class"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
}

// cartNode mirrors the exported fields of a golearn CART node.
type cartNode struct {
	Left       *cartNode
	Right      *cartNode
	Threshold  float64
	Feature    int64
	LeftLabel  int64
	RightLabel int64
}

type Tree struct {
	MaxDepth int    `json:"max_depth"`
	Nodes    []node `json:"nodes"`
}

func NewTree(maxDepth int) *Tree {
	return &Tree{MaxDepth: maxDepth}
}

// Fit grows a gini CART tree with golearn and flattens it so it can be
// persisted and evaluated without the training grid.
func (t *Tree) Fit(x [][]float64, y []int) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("fit tree: %d rows for %d labels", len(x), len(y))
	}

	grid, err := toGrid(x, y)
	if err != nil {
		return fmt.Errorf("fit tree: %w", err)
	}

	cart := trees.NewDecisionTreeClassifier(criterion, int64(t.MaxDepth), classLabels(y))
	if err := cart.Fit(grid); err != nil {
		return fmt.Errorf("fit tree: %w", err)
	}
	if cart.RootNode == nil {
		return fmt.Errorf("fit tree: no root node")
	}

	raw, err := json.Marshal(cart.RootNode)
	if err != nil {
		return fmt.Errorf("flatten tree: %w", err)
	}
	var root cartNode
	if err := json.Unmarshal(raw, &root); err != nil {
		return fmt.Errorf("flatten tree: %w", err)
	}

	t.Nodes = t.Nodes[:0]
	t.add(&root)
	return nil
}

func (t *Tree) add(n *cartNode) int {
	id := len(t.Nodes)
	t.Nodes = append(t.Nodes, node{Feature: int(n.Feature), Threshold: n.Threshold})
	left := t.branch(n.Left, n.LeftLabel)
	right := t.branch(n.Right, n.RightLabel)
	t.Nodes[id].Left, t.Nodes[id].Right = left, right
	return id
}

func (t *Tree) branch(child *cartNode, label int64) int {
	if child == nil {
		t.Nodes = append(t.Nodes, node{Leaf: true, Class: int(label)})
		return len(t.Nodes) - 1
	}
	return t.add(child)
}

func (t *Tree) Predict(x []float64) int {
	if len(t.Nodes) == 0 {
		return 0
	}
	i := 0
	for !t.Nodes[i].Leaf {
		n := t.Nodes[i]
		if n.Feature >= len(x) {
			return 0
		}
		if x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Class
}

// Score is the share of rows predicted correctly.
func (t *Tree) Score(x [][]float64, y []int) float64 {
	if len(y) == 0 {
		return 0
	}
	hits := 0
	for i := range y {
		if t.Predict(x[i]) == y[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(y))
}

// toGrid lays rows out as golearn float attributes with the label as the
// class attribute.
func toGrid(x [][]float64, y []int) (*base.DenseInstances, error) {
	inst := base.NewDenseInstances()
	cols := len(x[0])

	specs := make([]base.AttributeSpec, cols+1)
	for f := 0; f < cols; f++ {
		specs[f] = inst.AddAttribute(base.NewFloatAttribute(fmt.Sprintf("f%d", f)))
	}
	class := base.NewFloatAttribute("category")
	specs[cols] = inst.AddAttribute(class)
	if err := inst.AddClassAttribute(class); err != nil {
		return nil, err
	}

	if err := inst.Extend(len(x)); err != nil {
		return nil, err
	}
	for i, row := range x {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), cols)
		}
		for f, v := range row {
			inst.Set(specs[f], i, base.PackFloatToBytes(v))
		}
		inst.Set(specs[cols], i, base.PackFloatToBytes(float64(y[i])))
	}
	return inst, nil
}

// classLabels lists the distinct labels in ascending order.
func classLabels(y []int) []int64 {
	seen := make(map[int]bool)
	var labels []int64
	for _, c := range y {
		if !seen[c] {
			seen[c] = true
			labels = append(labels, int64(c))
		}
	}
	slices.Sort(labels)
	return labels
}
