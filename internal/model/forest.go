package model

import "fmt"

// ForestParams holds an ensemble of binary decision trees.
type ForestParams struct {
	Trees []Tree `yaml:"trees" json:"trees"`
}

// Tree is a flat node list rooted at index 0.
type Tree struct {
	Nodes []Node `yaml:"nodes" json:"nodes"`
}

// Node is a split when Left >= 0 and a leaf when Left == -1.
// Leaves carry the positive class probability in Value.
type Node struct {
	Feature   int     `yaml:"feature" json:"feature"`
	Threshold float64 `yaml:"threshold" json:"threshold"`
	Left      int     `yaml:"left" json:"left"`
	Right     int     `yaml:"right" json:"right"`
	Value     float64 `yaml:"value" json:"value"`
}

func (n Node) leaf() bool { return n.Left == -1 }

type forest struct {
	meta
	trees []Tree
}

func newForest(m meta, p *ForestParams) (*forest, error) {
	if p == nil || len(p.Trees) == 0 {
		return nil, fmt.Errorf("%w: forest has no trees", ErrInvalidArtifact)
	}
	for ti, t := range p.Trees {
		if err := validateTree(t, len(m.features)); err != nil {
			return nil, fmt.Errorf("%w: tree %d: %v", ErrInvalidArtifact, ti, err)
		}
	}
	return &forest{meta: m, trees: p.Trees}, nil
}

// validateTree requires children to point forward so evaluation always terminates.
func validateTree(t Tree, nFeatures int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("no nodes")
	}
	for i, n := range t.Nodes {
		if n.leaf() {
			if n.Value < 0 || n.Value > 1 {
				return fmt.Errorf("node %d: leaf value %v outside [0,1]", i, n.Value)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= nFeatures {
			return fmt.Errorf("node %d: feature index %d out of range", i, n.Feature)
		}
		for _, c := range []int{n.Left, n.Right} {
			if c <= i || c >= len(t.Nodes) {
				return fmt.Errorf("node %d: child %d invalid", i, c)
			}
		}
	}
	return nil
}

func (f *forest) PredictProba(x []float64) (float64, error) {
	if err := f.check(x); err != nil {
		return 0, err
	}
	var sum float64
	for _, t := range f.trees {
		sum += evalTree(t, x)
	}
	return sum / float64(len(f.trees)), nil
}

func evalTree(t Tree, x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.leaf() {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
