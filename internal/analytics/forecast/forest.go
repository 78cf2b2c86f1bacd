package forecast

import (
	"math"
	"math/rand"
	"sort"
)

type ForestConfig struct {
	Trees    int
	MaxDepth int
	MinLeaf  int
	// FeatureFraction is the share of features considered at each split.
	FeatureFraction float64
	Seed            int64
}

func DefaultForestConfig() ForestConfig {
	return ForestConfig{Trees: 100, MaxDepth: 8, MinLeaf: 2, FeatureFraction: 0.6, Seed: 42}
}

// ForestTrainer fits a bagged ensemble of regression trees. Training is deterministic
// for a given seed and sample order.
type ForestTrainer struct {
	cfg ForestConfig
}

func NewForestTrainer(cfg ForestConfig) *ForestTrainer {
	def := DefaultForestConfig()
	if cfg.Trees <= 0 {
		cfg.Trees = def.Trees
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.MinLeaf <= 0 {
		cfg.MinLeaf = def.MinLeaf
	}
	if cfg.FeatureFraction <= 0 || cfg.FeatureFraction > 1 {
		cfg.FeatureFraction = def.FeatureFraction
	}
	return &ForestTrainer{cfg: cfg}
}

type Forest struct {
	Trees []*Node `json:"trees"`
}

type Node struct {
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      *Node   `json:"left,omitempty"`
	Right     *Node   `json:"right,omitempty"`
}

func (t *ForestTrainer) Fit(samples []Sample) (Model, error) {
	width, err := checkSamples(samples)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(t.cfg.Seed))
	perSplit := int(math.Ceil(float64(width) * t.cfg.FeatureFraction))
	if perSplit < 1 {
		perSplit = 1
	}

	forest := &Forest{Trees: make([]*Node, 0, t.cfg.Trees)}
	for i := 0; i < t.cfg.Trees; i++ {
		idx := make([]int, len(samples))
		for j := range idx {
			idx[j] = rng.Intn(len(samples))
		}
		b := &treeBuilder{cfg: t.cfg, samples: samples, width: width, perSplit: perSplit, rng: rng}
		forest.Trees = append(forest.Trees, b.build(idx, 0))
	}
	return forest, nil
}

func (f *Forest) Predict(features []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for _, tree := range f.Trees {
		sum += tree.predict(features)
	}
	return sum / float64(len(f.Trees))
}

func (n *Node) predict(features []float64) float64 {
	for !n.Leaf {
		if n.Feature < len(features) && features[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

type treeBuilder struct {
	cfg      ForestConfig
	samples  []Sample
	width    int
	perSplit int
	rng      *rand.Rand
}

type split struct {
	feature   int
	threshold float64
	sse       float64
	at        int
	order     []int
}

func (b *treeBuilder) build(idx []int, depth int) *Node {
	mean, sse := b.stats(idx)
	if depth >= b.cfg.MaxDepth || len(idx) < 2*b.cfg.MinLeaf || sse <= 1e-12 {
		return &Node{Leaf: true, Value: mean}
	}

	best := split{sse: sse}
	found := false
	for _, feature := range b.rng.Perm(b.width)[:b.perSplit] {
		if s, ok := b.bestSplit(idx, feature); ok && s.sse < best.sse {
			best = s
			found = true
		}
	}
	if !found {
		return &Node{Leaf: true, Value: mean}
	}

	return &Node{
		Feature:   best.feature,
		Threshold: best.threshold,
		Left:      b.build(best.order[:best.at], depth+1),
		Right:     b.build(best.order[best.at:], depth+1),
	}
}

func (b *treeBuilder) stats(idx []int) (mean, sse float64) {
	var sum, sumSq float64
	for _, i := range idx {
		y := b.samples[i].Target
		sum += y
		sumSq += y * y
	}
	n := float64(len(idx))
	mean = sum / n
	return mean, sumSq - sum*sum/n
}

// bestSplit sweeps the samples sorted by one feature and returns the threshold that
// minimises the summed squared error of the two children.
func (b *treeBuilder) bestSplit(idx []int, feature int) (split, bool) {
	order := make([]int, len(idx))
	copy(order, idx)
	sort.SliceStable(order, func(i, j int) bool {
		return b.samples[order[i]].Features[feature] < b.samples[order[j]].Features[feature]
	})

	var totalSum, totalSq float64
	for _, i := range order {
		y := b.samples[i].Target
		totalSum += y
		totalSq += y * y
	}

	best := split{feature: feature, sse: math.Inf(1)}
	var leftSum, leftSq float64
	n := len(order)
	for k := 1; k < n; k++ {
		y := b.samples[order[k-1]].Target
		leftSum += y
		leftSq += y * y

		if k < b.cfg.MinLeaf || n-k < b.cfg.MinLeaf {
			continue
		}
		lo := b.samples[order[k-1]].Features[feature]
		hi := b.samples[order[k]].Features[feature]
		if lo == hi {
			continue
		}

		rightSum := totalSum - leftSum
		rightSq := totalSq - leftSq
		sse := (leftSq - leftSum*leftSum/float64(k)) + (rightSq - rightSum*rightSum/float64(n-k))
		if sse < best.sse {
			best.sse = sse
			best.threshold = (lo + hi) / 2
			best.at = k
		}
	}
	if math.IsInf(best.sse, 1) {
		return split{}, false
	}
	best.order = order
	return best, true
}
