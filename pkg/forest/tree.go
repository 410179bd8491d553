package forest

import (
	"math"
	"math/rand"
	"sort"
)

// featureThreshold mirrors the minimum gap between two feature values
// for a split to be placed between them.
const featureThreshold = 1e-7

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
	leaf      bool
}

// Tree is a CART regression tree grown on squared error.
type Tree struct {
	nodes []node
}

type treeParams struct {
	maxDepth       int
	minSamplesLeaf int
}

type grower struct {
	X      [][]float64
	y      []float64
	params treeParams
	rng    *rand.Rand
	nodes  []node

	// scratch buffer reused across split searches
	order []int
}

// growTree fits a tree on the rows listed in idx. Duplicate indices count as
// repeated samples, which is how bootstrap draws enter the tree.
func growTree(X [][]float64, y []float64, idx []int, p treeParams, rng *rand.Rand) *Tree {
	g := &grower{
		X:      X,
		y:      y,
		params: p,
		rng:    rng,
		order:  make([]int, len(idx)),
	}
	work := append([]int(nil), idx...)
	g.build(work, 0)
	return &Tree{nodes: g.nodes}
}

func (g *grower) build(idx []int, depth int) int {
	id := len(g.nodes)
	mean, sse := meanSSE(g.y, idx)
	g.nodes = append(g.nodes, node{value: mean, leaf: true})

	n := len(idx)
	if depth >= g.params.maxDepth || n < 2 || n < 2*g.params.minSamplesLeaf || sse <= 0 {
		return id
	}

	feature, threshold, ok := g.bestSplit(idx)
	if !ok {
		return id
	}

	// partition in place: left side keeps x <= threshold
	i, j := 0, n-1
	for i <= j {
		if g.X[idx[i]][feature] <= threshold {
			i++
		} else {
			idx[i], idx[j] = idx[j], idx[i]
			j--
		}
	}
	if i == 0 || i == n {
		return id
	}

	left := g.build(idx[:i], depth+1)
	right := g.build(idx[i:], depth+1)
	g.nodes[id] = node{
		feature:   feature,
		threshold: threshold,
		left:      left,
		right:     right,
		value:     mean,
	}
	return id
}

// bestSplit scans every feature in random order and returns the split that
// maximizes the reduction in squared error. Earlier features win ties.
func (g *grower) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	minLeaf := g.params.minSamplesLeaf
	if minLeaf < 1 {
		minLeaf = 1
	}

	var total float64
	for _, i := range idx {
		total += g.y[i]
	}

	bestScore := math.Inf(-1)
	bestFeature := -1
	var bestThreshold float64

	order := g.order[:n]
	nf := len(g.X[idx[0]])
	for _, f := range g.rng.Perm(nf) {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool {
			return g.X[order[a]][f] < g.X[order[b]][f]
		})
		if g.X[order[n-1]][f] <= g.X[order[0]][f]+featureThreshold {
			continue
		}

		var sumLeft float64
		for k := 1; k < n; k++ {
			sumLeft += g.y[order[k-1]]
			if k < minLeaf || n-k < minLeaf {
				continue
			}
			lo := g.X[order[k-1]][f]
			hi := g.X[order[k]][f]
			if hi <= lo+featureThreshold {
				continue
			}
			sumRight := total - sumLeft
			// minimizing child SSE is maximizing sum^2/count over both children
			score := sumLeft*sumLeft/float64(k) + sumRight*sumRight/float64(n-k)
			if score > bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold == hi || math.IsInf(bestThreshold, 0) {
					bestThreshold = lo
				}
			}
		}
	}
	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func meanSSE(y []float64, idx []int) (float64, float64) {
	if len(idx) == 0 {
		return 0, 0
	}
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	mean := sum / float64(len(idx))
	var sse float64
	for _, i := range idx {
		d := y[i] - mean
		sse += d * d
	}
	return mean, sse
}

// Predict walks x down to a leaf.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.leaf {
			return n.value
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// Depth is the length of the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.nodes[i]
		if n.leaf {
			return 0
		}
		return 1 + max(walk(n.left), walk(n.right))
	}
	return walk(0)
}
