// Demo: interactive layout viewer over a synthetic disease graph.
//
// Drag to pan, scroll or pinch to zoom, click a node to select it, hold to
// inspect, press B to print the serialized layout size.
package main

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phenomap/phenomap"
)

const (
	screenWidth  = 1280
	screenHeight = 800
	nodeCount    = 400
	edgeCount    = 700
)

func syntheticDataset() *phenomap.GraphDataset {
	rng := rand.New(rand.NewSource(7))

	nodes := make([]*phenomap.Node, nodeCount)
	for i := range nodes {
		nodes[i] = &phenomap.Node{
			ID:         phenomap.NodeID(i),
			Label:      fmt.Sprintf("phenotype %d", i),
			Slug:       fmt.Sprintf("phenotype-%d", i),
			CategoryID: rng.Intn(8),
		}
	}

	edges := make([]*phenomap.Edge, edgeCount)
	for i := range edges {
		edges[i] = &phenomap.Edge{
			ID:         int32(i),
			Source:     phenomap.NodeID(rng.Intn(nodeCount)),
			Target:     phenomap.NodeID(rng.Intn(nodeCount)),
			Weight:     0.5 + rng.Float64()*2,
			PrevRatio:  rng.Float64(),
			Prevalence: rng.Float64() * 0.1,
		}
	}

	return phenomap.NewGraphDataset(nodes, edges)
}

func main() {
	stage := phenomap.NewStage(phenomap.StageConfig{
		Width:  screenWidth,
		Height: screenHeight,
	})

	stage.SelectionChanged.ConnectFunc(func(args ...any) {
		id := args[0].(phenomap.NodeID)
		if id == phenomap.NoNode {
			log.Println("selection cleared")
		} else {
			log.Printf("selected %s", stage.Dataset().Nodes[id].Label)
		}
	})
	stage.SnapshotReady.ConnectFunc(func(args ...any) {
		doc := args[0].(*phenomap.SaveDocument)
		log.Printf("snapshot: %d nodes, %d buffers", len(doc.Nodes), len(doc.DataBuffers))
	})

	if err := stage.Init(syntheticDataset()); err != nil {
		log.Fatal(err)
	}
	defer stage.Dispose()

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("phenomap viewer")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(stage); err != nil {
		log.Fatal(err)
	}
}
