// Package phenomap is an interactive force-directed layout runtime for
// disease-relationship graphs, built on [Ebitengine].
//
// Phenomap encodes node and edge records into fixed-stride texel buffers,
// advances a two-pass spring/repulsion integration over ping-ponged state
// each frame, and ties simulation, camera control, rendering, and
// index-encoded picking together in a single per-frame orchestrator, the
// [Stage].
//
// # Quick start
//
// Build a [GraphDataset] from rows, hand it to a Stage, and run it as an
// [ebiten.Game]:
//
//	ds := phenomap.NewGraphDataset(nodes, edges)
//	stage := phenomap.NewStage(phenomap.StageConfig{Width: 1280, Height: 800})
//	if err := stage.Init(ds); err != nil {
//		log.Fatal(err)
//	}
//	ebiten.RunGame(stage)
//
// The Stage redraws only on change and disables Ebitengine's per-frame
// screen clear during [Stage.Init] so skipped frames keep the last image.
//
// The Stage exposes its outputs as [Signal] values: loading-complete
// (buffered), selection changes, hover changes, and filter-visibility
// changes. Hosts connect with [Signal.Connect] and never hold a direct
// reference to the runtime internals.
//
// # Coordinate spaces
//
// World space is the simulation plane the layout lives in. The [Camera]
// owns the orthographic projection between world and screen space and the
// cached inverse used for pan deltas, zoom-to-point, and picking.
//
// # Persistence
//
// A computed layout round-trips losslessly through a [SaveDocument]:
// typed numeric buffers are base64-encoded with an element-type tag and
// associative tables keep their entry order. See [EncodeDataset] and
// [DecodeDataset].
//
// [Ebitengine]: https://ebitengine.org
package phenomap
