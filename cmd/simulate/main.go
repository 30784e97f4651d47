// Command simulate generates a synthetic vehicle trajectory over a small
// hand-built road network: it walks the graph with the trajectory
// sampler, draws noisy GPS fixes along the way, and records each step's
// best estimate of the sampled belief. The fixes are not fed back through
// a filter update; the recorded estimate is that of the generative belief.
// Output is a JSON trace consumed by cmd/plot-trajectory.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/lanefinder/roadtrack/internal/config"
	"github.com/lanefinder/roadtrack/internal/graph"
	"github.com/lanefinder/roadtrack/internal/observation"
	"github.com/lanefinder/roadtrack/internal/pathtrace"
	"github.com/lanefinder/roadtrack/internal/sampler"
	"github.com/lanefinder/roadtrack/internal/vehicle"
)

// buildNetwork returns a small two-street grid: a 400m east-west edge
// crossing a 300m north-south edge at the origin, each split either side
// of the intersection so NearbyEdges/Incoming/Outgoing have something to
// chew on.
func buildNetwork() *graph.MemoryView {
	return graph.NewMemoryView([]graph.EdgeSpec{
		{ID: 0, Geometry: []graph.Point{{X: -200, Y: 0}, {X: 0, Y: 0}}},
		{ID: 1, Geometry: []graph.Point{{X: 0, Y: 0}, {X: 200, Y: 0}}},
		{ID: 2, Geometry: []graph.Point{{X: 0, Y: -150}, {X: 0, Y: 0}}},
		{ID: 3, Geometry: []graph.Point{{X: 0, Y: 0}, {X: 0, Y: 150}}},
	})
}

type tracePoint struct {
	Time      time.Time `json:"time"`
	World     graph.Point `json:"world"`
	EstMean   graph.Point `json:"estMean"`
	EstMajor  graph.Point `json:"estMajor"`
	EstMinor  graph.Point `json:"estMinor"`
	Edge      graph.EdgeID `json:"edge"`
}

type trace struct {
	Edges  []graph.EdgeSpec `json:"edges"`
	Points []tracePoint     `json:"points"`
}

func main() {
	out := flag.String("o", "trace.json", "output trace path")
	steps := flag.Int("steps", 20, "number of observation steps to simulate")
	seed := flag.Uint64("seed", 1, "sampler seed (0 for a fresh random seed)")
	dt := flag.Duration("dt", 5*time.Second, "interval between simulated observations")
	flag.Parse()

	params := config.DefaultInitialParameters()
	if *seed != 0 {
		params.Seed = seed
	}

	filter, err := params.NewFilter()
	if err != nil {
		log.Fatalf("building filter: %v", err)
	}
	dist, err := params.NewTransitionDistribution()
	if err != nil {
		log.Fatalf("building transition distribution: %v", err)
	}
	rng, err := params.NewRand()
	if err != nil {
		log.Fatalf("building random source: %v", err)
	}

	view := buildNetwork()

	now := time.Time{}.Add(24 * time.Hour)
	initialObs, err := observation.New(now, graph.Point{}, graph.Point{X: -150, Y: 0}, nil)
	if err != nil {
		log.Fatalf("building initial observation: %v", err)
	}

	state, err := vehicle.NewInitial(filter, dist, initialObs, 0, view, 25)
	if err != nil {
		log.Fatalf("building initial state: %v", err)
	}

	result := trace{Edges: []graph.EdgeSpec{
		{ID: 0, Geometry: view.Geometry(0)},
		{ID: 1, Geometry: view.Geometry(1)},
		{ID: 2, Geometry: view.Geometry(2)},
		{ID: 3, Geometry: view.Geometry(3)},
	}}

	for i := 0; i < *steps; i++ {
		stepDt := state.Observation.DeltaT(vehicle.DefaultInitialDt)

		walk, err := sampler.TraverseEdge(filter, dist, view, rng, state.Belief, state.CurrentPathEdge(), stepDt.Seconds())
		if err != nil {
			log.Fatalf("step %d: traverse: %v", i, err)
		}

		endPE := pathtrace.EmptyPathEdge
		if !walk.Path.Empty() {
			endPE = walk.Path.Last()
		}

		z, err := sampler.SampleObservation(filter, rng, walk.Belief, endPE, view)
		if err != nil {
			log.Fatalf("step %d: sample observation: %v", i, err)
		}

		obsTime := now.Add(time.Duration(i+1) * (*dt))
		obs, err := observation.New(obsTime, graph.Point{}, z, state.Observation)
		if err != nil {
			log.Fatalf("step %d: observation: %v", i, err)
		}

		nextDist := state.Transition.Clone()
		nextDist.Observe(state.Edge, walk.EndEdge)

		next, err := vehicle.NewTransition(state, walk.Belief, walk.Path, endPE, nextDist, obs)
		if err != nil {
			log.Fatalf("step %d: building next state: %v", i, err)
		}
		state = next

		estimate, err := state.BestEstimate()
		if err != nil {
			log.Fatalf("step %d: best estimate: %v", i, err)
		}

		result.Points = append(result.Points, tracePoint{
			Time:     obsTime,
			World:    z,
			EstMean:  estimate.Mean,
			EstMajor: estimate.MajorAxis,
			EstMinor: estimate.MinorAxis,
			Edge:     state.Edge,
		})
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("marshaling trace: %v", err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatalf("writing trace: %v", err)
	}
	fmt.Printf("wrote %d points to %s\n", len(result.Points), *out)
}
