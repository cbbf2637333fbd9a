// Package search provides a graph-agnostic pathfinding engine.
//
// It runs single-source shortest-path searches over any graph that implements
// the Graph interface: goal-directed A* (ModeGoal) and multi-goal or budgeted
// Dijkstra exploration (ModeReach). Searches are configured on a Finder, run
// either synchronously on the calling goroutine or scheduled onto a bounded
// worker pool, and write into a reusable Result.
//
// The package also implements a deferred-disposal protocol: shared graph
// memory can be released safely while scheduled searches may still be reading
// it. The Registry tracks every scheduled Handle (including aborted ones) and
// gates graph release behind a joint dependency on all handles registered at
// disposal time.
//
// A minimal host looks like this:
//
//	eng := search.New[Cell](search.WithWorkers(4))
//	defer eng.Shutdown(context.Background())
//
//	f := eng.NewFinder()
//	f.SetGraph(grid, "grid-1")
//	f.SetStarts(start)
//	f.SetGoals(goal)
//	f.SetHeuristic(euclidean)
//
//	h, _ := f.Schedule(context.Background())
//	_ = h.Wait(context.Background())
//	eng.Pump() // completes the finder
//
//	res, _ := f.Result()
//	for cell := range res.Path(goal, false) {
//	    fmt.Println(cell)
//	}
//
// Hosts using Schedule must drive Engine.Pump (or Engine.Serve) regularly:
// the pump cycle is the only place asynchronous Finders transition out of
// Running.
package search
