package benchmarks_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/zoobzio/noema"
)

func BenchmarkWorkingMemoryStore(b *testing.B) {
	ctx := context.Background()
	wm := noema.NewWorkingMemory(noema.DefaultWorkingMemoryConfig(), nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wm.Store(ctx, noema.Text(fmt.Sprintf("item %d", i)), nil)
	}
}

func BenchmarkWorkingMemoryFuzzyRetrieve(b *testing.B) {
	ctx := context.Background()
	wm := noema.NewWorkingMemory(noema.DefaultWorkingMemoryConfig(), nil)
	for i := 0; i < 7; i++ {
		wm.Store(ctx, noema.Text(fmt.Sprintf("stored fact number %d", i)), nil)
	}
	cue := noema.Text("stored fact number 3")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wm.Retrieve(ctx, cue, noema.RetrieveFuzzy)
	}
}

func BenchmarkSemanticSpread(b *testing.B) {
	network := noema.NewSemanticNetwork()
	for i := 0; i < 100; i++ {
		network.AddEdge(fmt.Sprintf("concept-%d", i), fmt.Sprintf("concept-%d", (i+1)%100), 0.8)
		network.AddEdge(fmt.Sprintf("concept-%d", i), fmt.Sprintf("concept-%d", (i+7)%100), 0.6)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		network.Spread("concept-0", 3)
	}
}

func BenchmarkHRMProcess(b *testing.B) {
	hrm := noema.NewHRM(noema.DefaultHRMConfig(), nil)
	problem := noema.Text("benchmark problem statement with several tokens")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		hrm.Process(problem)
	}
}

func BenchmarkConductorRunSystem1(b *testing.B) {
	ctx := context.Background()
	conductor := noema.NewConductor()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		conductor.Run(ctx, noema.Text(fmt.Sprintf("short problem %d", i)), nil)
	}
}

func BenchmarkConductorRunSystem2(b *testing.B) {
	ctx := context.Background()
	conductor := noema.NewConductor()
	override := map[string]noema.Content{"complexity": noema.Scalar(0.9)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		conductor.Run(ctx, noema.Text("first clause. second clause. third clause."), override)
	}
}
