package taskexecutor_test

import (
	"context"
	"fmt"
	"time"

	taskexecutor "github.com/Swind/go-task-executor"
)

// ExampleSpawnFunc demonstrates the basic usage with only one import.
func ExampleSpawnFunc() {
	taskexecutor.InitGlobalPool(2)
	defer taskexecutor.ShutdownGlobalPool()

	h, err := taskexecutor.SpawnFunc(context.Background(), func(ctx context.Context) int {
		return 6 * 7
	})
	if err != nil {
		fmt.Println("spawn failed:", err)
		return
	}

	v, err := h.Await(context.Background())
	fmt.Println(v, err)

	// Output:
	// 42 <nil>
}

// ExampleBlockOn shows a task awaiting another task without blocking its
// worker, and a plain goroutine blocking on the outer handle.
func ExampleBlockOn() {
	taskexecutor.InitGlobalPool(2)
	defer taskexecutor.ShutdownGlobalPool()

	ctx := context.Background()
	var inner *taskexecutor.Handle[string]

	outer, _ := taskexecutor.Spawn[string](ctx, taskexecutor.FutureFunc[string](func(ctx context.Context, w taskexecutor.Waker) (string, bool) {
		if inner == nil {
			// Spawned from inside a task, so it is queued on this worker.
			inner, _ = taskexecutor.SpawnFunc(ctx, func(context.Context) string { return "world" })
		}
		r, ok := inner.Poll(ctx, w)
		if !ok {
			return "", false
		}
		return "hello " + r.Value, true
	}))

	r, err := taskexecutor.BlockOn(ctx, taskexecutor.Future[taskexecutor.Result[string]](outer))
	fmt.Println(r.Value, err)

	// Output:
	// hello world <nil>
}

// ExampleStopGraceful demonstrates draining a dedicated pool.
func ExampleStopGraceful() {
	cfg := taskexecutor.DefaultPoolConfig()
	cfg.ID = "example"
	cfg.WorkerCount = 1
	pool, err := taskexecutor.NewPoolWithConfig(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	sleep := pool.Sleep(10 * time.Millisecond)
	h, _ := taskexecutor.SpawnOn[string](context.Background(), pool, taskexecutor.FutureFunc[string](func(ctx context.Context, w taskexecutor.Waker) (string, bool) {
		if _, ok := sleep.Poll(ctx, w); !ok {
			return "", false
		}
		return "slept", true
	}))

	fmt.Println(taskexecutor.StopGraceful(pool, time.Second))
	v, _ := h.Await(context.Background())
	fmt.Println(v)

	// Output:
	// <nil>
	// slept
}
