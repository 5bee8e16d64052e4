// Package taskexecutor provides a work-stealing task executor for Go.
//
// Tasks are lightweight pollable units of work (Futures) scheduled onto a
// fixed number of worker goroutines. Each worker owns a local queue; a
// shared injector takes external submissions. Idle workers steal from busy
// ones, and a monitor replaces workers that block inside a poll so the
// number of workers making progress stays constant.
//
// # Quick Start
//
// Initialize the global pool at application startup:
//
//	taskexecutor.InitGlobalPool(4) // 4 workers
//	defer taskexecutor.ShutdownGlobalPool()
//
// Spawn work and await the result:
//
//	h, err := taskexecutor.SpawnFunc(ctx, func(ctx context.Context) int {
//		return 42
//	})
//	if err != nil {
//		return err
//	}
//	v, err := h.Await(ctx)
//
// # Key Concepts
//
// Future: a computation with a Poll method. Poll either completes or
// returns pending after arranging for its Waker to be called. Plain
// closures are adapted with Ready, FromTask or SpawnFunc.
//
// Handle: returned by Spawn. It resolves exactly once, with the value, a
// *core.PanicError or ErrTaskCancelled. A Handle is itself a Future, so
// tasks can await each other without blocking a worker.
//
// Blocking: a task that blocks its worker for longer than
// PoolConfig.BlockingThreshold is left running while a fresh worker takes
// over its queue. Tasks that know they are about to block can call
// MarkBlocking to be replaced right away.
//
// Shutdown: ShutdownGraceful lets outstanding tasks finish;
// ShutdownImmediate cancels queued ones. Neither blocks; Wait and Done
// report completion.
//
// # Example
//
//	import (
//		"context"
//		taskexecutor "github.com/Swind/go-task-executor"
//		"github.com/Swind/go-task-executor/core"
//	)
//
//	func main() {
//		cfg := core.DefaultPoolConfig()
//		cfg.WorkerCount = 4
//		pool, err := core.NewPool(cfg)
//		if err != nil {
//			panic(err)
//		}
//		defer taskexecutor.StopGraceful(pool, time.Second)
//
//		parent, _ := core.Go(context.Background(), pool, func(ctx context.Context) {
//			// Spawning from a task queues the child on the same worker.
//			core.Go(ctx, pool, func(ctx context.Context) {
//				println("child")
//			})
//		})
//		parent.Await(context.Background())
//	}
//
// For more details, see https://github.com/Swind/go-task-executor
package taskexecutor
