// Package pipeline provides a framework for executing scan phases in
// sequence.
//
// A scan moves through fixed stages: project discovery, endpoint
// extraction, convention resolution, aggregation, and reconciliation.
// Each stage is implemented as a Step that receives the accumulated
// scan state and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function
// calls because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for large source trees
package pipeline
