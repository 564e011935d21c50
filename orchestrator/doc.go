// Package orchestrator provides the router and lifecycle coordinator at the
// center of taskmesh.
//
// Responsibilities:
//   - Agent registry with stable registration order
//   - Prefix routing (ordered table, first declared match wins)
//   - Lifecycle fan-out (Start/Stop every registered agent in order)
//   - Built-in system actions (system_status, system_agents,
//     system_shutdown, system_routes)
//   - Fault containment: every message is answered with a valid response,
//     whatever the target agent does
//
// Typical usage:
//
//	o := orchestrator.New(orchestrator.WithLogger(logger))
//	o.RegisterAgent(storageAgent)
//	o.RegisterAgent(taskAgent)
//	o.Start(ctx)
//	resp := o.Handle(ctx, msg)
package orchestrator
