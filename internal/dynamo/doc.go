// Package dynamo provides the shared primitives of the phase-portrait engine.
//
// The package defines the vocabulary every other package speaks:
//
//   - [Vec2]: a local chart coordinate or a vector of the field
//   - [Point]: a point on the active sphere (Poincaré or Poincaré–Lyapunov)
//   - [Chart]: the finite plane R2 and the four charts U1, V1, U2, V2 at infinity
//   - [Sphere]: which compactification is in use, with its weights (p,q)
//   - [Config]: the integration configuration read by every integration call
//   - [Renderer], [Canceller], [Progress], [StepReporter]: collaborators the
//     engine calls back into
//
// # Example
//
//	cfg := dynamo.DefaultConfig()
//	atlas := chart.New(dynamo.PoincareSphere())
//	ev, _ := field.New(atlas.Sphere(), p, q, nil, cfg.Kind)
//	sess := orbit.NewSession(atlas, ev, cfg, renderer, nil)
//	curve, _ := sess.Orbit(atlas.R2ToSphere(0.5, 0), +1)
//
// # Thread Safety
//
// Nothing in the engine is safe for concurrent use. Integration is
// synchronous: one call completes before the next begins.
package dynamo
