// Package interact maps continuous pointer gestures onto discrete graph
// mutations and viewport changes.
//
// A Controller is a finite-state machine over pointer-down/move/up events
// with states Idle, DraggingDevice, Panning, and LinkDrawing. At most one
// gesture is active at a time: each gesture's start condition is gated on
// a distinct input source (left-down on a device body, right-down on
// empty canvas, any-button-down on a port pin), so two gestures can never
// overlap by construction.
//
// On gesture entry the controller attaches move/finish/cancel hooks
// scoped to that gesture and guarantees their removal on every exit path,
// clean release and cancellation alike.
package interact
