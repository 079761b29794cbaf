package joint

// Source supplies the load cell's six raw strain channels as relayed
// through an actuator's auxiliary variables, along with the actuator's
// streaming status. Zeroing against a non-streaming source is refused by
// the engine, so Streaming must reflect whether fresh samples are actually
// arriving, not just whether the link is open.
type Source interface {
	Streaming() bool
	Genvars() ([6]uint16, error)
}

// Ensure Serial implements Source.
var _ Source = (*Serial)(nil)

// Ensure Mock implements Source.
var _ Source = (*Mock)(nil)
