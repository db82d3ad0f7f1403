package knob

// Snapshot is an angle/value pair taken atomically from a knob.
type Snapshot struct {
	Angle float64 `json:"angle"`
	Value float64 `json:"value"`
}

// Observer is notified on mount and after every Angle Model mutation. It runs
// synchronously inside the mutating call and must not mutate the knob.
type Observer interface {
	OnMount(Snapshot)
	OnChange(Snapshot)
}

// ObserverFunc adapts a function to Observer; it receives both mount and
// change notifications.
type ObserverFunc func(Snapshot)

func (f ObserverFunc) OnMount(s Snapshot)  { f(s) }
func (f ObserverFunc) OnChange(s Snapshot) { f(s) }

// ApplyAngle clamps a to the angular travel, derives the value and commits the
// pair.
func (k *Knob) ApplyAngle(a float64) Snapshot {
	return k.commit(a)
}

// ApplyValue clamps and quantizes v, converts it to an angle and commits
// through the same path as ApplyAngle.
func (k *Knob) ApplyValue(v float64) Snapshot {
	v = Quantize(Clamp(v, k.cfg.MinValue, k.cfg.MaxValue), k.cfg.Step)
	v = Clamp(v, k.cfg.MinValue, k.cfg.MaxValue)
	return k.commit(k.cfg.ValueToAngle(v))
}

// commit is the only writer of k.cur. The value is always derived from the
// stored angle, and the pair is replaced in one assignment before observers
// run, so a reentrant read never sees a torn pair.
func (k *Knob) commit(a float64) Snapshot {
	angle := Clamp(a, k.cfg.MinAngle, k.cfg.MaxAngle)
	k.cur = Snapshot{Angle: angle, Value: k.cfg.AngleToValue(angle)}
	snap := k.cur
	for _, o := range k.observers {
		o.OnChange(snap)
	}
	return snap
}

// Snapshot returns the current angle/value pair.
func (k *Knob) Snapshot() Snapshot {
	return k.cur
}

// Angle returns the current angle in degrees.
func (k *Knob) Angle() float64 { return k.cur.Angle }

// Value returns the current domain value.
func (k *Knob) Value() float64 { return k.cur.Value }
