package results

import (
	ssf "github.com/jdemetra/jdemetra-core-sub001"
)

// Multi forwards filter states to several sinks.
// It implements ssf.DiffuseSink: diffuse states are forwarded with SaveDiffuse to the
// sinks supporting it and with Save to the others.
type Multi struct {
	sinks []ssf.Sink
}

// NewMulti creates new Multi sink forwarding to sinks
func NewMulti(sinks ...ssf.Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Prepare prepares all the sinks
func (m *Multi) Prepare(mod ssf.Model, d ssf.Data) error {
	for _, s := range m.sinks {
		if err := s.Prepare(mod, d); err != nil {
			return err
		}
	}

	return nil
}

// Save forwards st to all the sinks
func (m *Multi) Save(pos int, st *ssf.State) error {
	for _, s := range m.sinks {
		if err := s.Save(pos, st); err != nil {
			return err
		}
	}

	return nil
}

// SaveDiffuse forwards st to all the sinks
func (m *Multi) SaveDiffuse(pos int, st *ssf.DiffuseState) error {
	for _, s := range m.sinks {
		var err error
		if ds, ok := s.(ssf.DiffuseSink); ok {
			err = ds.SaveDiffuse(pos, st)
		} else {
			err = s.Save(pos, &st.State)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// CloseDiffuse forwards the end of the diffuse phase to the sinks supporting it
func (m *Multi) CloseDiffuse(pos int) error {
	for _, s := range m.sinks {
		if ds, ok := s.(ssf.DiffuseSink); ok {
			if err := ds.CloseDiffuse(pos); err != nil {
				return err
			}
		}
	}

	return nil
}

// Close closes all the sinks
func (m *Multi) Close() error {
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			return err
		}
	}

	return nil
}
