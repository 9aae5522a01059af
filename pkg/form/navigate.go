package form

// CurrentStep returns the index of the visible step.
func (e *Engine) CurrentStep() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// HighestStep returns the furthest step index reached so far.
func (e *Engine) HighestStep() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.highest
}

// IsLastStep reports whether the visible step is the final one.
func (e *Engine) IsLastStep() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current >= len(e.steps)-1
}

// Next validates the visible step and advances when it passes. Failing
// fields get their messages and the index stays put. On the last step a
// passing Next does nothing.
func (e *Engine) Next() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.submitted {
		return ErrSubmitted
	}
	if len(e.steps) == 0 {
		return nil
	}
	step := e.steps[e.current]
	ok, errs := e.validator.Step(step, e.values)
	for _, field := range step.Fields {
		delete(e.errors, field.Name)
	}
	if !ok {
		for name, msg := range errs {
			e.errors[name] = msg
		}
		return &ValidationError{Step: e.current, Fields: errs}
	}
	if e.current < len(e.steps)-1 {
		e.current++
		if e.current > e.highest {
			e.highest = e.current
		}
	}
	return nil
}

// Previous moves back one step without validating. It does nothing on the
// first step.
func (e *Engine) Previous() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.submitted {
		return ErrSubmitted
	}
	if e.current > 0 {
		e.current--
	}
	return nil
}

// GoTo jumps to any step up to the furthest one reached. Steps are not
// re-validated on the way.
func (e *Engine) GoTo(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.submitted {
		return ErrSubmitted
	}
	if index < 0 || index >= len(e.steps) {
		return ErrStepOutOfRange
	}
	if index > e.highest {
		return ErrStepLocked
	}
	e.current = index
	return nil
}
