package formula

func registerLogic(r *Registry) {
	r.Register("IF", FamilyLogic, ifFn)
	r.Register("IFERROR", FamilyLogic, ifError)
	r.Register("AND", FamilyLogic, func(_ *Runtime, args []Value) (Value, error) {
		for _, a := range Flatten(args) {
			if !ToBool(a) {
				return false, nil
			}
		}
		return len(args) > 0, nil
	})
	r.Register("OR", FamilyLogic, func(_ *Runtime, args []Value) (Value, error) {
		for _, a := range Flatten(args) {
			if ToBool(a) {
				return true, nil
			}
		}
		return false, nil
	})
	r.Register("NOT", FamilyLogic, func(_ *Runtime, args []Value) (Value, error) {
		if len(args) != 1 {
			return "", nil
		}
		return !ToBool(args[0]), nil
	})
	r.Register("ARRAY", FamilyLogic, func(_ *Runtime, args []Value) (Value, error) {
		out := make([]Value, len(args))
		copy(out, args)
		return out, nil
	})
}

// IF(cond, then[, else])
func ifFn(_ *Runtime, args []Value) (Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return "", nil
	}
	if ToBool(args[0]) {
		return args[1], nil
	}
	if len(args) == 3 {
		return args[2], nil
	}
	return "", nil
}

// IFERROR(value, fallback) replaces empty or NaN values.
func ifError(_ *Runtime, args []Value) (Value, error) {
	if len(args) != 2 {
		return "", nil
	}
	if IsEmpty(args[0]) {
		return args[1], nil
	}
	return args[0], nil
}
