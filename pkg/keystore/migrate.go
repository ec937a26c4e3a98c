package keystore

// Action is what must happen to a stored record before the identity-bound
// flow can use the key it lives under.
type Action int

const (
	// ActionKeep means the record is already identity bound.
	ActionKeep Action = iota
	// ActionDeleteAndReenroll means the record must be deleted and the user
	// must enroll again, either with a new TOTP secret or by entering their
	// existing one.
	ActionDeleteAndReenroll
)

func (a Action) String() string {
	switch a {
	case ActionKeep:
		return "keep"
	case ActionDeleteAndReenroll:
		return "delete_and_reenroll"
	}
	return "unknown"
}

// Migrate decides the fate of a record. Old schemes are never re-encrypted:
// the key material they were written with cannot be trusted to still be
// reproducible.
func Migrate(r Record) Action {
	switch r.Scheme {
	case SchemeIdentityBound:
		return ActionKeep
	case SchemeLegacy, SchemeDeviceBound, SchemeMalformed:
		return ActionDeleteAndReenroll
	}
	return ActionDeleteAndReenroll
}
