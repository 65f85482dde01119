package userauth

// AccountState describes where a user sits in the activation lifecycle.
type AccountState string

const (
	StatePendingActivation AccountState = "pending_activation"
	StateActive            AccountState = "active"
)

// StateOf derives the lifecycle state from the persisted flags.
func StateOf(u *User) AccountState {
	if u != nil && u.IsActive {
		return StateActive
	}
	return StatePendingActivation
}

// transitionToActive flips a user into the active state. Activating an
// already active account is a no-op, callers treat it as success.
func transitionToActive(u *User) (changed bool) {
	if StateOf(u) == StateActive {
		return false
	}
	u.IsActive = true
	return true
}
