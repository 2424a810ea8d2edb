package consent

// Status es el estado del ciclo de vida de un consent.
type Status string

const (
	StatusReceived            Status = "received"
	StatusPartiallyAuthorised Status = "partiallyAuthorised"
	StatusValid               Status = "valid"
	StatusRejected            Status = "rejected"
	StatusExpired             Status = "expired"
	StatusRevoked             Status = "revokedByPsu"
	StatusTerminatedByTpp     Status = "terminatedByTpp"
	StatusTerminatedByAspsp   Status = "terminatedByAspsp"
)

// IsFinalised indica si el estado es terminal.
// Un consent en estado terminal no admite más cambios de estado: la
// transición hacia el conjunto terminal es monotónica.
func (s Status) IsFinalised() bool {
	switch s {
	case StatusRejected, StatusExpired, StatusRevoked,
		StatusTerminatedByTpp, StatusTerminatedByAspsp:
		return true
	}
	return false
}

// IsValid indica si el string corresponde a un estado conocido.
func (s Status) IsValid() bool {
	switch s {
	case StatusReceived, StatusPartiallyAuthorised, StatusValid,
		StatusRejected, StatusExpired, StatusRevoked,
		StatusTerminatedByTpp, StatusTerminatedByAspsp:
		return true
	}
	return false
}

// NonFinalisedStatuses son los estados sobre los que opera la supresión de
// duplicados y el watchdog de confirmación.
func NonFinalisedStatuses() []Status {
	return []Status{StatusReceived, StatusPartiallyAuthorised, StatusValid}
}
