/*
Package variables holds the live narrative state of one project.

A Manager owns variable definitions and values, a bounded change history,
snapshots, branch conditions that gate choices, scene actions and the
tracking of a single playthrough. Create one Manager per project, session
or test; nothing is shared between instances.

Mutations fail soft: they return false instead of an error when the
variable is unknown, the value has the wrong type or a constraint is
violated.

	m := variables.New(condition.New())
	_ = m.Register(domain.Variable{ID: "trust", Type: domain.KindNumber})
	m.SetValue("trust", domain.Number(40), domain.SourceUser, "")

# Notifications

Listeners registered with Subscribe and SubscribeAll, and the Hooks given
to New, run after the mutating call has released the manager's lock but
before it returns. Deliveries are queued: a listener that mutates state
does not recurse, its own notifications are delivered after every listener
of the current change has run. A cascade longer than 10000 changes is cut
off and logged.

# Import

Import validates the whole document before assigning anything. On error
the manager is left exactly as it was.
*/
package variables
