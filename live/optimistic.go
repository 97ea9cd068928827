package live

// MutationState tracks one entity-interaction attempt through the
// optimistic write path.
type MutationState string

const (
	MutationUnacted     MutationState = "UNACTED"
	MutationActing      MutationState = "ACTING"
	MutationActed       MutationState = "ACTED"
	MutationRollingBack MutationState = "ROLLING_BACK"
)

// optimisticMutation is the shared shape behind every counter-like
// interaction: flip local state synchronously, run the backend write, and
// compensate on failure. Failure is terminal for the attempt - there is no
// retry, the user must re-trigger. A second invocation while commit is
// outstanding is not blocked; the single-writer queue closing that gap is a
// deliberate non-feature for now.
type optimisticMutation struct {
	// apply patches local state before any network call; the UI reflects the
	// action immediately.
	apply func()
	// revert restores the exact pre-apply state.
	revert func()
	// commit performs the backend write.
	commit func() error
	// onState, when set, observes every state transition. Used by tests.
	onState func(MutationState)
}

func (m optimisticMutation) run() error {
	m.observe(MutationActing)
	m.apply()

	if err := m.commit(); err != nil {
		m.observe(MutationRollingBack)
		m.revert()
		m.observe(MutationUnacted)
		return err
	}

	m.observe(MutationActed)
	return nil
}

func (m optimisticMutation) observe(s MutationState) {
	if m.onState != nil {
		m.onState(s)
	}
}
