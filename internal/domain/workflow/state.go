package workflow

// State is a lifecycle status that a state machine can hold.
type State interface {
	~string
	IsValid() bool
	IsTerminal() bool
}

// Trigger is an action that may move a state machine between states.
type Trigger interface {
	~string
}
