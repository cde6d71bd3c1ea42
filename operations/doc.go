/*
Package operations provides reversible operations for building and tearing down
test fixtures in a structured, reliable, and traceable manner.

# Operations API

The Operations API enables:
- Defining fixture steps that can be executed and reverted
- Composing steps into sequences and concurrent groups
- Validating the outcome of every step with pluggable validators
- Tearing a fixture down with Cleanup without losing track of leaked steps

# Core Components

Operation:
  - Is either executed or not; Execute and Revert move it between the two states
  - Has a blocking and an asynchronous form of every lifecycle action
  - Is cleaned up exactly once; Cleanup suppresses every error

Leaves:
  - SyncImpl and AsyncImpl hold the action logic and own the executed flag
  - NewSync and NewAsync adapt them to the full Operation contract
  - Generic and Delay are ready-made leaves

Sequence and Group:
  - Sequence executes children in order and reverts them in reverse order
  - Group executes children concurrently, optionally tolerating failures

Validator:
  - Checks the outcome of execute and revert actions
  - Gets a cleanup hook when an execution was validated but never reverted

Pool:
  - Runs leaf actions and validator hooks
  - Is process-wide by default; see SetDefaultPool

Reporter:
  - Records every lifecycle action of an operation
  - Outstanding lists the operations still executed according to the reports

# Basic Usage

	// Build the fixture
	fixture := operations.NewSequence()
	_ = fixture.Add(operations.NewSync(createFolder))
	_ = fixture.Add(operations.NewSync(createFile))

	// Execute it and tear it down at the end of the test
	t.Cleanup(func() { fixture.Cleanup(context.Background()) })
	err := fixture.Execute(ctx)
*/
package operations
