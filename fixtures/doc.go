// Package fixtures provides file system fixture operations and a YAML plan
// format that assembles them into nested sequences and groups.
//
// A plan is built into an operations.Sequence:
//
//	plan, err := fixtures.LoadPlan("plan.yaml")
//	seq, err := plan.Build(fixtures.NewRegistry(), opts...)
//	defer seq.Close()
//	err = seq.Execute(ctx)
package fixtures
