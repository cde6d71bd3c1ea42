package fixtures

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smartcontractkit/test-operations/operations"
)

// Built-in step kinds.
const (
	KindFolder   = "folder"
	KindFile     = "file"
	KindDelay    = "delay"
	KindSequence = "sequence"
	KindGroup    = "group"
)

// Plan describes a fixture as a tree of steps. The top level steps run as a
// sequence.
//
//	root: /tmp/fixture
//	steps:
//	  - folder: a
//	  - group:
//	      required: 1
//	      steps:
//	        - file: {path: a/x.txt, content: hello}
//	        - file: {path: a/y.txt}
//
// Paths in folder and file steps are relative to Root.
type Plan struct {
	Root  string `yaml:"root"`
	Steps []Step `yaml:"steps"`
}

// Step is a single plan entry: a mapping with exactly one key, the step kind,
// whose value is the step body.
type Step struct {
	Kind string
	body yaml.Node
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode || len(value.Content) != 2 {
		return fmt.Errorf("line %d: a step must be a mapping with exactly one kind", value.Line)
	}
	if err := value.Content[0].Decode(&s.Kind); err != nil {
		return err
	}
	s.body = *value.Content[1]

	return nil
}

// Decode decodes the step body into v.
func (s Step) Decode(v any) error {
	if err := s.body.Decode(v); err != nil {
		return fmt.Errorf("%s step: %w", s.Kind, err)
	}

	return nil
}

// FileStep is the body of a file step.
type FileStep struct {
	Path    string `yaml:"path"`
	Content string `yaml:"content"`
}

// DelayStep is the body of a delay step.
type DelayStep struct {
	Execute time.Duration `yaml:"execute"`
	Revert  time.Duration `yaml:"revert"`
}

// CompositeStep is the body of sequence and group steps. Required only applies
// to groups; when omitted every child must succeed.
type CompositeStep struct {
	Required *int   `yaml:"required"`
	Steps    []Step `yaml:"steps"`
}

// LoadPlan reads a plan from a YAML file.
func LoadPlan(path string) (*Plan, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParsePlan(b)
}

// ParsePlan parses a YAML plan.
func ParsePlan(b []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}

	return &p, nil
}

// Build turns the plan into a sequence using the builders in reg. The options
// are applied to every operation of the plan. Nothing is executed.
func (p *Plan) Build(reg *Registry, opts ...operations.Option) (*operations.Sequence, error) {
	if p.Root == "" {
		return nil, errors.New("plan root is required")
	}
	root, err := filepath.Abs(p.Root)
	if err != nil {
		return nil, err
	}
	b := &Builder{Root: Dir(root), Registry: reg, Options: opts}

	seq := operations.NewSequence(slices.Concat(opts, []operations.Option{operations.WithName("Plan")})...)
	if err := b.addAll(seq, p.Steps); err != nil {
		return nil, err
	}

	return seq, nil
}

// Builder carries the state shared by the step builders of one plan.
type Builder struct {
	Root     Location
	Registry *Registry
	Options  []operations.Option
}

// Build builds the operation for step.
func (b *Builder) Build(step Step) (operations.Operation, error) {
	fn, err := b.Registry.Retrieve(step.Kind)
	if err != nil {
		return nil, err
	}

	return fn(b, step)
}

func (b *Builder) addAll(c operations.Collection, steps []Step) error {
	for i, step := range steps {
		op, err := b.Build(step)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if err := c.Add(op); err != nil {
			return err
		}
	}

	return nil
}

// place splits a root relative path into its parent location and base name.
func (b *Builder) place(path string) (Location, string, error) {
	if err := checkName(path); err != nil {
		return nil, "", err
	}
	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		return b.Root, name, nil
	}

	return Join(b.Root, dir), name, nil
}

func buildFolder(b *Builder, step Step) (operations.Operation, error) {
	var path string
	if err := step.Decode(&path); err != nil {
		return nil, err
	}
	parent, name, err := b.place(path)
	if err != nil {
		return nil, err
	}

	return NewFolder(parent, name, b.Options...)
}

func buildFile(b *Builder, step Step) (operations.Operation, error) {
	var fs FileStep
	if err := step.Decode(&fs); err != nil {
		return nil, err
	}
	parent, name, err := b.place(fs.Path)
	if err != nil {
		return nil, err
	}

	return NewFile(parent, name, []byte(fs.Content), b.Options...)
}

func buildDelay(b *Builder, step Step) (operations.Operation, error) {
	var ds DelayStep
	if err := step.Decode(&ds); err != nil {
		return nil, err
	}

	return operations.NewDelay(ds.Execute, ds.Revert, b.Options...)
}

func buildSequence(b *Builder, step Step) (operations.Operation, error) {
	var cs CompositeStep
	if err := step.Decode(&cs); err != nil {
		return nil, err
	}
	seq := operations.NewSequence(b.Options...)
	if err := b.addAll(seq, cs.Steps); err != nil {
		return nil, err
	}

	return seq, nil
}

func buildGroup(b *Builder, step Step) (operations.Operation, error) {
	var cs CompositeStep
	if err := step.Decode(&cs); err != nil {
		return nil, err
	}
	group := operations.NewGroup(b.Options...)
	if cs.Required != nil {
		group.SetRequiredForSuccess(*cs.Required)
	}
	if err := b.addAll(group, cs.Steps); err != nil {
		return nil, err
	}

	return group, nil
}
