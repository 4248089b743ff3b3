package dcsam

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SolverParams configures a Solver. The zero value leaves
// SkipOdometryDiscreteSolve disabled; DefaultSolverParams enables it.
type SolverParams struct {
	// SkipOdometryDiscreteSolve enables the step-5 "pure odometry" discrete
	// solve skip (spec §4.4 step 5 exception, §9 Open Question 4): purely an
	// optimization, never a correctness requirement.
	SkipOdometryDiscreteSolve bool `yaml:"skip_odometry_discrete_solve"`

	// DiscreteOrdering names an elimination ordering for configuration
	// files. Solver does not read it; Marginals takes its ordering as an
	// argument.
	DiscreteOrdering string `yaml:"discrete_ordering"`

	// MaxContinuousIterations and InitialLambda hold Gauss-Newton settings
	// for configuration files. Solver does not read them; the engine passed
	// to NewSolver keeps the settings it was constructed with.
	MaxContinuousIterations int     `yaml:"max_continuous_iterations"`
	InitialLambda           float64 `yaml:"initial_lambda"`
}

// DefaultSolverParams returns the recommended configuration: the pure
// odometry discrete-solve skip enabled, natural elimination ordering.
func DefaultSolverParams() SolverParams {
	return SolverParams{
		SkipOdometryDiscreteSolve: true,
		DiscreteOrdering:          "natural",
	}
}

// LoadSolverParams reads SolverParams from a YAML file, starting from
// DefaultSolverParams so an absent key keeps its default rather than
// zeroing out.
func LoadSolverParams(path string) (SolverParams, error) {
	params := DefaultSolverParams()
	data, err := os.ReadFile(path)
	if err != nil {
		return params, errors.Wrap(err, "reading solver params file")
	}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return params, errors.Wrap(err, "unmarshaling solver params")
	}
	return params, nil
}

// MarshalYAML implements yaml.Marshaler, mirroring go.viam.com/rdk's config
// structs that round-trip through YAML for on-disk persistence.
func (p SolverParams) MarshalYAML() (interface{}, error) {
	type plain SolverParams
	return plain(p), nil
}
