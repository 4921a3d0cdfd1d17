package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/spindle/internal/executor"
)

// Scenario defines one conformance scenario: a topology, a dispatch
// policy and a script of cycles.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden
	// file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Capacity is the executor's handle-table capacity.
	Capacity int `yaml:"capacity"`

	// Semantics selects the scheduling policy: "rclcpp" (default) or
	// "let".
	Semantics string `yaml:"semantics,omitempty"`

	// Trigger selects the built-in trigger: "any" (default), "all" or
	// "always".
	Trigger string `yaml:"trigger,omitempty"`

	// Subscriptions declares the registered topics, in insertion order.
	Subscriptions []SubscriptionSpec `yaml:"subscriptions"`

	// Cycles scripts the run: each entry publishes its messages, then
	// spins the executor once.
	Cycles []CycleStep `yaml:"cycles"`
}

// SubscriptionSpec declares one registered subscription.
type SubscriptionSpec struct {
	// Topic is the topic to subscribe to.
	Topic string `yaml:"topic"`

	// Invocation is "on_new_data" (default) or "always".
	Invocation string `yaml:"invocation,omitempty"`
}

// CycleStep scripts one spin cycle.
type CycleStep struct {
	// Publish lists the messages fed before the spin.
	Publish []PublishStep `yaml:"publish,omitempty"`

	// TimeoutMS is the wait timeout for this cycle's spin, default 100.
	TimeoutMS int `yaml:"timeout_ms,omitempty"`
}

// PublishStep is one fed message.
type PublishStep struct {
	Topic   string `yaml:"topic"`
	Payload string `yaml:"payload"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// Validate checks required fields and enumerations.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive")
	}
	if len(s.Subscriptions) == 0 {
		return fmt.Errorf("at least one subscription is required")
	}
	if len(s.Cycles) == 0 {
		return fmt.Errorf("at least one cycle is required")
	}
	if _, err := s.semantics(); err != nil {
		return err
	}
	if _, err := s.trigger(); err != nil {
		return err
	}
	for i, sub := range s.Subscriptions {
		if sub.Topic == "" {
			return fmt.Errorf("subscriptions[%d]: topic is required", i)
		}
		if _, err := sub.invocation(); err != nil {
			return fmt.Errorf("subscriptions[%d]: %w", i, err)
		}
	}
	for i, cycle := range s.Cycles {
		for j, pub := range cycle.Publish {
			if pub.Topic == "" {
				return fmt.Errorf("cycles[%d].publish[%d]: topic is required", i, j)
			}
		}
		if cycle.TimeoutMS < 0 {
			return fmt.Errorf("cycles[%d]: timeout_ms must be non-negative", i)
		}
	}
	return nil
}

func (s *Scenario) semantics() (executor.Semantics, error) {
	switch s.Semantics {
	case "", "rclcpp":
		return executor.SemanticsRclcppLike, nil
	case "let":
		return executor.SemanticsLET, nil
	default:
		return 0, fmt.Errorf("unknown semantics %q", s.Semantics)
	}
}

func (s *Scenario) trigger() (executor.Trigger, error) {
	switch s.Trigger {
	case "", "any":
		return executor.TriggerAny, nil
	case "all":
		return executor.TriggerAll, nil
	case "always":
		return executor.TriggerAlways, nil
	default:
		return nil, fmt.Errorf("unknown trigger %q", s.Trigger)
	}
}

func (s SubscriptionSpec) invocation() (executor.Invocation, error) {
	switch s.Invocation {
	case "", "on_new_data":
		return executor.OnNewData, nil
	case "always":
		return executor.Always, nil
	default:
		return 0, fmt.Errorf("unknown invocation %q", s.Invocation)
	}
}
