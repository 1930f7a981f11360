package tuning

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/loopsim/internal/control"
)

var ErrUnknownRule = errors.New("tuning: unknown rule")

// Rule maps the ultimate gain and period to controller gains.
type Rule struct {
	Name        string
	Description string
	Gains       func(ku, tu float64) control.Gains
}

var Rules = map[string]Rule{
	"ziegler-nichols": {
		Name:        "ziegler-nichols",
		Description: "classic Ziegler-Nichols PID",
		Gains: func(ku, tu float64) control.Gains {
			return control.Gains{Kp: 0.6 * ku, Ki: 1.2 * ku / tu, Kd: 0.075 * ku * tu}
		},
	},
	"ziegler-nichols-pi": {
		Name:        "ziegler-nichols-pi",
		Description: "Ziegler-Nichols PI",
		Gains: func(ku, tu float64) control.Gains {
			return control.Gains{Kp: 0.45 * ku, Ki: 0.45 * ku / (tu / 1.2)}
		},
	},
	"ziegler-nichols-p": {
		Name:        "ziegler-nichols-p",
		Description: "Ziegler-Nichols proportional only",
		Gains: func(ku, tu float64) control.Gains {
			return control.Gains{Kp: 0.5 * ku}
		},
	},
	"ziegler-nichols-some-overshoot": {
		Name:        "ziegler-nichols-some-overshoot",
		Description: "Ziegler-Nichols PID, reduced overshoot",
		Gains: func(ku, tu float64) control.Gains {
			return control.Gains{Kp: 0.333 * ku, Ki: 0.666 * ku / tu, Kd: 0.111 * ku * tu}
		},
	},
	"ziegler-nichols-no-overshoot": {
		Name:        "ziegler-nichols-no-overshoot",
		Description: "Ziegler-Nichols PID, no overshoot",
		Gains: func(ku, tu float64) control.Gains {
			return control.Gains{Kp: 0.2 * ku, Ki: 0.4 * ku / tu, Kd: 0.0666 * ku * tu}
		},
	},
	"cohen-coon": {
		Name:        "cohen-coon",
		Description: "Cohen-Coon PID from ultimate parameters",
		Gains: func(ku, tu float64) control.Gains {
			return control.Gains{Kp: 0.9 * ku / 1.35, Ki: 1.35 * ku / (2.5 * tu), Kd: 0.27 * ku * tu / 1.35}
		},
	},
	"imc": {
		Name:        "imc",
		Description: "internal model control PID",
		Gains: func(ku, tu float64) control.Gains {
			return control.Gains{Kp: 0.5 * ku, Ki: 0.5 * ku / tu, Kd: 0.125 * ku * tu}
		},
	},
	"tyreus-luyben": {
		Name:        "tyreus-luyben",
		Description: "Tyreus-Luyben PID, conservative",
		Gains: func(ku, tu float64) control.Gains {
			return control.Gains{Kp: 0.4545 * ku, Ki: 0.2066 * ku / tu, Kd: 0.0721 * ku * tu}
		},
	},
}

func RuleNames() []string {
	names := make([]string, 0, len(Rules))
	for name := range Rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply looks up a rule by name and evaluates it.
func Apply(name string, ku, tu float64) (control.Gains, error) {
	rule, ok := Rules[name]
	if !ok {
		return control.Gains{}, fmt.Errorf("%w: %s (available: %v)", ErrUnknownRule, name, RuleNames())
	}
	return rule.Gains(ku, tu), nil
}
