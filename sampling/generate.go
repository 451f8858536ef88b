package sampling

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/zephyrtronium/calcgrade"
)

// Generate draws n independent sets of values for symbols. Symbols with no
// sampler in from use DefaultRealInterval. Dependent samplers are computed
// after the values they use, with sampled values shadowing the constants of
// ctx. Every failure is a *calcgrade.ConfigError.
func Generate(symbols []string, n int, from map[string]Sampler, ctx *calcgrade.Context, r *rand.Rand) ([]map[string]calcgrade.Value, error) {
	pending := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		pending[s] = true
	}
	var undefined []string
	for _, s := range symbols {
		d, ok := from[s].(*DependentSampler)
		if !ok {
			continue
		}
		for _, dep := range d.Depends() {
			if pending[dep] {
				continue
			}
			if _, err := ctx.Lookup(dep); err != nil {
				undefined = append(undefined, dep)
			}
		}
	}
	if len(undefined) != 0 {
		return nil, &calcgrade.ConfigError{Msg: "DependentSamplers depend on undefined quantities: " + joinset(undefined)}
	}

	samples := make([]map[string]calcgrade.Value, n)
	for i := range samples {
		m, err := generate(symbols, from, ctx, r)
		if err != nil {
			return nil, err
		}
		samples[i] = m
	}
	return samples, nil
}

// generate draws one set of values.
func generate(symbols []string, from map[string]Sampler, ctx *calcgrade.Context, r *rand.Rand) (map[string]calcgrade.Value, error) {
	m := make(map[string]calcgrade.Value, len(symbols))
	var deps []string
	for _, s := range symbols {
		smp := from[s]
		if smp == nil {
			smp = DefaultRealInterval()
		}
		if _, ok := smp.(*DependentSampler); ok {
			deps = append(deps, s)
			continue
		}
		v, err := smp.Sample(r)
		if err != nil {
			return nil, &calcgrade.ConfigError{Err: errors.Wrapf(err, "sampling %s", s)}
		}
		m[s] = v
	}
	for len(deps) != 0 {
		var rest []string
		for _, s := range deps {
			d := from[s].(*DependentSampler)
			if !ready(d, m, deps) {
				rest = append(rest, s)
				continue
			}
			v, err := d.compute(ctx, m)
			if err != nil {
				return nil, err
			}
			m[s] = v
		}
		if len(rest) == len(deps) {
			return nil, &calcgrade.ConfigError{Msg: "Circularly dependent DependentSamplers detected: " + joinset(rest)}
		}
		deps = rest
	}
	return m, nil
}

// ready reports whether every value d uses has been sampled. Names which are
// not waiting to be computed come from the context.
func ready(d *DependentSampler, sampled map[string]calcgrade.Value, waiting []string) bool {
	for _, dep := range d.Depends() {
		if _, ok := sampled[dep]; ok {
			continue
		}
		for _, w := range waiting {
			if w == dep {
				return false
			}
		}
	}
	return true
}

// joinset sorts names and joins them without duplicates.
func joinset(names []string) string {
	sort.Strings(names)
	var b strings.Builder
	for i, s := range names {
		if i > 0 && names[i-1] == s {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s)
	}
	return b.String()
}
